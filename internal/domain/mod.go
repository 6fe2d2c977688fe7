package domain

import (
	"strings"
	"time"
)

// CharacterOther is the display group for mods without a character.
const CharacterOther = "other"

// Mod represents one installed mod package
type Mod struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Character string    `json:"character,omitempty"` // Empty means unassigned
	IsActive  bool      `json:"isActive"`            // Files are present in the active-mods directory
	DateAdded time.Time `json:"dateAdded"`
}

// CharacterName returns the mod's character, or CharacterOther when unassigned
func (m Mod) CharacterName() string {
	if strings.TrimSpace(m.Character) == "" {
		return CharacterOther
	}
	return m.Character
}

// ModPatch is a partial, non-authoritative update to a Mod.
// Nil fields are left untouched.
type ModPatch struct {
	Title     *string
	Character *string
	IsActive  *bool
}

// IsEmpty returns true if the patch sets no fields
func (p ModPatch) IsEmpty() bool {
	return p.Title == nil && p.Character == nil && p.IsActive == nil
}

// Apply returns a copy of m with the patch's fields applied
func (p ModPatch) Apply(m Mod) Mod {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Character != nil {
		m.Character = *p.Character
	}
	if p.IsActive != nil {
		m.IsActive = *p.IsActive
	}
	return m
}

// SetActive builds a patch that only changes IsActive
func SetActive(active bool) ModPatch {
	return ModPatch{IsActive: &active}
}

// ActiveSet returns the ids of all active mods
func ActiveSet(mods []Mod) map[string]struct{} {
	set := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		if m.IsActive {
			set[m.ID] = struct{}{}
		}
	}
	return set
}

// ModSet returns the ids of all mods
func ModSet(mods []Mod) map[string]struct{} {
	set := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		set[m.ID] = struct{}{}
	}
	return set
}

// Stats holds backend-computed counts. The client never derives these itself.
type Stats struct {
	InstalledMods int `json:"installedMods"`
	ActiveMods    int `json:"activeMods"`
	InactiveMods  int `json:"inactiveMods"`
	Presets       int `json:"presets"`
}
