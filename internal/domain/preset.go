package domain

import (
	"sort"
	"time"
)

// Preset is a named set of mods meant to be the exclusive active set
type Preset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ModIDs    []string  `json:"mod_ids"` // May reference mods that no longer exist
	CreatedAt time.Time `json:"created_at"`
}

// Contains reports whether the preset references the given mod id
func (p Preset) Contains(modID string) bool {
	for _, id := range p.ModIDs {
		if id == modID {
			return true
		}
	}
	return false
}

// IDSet returns the preset's mod ids as a set
func (p Preset) IDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.ModIDs))
	for _, id := range p.ModIDs {
		set[id] = struct{}{}
	}
	return set
}

// StaleIDs returns the preset's mod ids that are not present in mods, sorted
func (p Preset) StaleIDs(mods []Mod) []string {
	existing := ModSet(mods)
	var stale []string
	for _, id := range p.ModIDs {
		if _, ok := existing[id]; !ok {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	return stale
}

// UniqueIDs drops empty and duplicate ids, keeping first occurrence order
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ActivationDiff is the change needed to move the active set to a desired set
type ActivationDiff struct {
	ToActivate   []string
	ToDeactivate []string
}

// IsEmpty returns true if no activation changes are needed
func (d ActivationDiff) IsEmpty() bool {
	return len(d.ToActivate) == 0 && len(d.ToDeactivate) == 0
}

// ExportedPreset is the YAML-serializable format for sharing
type ExportedPreset struct {
	Name string              `yaml:"name"`
	Mods []ExportedPresetMod `yaml:"mods"`
}

// ExportedPresetMod carries the title alongside the opaque id for readability
type ExportedPresetMod struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title,omitempty"`
}
