package core

import (
	"sort"
	"strings"

	"modbridge/internal/domain"
)

// SortKey orders mod listings
type SortKey string

const (
	SortByTitle  SortKey = "title"
	SortByDate   SortKey = "date"   // Newest first
	SortByActive SortKey = "active" // Active first, then title
)

// SortKeys lists the keys in cycling order
var SortKeys = []SortKey{SortByTitle, SortByDate, SortByActive}

// ParseSortKey accepts a sort key name, defaulting to title
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByDate:
		return SortByDate
	case SortByActive:
		return SortByActive
	default:
		return SortByTitle
	}
}

// Next returns the key after k in SortKeys
func (k SortKey) Next() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortByTitle
}

// ModFilter narrows a mod listing. Zero values match everything.
type ModFilter struct {
	Character    string // Exact character group name as listed by Characters
	Query        string // Case-insensitive substring of title or character
	ActiveOnly   bool
	InactiveOnly bool
}

// FilterMods returns the mods matching f, keeping their order
func FilterMods(mods []domain.Mod, f ModFilter) []domain.Mod {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	character := strings.TrimSpace(f.Character)

	out := make([]domain.Mod, 0, len(mods))
	for _, m := range mods {
		if f.ActiveOnly && !m.IsActive {
			continue
		}
		if f.InactiveOnly && m.IsActive {
			continue
		}
		if character != "" && m.CharacterName() != character {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Title), query) &&
			!strings.Contains(strings.ToLower(m.Character), query) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SortMods sorts a copy of mods by key
func SortMods(mods []domain.Mod, key SortKey) []domain.Mod {
	out := make([]domain.Mod, len(mods))
	copy(out, mods)

	byTitle := func(a, b domain.Mod) bool {
		ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if ta != tb {
			return ta < tb
		}
		return a.ID < b.ID
	}

	switch key {
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].DateAdded.Equal(out[j].DateAdded) {
				return out[i].DateAdded.After(out[j].DateAdded)
			}
			return byTitle(out[i], out[j])
		})
	case SortByActive:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].IsActive != out[j].IsActive {
				return out[i].IsActive
			}
			return byTitle(out[i], out[j])
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return byTitle(out[i], out[j]) })
	}
	return out
}

// Character is a browse group of mods sharing a character
type Character struct {
	Name   string
	Mods   int
	Active int
}

// Characters groups mods by character, sorted by name with "other" last
func Characters(mods []domain.Mod) []Character {
	index := make(map[string]int)
	var groups []Character
	for _, m := range mods {
		name := m.CharacterName()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Character{Name: name})
		}
		groups[i].Mods++
		if m.IsActive {
			groups[i].Active++
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if (groups[i].Name == domain.CharacterOther) != (groups[j].Name == domain.CharacterOther) {
			return groups[j].Name == domain.CharacterOther
		}
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
	return groups
}
