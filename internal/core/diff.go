package core

import "modbridge/internal/domain"

// IsPresetApplied reports whether the active mods are exactly the preset's mods.
// An empty preset is applied only when nothing is active; a preset holding the id of
// a deleted mod can never be applied.
func IsPresetApplied(preset domain.Preset, mods []domain.Mod) bool {
	active := domain.ActiveSet(mods)
	desired := preset.IDSet()

	if len(active) != len(desired) {
		return false
	}
	for id := range desired {
		if _, ok := active[id]; !ok {
			return false
		}
	}
	return true
}

// ComputeDiff returns the mods to activate and deactivate to reach the desired set.
// Results follow the order of mods. Desired ids with no matching mod are skipped.
func ComputeDiff(desired []string, mods []domain.Mod) domain.ActivationDiff {
	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}

	var diff domain.ActivationDiff
	for _, m := range mods {
		_, wanted := want[m.ID]
		switch {
		case wanted && !m.IsActive:
			diff.ToActivate = append(diff.ToActivate, m.ID)
		case !wanted && m.IsActive:
			diff.ToDeactivate = append(diff.ToDeactivate, m.ID)
		}
	}
	return diff
}
