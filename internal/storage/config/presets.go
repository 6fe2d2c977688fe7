package config

import (
	"fmt"

	"modbridge/internal/domain"

	"gopkg.in/yaml.v3"
)

// ExportPreset renders a preset as a portable YAML document.
// Titles are looked up in mods; ids of deleted mods are exported without one.
func ExportPreset(preset domain.Preset, mods []domain.Mod) ([]byte, error) {
	titles := make(map[string]string, len(mods))
	for _, m := range mods {
		titles[m.ID] = m.Title
	}

	exported := domain.ExportedPreset{
		Name: preset.Name,
		Mods: make([]domain.ExportedPresetMod, 0, len(preset.ModIDs)),
	}
	for _, id := range preset.ModIDs {
		exported.Mods = append(exported.Mods, domain.ExportedPresetMod{ID: id, Title: titles[id]})
	}

	data, err := yaml.Marshal(&exported)
	if err != nil {
		return nil, fmt.Errorf("marshaling exported preset: %w", err)
	}
	return data, nil
}

// ImportPreset parses a portable preset document into a name and mod ids
func ImportPreset(data []byte) (string, []string, error) {
	var exported domain.ExportedPreset
	if err := yaml.Unmarshal(data, &exported); err != nil {
		return "", nil, fmt.Errorf("parsing exported preset: %w", err)
	}

	ids := make([]string, 0, len(exported.Mods))
	for _, m := range exported.Mods {
		ids = append(ids, m.ID)
	}

	return domain.NormalizePresetInput(exported.Name, ids)
}
