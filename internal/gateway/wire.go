package gateway

import "modbridge/internal/domain"

// JSON bodies exchanged with the backend.

type modList struct {
	Mods []domain.Mod `json:"mods"`
}

type presetList struct {
	Presets []domain.Preset `json:"presets"`
}

type toggleResult struct {
	IsActive bool `json:"isActive"`
}

type presetBody struct {
	Name   string   `json:"name"`
	ModIDs []string `json:"mod_ids"`
}

type addModBody struct {
	Title     string `json:"title"`
	Character string `json:"character,omitempty"`
	IsActive  bool   `json:"isActive,omitempty"`
}

// problem is the RFC 7807 error body returned by the backend
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
