// Package gateway defines the contract for the backend that performs mod activation.
package gateway

import (
	"context"

	"modbridge/internal/domain"
)

// Gateway is the request/response bridge to the backend process.
// Every call may fail; callers treat failures as non-fatal.
type Gateway interface {
	// Mods
	ListMods(ctx context.Context) ([]domain.Mod, error)
	ToggleModActive(ctx context.Context, modID string) (bool, error)
	DeleteMod(ctx context.Context, modID string) error

	// Presets
	ListPresets(ctx context.Context) ([]domain.Preset, error)
	CreatePreset(ctx context.Context, name string, modIDs []string) (domain.Preset, error)
	UpdatePreset(ctx context.Context, presetID, name string, modIDs []string) error
	DeletePreset(ctx context.Context, presetID string) error
	ApplyPreset(ctx context.Context, presetID string) error

	// Derived counts, recomputed by the backend
	GetStats(ctx context.Context) (domain.Stats, error)
}
