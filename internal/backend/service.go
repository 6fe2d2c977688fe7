// Package backend is a state-only development backend. It keeps mods and presets in
// SQLite and answers the same requests a real activation backend would, without
// moving any files.
package backend

import (
	"context"
	"fmt"
	"time"

	"modbridge/internal/domain"
	"modbridge/internal/gateway"
	"modbridge/internal/storage/db"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ gateway.Gateway = (*Service)(nil)

// Service implements gateway.Gateway over a SQLite database
type Service struct {
	db  *db.DB
	log *zap.SugaredLogger
	now func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a backend service over an open database
func NewService(database *db.DB, opts ...Option) *Service {
	s := &Service{
		db:  database,
		log: zap.NewNop().Sugar(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMod registers a new mod, inactive unless active is set
func (s *Service) AddMod(ctx context.Context, title, character string, active bool) (domain.Mod, error) {
	if err := ctx.Err(); err != nil {
		return domain.Mod{}, err
	}
	title, err := domain.ValidateModTitle(title)
	if err != nil {
		return domain.Mod{}, err
	}

	mod := domain.Mod{
		ID:        uuid.NewString(),
		Title:     title,
		Character: character,
		IsActive:  active,
		DateAdded: s.now().UTC(),
	}
	if err := s.db.InsertMod(mod); err != nil {
		return domain.Mod{}, err
	}

	s.log.Infow("mod added", "mod", mod.ID, "title", mod.Title)
	return s.db.GetMod(mod.ID)
}

// ListMods implements gateway.Gateway
func (s *Service) ListMods(ctx context.Context) ([]domain.Mod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.db.ListMods()
}

// ToggleModActive implements gateway.Gateway
func (s *Service) ToggleModActive(ctx context.Context, modID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	active, err := s.db.ToggleModActive(modID)
	if err != nil {
		return false, err
	}
	s.log.Infow("mod toggled", "mod", modID, "active", active)
	return active, nil
}

// DeleteMod implements gateway.Gateway. Presets keep their references.
func (s *Service) DeleteMod(ctx context.Context, modID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DeleteMod(modID); err != nil {
		return err
	}
	s.log.Infow("mod deleted", "mod", modID)
	return nil
}

// ListPresets implements gateway.Gateway
func (s *Service) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.db.ListPresets()
}

// CreatePreset implements gateway.Gateway
func (s *Service) CreatePreset(ctx context.Context, name string, modIDs []string) (domain.Preset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Preset{}, err
	}
	name, modIDs, err := domain.NormalizePresetInput(name, modIDs)
	if err != nil {
		return domain.Preset{}, err
	}

	preset := domain.Preset{
		ID:        uuid.NewString(),
		Name:      name,
		ModIDs:    modIDs,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.InsertPreset(preset); err != nil {
		return domain.Preset{}, err
	}

	s.log.Infow("preset created", "preset", preset.ID, "name", name, "mods", len(modIDs))
	return s.db.GetPreset(preset.ID)
}

// UpdatePreset implements gateway.Gateway
func (s *Service) UpdatePreset(ctx context.Context, presetID, name string, modIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, modIDs, err := domain.NormalizePresetInput(name, modIDs)
	if err != nil {
		return err
	}
	if err := s.db.UpdatePreset(presetID, name, modIDs); err != nil {
		return err
	}
	s.log.Infow("preset updated", "preset", presetID, "mods", len(modIDs))
	return nil
}

// DeletePreset implements gateway.Gateway
func (s *Service) DeletePreset(ctx context.Context, presetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DeletePreset(presetID); err != nil {
		return err
	}
	s.log.Infow("preset deleted", "preset", presetID)
	return nil
}

// ApplyPreset implements gateway.Gateway. The active set becomes exactly the
// preset's mods that still exist, in a single transaction.
func (s *Service) ApplyPreset(ctx context.Context, presetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.ApplyPreset(presetID); err != nil {
		return fmt.Errorf("applying preset %s: %w", presetID, err)
	}
	s.log.Infow("preset applied", "preset", presetID)
	return nil
}

// GetStats implements gateway.Gateway
func (s *Service) GetStats(ctx context.Context) (domain.Stats, error) {
	if err := ctx.Err(); err != nil {
		return domain.Stats{}, err
	}
	return s.db.Stats()
}
