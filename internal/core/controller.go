package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"modbridge/internal/domain"
	"modbridge/internal/metrics"
	"modbridge/internal/storage/config"
	"modbridge/internal/store"

	"go.uber.org/zap"
)

// OperationClass groups operations that mutate the same backend resource
type OperationClass string

const (
	ClassModActivation     OperationClass = "mod_activation"     // toggle, delete
	ClassPresetApplication OperationClass = "preset_application" // apply
	ClassPresetEdit        OperationClass = "preset_edit"        // create, update, delete presets
)

// Classes lists every operation class in display order
var Classes = []OperationClass{ClassModActivation, ClassPresetApplication, ClassPresetEdit}

// SlotMode decides whether operation classes get their own slot
type SlotMode string

const (
	SlotModeSplit   SlotMode = config.SlotModeSplit
	SlotModeUnified SlotMode = config.SlotModeUnified
)

// ParseSlotMode converts a config value, defaulting to split
func ParseSlotMode(s string) (SlotMode, error) {
	switch SlotMode(s) {
	case "", SlotModeSplit:
		return SlotModeSplit, nil
	case SlotModeUnified:
		return SlotModeUnified, nil
	}
	return "", fmt.Errorf("%w: unknown slot mode %q", domain.ErrInvalidConfig, s)
}

type slot struct {
	mu   sync.Mutex
	busy atomic.Bool
}

// Controller serializes engine operations: at most one operation per slot is in
// flight, and a request for a held slot fails with domain.ErrBusy instead of waiting.
// A slot is released only after the operation's refresh has finished.
type Controller struct {
	engine  *Engine
	mode    SlotMode
	slots   map[OperationClass]*slot
	loading atomic.Bool
	log     *zap.SugaredLogger
}

// NewController wraps an engine
func NewController(engine *Engine, mode SlotMode, log *zap.SugaredLogger) *Controller {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	slots := make(map[OperationClass]*slot, len(Classes))
	if mode == SlotModeUnified {
		shared := &slot{}
		for _, c := range Classes {
			slots[c] = shared
		}
	} else {
		mode = SlotModeSplit
		for _, c := range Classes {
			slots[c] = &slot{}
		}
	}

	return &Controller{engine: engine, mode: mode, slots: slots, log: log}
}

// Engine returns the wrapped engine
func (c *Controller) Engine() *Engine { return c.engine }

// Store returns the engine's store
func (c *Controller) Store() *store.Store { return c.engine.Store() }

// Mode returns the slot mode in use
func (c *Controller) Mode() SlotMode { return c.mode }

// Busy reports whether the class's slot is held
func (c *Controller) Busy(class OperationClass) bool {
	s, ok := c.slots[class]
	return ok && s.busy.Load()
}

// Status returns the busy state of every class
func (c *Controller) Status() map[OperationClass]bool {
	status := make(map[OperationClass]bool, len(c.slots))
	for class, s := range c.slots {
		status[class] = s.busy.Load()
	}
	return status
}

// Loading reports whether a non-silent refresh is running
func (c *Controller) Loading() bool {
	return c.loading.Load()
}

// IsPresetApplied checks a stored preset against the current snapshot
func (c *Controller) IsPresetApplied(presetID string) (bool, error) {
	return c.engine.IsPresetApplied(presetID)
}

// ToggleSingle runs Engine.ToggleSingle in the mod activation slot
func (c *Controller) ToggleSingle(ctx context.Context, modID string) (ToggleOutcome, error) {
	var outcome ToggleOutcome
	err := c.run(ClassModActivation, "toggle", func() error {
		var err error
		outcome, err = c.engine.ToggleSingle(ctx, modID)
		return err
	})
	return outcome, err
}

// DeleteMod runs Engine.DeleteMod in the mod activation slot
func (c *Controller) DeleteMod(ctx context.Context, modID string) error {
	return c.run(ClassModActivation, "delete_mod", func() error {
		return c.engine.DeleteMod(ctx, modID)
	})
}

// AddMod runs Engine.AddMod in the mod activation slot
func (c *Controller) AddMod(ctx context.Context, title, character string, active bool) (domain.Mod, error) {
	var mod domain.Mod
	err := c.run(ClassModActivation, "add_mod", func() error {
		var err error
		mod, err = c.engine.AddMod(ctx, title, character, active)
		return err
	})
	return mod, err
}

// ApplyPreset runs Engine.ApplyPreset in the preset application slot
func (c *Controller) ApplyPreset(ctx context.Context, presetID string) (ApplyOutcome, error) {
	var outcome ApplyOutcome
	err := c.run(ClassPresetApplication, "apply_preset", func() error {
		var err error
		outcome, err = c.engine.ApplyPreset(ctx, presetID)
		return err
	})
	return outcome, err
}

// CreatePreset runs Engine.CreatePreset in the preset edit slot
func (c *Controller) CreatePreset(ctx context.Context, name string, modIDs []string) (domain.Preset, error) {
	var preset domain.Preset
	err := c.run(ClassPresetEdit, "create_preset", func() error {
		var err error
		preset, err = c.engine.CreatePreset(ctx, name, modIDs)
		return err
	})
	return preset, err
}

// SavePresetFromActive runs Engine.SavePresetFromActive in the preset edit slot
func (c *Controller) SavePresetFromActive(ctx context.Context, name string) (domain.Preset, error) {
	var preset domain.Preset
	err := c.run(ClassPresetEdit, "save_preset", func() error {
		var err error
		preset, err = c.engine.SavePresetFromActive(ctx, name)
		return err
	})
	return preset, err
}

// UpdatePreset runs Engine.UpdatePreset in the preset edit slot
func (c *Controller) UpdatePreset(ctx context.Context, presetID, name string, modIDs []string) error {
	return c.run(ClassPresetEdit, "update_preset", func() error {
		return c.engine.UpdatePreset(ctx, presetID, name, modIDs)
	})
}

// DeletePreset runs Engine.DeletePreset in the preset edit slot
func (c *Controller) DeletePreset(ctx context.Context, presetID string) error {
	return c.run(ClassPresetEdit, "delete_preset", func() error {
		return c.engine.DeletePreset(ctx, presetID)
	})
}

// Refresh pulls the full state from the gateway. Refreshes take no slot; a refresh
// that overlaps a mutation leaves that mutation's results to its own refresh.
// A silent refresh leaves the loading flag alone.
func (c *Controller) Refresh(ctx context.Context, silent bool) error {
	if !silent {
		c.loading.Store(true)
		defer c.loading.Store(false)
	}

	start := time.Now()
	err := c.engine.Refresh(ctx)
	metrics.RecordOperation("refresh", resultOf(err), time.Since(start))
	return err
}

func (c *Controller) run(class OperationClass, op string, fn func() error) error {
	s, ok := c.slots[class]
	if !ok {
		return fmt.Errorf("unknown operation class %q", class)
	}

	if !s.mu.TryLock() {
		metrics.RecordBusyRejection(string(class))
		metrics.RecordOperation(op, metrics.ResultBusy, 0)
		c.log.Debugw("slot busy", "class", class, "op", op)
		return fmt.Errorf("%s: %w", op, domain.ErrBusy)
	}
	s.busy.Store(true)
	defer func() {
		s.busy.Store(false)
		s.mu.Unlock()
	}()

	start := time.Now()
	err := fn()
	metrics.RecordOperation(op, resultOf(err), time.Since(start))
	if err != nil {
		c.log.Debugw("operation failed", "op", op, "error", err)
	}
	return err
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
