package core

import (
	"context"
	"fmt"
	"time"

	"modbridge/internal/domain"
	"modbridge/internal/gateway"
	"modbridge/internal/metrics"
	"modbridge/internal/store"

	"go.uber.org/zap"
)

// ToggleOutcome describes a completed single-mod toggle
type ToggleOutcome struct {
	ModID     string
	Previous  bool // State before the optimistic flip
	Reported  bool // State the gateway reported after toggling
	Confirmed bool // State in the store after the authoritative refresh
}

// ApplyOutcome describes a completed preset application
type ApplyOutcome struct {
	PresetID string
	Diff     domain.ActivationDiff // Changes expected from the pre-apply snapshot
	Applied  bool                  // IsPresetApplied on the refreshed snapshot
}

// Engine performs activation operations against the gateway and keeps the store in
// line with the backend. It does not serialize callers; use a Controller for that.
type Engine struct {
	gw    gateway.Gateway
	store *store.Store
	log   *zap.SugaredLogger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(gw gateway.Gateway, st *store.Store, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{gw: gw, store: st, log: log}
}

// Store returns the store the engine writes to
func (e *Engine) Store() *store.Store {
	return e.store
}

// IsPresetApplied checks a stored preset against the current snapshot
func (e *Engine) IsPresetApplied(presetID string) (bool, error) {
	preset, err := e.store.Preset(presetID)
	if err != nil {
		return false, err
	}
	return IsPresetApplied(preset, e.store.Mods()), nil
}

// ToggleSingle flips one mod. The store is patched before the gateway call and
// either reverted on failure or overwritten by a refresh on success. The revert
// is skipped once another operation has replaced the mod list.
func (e *Engine) ToggleSingle(ctx context.Context, modID string) (ToggleOutcome, error) {
	outcome := ToggleOutcome{ModID: modID}

	mod, err := e.store.Mod(modID)
	if err != nil {
		return outcome, err
	}
	outcome.Previous = mod.IsActive

	pending, err := e.store.PatchModPending(modID, domain.SetActive(!mod.IsActive))
	if err != nil {
		return outcome, err
	}

	reported, err := e.gw.ToggleModActive(ctx, modID)
	if err != nil {
		e.rollback(pending)
		e.log.Warnw("toggle failed", "mod", modID, "error", err)
		return outcome, domain.NewGatewayError("toggle mod", err)
	}
	outcome.Reported = reported
	e.store.MarkModsChanged()

	if err := e.RefreshMods(ctx); err != nil {
		// The gateway confirmed a state even though the resync failed
		if !e.store.SettlePatch(pending, domain.SetActive(reported)) {
			e.log.Debugw("mod changed before settling toggle", "mod", modID)
		}
		outcome.Confirmed = reported
		if current, merr := e.store.Mod(modID); merr == nil {
			outcome.Confirmed = current.IsActive
		}
		return outcome, err
	}

	confirmed, err := e.store.Mod(modID)
	if err == nil {
		outcome.Confirmed = confirmed.IsActive
	}

	e.log.Infow("mod toggled", "mod", modID, "previous", outcome.Previous, "reported", reported, "confirmed", outcome.Confirmed)
	return outcome, nil
}

func (e *Engine) rollback(pending store.PendingPatch) {
	if !e.store.RevertPatch(pending) {
		e.log.Debugw("rollback skipped, mod list already replaced", "mod", pending.ModID)
		return
	}
	metrics.RecordRollback()
}

// ApplyPreset asks the gateway to make the preset's mods the exact active set.
// The store is not touched until the refresh that follows a successful call.
func (e *Engine) ApplyPreset(ctx context.Context, presetID string) (ApplyOutcome, error) {
	outcome := ApplyOutcome{PresetID: presetID}

	preset, err := e.store.Preset(presetID)
	if err != nil {
		return outcome, err
	}

	mods := e.store.Mods()
	outcome.Diff = ComputeDiff(preset.ModIDs, mods)
	if stale := preset.StaleIDs(mods); len(stale) > 0 {
		e.log.Warnw("preset references missing mods", "preset", presetID, "missing", stale)
	}

	if err := e.gw.ApplyPreset(ctx, presetID); err != nil {
		e.log.Warnw("apply preset failed", "preset", presetID, "error", err)
		return outcome, domain.NewGatewayError("apply preset", err)
	}
	e.store.MarkModsChanged()

	if err := e.RefreshMods(ctx); err != nil {
		return outcome, err
	}

	outcome.Applied = IsPresetApplied(preset, e.store.Mods())
	e.log.Infow("preset applied",
		"preset", presetID,
		"activate", len(outcome.Diff.ToActivate),
		"deactivate", len(outcome.Diff.ToDeactivate),
		"applied", outcome.Applied,
	)
	return outcome, nil
}

// DeleteMod removes a mod through the gateway. Presets that reference it are left as they are.
func (e *Engine) DeleteMod(ctx context.Context, modID string) error {
	if _, err := e.store.Mod(modID); err != nil {
		return err
	}

	if err := e.gw.DeleteMod(ctx, modID); err != nil {
		e.log.Warnw("delete mod failed", "mod", modID, "error", err)
		return domain.NewGatewayError("delete mod", err)
	}
	e.store.MarkModsChanged()

	if err := e.RefreshMods(ctx); err != nil {
		e.store.RemoveMod(modID)
		return err
	}

	e.log.Infow("mod deleted", "mod", modID)
	return nil
}

// AddMod registers a new mod through a gateway that supports it
func (e *Engine) AddMod(ctx context.Context, title, character string, active bool) (domain.Mod, error) {
	reg, ok := e.gw.(modRegistrar)
	if !ok {
		return domain.Mod{}, ErrAddUnsupported
	}
	title, err := domain.ValidateModTitle(title)
	if err != nil {
		return domain.Mod{}, err
	}

	mod, err := reg.AddMod(ctx, title, character, active)
	if err != nil {
		e.log.Warnw("add mod failed", "title", title, "error", err)
		return domain.Mod{}, domain.NewGatewayError("add mod", err)
	}
	e.store.MarkModsChanged()

	if err := e.RefreshMods(ctx); err != nil {
		return mod, err
	}

	e.log.Infow("mod added", "mod", mod.ID, "title", mod.Title)
	return mod, nil
}

// CreatePreset validates input and creates a preset
func (e *Engine) CreatePreset(ctx context.Context, name string, modIDs []string) (domain.Preset, error) {
	name, modIDs, err := domain.NormalizePresetInput(name, modIDs)
	if err != nil {
		return domain.Preset{}, err
	}

	preset, err := e.gw.CreatePreset(ctx, name, modIDs)
	if err != nil {
		e.log.Warnw("create preset failed", "name", name, "error", err)
		return domain.Preset{}, domain.NewGatewayError("create preset", err)
	}
	e.store.MarkPresetsChanged()

	if err := e.RefreshPresets(ctx); err != nil {
		return preset, err
	}

	e.log.Infow("preset created", "preset", preset.ID, "name", name, "mods", len(modIDs))
	return preset, nil
}

// SavePresetFromActive creates a preset from the mods that are active right now
func (e *Engine) SavePresetFromActive(ctx context.Context, name string) (domain.Preset, error) {
	var ids []string
	for _, m := range e.store.Mods() {
		if m.IsActive {
			ids = append(ids, m.ID)
		}
	}
	return e.CreatePreset(ctx, name, ids)
}

// UpdatePreset replaces a preset's name and mods
func (e *Engine) UpdatePreset(ctx context.Context, presetID, name string, modIDs []string) error {
	name, modIDs, err := domain.NormalizePresetInput(name, modIDs)
	if err != nil {
		return err
	}
	if _, err := e.store.Preset(presetID); err != nil {
		return err
	}

	if err := e.gw.UpdatePreset(ctx, presetID, name, modIDs); err != nil {
		e.log.Warnw("update preset failed", "preset", presetID, "error", err)
		return domain.NewGatewayError("update preset", err)
	}
	e.store.MarkPresetsChanged()

	if err := e.RefreshPresets(ctx); err != nil {
		return err
	}

	e.log.Infow("preset updated", "preset", presetID, "mods", len(modIDs))
	return nil
}

// DeletePreset removes a preset
func (e *Engine) DeletePreset(ctx context.Context, presetID string) error {
	if _, err := e.store.Preset(presetID); err != nil {
		return err
	}

	if err := e.gw.DeletePreset(ctx, presetID); err != nil {
		e.log.Warnw("delete preset failed", "preset", presetID, "error", err)
		return domain.NewGatewayError("delete preset", err)
	}
	e.store.MarkPresetsChanged()

	if err := e.RefreshPresets(ctx); err != nil {
		return err
	}

	e.log.Infow("preset deleted", "preset", presetID)
	return nil
}

// Refresh replaces mods, presets and stats with the gateway's current view.
// Nothing is written unless every fetch succeeds. Parts that a mutation confirmed
// after the fetch began are left to that mutation's own refresh.
func (e *Engine) Refresh(ctx context.Context) error {
	start := time.Now()
	gen := e.store.Generation()

	mods, err := e.gw.ListMods(ctx)
	if err != nil {
		return e.refreshFailed(start, "list mods", err)
	}
	presets, err := e.gw.ListPresets(ctx)
	if err != nil {
		return e.refreshFailed(start, "list presets", err)
	}
	stats, err := e.gw.GetStats(ctx)
	if err != nil {
		return e.refreshFailed(start, "get stats", err)
	}

	wroteMods, err := e.store.ReplaceModsAt(gen, mods)
	if err != nil {
		return e.refreshFailed(start, "list mods", err)
	}
	wrotePresets, err := e.store.ReplacePresetsAt(gen, presets)
	if err != nil {
		return e.refreshFailed(start, "list presets", err)
	}
	e.store.ReplaceStatsAt(gen, stats)

	metrics.RecordRefresh(time.Since(start), true)
	e.log.Debugw("refreshed", "mods", len(mods), "presets", len(presets), "wrote_mods", wroteMods, "wrote_presets", wrotePresets)
	return nil
}

// RefreshMods replaces mods and stats
func (e *Engine) RefreshMods(ctx context.Context) error {
	start := time.Now()
	gen := e.store.Generation()

	mods, err := e.gw.ListMods(ctx)
	if err != nil {
		return e.refreshFailed(start, "list mods", err)
	}
	stats, err := e.gw.GetStats(ctx)
	if err != nil {
		return e.refreshFailed(start, "get stats", err)
	}

	wrote, err := e.store.ReplaceModsAt(gen, mods)
	if err != nil {
		return e.refreshFailed(start, "list mods", err)
	}
	if !wrote {
		e.log.Debugw("mod refresh superseded by a newer mutation")
	}
	e.store.ReplaceStatsAt(gen, stats)

	metrics.RecordRefresh(time.Since(start), true)
	return nil
}

// RefreshPresets replaces presets and stats
func (e *Engine) RefreshPresets(ctx context.Context) error {
	start := time.Now()
	gen := e.store.Generation()

	presets, err := e.gw.ListPresets(ctx)
	if err != nil {
		return e.refreshFailed(start, "list presets", err)
	}
	stats, err := e.gw.GetStats(ctx)
	if err != nil {
		return e.refreshFailed(start, "get stats", err)
	}

	wrote, err := e.store.ReplacePresetsAt(gen, presets)
	if err != nil {
		return e.refreshFailed(start, "list presets", err)
	}
	if !wrote {
		e.log.Debugw("preset refresh superseded by a newer mutation")
	}
	e.store.ReplaceStatsAt(gen, stats)

	metrics.RecordRefresh(time.Since(start), true)
	return nil
}

func (e *Engine) refreshFailed(start time.Time, op string, err error) error {
	metrics.RecordRefresh(time.Since(start), false)
	e.log.Warnw("refresh failed", "op", op, "error", err)
	return domain.NewGatewayError(fmt.Sprintf("refresh: %s", op), err)
}
