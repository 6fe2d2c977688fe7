package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"modbridge/internal/core"
	"modbridge/internal/domain"
	"modbridge/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

func sampleMods() []domain.Mod {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Mod{
		{ID: "a", Title: "Alpha", Character: "Raiden", IsActive: true, DateAdded: base},
		{ID: "b", Title: "Beta", Character: "Raiden", IsActive: true, DateAdded: base.Add(time.Hour)},
		{ID: "c", Title: "Gamma", IsActive: false, DateAdded: base.Add(2 * time.Hour)},
	}
}

func samplePresets() []domain.Preset {
	return []domain.Preset{
		{ID: "ab", Name: "A and B", ModIDs: []string{"a", "b"}},
		{ID: "c", Name: "Only C", ModIDs: []string{"c"}},
		{ID: "empty", Name: "Nothing", ModIDs: []string{}},
	}
}

// newTestEngine returns an engine whose store already mirrors the fake gateway
func newTestEngine(t *testing.T) (*core.Engine, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway(sampleMods(), samplePresets())
	engine := core.NewEngine(gw, store.New(), nil)
	require.NoError(t, engine.Refresh(context.Background()))
	return engine, gw
}

func TestIsPresetApplied(t *testing.T) {
	mods := func(active ...string) []domain.Mod {
		set := map[string]bool{}
		for _, id := range active {
			set[id] = true
		}
		var out []domain.Mod
		for _, id := range []string{"a", "b", "c"} {
			out = append(out, domain.Mod{ID: id, IsActive: set[id]})
		}
		return out
	}

	tests := []struct {
		name    string
		preset  []string
		active  []string
		applied bool
	}{
		{"exact match", []string{"a", "b"}, []string{"a", "b"}, true},
		{"extra active mod", []string{"a", "b"}, []string{"a", "b", "c"}, false},
		{"missing active mod", []string{"a", "b"}, []string{"a"}, false},
		{"empty preset, nothing active", []string{}, nil, true},
		{"empty preset, something active", []string{}, []string{"a"}, false},
		{"order does not matter", []string{"b", "a"}, []string{"a", "b"}, true},
		{"stale id", []string{"a", "deleted"}, []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset := domain.Preset{ID: "p", ModIDs: tt.preset}
			assert.Equal(t, tt.applied, core.IsPresetApplied(preset, mods(tt.active...)))
		})
	}
}

func TestComputeDiff(t *testing.T) {
	diff := core.ComputeDiff([]string{"b", "c", "deleted"}, sampleMods())
	assert.Equal(t, []string{"c"}, diff.ToActivate)
	assert.Equal(t, []string{"a"}, diff.ToDeactivate)

	diff = core.ComputeDiff([]string{"a", "b"}, sampleMods())
	assert.True(t, diff.IsEmpty())
}

func TestToggleSingle_Success(t *testing.T) {
	engine, gw := newTestEngine(t)

	outcome, err := engine.ToggleSingle(context.Background(), "c")
	require.NoError(t, err)

	assert.False(t, outcome.Previous)
	assert.True(t, outcome.Reported)
	assert.True(t, outcome.Confirmed)

	mod, err := engine.Store().Mod("c")
	require.NoError(t, err)
	assert.True(t, mod.IsActive)
	assert.Equal(t, 3, engine.Store().Stats().ActiveMods, "stats are refetched")
	assert.Equal(t, []string{"ToggleModActive"}, gw.mutatingCalls())
}

func TestToggleSingle_GatewayNoop(t *testing.T) {
	engine, gw := newTestEngine(t)
	gw.toggleNoop = true

	outcome, err := engine.ToggleSingle(context.Background(), "c")
	require.NoError(t, err)
	assert.False(t, outcome.Confirmed)

	// Success does not imply a flip: the refreshed value wins over the optimistic one
	mod, err := engine.Store().Mod("c")
	require.NoError(t, err)
	assert.False(t, mod.IsActive)
}

func TestToggleSingle_OptimisticPatchIsVisible(t *testing.T) {
	engine, gw := newTestEngine(t)
	entered, release := gw.hold("ToggleModActive")
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := engine.ToggleSingle(context.Background(), "c")
		done <- err
	}()

	<-entered
	mod, err := engine.Store().Mod("c")
	require.NoError(t, err)
	assert.True(t, mod.IsActive, "flip is applied before the gateway answers")

	release()
	require.NoError(t, <-done)
}

func TestToggleSingle_Rollback(t *testing.T) {
	engine, gw := newTestEngine(t)
	gw.fail("ToggleModActive", errBackendDown)
	listsBefore := gw.callCount("ListMods")

	_, err := engine.ToggleSingle(context.Background(), "c")
	require.Error(t, err)

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "backend down", gwErr.Message)
	assert.ErrorIs(t, err, errBackendDown)

	mod, err := engine.Store().Mod("c")
	require.NoError(t, err)
	assert.False(t, mod.IsActive, "optimistic flip must be reverted")
	assert.Equal(t, listsBefore, gw.callCount("ListMods"), "no refresh after failure")
}

func TestToggleSingle_NotFound(t *testing.T) {
	engine, gw := newTestEngine(t)

	_, err := engine.ToggleSingle(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrModNotFound)
	assert.Zero(t, gw.callCount("ToggleModActive"))
}

func TestToggleSingle_RefreshFailureKeepsReportedState(t *testing.T) {
	engine, gw := newTestEngine(t)
	gw.fail("ListMods", errBackendDown)

	outcome, err := engine.ToggleSingle(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.False(t, outcome.Reported)

	mod, err := engine.Store().Mod("a")
	require.NoError(t, err)
	assert.False(t, mod.IsActive)
}

func TestApplyPreset_Success(t *testing.T) {
	engine, gw := newTestEngine(t)

	outcome, err := engine.ApplyPreset(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, []string{"c"}, outcome.Diff.ToActivate)
	assert.Equal(t, []string{"a", "b"}, outcome.Diff.ToDeactivate)
	assert.True(t, outcome.Applied)

	applied, err := engine.IsPresetApplied("c")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, gw.callCount("ApplyPreset"), "one indivisible gateway call")
}

func TestApplyPreset_Idempotent(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ApplyPreset(ctx, "c")
	require.NoError(t, err)
	first := domain.ActiveSet(engine.Store().Mods())

	outcome, err := engine.ApplyPreset(ctx, "c")
	require.NoError(t, err)
	assert.True(t, outcome.Diff.IsEmpty())
	assert.Equal(t, first, domain.ActiveSet(engine.Store().Mods()))
}

func TestApplyPreset_FailureLeavesStore(t *testing.T) {
	engine, gw := newTestEngine(t)
	gw.fail("ApplyPreset", errBackendDown)
	before := engine.Store().Snapshot()

	_, err := engine.ApplyPreset(context.Background(), "c")
	assert.ErrorIs(t, err, domain.ErrGateway)

	after := engine.Store().Snapshot()
	assert.Equal(t, before.Version, after.Version, "no optimistic mutation for preset application")
	assert.Equal(t, before.Mods, after.Mods)
}

func TestApplyPreset_NotFound(t *testing.T) {
	engine, gw := newTestEngine(t)
	_, err := engine.ApplyPreset(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)
	assert.Zero(t, gw.callCount("ApplyPreset"))
}

func TestDeleteMod_KeepsStalePresetReference(t *testing.T) {
	engine, gw := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.DeleteMod(ctx, "b"))

	_, err := engine.Store().Mod("b")
	assert.ErrorIs(t, err, domain.ErrModNotFound)

	preset, err := engine.Store().Preset("ab")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, preset.ModIDs, "no cascading edit")
	assert.Zero(t, gw.callCount("UpdatePreset"))

	// Whatever is active afterwards, the preset can never be applied again
	_, err = engine.ApplyPreset(ctx, "ab")
	require.NoError(t, err)
	applied, err := engine.IsPresetApplied("ab")
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = engine.ToggleSingle(ctx, "c")
	require.NoError(t, err)
	applied, err = engine.IsPresetApplied("ab")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestDeleteMod_RefreshFailureDropsMod(t *testing.T) {
	engine, gw := newTestEngine(t)
	gw.fail("ListMods", errBackendDown)

	err := engine.DeleteMod(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrGateway)

	_, err = engine.Store().Mod("a")
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}

func TestDeleteMod_GatewayFailure(t *testing.T) {
	engine, gw := newTestEngine(t)
	gw.fail("DeleteMod", errBackendDown)

	err := engine.DeleteMod(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrGateway)

	_, err = engine.Store().Mod("a")
	assert.NoError(t, err)
}

func TestCreatePreset_EmptyNameMakesNoGatewayCall(t *testing.T) {
	engine, gw := newTestEngine(t)

	for _, name := range []string{"", "   "} {
		_, err := engine.CreatePreset(context.Background(), name, []string{"a"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	}
	assert.Empty(t, gw.mutatingCalls())
}

func TestCreatePreset_Success(t *testing.T) {
	engine, _ := newTestEngine(t)

	preset, err := engine.CreatePreset(context.Background(), " Evening ", []string{"c", "c", "a"})
	require.NoError(t, err)
	assert.Equal(t, "Evening", preset.Name)
	assert.Equal(t, []string{"c", "a"}, preset.ModIDs)

	stored, err := engine.Store().Preset(preset.ID)
	require.NoError(t, err)
	assert.Equal(t, "Evening", stored.Name)
	assert.Equal(t, 4, engine.Store().Stats().Presets)
}

func TestSavePresetFromActive(t *testing.T) {
	engine, _ := newTestEngine(t)

	preset, err := engine.SavePresetFromActive(context.Background(), "Current")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, preset.ModIDs)

	applied, err := engine.IsPresetApplied(preset.ID)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestUpdateAndDeletePreset(t *testing.T) {
	engine, gw := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.UpdatePreset(ctx, "c", "C and A", []string{"c", "a"}))
	preset, err := engine.Store().Preset("c")
	require.NoError(t, err)
	assert.Equal(t, "C and A", preset.Name)

	err = engine.UpdatePreset(ctx, "c", "", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = engine.UpdatePreset(ctx, "missing", "Name", nil)
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)

	require.NoError(t, engine.DeletePreset(ctx, "c"))
	_, err = engine.Store().Preset("c")
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)

	assert.ErrorIs(t, engine.DeletePreset(ctx, "c"), domain.ErrPresetNotFound)
	assert.Equal(t, 1, gw.callCount("UpdatePreset"))
	assert.Equal(t, 1, gw.callCount("DeletePreset"))
}

func TestRefresh_FailureWritesNothing(t *testing.T) {
	gw := newFakeGateway(sampleMods(), samplePresets())
	st := store.New()
	engine := core.NewEngine(gw, st, nil)

	gw.fail("GetStats", errBackendDown)
	err := engine.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrGateway)

	assert.Empty(t, st.Mods())
	assert.Equal(t, uint64(0), st.Snapshot().Version)
}
