package store_test

import (
	"testing"
	"time"

	"modbridge/internal/domain"
	"modbridge/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMods() []domain.Mod {
	return []domain.Mod{
		{ID: "a", Title: "Alpha", Character: "Raiden", IsActive: true},
		{ID: "b", Title: "Beta", IsActive: false},
	}
}

func TestStore_ReplaceMods(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))

	mods := s.Mods()
	require.Len(t, mods, 2)
	assert.Equal(t, "a", mods[0].ID)
	assert.Equal(t, "b", mods[1].ID)

	// A refresh replaces, it never merges
	require.NoError(t, s.ReplaceMods([]domain.Mod{{ID: "c", Title: "Gamma"}}))
	mods = s.Mods()
	require.Len(t, mods, 1)
	assert.Equal(t, "c", mods[0].ID)

	_, err := s.Mod("a")
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}

func TestStore_ReplaceMods_RejectsDuplicateIDs(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))

	err := s.ReplaceMods([]domain.Mod{{ID: "x"}, {ID: "x"}})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	// Previous snapshot is kept
	assert.Len(t, s.Mods(), 2)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))
	require.NoError(t, s.ReplacePresets([]domain.Preset{{ID: "p1", Name: "One", ModIDs: []string{"a"}}}))

	mods := s.Mods()
	mods[0].IsActive = false
	presets := s.Presets()
	presets[0].ModIDs[0] = "mutated"

	mod, err := s.Mod("a")
	require.NoError(t, err)
	assert.True(t, mod.IsActive)

	preset, err := s.Preset("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, preset.ModIDs)
}

func TestStore_PatchMod(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))

	previous, err := s.PatchMod("b", domain.SetActive(true))
	require.NoError(t, err)
	assert.False(t, previous.IsActive)

	mod, err := s.Mod("b")
	require.NoError(t, err)
	assert.True(t, mod.IsActive)
	assert.Equal(t, "Beta", mod.Title, "patch must not touch fields it does not set")
}

func TestStore_PatchMod_NotFound(t *testing.T) {
	s := store.New()
	_, err := s.PatchMod("missing", domain.SetActive(true))
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}

func TestStore_PresetNotFound(t *testing.T) {
	s := store.New()
	_, err := s.Preset("missing")
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)
}

func TestStore_Subscribe_ReceivesCurrentSnapshot(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))

	ch, cancel := s.Subscribe()
	defer cancel()

	select {
	case snap := <-ch:
		assert.Len(t, snap.Mods, 2)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}
}

func TestStore_Subscribe_LatestSnapshotWins(t *testing.T) {
	s := store.New()
	ch, cancel := s.Subscribe()
	defer cancel()

	// Never read between publishes: only the newest snapshot should be pending
	require.NoError(t, s.ReplaceMods(testMods()))
	s.ReplaceStats(domain.Stats{InstalledMods: 2, ActiveMods: 1, InactiveMods: 1})
	_, err := s.PatchMod("b", domain.SetActive(true))
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, uint64(3), snap.Version)
		assert.Equal(t, 2, snap.Stats.InstalledMods)
		mod, ok := snap.Mod("b")
		require.True(t, ok)
		assert.True(t, mod.IsActive)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}

	select {
	case snap := <-ch:
		t.Fatalf("unexpected extra snapshot version %d", snap.Version)
	default:
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := store.New()
	ch1, cancel1 := s.Subscribe()
	_, cancel2 := s.Subscribe()
	assert.Equal(t, 2, s.SubscriberCount())

	cancel1()
	cancel1() // idempotent
	assert.Equal(t, 1, s.SubscriberCount())

	// Drain the initial snapshot, then the channel must be closed
	<-ch1
	_, open := <-ch1
	assert.False(t, open)

	cancel2()
	assert.Equal(t, 0, s.SubscriberCount())
}

func TestStore_Close(t *testing.T) {
	s := store.New()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Close()
	<-ch
	_, open := <-ch
	assert.False(t, open)

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscribing after Close yields a closed channel")

	// Writes still succeed after Close
	require.NoError(t, s.ReplaceMods(testMods()))
	assert.Len(t, s.Mods(), 2)
}

func TestStore_ReplaceModsAt_SkipsAfterMutation(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))

	gen := s.Generation()
	s.MarkModsChanged()

	wrote, err := s.ReplaceModsAt(gen, []domain.Mod{{ID: "stale"}})
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Len(t, s.Mods(), 2)

	assert.False(t, s.ReplaceStatsAt(gen, domain.Stats{InstalledMods: 9}))
	assert.Zero(t, s.Stats().InstalledMods)

	// Presets are tracked separately
	wrote, err = s.ReplacePresetsAt(gen, []domain.Preset{{ID: "p", Name: "P"}})
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = s.ReplaceModsAt(s.Generation(), []domain.Mod{{ID: "fresh"}})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Len(t, s.Mods(), 1)
}

func TestStore_ReplaceModsAt_RejectsDuplicateIDs(t *testing.T) {
	s := store.New()
	_, err := s.ReplaceModsAt(s.Generation(), []domain.Mod{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestStore_RevertPatch(t *testing.T) {
	tests := []struct {
		name       string
		between    func(t *testing.T, s *store.Store)
		wantRevert bool
		wantActive bool
	}{
		{"untouched", func(t *testing.T, s *store.Store) {}, true, false},
		{"list replaced", func(t *testing.T, s *store.Store) {
			require.NoError(t, s.ReplaceMods([]domain.Mod{{ID: "b", IsActive: true}}))
		}, false, true},
		{"mod patched again", func(t *testing.T, s *store.Store) {
			_, err := s.PatchMod("b", domain.SetActive(false))
			require.NoError(t, err)
		}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.New()
			require.NoError(t, s.ReplaceMods(testMods()))

			pending, err := s.PatchModPending("b", domain.SetActive(true))
			require.NoError(t, err)
			assert.False(t, pending.Previous.IsActive)

			tt.between(t, s)
			assert.Equal(t, tt.wantRevert, s.RevertPatch(pending))

			mod, err := s.Mod("b")
			require.NoError(t, err)
			assert.Equal(t, tt.wantActive, mod.IsActive)
		})
	}
}

func TestStore_SettlePatch(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))

	pending, err := s.PatchModPending("b", domain.SetActive(true))
	require.NoError(t, err)
	assert.True(t, s.SettlePatch(pending, domain.SetActive(false)))

	mod, err := s.Mod("b")
	require.NoError(t, err)
	assert.False(t, mod.IsActive)
}

func TestStore_RemoveMod(t *testing.T) {
	s := store.New()
	require.NoError(t, s.ReplaceMods(testMods()))

	s.RemoveMod("a")
	s.RemoveMod("missing")

	mods := s.Mods()
	require.Len(t, mods, 1)
	got, err := s.Mod("b")
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Title)
}

func TestStore_Subscribe_SeesConcurrentPublish(t *testing.T) {
	s := store.New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			s.ReplaceStats(domain.Stats{InstalledMods: i + 1})
		}
	}()

	ch, cancel := s.Subscribe()
	defer cancel()
	<-done

	// Whatever the interleaving, the last pending snapshot is the final state
	var last store.Snapshot
	for {
		select {
		case snap := <-ch:
			last = snap
			continue
		default:
		}
		break
	}
	assert.Equal(t, 50, last.Stats.InstalledMods)
}
