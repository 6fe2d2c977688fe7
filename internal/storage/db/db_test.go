package db_test

import (
	"testing"
	"time"

	"modbridge/internal/domain"
	"modbridge/internal/storage/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func seedMods(t *testing.T, database *db.DB) {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mods := []domain.Mod{
		{ID: "m1", Title: "Red Scarf", Character: "Raiden", IsActive: true, DateAdded: base},
		{ID: "m2", Title: "Blue Coat", Character: "Raiden", DateAdded: base.Add(time.Minute)},
		{ID: "m3", Title: "Green Hat", DateAdded: base.Add(2 * time.Minute)},
	}
	for _, m := range mods {
		require.NoError(t, database.InsertMod(m))
	}
}

func TestNew_CreatesDatabase(t *testing.T) {
	database, err := db.New(":memory:")
	require.NoError(t, err)
	defer database.Close()

	assert.NotNil(t, database)
}

func TestNew_RunsMigrations(t *testing.T) {
	database := newTestDB(t)

	var count int
	for _, table := range []string{"mods", "presets", "preset_mods"} {
		err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		assert.NoError(t, err, table)
	}

	version, err := database.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, db.CurrentVersion, version)
}

func TestMods_InsertAndList(t *testing.T) {
	database := newTestDB(t)
	seedMods(t, database)

	mods, err := database.ListMods()
	require.NoError(t, err)
	require.Len(t, mods, 3)

	assert.Equal(t, "m1", mods[0].ID)
	assert.Equal(t, "Red Scarf", mods[0].Title)
	assert.Equal(t, "Raiden", mods[0].Character)
	assert.True(t, mods[0].IsActive)
	assert.Equal(t, int64(1704110400), mods[0].DateAdded.Unix())
	assert.Equal(t, "m3", mods[2].ID)
	assert.Empty(t, mods[2].Character)
}

func TestMods_InsertDuplicate(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, database.InsertMod(domain.Mod{ID: "m1", Title: "One"}))
	assert.Error(t, database.InsertMod(domain.Mod{ID: "m1", Title: "Again"}))
}

func TestMods_Toggle(t *testing.T) {
	database := newTestDB(t)
	seedMods(t, database)

	active, err := database.ToggleModActive("m2")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = database.ToggleModActive("m2")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = database.ToggleModActive("missing")
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}

func TestMods_Delete(t *testing.T) {
	database := newTestDB(t)
	seedMods(t, database)

	require.NoError(t, database.DeleteMod("m1"))

	_, err := database.GetMod("m1")
	assert.ErrorIs(t, err, domain.ErrModNotFound)

	err = database.DeleteMod("m1")
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}

func TestPresets_CRUD(t *testing.T) {
	database := newTestDB(t)

	preset := domain.Preset{ID: "p1", Name: "Combat", ModIDs: []string{"m2", "m1"}}
	require.NoError(t, database.InsertPreset(preset))

	got, err := database.GetPreset("p1")
	require.NoError(t, err)
	assert.Equal(t, "Combat", got.Name)
	assert.Equal(t, []string{"m2", "m1"}, got.ModIDs, "member order is preserved")
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, database.UpdatePreset("p1", "Combat v2", []string{"m3"}))
	got, err = database.GetPreset("p1")
	require.NoError(t, err)
	assert.Equal(t, "Combat v2", got.Name)
	assert.Equal(t, []string{"m3"}, got.ModIDs)

	require.NoError(t, database.InsertPreset(domain.Preset{ID: "p2", Name: "Empty"}))
	presets, err := database.ListPresets()
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, []string{}, presets[1].ModIDs)

	require.NoError(t, database.DeletePreset("p1"))
	_, err = database.GetPreset("p1")
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)

	var members int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM preset_mods").Scan(&members))
	assert.Zero(t, members, "members cascade with the preset")
}

func TestPresets_NotFound(t *testing.T) {
	database := newTestDB(t)

	assert.ErrorIs(t, database.UpdatePreset("nope", "x", nil), domain.ErrPresetNotFound)
	assert.ErrorIs(t, database.DeletePreset("nope"), domain.ErrPresetNotFound)
	assert.ErrorIs(t, database.ApplyPreset("nope"), domain.ErrPresetNotFound)
}

func TestApplyPreset_SetsExactActiveSet(t *testing.T) {
	database := newTestDB(t)
	seedMods(t, database)

	// "gone" was deleted at some point and stays referenced
	require.NoError(t, database.InsertPreset(domain.Preset{ID: "p1", Name: "Set", ModIDs: []string{"m2", "m3", "gone"}}))
	require.NoError(t, database.ApplyPreset("p1"))

	mods, err := database.ListMods()
	require.NoError(t, err)
	active := domain.ActiveSet(mods)
	assert.Len(t, active, 2)
	assert.Contains(t, active, "m2")
	assert.Contains(t, active, "m3")

	preset, err := database.GetPreset("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3", "gone"}, preset.ModIDs, "applying never edits the preset")
}

func TestStats(t *testing.T) {
	database := newTestDB(t)
	seedMods(t, database)
	require.NoError(t, database.InsertPreset(domain.Preset{ID: "p1", Name: "One"}))

	stats, err := database.Stats()
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{InstalledMods: 3, ActiveMods: 1, InactiveMods: 2, Presets: 1}, stats)
}

func TestDeleteMod_KeepsPresetReferences(t *testing.T) {
	database := newTestDB(t)
	seedMods(t, database)
	require.NoError(t, database.InsertPreset(domain.Preset{ID: "p1", Name: "One", ModIDs: []string{"m1"}}))

	require.NoError(t, database.DeleteMod("m1"))

	preset, err := database.GetPreset("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, preset.ModIDs)
}
