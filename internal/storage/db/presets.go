package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modbridge/internal/domain"
)

// InsertPreset stores a preset and its mod ids
func (d *DB) InsertPreset(preset domain.Preset) error {
	if preset.CreatedAt.IsZero() {
		preset.CreatedAt = time.Now()
	}

	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO presets (id, name, created_at) VALUES (?, ?, ?)",
		preset.ID, preset.Name, preset.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("saving preset: %w", err)
	}

	if err := insertPresetMods(tx, preset.ID, preset.ModIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing preset: %w", err)
	}
	return nil
}

// UpdatePreset replaces the name and mod ids of a preset
func (d *DB) UpdatePreset(id, name string, modIDs []string) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("UPDATE presets SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("updating preset: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, id)
	}

	if _, err := tx.Exec("DELETE FROM preset_mods WHERE preset_id = ?", id); err != nil {
		return fmt.Errorf("clearing preset mods: %w", err)
	}
	if err := insertPresetMods(tx, id, modIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing preset: %w", err)
	}
	return nil
}

// DeletePreset removes a preset
func (d *DB) DeletePreset(id string) error {
	result, err := d.Exec("DELETE FROM presets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting preset: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, id)
	}
	return nil
}

// GetPreset returns a single preset with its mod ids
func (d *DB) GetPreset(id string) (domain.Preset, error) {
	var preset domain.Preset
	err := d.QueryRow("SELECT id, name, created_at FROM presets WHERE id = ?", id).
		Scan(&preset.ID, &preset.Name, &preset.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Preset{}, fmt.Errorf("%w: %s", domain.ErrPresetNotFound, id)
	}
	if err != nil {
		return domain.Preset{}, fmt.Errorf("getting preset: %w", err)
	}

	members, err := d.presetMods(id)
	if err != nil {
		return domain.Preset{}, err
	}
	preset.ModIDs = members[id]
	if preset.ModIDs == nil {
		preset.ModIDs = []string{}
	}
	return preset, nil
}

// ListPresets returns all presets in creation order
func (d *DB) ListPresets() ([]domain.Preset, error) {
	rows, err := d.Query("SELECT id, name, created_at FROM presets ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("querying presets: %w", err)
	}

	presets := []domain.Preset{}
	for rows.Next() {
		var p domain.Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning preset: %w", err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before the member query
	rows.Close()

	members, err := d.presetMods("")
	if err != nil {
		return nil, err
	}
	for i := range presets {
		presets[i].ModIDs = members[presets[i].ID]
		if presets[i].ModIDs == nil {
			presets[i].ModIDs = []string{}
		}
	}
	return presets, nil
}

// ApplyPreset makes the preset's existing mods the exact active set
func (d *DB) ApplyPreset(id string) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow("SELECT COUNT(*) FROM presets WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking preset: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, id)
	}

	if _, err := tx.Exec(`
		UPDATE mods SET is_active = CASE
			WHEN id IN (SELECT mod_id FROM preset_mods WHERE preset_id = ?) THEN 1
			ELSE 0
		END
	`, id); err != nil {
		return fmt.Errorf("applying preset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing apply: %w", err)
	}
	return nil
}

// presetMods loads member ids grouped by preset; an empty presetID loads all
func (d *DB) presetMods(presetID string) (map[string][]string, error) {
	query := "SELECT preset_id, mod_id FROM preset_mods ORDER BY preset_id, position"
	args := []any{}
	if presetID != "" {
		query = "SELECT preset_id, mod_id FROM preset_mods WHERE preset_id = ? ORDER BY position"
		args = append(args, presetID)
	}

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying preset mods: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var pid, mid string
		if err := rows.Scan(&pid, &mid); err != nil {
			return nil, fmt.Errorf("scanning preset mod: %w", err)
		}
		members[pid] = append(members[pid], mid)
	}
	return members, rows.Err()
}

func insertPresetMods(tx *sql.Tx, presetID string, modIDs []string) error {
	for i, modID := range modIDs {
		if _, err := tx.Exec(
			"INSERT INTO preset_mods (preset_id, mod_id, position) VALUES (?, ?, ?)",
			presetID, modID, i,
		); err != nil {
			return fmt.Errorf("saving preset mod %s: %w", modID, err)
		}
	}
	return nil
}
