package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modbridge/internal/domain"
)

// InsertMod registers a mod record
func (d *DB) InsertMod(mod domain.Mod) error {
	if mod.DateAdded.IsZero() {
		mod.DateAdded = time.Now()
	}

	_, err := d.Exec(`
		INSERT INTO mods (id, title, character, is_active, date_added)
		VALUES (?, ?, ?, ?, ?)
	`, mod.ID, mod.Title, mod.Character, mod.IsActive, mod.DateAdded.UTC())
	if err != nil {
		return fmt.Errorf("saving mod: %w", err)
	}
	return nil
}

// ListMods returns all mods in the order they were added
func (d *DB) ListMods() ([]domain.Mod, error) {
	rows, err := d.Query(`
		SELECT id, title, character, is_active, date_added
		FROM mods
		ORDER BY date_added ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying mods: %w", err)
	}
	defer rows.Close()

	mods := []domain.Mod{}
	for rows.Next() {
		var mod domain.Mod
		if err := rows.Scan(&mod.ID, &mod.Title, &mod.Character, &mod.IsActive, &mod.DateAdded); err != nil {
			return nil, fmt.Errorf("scanning mod: %w", err)
		}
		mods = append(mods, mod)
	}

	return mods, rows.Err()
}

// GetMod returns a single mod
func (d *DB) GetMod(id string) (domain.Mod, error) {
	var mod domain.Mod
	err := d.QueryRow(`
		SELECT id, title, character, is_active, date_added
		FROM mods WHERE id = ?
	`, id).Scan(&mod.ID, &mod.Title, &mod.Character, &mod.IsActive, &mod.DateAdded)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Mod{}, fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
	}
	if err != nil {
		return domain.Mod{}, fmt.Errorf("getting mod: %w", err)
	}
	return mod, nil
}

// ToggleModActive flips the active flag and returns the new value
func (d *DB) ToggleModActive(id string) (bool, error) {
	tx, err := d.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var active bool
	err = tx.QueryRow("SELECT is_active FROM mods WHERE id = ?", id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
	}
	if err != nil {
		return false, fmt.Errorf("reading mod state: %w", err)
	}

	active = !active
	if _, err := tx.Exec("UPDATE mods SET is_active = ? WHERE id = ?", active, id); err != nil {
		return false, fmt.Errorf("setting mod active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing toggle: %w", err)
	}
	return active, nil
}

// DeleteMod removes a mod record. Presets referencing it are left alone.
func (d *DB) DeleteMod(id string) error {
	result, err := d.Exec("DELETE FROM mods WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting mod: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
	}
	return nil
}

// Stats counts mods and presets
func (d *DB) Stats() (domain.Stats, error) {
	var stats domain.Stats
	err := d.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM mods),
			(SELECT COUNT(*) FROM mods WHERE is_active = 1),
			(SELECT COUNT(*) FROM presets)
	`).Scan(&stats.InstalledMods, &stats.ActiveMods, &stats.Presets)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("counting stats: %w", err)
	}
	stats.InactiveMods = stats.InstalledMods - stats.ActiveMods
	return stats, nil
}
