package db

import "fmt"

// CurrentVersion is the schema version after all migrations have run
const CurrentVersion = 3

func (d *DB) migrate() error {
	if _, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	version, err := d.SchemaVersion()
	if err != nil {
		return err
	}

	migrations := []func(*DB) error{
		migrateV1,
		migrateV2,
		migrateV3,
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](d); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := d.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

func migrateV1(d *DB) error {
	_, err := d.Exec(`
		CREATE TABLE mods (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			character TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 0,
			date_added DATETIME NOT NULL
		)
	`)
	return err
}

func migrateV2(d *DB) error {
	// preset_mods has no foreign key to mods: presets may keep ids of deleted mods
	statements := []string{
		`CREATE TABLE presets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE preset_mods (
			preset_id TEXT NOT NULL,
			mod_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY(preset_id, mod_id),
			FOREIGN KEY(preset_id) REFERENCES presets(id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func migrateV3(d *DB) error {
	_, err := d.Exec(`CREATE INDEX idx_mods_character ON mods(character)`)
	return err
}
