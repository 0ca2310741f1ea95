package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - runtime settings as key-value pairs, values JSON encoded
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Snapshots table - rendered frames saved to disk
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			near_threshold INTEGER NOT NULL,
			far_threshold INTEGER NOT NULL,
			blob_area_threshold INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Snapshot people table - the people set at the time of a snapshot
		`CREATE TABLE IF NOT EXISTS snapshot_people (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			area INTEGER NOT NULL,
			centroid_x REAL NOT NULL,
			centroid_y REAL NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshot_people_snapshot_id ON snapshot_people(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
