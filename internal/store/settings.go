package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/depthportrait/internal/control"
)

// SettingsRepository persists control.Settings as one row per field.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Load returns the stored settings. Fields without a row keep their default
// value. The boolean is false when nothing has been stored yet.
func (r *SettingsRepository) Load() (control.Settings, bool, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return control.Default(), false, err
	}
	defer rows.Close()

	fields := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return control.Default(), false, err
		}
		fields[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return control.Default(), false, err
	}

	if len(fields) == 0 {
		return control.Default(), false, nil
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return control.Default(), false, err
	}

	settings := control.Default()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return control.Default(), false, fmt.Errorf("decode stored settings: %w", err)
	}

	return settings.Normalize(), true, nil
}

// Save writes every field of settings.
func (r *SettingsRepository) Save(settings control.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range fields {
		_, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(value),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
