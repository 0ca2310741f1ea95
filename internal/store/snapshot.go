package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// SnapshotPerson is one member of the people set recorded with a snapshot.
type SnapshotPerson struct {
	Area      int     `json:"area"`
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`
}

// Snapshot is a saved rendered frame and the state that produced it.
type Snapshot struct {
	ID                string           `json:"id"`
	Path              string           `json:"path"`
	NearThreshold     int              `json:"near_threshold"`
	FarThreshold      int              `json:"far_threshold"`
	BlobAreaThreshold int              `json:"blob_area_threshold"`
	People            []SnapshotPerson `json:"people"`
	CreatedAt         time.Time        `json:"created_at"`
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot and its people. An empty ID is replaced with a
// new UUID.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.CreatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (id, path, near_threshold, far_threshold, blob_area_threshold, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Path, snap.NearThreshold, snap.FarThreshold, snap.BlobAreaThreshold, snap.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i, p := range snap.People {
		_, err := tx.Exec(
			`INSERT INTO snapshot_people (snapshot_id, position, area, centroid_x, centroid_y)
			 VALUES (?, ?, ?, ?, ?)`,
			snap.ID, i, p.Area, p.CentroidX, p.CentroidY,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a snapshot and its people by ID.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap := &Snapshot{}

	err := r.db.QueryRow(
		`SELECT id, path, near_threshold, far_threshold, blob_area_threshold, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.Path, &snap.NearThreshold, &snap.FarThreshold, &snap.BlobAreaThreshold, &snap.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	people, err := r.people(id)
	if err != nil {
		return nil, err
	}
	snap.People = people

	return snap, nil
}

func (r *SnapshotRepository) people(id string) ([]SnapshotPerson, error) {
	rows, err := r.db.Query(
		`SELECT area, centroid_x, centroid_y FROM snapshot_people
		 WHERE snapshot_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	people := []SnapshotPerson{}
	for rows.Next() {
		var p SnapshotPerson
		if err := rows.Scan(&p.Area, &p.CentroidX, &p.CentroidY); err != nil {
			return nil, err
		}
		people = append(people, p)
	}

	return people, rows.Err()
}

// List retrieves all snapshots, newest first. People are not loaded.
func (r *SnapshotRepository) List() ([]*Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, path, near_threshold, far_threshold, blob_area_threshold, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		err := rows.Scan(&snap.ID, &snap.Path, &snap.NearThreshold, &snap.FarThreshold, &snap.BlobAreaThreshold, &snap.CreatedAt)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// Delete removes a snapshot and its people by ID. The image file is left
// to the caller.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
