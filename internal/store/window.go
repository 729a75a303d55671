package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// WindowSample is one feature sample as stored in the database. The JSON field
// names match the per-window files the training pipeline reads.
type WindowSample struct {
	RelativeYVelocity     float64 `json:"relativeYVelocity"`
	RelativeYAcceleration float64 `json:"relativeYAcceleration"`
	StabilityRatio        float64 `json:"stabilityRatio"`
}

// Window represents one recorded labeled training window.
type Window struct {
	ID         string
	Label      string
	Samples    []WindowSample
	CapturedAt time.Time
}

// WindowRepository provides CRUD operations for recorded windows.
type WindowRepository struct {
	db *sql.DB
}

// Windows returns the window repository for this store.
func (s *Store) Windows() *WindowRepository {
	return &WindowRepository{db: s.db}
}

// Create inserts a new labeled window, assigning it an ID and capture time.
func (r *WindowRepository) Create(label string, samples []WindowSample) (*Window, error) {
	data, err := json.Marshal(samples)
	if err != nil {
		return nil, err
	}

	w := &Window{
		ID:         uuid.New().String(),
		Label:      label,
		Samples:    samples,
		CapturedAt: time.Now(),
	}

	_, err = r.db.Exec(
		`INSERT INTO windows (id, label, samples, captured_at) VALUES (?, ?, ?, ?)`,
		w.ID, w.Label, string(data), w.CapturedAt,
	)
	if err != nil {
		return nil, err
	}

	return w, nil
}

// GetByID retrieves one window with its samples.
func (r *WindowRepository) GetByID(id string) (*Window, error) {
	w := &Window{}
	var data string

	err := r.db.QueryRow(
		`SELECT id, label, samples, captured_at FROM windows WHERE id = ?`,
		id,
	).Scan(&w.ID, &w.Label, &data, &w.CapturedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &w.Samples); err != nil {
		return nil, err
	}
	return w, nil
}

// List retrieves all windows, newest first, without their samples.
func (r *WindowRepository) List() ([]Window, error) {
	rows, err := r.db.Query(
		`SELECT id, label, captured_at FROM windows ORDER BY captured_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []Window
	for rows.Next() {
		var w Window
		if err := rows.Scan(&w.ID, &w.Label, &w.CapturedAt); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return windows, nil
}

// CountByLabel returns how many windows exist per label.
func (r *WindowRepository) CountByLabel() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM windows GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// Delete removes a window by its ID.
func (r *WindowRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM windows WHERE id = ?`, id)
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
