// Package sqlite stores submitted form records in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dlovans/stepform/pkg/stepform"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists wizard submissions. It implements stepform.Persister:
// create submissions insert a new record under a fresh id and edit
// submissions merge their payload over the stored one, so fields left out of
// an edit payload (such as credentials) keep their stored values.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// StoredRecord is a record with its bookkeeping timestamps.
type StoredRecord struct {
	stepform.Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	// One connection: SQLite never sees concurrent writers, and
	// ":memory:" databases stay a single database.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);
	`)
	return err
}

// Persist saves a submission according to its mode.
func (s *Store) Persist(ctx context.Context, sub stepform.Submission) error {
	switch sub.Mode {
	case stepform.ModeCreate:
		_, err := s.Create(ctx, sub.Payload)
		return err
	case stepform.ModeEdit:
		return s.Update(ctx, sub.RecordID, sub.Payload)
	default:
		return fmt.Errorf("persist: unknown mode %q", sub.Mode)
	}
}

// Create inserts payload as a new record and returns its id.
func (s *Store) Create(ctx context.Context, payload stepform.Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}

	id := uuid.NewString()
	ts := formatTime(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, payload, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(data), ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("inserting record: %w", err)
	}
	return id, nil
}

// Update merges payload into the stored record id.
func (s *Store) Update(ctx context.Context, id string, payload stepform.Payload) error {
	if id == "" {
		return fmt.Errorf("update: %w: empty id", ErrNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	stored := stepform.Values{}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("decoding stored record %q: %w", id, err)
	}
	for k, v := range payload {
		stored[k] = v
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET payload = ?, updated_at = ? WHERE id = ?`,
		string(data), formatTime(s.now()), id,
	); err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	return tx.Commit()
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, id string) (*StoredRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, payload, created_at, updated_at FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return rec, err
}

// List returns every record, oldest first.
func (s *Store) List(ctx context.Context) ([]*StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload, created_at, updated_at FROM records ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*StoredRecord, error) {
	var (
		rec                  StoredRecord
		raw                  string
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &raw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.Values = stepform.Values{}
	if err := json.Unmarshal([]byte(raw), &rec.Values); err != nil {
		return nil, fmt.Errorf("decoding record %q: %w", rec.ID, err)
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
