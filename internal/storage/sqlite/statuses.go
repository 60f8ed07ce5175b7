package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// StatusStorage handles storage of per-unit status entries
type StatusStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStatusStorage creates a new SQLite status storage
func NewStatusStorage(db *sql.DB, log *logger.Logger) *StatusStorage {
	storage := &StatusStorage{
		db:     db,
		logger: log.Named("sqlite-statuses"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize status storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *StatusStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS statuses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL,
			unit_code TEXT NOT NULL,
			title TEXT NOT NULL,
			input_time TEXT,
			etr TEXT,
			notes TEXT NOT NULL,
			status_tag TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create statuses table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_statuses_unit_code ON statuses(unit_code)`,
		`CREATE INDEX IF NOT EXISTS idx_statuses_batch_id ON statuses(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_statuses_created_at ON statuses(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_statuses_tag ON statuses(status_tag)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create status index: %w", err)
		}
	}

	return nil
}

// ReplaceStatuses replaces the stored status set with the entries of one
// freshly parsed report. The previous set is kept only as history; each
// report gets its own batch id so two ingests never merge, however close
// together they land.
func (s *StatusStorage) ReplaceStatuses(entries map[string]*parse.StatusEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var batch int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(batch_id), 0) + 1 FROM statuses`).Scan(&batch); err != nil {
		return fmt.Errorf("failed to allocate batch id: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, entry := range entries {
		notes, err := json.Marshal(entry.Notes)
		if err != nil {
			return fmt.Errorf("failed to marshal notes: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO statuses (batch_id, unit_code, title, input_time, etr, notes, status_tag, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			batch, entry.UnitCode, entry.Title, entry.InputTime, entry.ETR, string(notes), string(entry.StatusTag), now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert status: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestStatuses returns the most recently stored status set keyed by
// unit code.
func (s *StatusStorage) GetLatestStatuses() (map[string]*parse.StatusEntry, error) {
	rows, err := s.db.Query(
		`SELECT unit_code, title, input_time, etr, notes, status_tag
		FROM statuses
		WHERE batch_id = (SELECT MAX(batch_id) FROM statuses)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]*parse.StatusEntry)
	for rows.Next() {
		var entry parse.StatusEntry
		var notes, tag string
		if err := rows.Scan(&entry.UnitCode, &entry.Title, &entry.InputTime, &entry.ETR, &notes, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		if err := json.Unmarshal([]byte(notes), &entry.Notes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
		}
		entry.StatusTag = parse.StatusTag(tag)
		entries[entry.UnitCode] = &entry
	}

	return entries, rows.Err()
}

// GetStatusHistory returns stored entries for one unit, newest first.
func (s *StatusStorage) GetStatusHistory(unitCode string, limit int) ([]*parse.StatusEntry, error) {
	rows, err := s.db.Query(
		`SELECT unit_code, title, input_time, etr, notes, status_tag
		FROM statuses
		WHERE unit_code = ?
		ORDER BY batch_id DESC
		LIMIT ?`,
		unitCode, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var entries []*parse.StatusEntry
	for rows.Next() {
		var entry parse.StatusEntry
		var notes, tag string
		if err := rows.Scan(&entry.UnitCode, &entry.Title, &entry.InputTime, &entry.ETR, &notes, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		if err := json.Unmarshal([]byte(notes), &entry.Notes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
		}
		entry.StatusTag = parse.StatusTag(tag)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
