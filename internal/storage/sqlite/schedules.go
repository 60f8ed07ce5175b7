package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// ScheduleStorage handles storage of parsed day records
type ScheduleStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewScheduleStorage creates a new SQLite schedule storage
func NewScheduleStorage(db *sql.DB, log *logger.Logger) *ScheduleStorage {
	storage := &ScheduleStorage{
		db:     db,
		logger: log.Named("sqlite-schedules"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize schedule storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *ScheduleStorage) initDB() error {
	// Day records are stored whole as JSON: the dashboard always reads
	// them as complete snapshots, never by individual column.
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS day_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL,
			date_iso TEXT,
			date_label TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create day_records table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_day_records_date ON day_records(date_iso, created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create day record index: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_day_records_batch_id ON day_records(batch_id)`)
	if err != nil {
		return fmt.Errorf("failed to create day record batch index: %w", err)
	}

	return nil
}

// ReplaceWeek stores the day records of one freshly parsed weekly
// schedule under a fresh batch id.
func (s *ScheduleStorage) ReplaceWeek(records []*parse.DayRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var batch int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(batch_id), 0) + 1 FROM day_records`).Scan(&batch); err != nil {
		return fmt.Errorf("failed to allocate batch id: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal day record: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO day_records (batch_id, date_iso, date_label, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
			batch, rec.DateISO, rec.DateLabel, string(payload), now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert day record: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestWeek returns the most recently stored set of day records in
// source order.
func (s *ScheduleStorage) GetLatestWeek() ([]*parse.DayRecord, error) {
	rows, err := s.db.Query(
		`SELECT payload
		FROM day_records
		WHERE batch_id = (SELECT MAX(batch_id) FROM day_records)
		ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query day records: %w", err)
	}
	defer rows.Close()

	var records []*parse.DayRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan day record: %w", err)
		}
		var rec parse.DayRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal day record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
