package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oakmund/fleetboard/pkg/logger"
)

// BriefingRecord is one generated shift briefing.
type BriefingRecord struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// BriefingStorage handles storage of generated briefings
type BriefingStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewBriefingStorage creates a new SQLite briefing storage
func NewBriefingStorage(db *sql.DB, log *logger.Logger) *BriefingStorage {
	storage := &BriefingStorage{
		db:     db,
		logger: log.Named("sqlite-briefings"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize briefing storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *BriefingStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS briefings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create briefings table: %w", err)
	}
	return nil
}

// StoreBriefing stores one generated briefing
func (s *BriefingStorage) StoreBriefing(content, model string) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO briefings (content, model, created_at) VALUES (?, ?, ?)`,
		content, model, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert briefing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetLatestBriefing returns the most recent briefing, or nil when none
// has been generated.
func (s *BriefingStorage) GetLatestBriefing() (*BriefingRecord, error) {
	row := s.db.QueryRow(`SELECT id, content, model, created_at FROM briefings ORDER BY created_at DESC, id DESC LIMIT 1`)

	var rec BriefingRecord
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.Content, &rec.Model, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan briefing: %w", err)
	}

	var err error
	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &rec, nil
}
