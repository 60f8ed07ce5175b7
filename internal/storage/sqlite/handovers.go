package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// HandoverStorage handles storage of parsed handover documents
type HandoverStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewHandoverStorage creates a new SQLite handover storage
func NewHandoverStorage(db *sql.DB, log *logger.Logger) *HandoverStorage {
	storage := &HandoverStorage{
		db:     db,
		logger: log.Named("sqlite-handovers"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize handover storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *HandoverStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS handovers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create handovers table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_handovers_created_at ON handovers(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create handover index: %w", err)
	}

	return nil
}

// StoreHandover stores one parsed handover snapshot
func (s *HandoverStorage) StoreHandover(h *parse.Handover) (int64, error) {
	payload, err := json.Marshal(h)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal handover: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO handovers (payload, created_at) VALUES (?, ?)`,
		string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert handover: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetLatestHandover returns the most recently stored handover, or nil
// when none has been stored.
func (s *HandoverStorage) GetLatestHandover() (*parse.Handover, error) {
	row := s.db.QueryRow(`SELECT payload FROM handovers ORDER BY created_at DESC, id DESC LIMIT 1`)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan handover: %w", err)
	}

	var h parse.Handover
	if err := json.Unmarshal([]byte(payload), &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal handover: %w", err)
	}
	return &h, nil
}
