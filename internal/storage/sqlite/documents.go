package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oakmund/fleetboard/pkg/logger"
)

// DocumentKind identifies which feed a raw document came from.
type DocumentKind string

const (
	DocSchedule DocumentKind = "schedule"
	DocStatus   DocumentKind = "status"
	DocHandover DocumentKind = "handover"
	DocDefects  DocumentKind = "defects"
)

// DocumentRecord is one raw pasted document.
type DocumentRecord struct {
	ID        int64        `json:"id"`
	Kind      DocumentKind `json:"kind"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}

// DocumentStorage handles storage of raw source documents
type DocumentStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDocumentStorage creates a new SQLite document storage
func NewDocumentStorage(db *sql.DB, log *logger.Logger) *DocumentStorage {
	storage := &DocumentStorage{
		db:     db,
		logger: log.Named("sqlite-documents"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize document storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *DocumentStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind, created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create document index: %w", err)
	}

	return nil
}

// StoreDocument stores a raw document and returns its ID
func (s *DocumentStorage) StoreDocument(kind DocumentKind, content string) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO documents (kind, content, created_at) VALUES (?, ?, ?)`,
		string(kind), content, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetLatestDocument returns the most recent document of the given kind,
// or nil when none has been stored.
func (s *DocumentStorage) GetLatestDocument(kind DocumentKind) (*DocumentRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, content, created_at
		FROM documents
		WHERE kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		string(kind),
	)

	var rec DocumentRecord
	var kindStr, createdAt string
	if err := row.Scan(&rec.ID, &kindStr, &rec.Content, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	rec.Kind = DocumentKind(kindStr)
	var err error
	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &rec, nil
}
