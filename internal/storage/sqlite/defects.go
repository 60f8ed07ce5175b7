package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// DefectStorage handles storage of parsed defect records
type DefectStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDefectStorage creates a new SQLite defect storage
func NewDefectStorage(db *sql.DB, log *logger.Logger) *DefectStorage {
	storage := &DefectStorage{
		db:     db,
		logger: log.Named("sqlite-defects"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize defect storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *DefectStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS defects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL,
			unit_code TEXT NOT NULL,
			us_since TEXT,
			defect_text TEXT,
			rect_text TEXT,
			etr TEXT,
			is_recovery INTEGER NOT NULL DEFAULT 0,
			ground_runs TEXT NOT NULL,
			flight_checks TEXT NOT NULL,
			workcenter TEXT,
			prime_trade TEXT,
			system TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create defects table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_defects_unit_code ON defects(unit_code)`,
		`CREATE INDEX IF NOT EXISTS idx_defects_batch_id ON defects(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_defects_created_at ON defects(created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create defect index: %w", err)
		}
	}

	return nil
}

// ReplaceDefects stores the records of one freshly parsed defect feed
// under a fresh batch id.
func (s *DefectStorage) ReplaceDefects(records map[string]*parse.DefectRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var batch int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(batch_id), 0) + 1 FROM defects`).Scan(&batch); err != nil {
		return fmt.Errorf("failed to allocate batch id: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		groundRuns, err := json.Marshal(rec.GroundRunReqs)
		if err != nil {
			return fmt.Errorf("failed to marshal ground runs: %w", err)
		}
		flightChecks, err := json.Marshal(rec.FlightCheckReqs)
		if err != nil {
			return fmt.Errorf("failed to marshal flight checks: %w", err)
		}

		isRecovery := 0
		if rec.IsRecovery {
			isRecovery = 1
		}

		_, err = tx.Exec(
			`INSERT INTO defects
			(batch_id, unit_code, us_since, defect_text, rect_text, etr, is_recovery, ground_runs, flight_checks, workcenter, prime_trade, system, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batch, rec.UnitCode, rec.UnserviceableSince, rec.DefectText, rec.RectText, rec.ETR,
			isRecovery, string(groundRuns), string(flightChecks),
			rec.Workcenter, rec.PrimeTrade, rec.System, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert defect: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestDefects returns the most recently stored defect set keyed by
// unit code.
func (s *DefectStorage) GetLatestDefects() (map[string]*parse.DefectRecord, error) {
	rows, err := s.db.Query(
		`SELECT unit_code, us_since, defect_text, rect_text, etr, is_recovery, ground_runs, flight_checks, workcenter, prime_trade, system
		FROM defects
		WHERE batch_id = (SELECT MAX(batch_id) FROM defects)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query defects: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*parse.DefectRecord)
	for rows.Next() {
		rec, err := scanDefectRow(rows)
		if err != nil {
			return nil, err
		}
		records[rec.UnitCode] = rec
	}

	return records, rows.Err()
}

// GetDefectHistory returns stored defect records for one unit, newest
// first.
func (s *DefectStorage) GetDefectHistory(unitCode string, limit int) ([]*parse.DefectRecord, error) {
	rows, err := s.db.Query(
		`SELECT unit_code, us_since, defect_text, rect_text, etr, is_recovery, ground_runs, flight_checks, workcenter, prime_trade, system
		FROM defects
		WHERE unit_code = ?
		ORDER BY batch_id DESC
		LIMIT ?`,
		unitCode, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query defect history: %w", err)
	}
	defer rows.Close()

	var records []*parse.DefectRecord
	for rows.Next() {
		rec, err := scanDefectRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// scanDefectRow scans one database row into a DefectRecord
func scanDefectRow(rows *sql.Rows) (*parse.DefectRecord, error) {
	var rec parse.DefectRecord
	var isRecovery int
	var groundRuns, flightChecks string

	if err := rows.Scan(
		&rec.UnitCode,
		&rec.UnserviceableSince,
		&rec.DefectText,
		&rec.RectText,
		&rec.ETR,
		&isRecovery,
		&groundRuns,
		&flightChecks,
		&rec.Workcenter,
		&rec.PrimeTrade,
		&rec.System,
	); err != nil {
		return nil, fmt.Errorf("failed to scan defect: %w", err)
	}

	rec.IsRecovery = isRecovery != 0
	if err := json.Unmarshal([]byte(groundRuns), &rec.GroundRunReqs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ground runs: %w", err)
	}
	if err := json.Unmarshal([]byte(flightChecks), &rec.FlightCheckReqs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flight checks: %w", err)
	}

	return &rec, nil
}
