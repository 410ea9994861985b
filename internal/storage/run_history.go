package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// RunRecord represents one completed pipeline run
type RunRecord struct {
	ID             string          `json:"id"`
	ErrorID        string          `json:"error_id"`
	Service        string          `json:"service"`
	Category       string          `json:"category"`
	Severity       string          `json:"severity"`
	State          model.RunState  `json:"state"`
	Event          json.RawMessage `json:"event,omitempty"`
	Report         json.RawMessage `json:"report,omitempty"`
	OverallSuccess bool            `json:"overall_success"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// RunHistoryStorage defines the interface for recovery run history
type RunHistoryStorage interface {
	// Store stores a pipeline run record
	Store(ctx context.Context, record *RunRecord) error

	// Get retrieves a run record by ID
	Get(ctx context.Context, id string) (*RunRecord, error)

	// List retrieves run records with pagination and filters
	List(ctx context.Context, filters map[string]interface{}, offset, limit int) ([]*RunRecord, error)

	// Count returns the total number of records matching the filters
	Count(ctx context.Context, filters map[string]interface{}) (int, error)

	// DeleteBefore deletes records older than the specified time
	DeleteBefore(ctx context.Context, before time.Time) error
}

// SQLiteRunHistory implements RunHistoryStorage using SQLite
type SQLiteRunHistory struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteRunHistory creates a new SQLite-based run history storage
func NewSQLiteRunHistory(logger *zap.Logger, dbPath string) (*SQLiteRunHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteRunHistory{
		logger: logger,
		db:     db,
	}

	if err := storage.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// initialize creates the necessary tables if they don't exist
func (s *SQLiteRunHistory) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_history (
			id TEXT PRIMARY KEY,
			error_id TEXT NOT NULL,
			service TEXT NOT NULL,
			category TEXT NOT NULL,
			severity TEXT NOT NULL,
			state TEXT NOT NULL,
			event TEXT,
			report TEXT,
			overall_success INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			completed_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_run_history_error_id ON run_history(error_id);
		CREATE INDEX IF NOT EXISTS idx_run_history_service ON run_history(service);
		CREATE INDEX IF NOT EXISTS idx_run_history_state ON run_history(state);
		CREATE INDEX IF NOT EXISTS idx_run_history_started_at ON run_history(started_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Store implements RunHistoryStorage.Store
func (s *SQLiteRunHistory) Store(ctx context.Context, record *RunRecord) error {
	var eventStr, reportStr string
	if len(record.Event) > 0 {
		eventStr = string(record.Event)
	}
	if len(record.Report) > 0 {
		reportStr = string(record.Report)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_history (
			id, error_id, service, category, severity, state,
			event, report, overall_success, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ErrorID,
		record.Service,
		record.Category,
		record.Severity,
		record.State,
		sql.NullString{String: eventStr, Valid: eventStr != ""},
		sql.NullString{String: reportStr, Valid: reportStr != ""},
		record.OverallSuccess,
		record.StartedAt,
		sql.NullTime{Time: derefTime(record.CompletedAt), Valid: record.CompletedAt != nil},
	)
	if err != nil {
		return fmt.Errorf("failed to store run history: %w", err)
	}
	return nil
}

// Get implements RunHistoryStorage.Get
func (s *SQLiteRunHistory) Get(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, error_id, service, category, severity, state,
			event, report, overall_success, started_at, completed_at
		FROM run_history
		WHERE id = ?`, id)

	record, err := scanRunRecord(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan run history: %w", err)
	}
	return record, nil
}

// List implements RunHistoryStorage.List
func (s *SQLiteRunHistory) List(ctx context.Context, filters map[string]interface{}, offset, limit int) ([]*RunRecord, error) {
	query := `SELECT id, error_id, service, category, severity, state,
		event, report, overall_success, started_at, completed_at FROM run_history`
	query, args := appendFilters(query, filters)
	query += " ORDER BY started_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list run history: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRunRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run history: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return records, nil
}

// Count implements RunHistoryStorage.Count
func (s *SQLiteRunHistory) Count(ctx context.Context, filters map[string]interface{}) (int, error) {
	query, args := appendFilters("SELECT COUNT(*) FROM run_history", filters)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count run history: %w", err)
	}
	return count, nil
}

// DeleteBefore implements RunHistoryStorage.DeleteBefore
func (s *SQLiteRunHistory) DeleteBefore(ctx context.Context, before time.Time) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM run_history WHERE started_at < ?", before)
	if err != nil {
		return fmt.Errorf("failed to delete run history: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	s.logger.Info("Deleted old run history records",
		zap.Time("before", before),
		zap.Int64("deleted", affected))

	return nil
}

// Close closes the database connection
func (s *SQLiteRunHistory) Close() error {
	return s.db.Close()
}

func appendFilters(query string, filters map[string]interface{}) (string, []interface{}) {
	args := make([]interface{}, 0, len(filters))
	if len(filters) > 0 {
		query += " WHERE"
		first := true
		for key, value := range filters {
			if !first {
				query += " AND"
			}
			query += fmt.Sprintf(" %s = ?", key)
			args = append(args, value)
			first = false
		}
	}
	return query, args
}

func scanRunRecord(scan func(dest ...interface{}) error) (*RunRecord, error) {
	record := &RunRecord{}
	var event, report sql.NullString
	var completedAt sql.NullTime

	err := scan(
		&record.ID,
		&record.ErrorID,
		&record.Service,
		&record.Category,
		&record.Severity,
		&record.State,
		&event,
		&report,
		&record.OverallSuccess,
		&record.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if event.Valid && event.String != "" {
		record.Event = json.RawMessage(event.String)
	}
	if report.Valid && report.String != "" {
		record.Report = json.RawMessage(report.String)
	}
	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}

	return record, nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
