package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"klineDownloader/internal/domain"
	"klineDownloader/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.RunRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./kline_data/download_runs.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Debug(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS download_runs (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		market TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		output_path TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		total_records INTEGER NOT NULL DEFAULT 0,
		window_count INTEGER NOT NULL DEFAULT 0,
		failed_windows INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS download_windows (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		start_ms INTEGER NOT NULL,
		end_ms INTEGER NOT NULL,
		records INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_download_runs_started_at ON download_runs (started_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return r.addColumnIfMissing(ctx, "download_runs", "timezone", "TEXT NOT NULL DEFAULT ''")
}

// addColumnIfMissing upgrades journals created before a column existed.
func (r *Repository) addColumnIfMissing(ctx context.Context, table, column, definition string) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	if count > 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	r.logger.Info(ctx, "Run journal schema upgraded", map[string]interface{}{"table": table, "column": column})
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// CreateRun saves a new run.
func (r *Repository) CreateRun(ctx context.Context, run *domain.DownloadRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required: %w", ports.ErrInvalidRequest)
	}
	const query = `
	INSERT INTO download_runs (id, symbol, interval, market, timezone, start_date, end_date, output_path, status, started_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Timestamps are stored in UTC so that text ordering matches time ordering.
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Symbol, run.Interval, string(run.Market), run.Timezone, run.StartDate, run.EndDate, run.OutputPath, string(run.Status), run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w: %w", run.ID, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Run created", map[string]interface{}{"runID": run.ID, "symbol": run.Symbol})
	return nil
}

// FinishRun stores the final state of a run.
func (r *Repository) FinishRun(ctx context.Context, run *domain.DownloadRun) error {
	const query = `
	UPDATE download_runs
	SET output_path = ?, status = ?, total_records = ?, window_count = ?, failed_windows = ?,
	    error = ?, finished_at = ?
	WHERE id = ?`

	var finishedAt sql.NullTime
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		run.OutputPath, string(run.Status), run.TotalRecords, run.WindowCount, run.FailedWindows,
		run.Error, finishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w: %w", run.ID, ports.ErrUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for run %s: %w", run.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("run %s not found for update: %w", run.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Run finished", map[string]interface{}{"runID": run.ID, "status": run.Status})
	return nil
}

// RecordWindow appends the outcome of one window.
func (r *Repository) RecordWindow(ctx context.Context, result *domain.WindowResult) error {
	const query = `
	INSERT INTO download_windows (run_id, seq, start_ms, end_ms, records, error)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		result.RunID, result.Seq, result.StartMs, result.EndMs, result.Records, result.Error)
	if err != nil {
		return fmt.Errorf("failed to insert window %d of run %s: %w: %w", result.Seq, result.RunID, ports.ErrUpdateFailed, err)
	}
	return nil
}

// FindRun retrieves a run by ID. Returns nil, nil if not found.
func (r *Repository) FindRun(ctx context.Context, id string) (*domain.DownloadRun, error) {
	const query = `
	SELECT id, symbol, interval, market, timezone, start_date, end_date, output_path, status,
	       total_records, window_count, failed_windows, error, started_at, finished_at
	FROM download_runs
	WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Run not found by ID", map[string]interface{}{"runID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query run %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]*domain.DownloadRun, error) {
	const query = `
	SELECT id, symbol, interval, market, timezone, start_date, end_date, output_path, status,
	       total_records, window_count, failed_windows, error, started_at, finished_at
	FROM download_runs
	ORDER BY started_at DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	runs := make([]*domain.DownloadRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run during ListRuns: %w", err)
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

// ListWindows retrieves the windows of a run ordered by sequence.
func (r *Repository) ListWindows(ctx context.Context, runID string) ([]*domain.WindowResult, error) {
	const query = `
	SELECT run_id, seq, start_ms, end_ms, records, error
	FROM download_windows
	WHERE run_id = ?
	ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows of run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	windows := make([]*domain.WindowResult, 0)
	for rows.Next() {
		w := &domain.WindowResult{}
		if err := rows.Scan(&w.RunID, &w.Seq, &w.StartMs, &w.EndMs, &w.Records, &w.Error); err != nil {
			return nil, fmt.Errorf("failed to scan window during ListWindows: %w", err)
		}
		windows = append(windows, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating window rows: %w", err)
	}
	return windows, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRun scans a row into a domain.DownloadRun struct.
func scanRun(s scanner) (*domain.DownloadRun, error) {
	run := &domain.DownloadRun{}
	var market, status string
	var finishedAt sql.NullTime
	err := s.Scan(
		&run.ID, &run.Symbol, &run.Interval, &market, &run.Timezone, &run.StartDate, &run.EndDate, &run.OutputPath, &status,
		&run.TotalRecords, &run.WindowCount, &run.FailedWindows, &run.Error, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	run.Market = domain.Market(market)
	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return run, nil
}
