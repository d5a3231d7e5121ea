package ports

import (
	"context"

	"klineDownloader/internal/domain"
)

// RunRepository defines the interface for journaling download runs and their windows.
type RunRepository interface {
	// CreateRun saves a new run. The run's ID must already be set.
	CreateRun(ctx context.Context, run *domain.DownloadRun) error
	// FinishRun stores the final status, counters and output path of a run.
	FinishRun(ctx context.Context, run *domain.DownloadRun) error
	// RecordWindow appends the outcome of one window to a run.
	RecordWindow(ctx context.Context, result *domain.WindowResult) error
	// FindRun retrieves a run by its ID.
	// Returns nil, nil if not found.
	FindRun(ctx context.Context, id string) (*domain.DownloadRun, error)
	// ListRuns retrieves the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]*domain.DownloadRun, error)
	// ListWindows retrieves the windows of a run ordered by sequence.
	ListWindows(ctx context.Context, runID string) ([]*domain.WindowResult, error)
}
