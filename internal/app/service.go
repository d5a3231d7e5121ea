package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"klineDownloader/config"
	"klineDownloader/internal/domain"
	"klineDownloader/internal/ports"
	"klineDownloader/internal/utils"
)

// DownloadService walks a date range in request-sized windows and writes the collected klines to a file.
type DownloadService struct {
	cfg     *config.Config
	logger  ports.Logger
	fetcher ports.KlineFetcher
	runs    ports.RunRepository // nil disables the run journal
	limiter *rate.Limiter
	now     func() time.Time
}

// NewDownloadService creates a new download service instance.
// runs may be nil, in which case no journal is kept.
func NewDownloadService(
	cfg *config.Config,
	logger ports.Logger,
	fetcher ports.KlineFetcher,
	runs ports.RunRepository,
) (*DownloadService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || fetcher == nil {
		return nil, fmt.Errorf("missing required dependencies for DownloadService")
	}

	// Validate config values needed by service
	if cfg.BatchLimit <= 0 || cfg.BatchLimit > domain.MaxBatchLimit {
		return nil, fmt.Errorf("configuration BatchLimit must be between 1 and %d", domain.MaxBatchLimit)
	}
	if cfg.RequestDelay < 0 {
		return nil, fmt.Errorf("configuration RequestDelay cannot be negative")
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("configuration Location is required")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("configuration OutputDir is required")
	}
	if _, err := utils.HeaderFor(cfg.HeaderLang); err != nil {
		return nil, fmt.Errorf("configuration HeaderLang: %w", err)
	}

	// One token per request; the first request never waits.
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	return &DownloadService{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		runs:    runs,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}, nil
}

// OutputPath returns the file a request is written to.
func (s *DownloadService) OutputPath(req domain.DownloadRequest) string {
	name := fmt.Sprintf("%s_%s_%s_to_%s.txt", req.Symbol, req.Interval, req.StartDate, req.EndDate)
	return filepath.Join(s.cfg.OutputDir, name)
}

// Download fetches every window of the request, writes the file and returns its path.
// A failed window is logged and contributes no records; any other error aborts the run.
func (s *DownloadService) Download(ctx context.Context, req domain.DownloadRequest) (string, error) {
	run := &domain.DownloadRun{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Interval:  req.Interval,
		Market:    s.cfg.Market,
		Timezone:  s.cfg.Location.String(),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    domain.RunStatusRunning,
		StartedAt: s.now(),
	}
	s.logger.Info(ctx, "Starting kline download", map[string]interface{}{
		"runID":    run.ID,
		"symbol":   req.Symbol,
		"interval": req.Interval,
		"from":     req.StartDate,
		"to":       req.EndDate,
	})
	s.journalCreate(ctx, run)

	path, err := s.download(ctx, req, run)

	run.FinishedAt = s.now()
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		s.logger.Error(ctx, err, "Kline download failed", map[string]interface{}{"runID": run.ID})
	} else {
		run.Status = domain.RunStatusCompleted
		run.OutputPath = path
	}
	s.journalFinish(ctx, run)

	return path, err
}

func (s *DownloadService) download(ctx context.Context, req domain.DownloadRequest, run *domain.DownloadRun) (string, error) {
	// 1. Init
	interval, err := domain.ParseInterval(req.Interval)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	if req.Symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", ports.ErrInvalidRequest)
	}
	startMs, err := domain.ParseDateMillis(req.StartDate, s.cfg.Location)
	if err != nil {
		return "", fmt.Errorf("%w: start date: %w", ports.ErrInvalidRequest, err)
	}
	endMs, err := domain.ParseDateMillis(req.EndDate, s.cfg.Location)
	if err != nil {
		return "", fmt.Errorf("%w: end date: %w", ports.ErrInvalidRequest, err)
	}
	if startMs >= endMs {
		return "", fmt.Errorf("%w: start date %s must be before end date %s", ports.ErrInvalidRequest, req.StartDate, req.EndDate)
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory '%s': %w", s.cfg.OutputDir, err)
	}

	windows, err := domain.PlanWindows(startMs, endMs, interval.WindowSpanMillis(s.cfg.BatchLimit))
	if err != nil {
		return "", err
	}
	run.WindowCount = len(windows)
	s.logger.Debug(ctx, "Planned download windows", map[string]interface{}{"runID": run.ID, "windows": len(windows)})

	// 2. Window loop
	klines, err := s.fetchWindows(ctx, req, windows, run)
	if err != nil {
		return "", err
	}
	run.TotalRecords = len(klines)

	// 3. Format, 4. Persist
	header, err := utils.HeaderFor(s.cfg.HeaderLang)
	if err != nil {
		return "", err
	}
	path := s.OutputPath(req)
	if err := utils.WriteKlinesToTSV(domain.FormatKlines(klines, s.cfg.Location), header, path); err != nil {
		return "", fmt.Errorf("failed to write output file '%s': %w", path, err)
	}

	// 5. Return
	s.logger.Info(ctx, "Kline download completed", map[string]interface{}{
		"runID":         run.ID,
		"records":       len(klines),
		"failedWindows": run.FailedWindows,
		"file":          path,
	})
	return path, nil
}

// fetchWindows requests each window in order and concatenates the results.
func (s *DownloadService) fetchWindows(ctx context.Context, req domain.DownloadRequest, windows []domain.Window, run *domain.DownloadRun) ([]*domain.Kline, error) {
	var all []*domain.Kline

	for seq, w := range windows {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("download interrupted before window %d: %w: %w", seq, ports.ErrContextCanceled, err)
		}

		fields := map[string]interface{}{
			"window": fmt.Sprintf("%d/%d", seq+1, len(windows)),
			"from":   domain.FormatMillis(w.StartMs, s.cfg.Location),
			"to":     domain.FormatMillis(w.EndMs, s.cfg.Location),
		}
		s.logger.Info(ctx, "Downloading window", fields)

		klines, err := s.fetcher.FetchKlines(ctx, domain.FetchRequest{
			Symbol:   req.Symbol,
			Interval: req.Interval,
			StartMs:  w.StartMs,
			EndMs:    w.EndMs,
			Limit:    s.cfg.BatchLimit,
		})

		result := &domain.WindowResult{RunID: run.ID, Seq: seq, StartMs: w.StartMs, EndMs: w.EndMs}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("download interrupted at window %d: %w: %w", seq, ports.ErrContextCanceled, errors.Join(ctxErr, err))
			}
			run.FailedWindows++
			result.Error = err.Error()
			s.logger.Warn(ctx, "Window fetch failed, skipping", map[string]interface{}{
				"window": fields["window"],
				"error":  err.Error(),
			})
		} else {
			all = append(all, klines...)
			result.Records = len(klines)
			s.logger.Info(ctx, "Window downloaded", map[string]interface{}{
				"window":  fields["window"],
				"records": len(klines),
			})
		}
		s.journalWindow(ctx, result)
	}

	return all, nil
}

// --- Run journal helpers ---
// Journal failures are logged and never fail a download.

func (s *DownloadService) journalCreate(ctx context.Context, run *domain.DownloadRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn(ctx, "Failed to journal run start", map[string]interface{}{"runID": run.ID, "error": err.Error()})
	}
}

func (s *DownloadService) journalWindow(ctx context.Context, result *domain.WindowResult) {
	if s.runs == nil {
		return
	}
	if err := s.runs.RecordWindow(context.WithoutCancel(ctx), result); err != nil {
		s.logger.Warn(ctx, "Failed to journal window", map[string]interface{}{"runID": result.RunID, "seq": result.Seq, "error": err.Error()})
	}
}

func (s *DownloadService) journalFinish(ctx context.Context, run *domain.DownloadRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn(ctx, "Failed to journal run result", map[string]interface{}{"runID": run.ID, "error": err.Error()})
	}
}
