package domain

import (
	"fmt"
	"time"
)

// Window is a half-open time range [StartMs, EndMs) fetched with one request.
type Window struct {
	StartMs int64
	EndMs   int64
}

// PlanWindows splits [startMs, endMs) into contiguous windows of at most spanMs.
// Each window starts where the previous one ended and the last one ends at endMs.
func PlanWindows(startMs, endMs, spanMs int64) ([]Window, error) {
	if spanMs <= 0 {
		return nil, fmt.Errorf("window span must be positive, got %d", spanMs)
	}
	if startMs >= endMs {
		return nil, nil
	}
	windows := make([]Window, 0, (endMs-startMs)/spanMs+1)
	for current := startMs; current < endMs; {
		batchEnd := min(current+spanMs, endMs)
		windows = append(windows, Window{StartMs: current, EndMs: batchEnd})
		current = batchEnd
	}
	return windows, nil
}

// ParseDateMillis parses a YYYY-MM-DD date as midnight in loc and returns Unix milliseconds.
func ParseDateMillis(date string, loc *time.Location) (int64, error) {
	if loc == nil {
		return 0, fmt.Errorf("location is required to parse date %q", date)
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, expected %s: %w", date, DateLayout, err)
	}
	return t.UnixMilli(), nil
}
