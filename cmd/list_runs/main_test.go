package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klineDownloader/internal/domain"
)

func TestPrintRuns(t *testing.T) {
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	runs := []*domain.DownloadRun{
		{
			ID: "run-1", Symbol: "BTCUSDT", Interval: "1h", Market: domain.MarketSpot,
			StartDate: "2024-01-01", EndDate: "2024-01-02", Status: domain.RunStatusCompleted,
			TotalRecords: 14, WindowCount: 3, FailedWindows: 1,
			StartedAt: started, FinishedAt: started.Add(1500 * time.Millisecond),
		},
		{
			ID: "run-2", Symbol: "ETHUSDT", Interval: "1d", Market: domain.MarketFutures,
			StartDate: "2023-01-01", EndDate: "2024-01-01", Status: domain.RunStatusRunning,
			StartedAt: started,
		},
	}

	var buf bytes.Buffer
	printRuns(&buf, runs)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "2024-01-01..2024-01-02")
	assert.Contains(t, lines[1], "1/3")
	assert.Contains(t, lines[1], "1.5s")
	assert.Contains(t, lines[2], "futures")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "-"), "unfinished run has no duration")
}

func TestPrintWindows(t *testing.T) {
	run := &domain.DownloadRun{
		ID: "run-1", Symbol: "BTCUSDT", Interval: "1h",
		StartDate: "2024-01-01", EndDate: "2024-01-02",
		Status: domain.RunStatusCompleted, OutputPath: "kline_data/BTCUSDT_1h_2024-01-01_to_2024-01-02.txt",
	}
	windows := []*domain.WindowResult{
		{RunID: "run-1", Seq: 0, StartMs: 1704067200000, EndMs: 1704103200000, Records: 10},
		{RunID: "run-1", Seq: 1, StartMs: 1704103200000, EndMs: 1704139200000, Error: "timeout"},
	}

	var buf bytes.Buffer
	printWindows(&buf, run, windows)
	out := buf.String()

	assert.Contains(t, out, "Run run-1: BTCUSDT 1h 2024-01-01..2024-01-02 (completed)")
	assert.Contains(t, out, "Output: kline_data/BTCUSDT_1h_2024-01-01_to_2024-01-02.txt")
	assert.NotContains(t, out, "Error:")
	assert.Contains(t, out, "timeout")
	assert.Equal(t, 2+2+2, strings.Count(out, "\n"), "summary, output, blank, header and two windows")
}

func TestPrintWindows_UsesRunTimezone(t *testing.T) {
	run := &domain.DownloadRun{
		ID: "run-1", Symbol: "BTCUSDT", Interval: "1h", Timezone: "Asia/Tokyo",
		StartDate: "2024-01-01", EndDate: "2024-01-02", Status: domain.RunStatusCompleted,
	}
	windows := []*domain.WindowResult{
		{RunID: "run-1", Seq: 0, StartMs: 1704067200000, EndMs: 1704103200000, Records: 10},
	}

	var buf bytes.Buffer
	printWindows(&buf, run, windows)
	out := buf.String()

	assert.Contains(t, out, "From (Asia/Tokyo)")
	assert.Contains(t, out, "2024-01-01 09:00:00")
	assert.Contains(t, out, "2024-01-01 19:00:00")
}

func TestRunLocation(t *testing.T) {
	assert.Equal(t, time.Local, runLocation(&domain.DownloadRun{}))
	assert.Equal(t, time.Local, runLocation(&domain.DownloadRun{Timezone: "Mars/Olympus"}))
	assert.Equal(t, "UTC", runLocation(&domain.DownloadRun{Timezone: "UTC"}).String())
}
