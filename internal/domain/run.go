package domain

import "time"

// DownloadRun is the journal record of one download.
type DownloadRun struct {
	ID            string
	Symbol        string
	Interval      string
	Market        Market
	Timezone      string // Location used for dates and output timestamps
	StartDate     string
	EndDate       string
	OutputPath    string
	Status        RunStatus
	TotalRecords  int
	WindowCount   int
	FailedWindows int
	Error         string // Fatal error text when Status is failed
	StartedAt     time.Time
	FinishedAt    time.Time // Zero while running
}

// WindowResult records the outcome of fetching one window.
type WindowResult struct {
	RunID   string
	Seq     int // Zero-based position of the window within the run
	StartMs int64
	EndMs   int64
	Records int
	Error   string // Empty on success
}

// Failed reports whether the window fetch failed.
func (w *WindowResult) Failed() bool {
	return w.Error != ""
}
