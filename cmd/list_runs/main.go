package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"
	_ "time/tzdata" // zone names recorded in the journal

	"klineDownloader/internal/adapters/logger"
	"klineDownloader/internal/adapters/sqlite"
	"klineDownloader/internal/domain"
)

var (
	dbPath = flag.String("db", "kline_data/download_runs.db", "run journal database")
	limit  = flag.Int("limit", 20, "number of recent runs to show")
	runID  = flag.String("run", "", "show the windows of this run instead of the run list")
)

const timeLayout = "2006-01-02 15:04:05"

func main() {
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Fatalf("Run journal not found at %s: %v", *dbPath, err)
	}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: *dbPath, Logger: logger.NewStdLogger(logger.LevelWarn)})
	if err != nil {
		log.Fatalf("Error opening run journal: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	if *runID != "" {
		run, err := repo.FindRun(ctx, *runID)
		if err != nil {
			log.Fatalf("Error loading run %s: %v", *runID, err)
		}
		if run == nil {
			log.Fatalf("Run %s not found", *runID)
		}
		windows, err := repo.ListWindows(ctx, *runID)
		if err != nil {
			log.Fatalf("Error loading windows of run %s: %v", *runID, err)
		}
		printWindows(os.Stdout, run, windows)
		return
	}

	runs, err := repo.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatalf("Error listing runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No download runs recorded yet.")
		return
	}
	printRuns(os.Stdout, runs)
}

// printRuns writes one aligned row per run.
func printRuns(out io.Writer, runs []*domain.DownloadRun) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSymbol\tInterval\tMarket\tRange\tStatus\tRecords\tFailed\tStarted\tDuration\t")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s..%s\t%s\t%d\t%d/%d\t%s\t%s\t\n",
			run.ID,
			run.Symbol,
			run.Interval,
			run.Market,
			run.StartDate, run.EndDate,
			run.Status,
			run.TotalRecords,
			run.FailedWindows, run.WindowCount,
			run.StartedAt.Local().Format(timeLayout),
			runDuration(run),
		)
	}
	w.Flush()
}

// printWindows writes the run summary followed by its windows.
func printWindows(out io.Writer, run *domain.DownloadRun, windows []*domain.WindowResult) {
	fmt.Fprintf(out, "Run %s: %s %s %s..%s (%s)\n", run.ID, run.Symbol, run.Interval, run.StartDate, run.EndDate, run.Status)
	if run.OutputPath != "" {
		fmt.Fprintf(out, "Output: %s\n", run.OutputPath)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}
	fmt.Fprintln(out)

	loc := runLocation(run)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "#\tFrom (%s)\tTo\tRecords\tError\t\n", loc)
	for _, win := range windows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t\n",
			win.Seq+1,
			domain.FormatMillis(win.StartMs, loc),
			domain.FormatMillis(win.EndMs, loc),
			win.Records,
			win.Error,
		)
	}
	w.Flush()
}

func runDuration(run *domain.DownloadRun) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

// runLocation returns the timezone the run was downloaded in, falling back to the local zone.
func runLocation(run *domain.DownloadRun) *time.Location {
	if run.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(run.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
