package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"klineDownloader/config"
	"klineDownloader/internal/adapters/binanceclient"
	"klineDownloader/internal/adapters/logger"
	"klineDownloader/internal/adapters/sqlite"
	"klineDownloader/internal/app"
	"klineDownloader/internal/domain"
	"klineDownloader/internal/ports"
)

var (
	symbol    = flag.String("symbol", "", "trading pair, e.g. BTCUSDT (overrides SYMBOL)")
	interval  = flag.String("interval", "", "kline interval, e.g. 1h (overrides INTERVAL)")
	startDate = flag.String("start", "", "inclusive start date YYYY-MM-DD (overrides START_DATE)")
	endDate   = flag.String("end", "", "exclusive end date YYYY-MM-DD (overrides END_DATE)")
	market    = flag.String("market", "", "spot or futures (overrides MARKET)")
	outputDir = flag.String("out", "", "output directory (overrides OUTPUT_DIR)")
)

// flagOptions turns the flags given on the command line into config overrides.
func flagOptions() []config.Option {
	var opts []config.Option
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "symbol":
			opts = append(opts, func(c *config.Config) { c.Symbol = *symbol })
		case "interval":
			opts = append(opts, func(c *config.Config) { c.Interval = *interval })
		case "start":
			opts = append(opts, func(c *config.Config) { c.StartDate = *startDate })
		case "end":
			opts = append(opts, func(c *config.Config) { c.EndDate = *endDate })
		case "market":
			opts = append(opts, func(c *config.Config) { c.Market = domain.Market(*market) })
		case "out":
			opts = append(opts, func(c *config.Config) { c.OutputDir = *outputDir })
		}
	})
	return opts
}

func main() {
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(flagOptions()...)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, FilePath: cfg.LogFile})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Set up context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Initialize Run Journal (optional)
	var runs ports.RunRepository
	if cfg.RunDBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.RunDBPath, Logger: appLogger})
		if err != nil {
			appLogger.Warn(ctx, "Run journal unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			defer repo.Close()
			runs = repo
		}
	}

	// 5. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		Market:      cfg.Market,
		BaseURL:     cfg.BaseURL,
		HTTPTimeout: cfg.HTTPTimeout,
		Logger:      appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		exit(appLogger, "Failed to initialize Binance client: %v", err)
	}

	// 6. Initialize Download Service
	service, err := app.NewDownloadService(cfg, appLogger, binanceClient, runs)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize download service")
		exit(appLogger, "Failed to initialize download service: %v", err)
	}

	// 7. Run
	path, err := service.Download(ctx, cfg.Request())
	if err != nil {
		exit(appLogger, "Download failed: %v", err)
	}
	fmt.Println(path)
}

// exit closes the log file before terminating, since os.Exit skips deferred calls.
func exit(l *logger.StdLogger, format string, args ...interface{}) {
	l.Close()
	log.Fatalf("FATAL: "+format, args...)
}
