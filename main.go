package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"github.com/hujadis/geraship/config"
	"github.com/hujadis/geraship/internal/adapters/binanceclient"
	"github.com/hujadis/geraship/internal/adapters/csvfile"
	"github.com/hujadis/geraship/internal/adapters/logger"
	"github.com/hujadis/geraship/internal/adapters/sqlite"
	"github.com/hujadis/geraship/internal/app"
	"github.com/hujadis/geraship/internal/ports"
	"github.com/hujadis/geraship/internal/report"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Position Sources
	sources, closeSources, err := buildSources(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize position sources")
		log.Fatalf("FATAL: Failed to initialize position sources: %v", err)
	}
	defer closeSources()

	// 4. Initialize Application Service
	service, err := app.NewAnalysisService(cfg, appLogger, sources...)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize analysis service")
		closeSources()
		log.Fatalf("FATAL: Failed to initialize analysis service: %v", err)
	}

	// 5. Run one analysis pass and render it
	result, err := service.Run(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Analysis failed")
		closeSources()
		log.Fatalf("FATAL: Analysis failed: %v", err)
	}
	if err := report.Write(os.Stdout, result, cfg.ReportFormat, cfg.ReportTopN); err != nil {
		appLogger.Error(ctx, err, "Failed to write report")
		closeSources()
		log.Fatalf("FATAL: Failed to write report: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}

// buildSources creates the configured position sources in configuration
// order. The returned close function releases the ones that hold resources.
func buildSources(cfg *config.Config, appLogger ports.Logger) ([]ports.PositionSource, func(), error) {
	var sources []ports.PositionSource
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing position source")
			}
		}
		closers = nil
	}

	for _, name := range cfg.Sources {
		switch name {
		case config.SourceSQLite:
			repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, repo.Close)
			sources = append(sources, repo)
		case config.SourceCSV:
			src, err := csvfile.NewSource(cfg.CSVPath, appLogger)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sources = append(sources, src)
		case config.SourceBinance:
			client, err := binanceclient.New(binanceclient.Config{
				APIKey:       cfg.APIKey,
				SecretKey:    cfg.SecretKey,
				UseTestnet:   cfg.IsTestnet,
				AccountLabel: cfg.AccountLabel,
				Logger:       appLogger,
			})
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sources = append(sources, client)
		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown position source %q: %w", name, ports.ErrConfigurationError)
		}
	}
	return sources, closeAll, nil
}
