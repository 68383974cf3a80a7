// Command fetch_positions pulls the open positions of a Binance futures account
// and stores them as a snapshot for later offline analysis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hujadis/geraship/config"
	"github.com/hujadis/geraship/internal/adapters/binanceclient"
	"github.com/hujadis/geraship/internal/adapters/logger"
	"github.com/hujadis/geraship/internal/adapters/sqlite"
	"github.com/hujadis/geraship/internal/app"
	"github.com/hujadis/geraship/internal/domain"
	"github.com/hujadis/geraship/internal/ports"
	"github.com/hujadis/geraship/internal/utils"
)

func main() {
	target := flag.String("out", "sqlite", "where to store the snapshot: sqlite, csv or both")
	allowEmpty := flag.Bool("allow-empty", false, "store an empty snapshot instead of failing")
	archive := flag.Bool("archive", false, "with csv output, also write a timestamped copy under data/snapshots")
	flag.Parse()

	if *target != "sqlite" && *target != "csv" && *target != "both" {
		log.Fatalf("FATAL: invalid -out %q (want sqlite, csv or both)", *target)
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:       cfg.APIKey,
		SecretKey:    cfg.SecretKey,
		UseTestnet:   cfg.IsTestnet,
		AccountLabel: cfg.AccountLabel,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.Ping(ctx); err != nil {
		log.Fatalf("FATAL: Binance is not reachable: %v", err)
	}

	// 4. Fetch through the service so timeout and logging match the analysis run
	service, err := app.NewAnalysisService(cfg, appLogger, binanceClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize service: %v", err)
	}
	positions, err := service.FetchSnapshot(ctx)
	if err != nil {
		log.Fatalf("FATAL: Error fetching positions: %v", err)
	}
	if len(positions) == 0 && !*allowEmpty {
		err := fmt.Errorf("refusing to overwrite the stored snapshot: %w", ports.ErrEmptySnapshot)
		appLogger.Error(ctx, err, "Nothing to store")
		log.Fatalf("FATAL: %v", err)
	}
	appLogger.Info(ctx, "Fetched positions", map[string]interface{}{"count": len(positions)})

	// 5. Store the snapshot
	if *target == "sqlite" || *target == "both" {
		if err := saveToSQLite(ctx, cfg, appLogger, positions); err != nil {
			log.Fatalf("FATAL: Error saving snapshot to SQLite: %v", err)
		}
	}
	if *target == "csv" || *target == "both" {
		if err := utils.WritePositionsToCSV(positions, cfg.CSVPath); err != nil {
			log.Fatalf("FATAL: Error writing CSV: %v", err)
		}
		appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": cfg.CSVPath})

		if *archive {
			name := fmt.Sprintf("positions_%s.csv", time.Now().UTC().Format("20060102T150405Z"))
			path := filepath.Join(filepath.Dir(cfg.CSVPath), "snapshots", name)
			if err := utils.WritePositionsToCSV(positions, path); err != nil {
				log.Fatalf("FATAL: Error writing archive CSV: %v", err)
			}
			appLogger.Info(ctx, "Archived to", map[string]interface{}{"filename": path})
		}
	}
}

func saveToSQLite(ctx context.Context, cfg *config.Config, appLogger ports.Logger, positions []domain.Position) error {
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.SaveSnapshot(ctx, positions); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted, previous snapshot kept")
		}
		return err
	}
	count, err := repo.CountPositions(ctx)
	if err != nil {
		return err
	}
	appLogger.Info(ctx, "Snapshot stored", map[string]interface{}{"path": cfg.DBPath, "positions": count})
	return nil
}
