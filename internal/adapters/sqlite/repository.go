package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hujadis/geraship/internal/domain"
	"github.com/hujadis/geraship/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var _ ports.SnapshotRepository = (*Repository)(nil)

// Repository stores a position snapshot in SQLite. It implements
// ports.SnapshotRepository and therefore also ports.PositionSource.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (or creates) the snapshot database.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository: %w", ports.ErrConfigurationError)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/positions.db"
	}
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(ctx, err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(ctx, err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(ctx, err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(ctx); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(ctx, err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(ctx, "SQLite snapshot store ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates the snapshot table. seq keeps the source order,
// every optional field is nullable.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS positions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		position_id INTEGER NOT NULL,
		asset TEXT NOT NULL DEFAULT '',
		size REAL NULL,
		entry_price REAL NULL,
		leverage REAL NULL,
		is_long INTEGER NULL,
		pnl REAL NULL,
		pnl_percentage REAL NULL,
		status TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NULL,
		updated_at TIMESTAMP NULL,
		address TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_positions_asset ON positions (asset);
	CREATE INDEX IF NOT EXISTS idx_positions_address ON positions (address);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Name identifies the source in logs.
func (r *Repository) Name() string { return "sqlite" }

// SaveSnapshot replaces the stored snapshot in a single transaction.
func (r *Repository) SaveSnapshot(ctx context.Context, positions []domain.Position) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w: %w", ports.ErrUpdateFailed, err)
	}

	const insert = `
	INSERT INTO positions (position_id, asset, size, entry_price, leverage, is_long, pnl,
	                       pnl_percentage, status, created_at, updated_at, address)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer stmt.Close()

	for _, p := range positions {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Asset, nullFloat(p.Size), nullFloat(p.EntryPrice), nullFloat(p.Leverage),
			nullBool(p.IsLong), nullFloat(p.PnL), nullFloat(p.PnLPercentage), p.Status,
			nullTime(p.CreatedAt), nullTime(p.UpdatedAt), p.Address)
		if err != nil {
			return fmt.Errorf("failed to insert position %d: %w: %w", p.ID, ports.ErrUpdateFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w: %w", ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Snapshot saved", map[string]interface{}{"positions": len(positions)})
	return nil
}

// FetchPositions returns the stored snapshot in its original order.
func (r *Repository) FetchPositions(ctx context.Context) ([]domain.Position, error) {
	const query = `
	SELECT position_id, asset, size, entry_price, leverage, is_long, pnl,
	       pnl_percentage, status, created_at, updated_at, address
	FROM positions
	ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	positions := make([]domain.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w: %w", ports.ErrQueryFailed, err)
		}
		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return positions, nil
}

// CountPositions returns the number of stored positions.
func (r *Repository) CountPositions(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM positions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count positions: %w: %w", ports.ErrQueryFailed, err)
	}
	return count, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(s scanner) (domain.Position, error) {
	var p domain.Position
	var size, entry, leverage, pnl, pnlPct sql.NullFloat64
	var isLong sql.NullBool
	var createdAt, updatedAt sql.NullTime
	err := s.Scan(&p.ID, &p.Asset, &size, &entry, &leverage, &isLong, &pnl,
		&pnlPct, &p.Status, &createdAt, &updatedAt, &p.Address)
	if err != nil {
		return p, err
	}
	p.Size = floatPtr(size)
	p.EntryPrice = floatPtr(entry)
	p.Leverage = floatPtr(leverage)
	p.PnL = floatPtr(pnl)
	p.PnLPercentage = floatPtr(pnlPct)
	if isLong.Valid {
		p.IsLong = domain.Bool(isLong.Bool)
	}
	if createdAt.Valid {
		p.CreatedAt = domain.Time(createdAt.Time)
	}
	if updatedAt.Valid {
		p.UpdatedAt = domain.Time(updatedAt.Time)
	}
	return p, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}
