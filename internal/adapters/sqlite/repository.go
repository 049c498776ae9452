package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sniperbot/internal/domain"
	"sniperbot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.SignalRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/sniperbot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		mode TEXT NOT NULL,
		entry_price REAL NOT NULL,
		tp_price REAL NOT NULL,
		sl_price REAL NOT NULL,
		created_at TIMESTAMP NOT NULL,
		outcome TEXT NOT NULL DEFAULT 'OPEN',
		close_price REAL DEFAULT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		pnl_pips REAL DEFAULT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signals_outcome ON signals (outcome);
	CREATE INDEX IF NOT EXISTS idx_signals_symbol_created_at ON signals (symbol, created_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
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

// Record saves a new signal and returns its assigned ID.
func (r *Repository) Record(ctx context.Context, rec *domain.SignalRecord) (int64, error) {
	const query = `
	INSERT INTO signals (symbol, direction, mode, entry_price, tp_price, sl_price, created_at, outcome)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	outcome := rec.Outcome
	if outcome == "" {
		outcome = domain.OutcomeOpen
	}

	result, err := r.db.ExecContext(ctx, query,
		rec.Symbol, string(rec.Direction), string(rec.Mode),
		rec.EntryPrice, rec.TPPrice, rec.SLPrice, rec.CreatedAt, string(outcome))
	if err != nil {
		return 0, fmt.Errorf("failed to insert signal for symbol %s: %w: %w", rec.Symbol, ports.ErrQueryFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for signal %s: %w", rec.Symbol, err)
	}
	rec.ID = id
	rec.Outcome = outcome
	r.logger.Debug(ctx, "Signal recorded", map[string]interface{}{"signalID": id, "symbol": rec.Symbol, "direction": rec.Direction})
	return id, nil
}

// OpenSignals retrieves signals still awaiting an outcome, most recent first.
func (r *Repository) OpenSignals(ctx context.Context) ([]*domain.SignalRecord, error) {
	const query = `
	SELECT id, symbol, direction, mode, entry_price, tp_price, sl_price, created_at,
	       outcome, COALESCE(close_price, 0), closed_at, COALESCE(pnl_pips, 0)
	FROM signals
	WHERE outcome = ?
	ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, string(domain.OutcomeOpen))
	if err != nil {
		return nil, fmt.Errorf("failed to query open signals: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	return collectSignals(rows)
}

// CloseSignal resolves a signal with its outcome and pip PnL.
func (r *Repository) CloseSignal(ctx context.Context, id int64, outcome domain.Outcome, closePrice, pnlPips float64) error {
	const query = `
	UPDATE signals
	SET outcome = ?, close_price = ?, closed_at = ?, pnl_pips = ?
	WHERE id = ? AND outcome = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(outcome), closePrice, time.Now().UTC(), pnlPips, id, string(domain.OutcomeOpen))
	if err != nil {
		return fmt.Errorf("failed to close signal ID %d: %w: %w", id, ports.ErrUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for close signal ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("open signal ID %d not found for close: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Signal closed", map[string]interface{}{"signalID": id, "outcome": outcome, "pnlPips": pnlPips})
	return nil
}

// Stats aggregates outcomes over the last days, optionally for one symbol.
func (r *Repository) Stats(ctx context.Context, symbol string, days int) (*domain.SignalStats, error) {
	query := `
	SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN outcome = 'WIN' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome = 'LOSS' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome = 'OPEN' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(COALESCE(pnl_pips, 0)), 0)
	FROM signals
	WHERE created_at >= datetime('now', ?)`
	args := []interface{}{fmt.Sprintf("-%d days", days)}

	if symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, symbol)
	}

	stats := &domain.SignalStats{}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&stats.Total, &stats.Wins, &stats.Losses, &stats.Open, &stats.TotalPips)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate signal stats: %w: %w", ports.ErrQueryFailed, err)
	}

	if closed := stats.Wins + stats.Losses; closed > 0 {
		stats.WinRate = float64(stats.Wins) / float64(closed) * 100
		stats.AvgPips = stats.TotalPips / float64(closed)
	}
	return stats, nil
}

// RecentSignals retrieves the most recent signals up to a limit.
func (r *Repository) RecentSignals(ctx context.Context, limit int) ([]*domain.SignalRecord, error) {
	const query = `
	SELECT id, symbol, direction, mode, entry_price, tp_price, sl_price, created_at,
	       outcome, COALESCE(close_price, 0), closed_at, COALESCE(pnl_pips, 0)
	FROM signals
	ORDER BY created_at DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	return collectSignals(rows)
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func collectSignals(rows *sql.Rows) ([]*domain.SignalRecord, error) {
	records := make([]*domain.SignalRecord, 0)
	for rows.Next() {
		rec, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}
	return records, nil
}

// scanSignal scans a row into a domain.SignalRecord struct.
func scanSignal(s scanner) (*domain.SignalRecord, error) {
	rec := &domain.SignalRecord{}
	var direction, mode, outcome string
	var closedAt sql.NullTime
	err := s.Scan(
		&rec.ID, &rec.Symbol, &direction, &mode,
		&rec.EntryPrice, &rec.TPPrice, &rec.SLPrice, &rec.CreatedAt,
		&outcome, &rec.ClosePrice, &closedAt, &rec.PnLPips)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	rec.Direction = domain.Direction(direction)
	rec.Mode = domain.EntryMode(mode)
	rec.Outcome = domain.Outcome(outcome)
	if closedAt.Valid {
		rec.ClosedAt = closedAt.Time
	}
	return rec, nil
}
