package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.CandleStore and ports.PositionStore using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (or creates) the database and prepares the schema.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/silver_bot.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	cfg.Logger.Info(context.Background(), "SQLite repository ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS candles (
		ts TIMESTAMP PRIMARY KEY,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS positions (
		user_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		buy_price TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// --- ports.CandleStore ---

// LastTimestamp returns the newest stored candle timestamp.
func (r *Repository) LastTimestamp(ctx context.Context) (time.Time, bool, error) {
	var ts sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT MAX(ts) FROM candles`).Scan(&ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: querying last timestamp: %v", ports.ErrStoreInconsistent, err)
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return ts.Time.UTC(), true, nil
}

// Append inserts candles with timestamps strictly greater than the last
// stored timestamp, preserving order. Runs in one transaction so a failure
// leaves no partial writes.
func (r *Repository) Append(ctx context.Context, candles []domain.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	last, hasLast, err := r.LastTimestamp(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning append transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candles (ts, open, high, low, close) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, c := range candles {
		if c.Timestamp.IsZero() {
			return 0, fmt.Errorf("%w: candle without timestamp", ports.ErrStoreInconsistent)
		}
		if hasLast && !c.Timestamp.After(last) {
			continue // duplicate or stale row
		}
		if _, err := stmt.ExecContext(ctx, c.Timestamp.UTC(), c.Open, c.High, c.Low, c.Close); err != nil {
			return 0, fmt.Errorf("inserting candle at %s: %w", c.Timestamp, err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing append: %w", err)
	}
	r.logger.Debug(ctx, "candles appended", map[string]interface{}{"added": added, "offered": len(candles)})
	return added, nil
}

// TrimTo deletes the oldest rows until at most max remain.
func (r *Repository) TrimTo(ctx context.Context, max int) (int, error) {
	if max < 0 {
		return 0, fmt.Errorf("trim bound cannot be negative")
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM candles WHERE ts IN (
			SELECT ts FROM candles ORDER BY ts ASC
			LIMIT (SELECT CASE WHEN COUNT(*) > ? THEN COUNT(*) - ? ELSE 0 END FROM candles)
		)`, max, max)
	if err != nil {
		return 0, fmt.Errorf("trimming candles: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading trim result: %w", err)
	}
	if removed > 0 {
		r.logger.Info(ctx, "old candle rows trimmed", map[string]interface{}{"removed": removed, "cap": max})
	}
	return int(removed), nil
}

// Count returns the number of stored candle rows.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting candles: %w", err)
	}
	return n, nil
}

// --- ports.PositionStore ---

// Get retrieves the position for the user id, or nil when absent.
func (r *Repository) Get(ctx context.Context, userID string) (*domain.TradePosition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, state, buy_price, updated_at FROM positions WHERE user_id = ?`, userID)

	var pos domain.TradePosition
	var priceStr string
	err := row.Scan(&pos.UserID, &pos.State, &priceStr, &pos.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying position for %s: %w", userID, err)
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("%w: stored buy price %q is not numeric", ports.ErrStoreInconsistent, priceStr)
	}
	pos.BuyPrice = price
	return &pos, nil
}

// Put creates or replaces the position for its user id.
func (r *Repository) Put(ctx context.Context, pos *domain.TradePosition) error {
	if pos == nil || pos.UserID == "" {
		return fmt.Errorf("position with user id is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO positions (user_id, state, buy_price, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state=excluded.state,
			buy_price=excluded.buy_price, updated_at=excluded.updated_at`,
		pos.UserID, string(pos.State), pos.BuyPrice.String(), pos.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storing position for %s: %w", pos.UserID, err)
	}
	return nil
}

// Delete removes the position for the user id.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting position for %s: %w", userID, err)
	}
	return nil
}
