// Package storage persists upstream call metadata. Article data is never stored.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ByteNewz/internal/domain"
	"ByteNewz/internal/ports"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	usageTable = "usage_events"
)

const usageSchema = `
CREATE TABLE IF NOT EXISTS usage_events (
	id          TEXT PRIMARY KEY,
	provider    TEXT NOT NULL,
	method      TEXT NOT NULL,
	endpoint    TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	occurred_at BIGINT NOT NULL
)`

const usageIndex = `CREATE INDEX IF NOT EXISTS idx_usage_events_occurred_at ON usage_events (occurred_at)`

// UsageRepository stores usage events in SQLite or Postgres.
type UsageRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.UsageRecorder = (*UsageRepository)(nil)
	_ ports.UsageReader   = (*UsageRepository)(nil)
)

// NewUsageRepository wires an open sql.DB for the given driver.
func NewUsageRepository(db *sql.DB, driver string) *UsageRepository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &UsageRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder).RunWith(db),
	}
}

// OpenUsageRepository opens the database and creates the schema.
func OpenUsageRepository(ctx context.Context, driver, dsn string) (*UsageRepository, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create usage db dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported usage driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping usage db: %w", err)
	}
	for _, stmt := range []string{usageSchema, usageIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init usage schema: %w", err)
		}
	}

	return NewUsageRepository(db, driver), nil
}

// Record inserts one event.
func (r *UsageRepository) Record(ctx context.Context, e domain.UsageEvent) error {
	if r == nil || r.db == nil {
		return nil
	}

	_, err := r.builder.
		Insert(usageTable).
		Columns("id", "provider", "method", "endpoint", "status_code", "duration_ms", "error", "occurred_at").
		Values(e.ID, e.Provider, e.Method, e.Endpoint, e.StatusCode, e.Duration.Milliseconds(), e.Error, e.OccurredAt.UnixMilli()).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

// Summary aggregates events at or after since, per provider, sorted by name.
func (r *UsageRepository) Summary(ctx context.Context, since time.Time) ([]domain.UsageSummary, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	rows, err := r.builder.
		Select(
			"provider",
			"COUNT(*)",
			"SUM(CASE WHEN error <> '' OR status_code < 200 OR status_code > 299 THEN 1 ELSE 0 END)",
			"AVG(duration_ms)",
		).
		From(usageTable).
		Where(sq.GtOrEq{"occurred_at": since.UnixMilli()}).
		GroupBy("provider").
		OrderBy("provider").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}

	var out []domain.UsageSummary
	for rows.Next() {
		var (
			s        domain.UsageSummary
			calls    int64
			failures sql.NullInt64
			avgMS    sql.NullFloat64
		)
		if err := rows.Scan(&s.Provider, &calls, &failures, &avgMS); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		s.Calls = int(calls)
		s.Failures = int(failures.Int64)
		s.AvgLatency = time.Duration(avgMS.Float64 * float64(time.Millisecond))
		out = append(out, s)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return out, nil
}

// Prune deletes events that occurred before cutoff and returns how many.
func (r *UsageRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if r == nil || r.db == nil {
		return 0, nil
	}

	res, err := r.builder.
		Delete(usageTable).
		Where(sq.Lt{"occurred_at": cutoff.UnixMilli()}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune usage events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune usage events: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (r *UsageRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
