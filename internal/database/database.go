package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"go-resell-backoffice/internal/tabular"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver   string
	URL      string
	MaxConns int32
	MinConns int32
}

// DB holds whichever backend handle is open and the tabular store over it.
type DB struct {
	Driver string
	Pool   *pgxpool.Pool
	SQL    *sql.DB
	Store  tabular.Store
}

func Open(ctx context.Context, opts Options) (*DB, error) {
	switch opts.Driver {
	case DriverPostgres, "":
		pool, err := NewPool(ctx, opts.URL, opts.MaxConns, opts.MinConns)
		if err != nil {
			return nil, err
		}
		return &DB{Driver: DriverPostgres, Pool: pool, Store: tabular.NewPostgresStore(pool)}, nil
	case DriverSQLite:
		db, err := OpenSQLite(ctx, opts.URL)
		if err != nil {
			return nil, err
		}
		return &DB{Driver: DriverSQLite, SQL: db, Store: tabular.NewSQLiteStore(db)}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
}

func NewPool(ctx context.Context, databaseURL string, maxConns int32, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "driver", DriverPostgres, "max_conns", maxConns, "min_conns", minConns)
	return pool, nil
}

// OpenSQLite opens a single-connection database with foreign keys enforced.
// path may be a plain file path or a "file:" URI.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	slog.Info("database connected", "driver", DriverSQLite, "path", path)
	return db, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.SQL != nil {
		_ = db.SQL.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	if db.SQL != nil {
		return db.SQL.PingContext(ctx)
	}
	return fmt.Errorf("database is not open")
}
