// Package database opens the SQL connection pool for the configured store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"ekaa/internal/platform/config"
)

// Open connects to postgres or sqlite according to cfg.Store and pings it.
// The memory store needs no database; Open returns nil, nil for it.
func Open(ctx context.Context, cfg config.Server) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Store {
	case config.StorePostgres:
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	case config.StoreSQLite:
		db, err = sql.Open("sqlite3", SQLiteDSN(cfg.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// One writer at a time; the busy timeout absorbs short contention.
		db.SetMaxOpenConns(1)
	case config.StoreMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Store, err)
	}
	return db, nil
}

// SQLiteDSN builds a file URI with WAL journaling and a busy timeout.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
}
