package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/astrachat/astrachat/internal/config"
)

const connectPingTimeout = 5 * time.Second

// openDB is swapped in tests.
var openDB = sql.Open

// Connect opens the history database described by cfg, applies its pool
// limits and returns a Store once the database answers a ping. The Store
// owns the pool; release it with Close.
func Connect(ctx context.Context, cfg config.HistoryConfig) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("ASTRACHAT_HISTORY_DSN is required")
	}

	db, err := openDB("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	configurePool(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	return &Store{db: db, owned: true}, nil
}

// configurePool leaves database/sql defaults in place for unset limits.
func configurePool(db *sql.DB, cfg config.HistoryConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
