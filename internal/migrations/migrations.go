package migrations

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var embeddedFS embed.FS

const (
	migrationTable = "astrachat_schema_migrations"
	// advisoryLockKey serialises concurrent astrachat-migrate runs against
	// one database.
	advisoryLockKey int64 = 7_420_113_801
)

var migrationNamePattern = regexp.MustCompile(`^([0-9]+)_(.+)\.(up|down)\.sql$`)

// Runner applies the embedded query-history schema migrations.
type Runner struct {
	fsys fs.FS
}

func NewRunner() *Runner {
	return &Runner{fsys: embeddedFS}
}

// Status describes the schema state of one database.
type Status struct {
	Current int64
	Latest  int64
	Pending []int64
}

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// Up applies pending migrations in version order. steps <= 0 applies all of
// them.
func (r *Runner) Up(ctx context.Context, db *sql.DB, steps int) (int, error) {
	count := 0
	err := r.withLock(ctx, db, func(conn *sql.Conn) error {
		migrations, applied, err := r.state(ctx, conn)
		if err != nil {
			return err
		}
		for _, item := range migrations {
			if slices.Contains(applied, item.Version) {
				continue
			}
			if steps > 0 && count >= steps {
				break
			}
			err := execStep(ctx, conn, "apply", item.Version, item.UpSQL,
				`INSERT INTO `+migrationTable+` (version, name) VALUES ($1, $2)`, item.Version, item.Name)
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// Down rolls back the most recent migrations. steps <= 0 rolls back one.
func (r *Runner) Down(ctx context.Context, db *sql.DB, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	count := 0
	err := r.withLock(ctx, db, func(conn *sql.Conn) error {
		migrations, applied, err := r.state(ctx, conn)
		if err != nil {
			return err
		}
		for i := len(applied) - 1; i >= 0 && count < steps; i-- {
			version := applied[i]
			idx := slices.IndexFunc(migrations, func(m migration) bool { return m.Version == version })
			if idx < 0 {
				return fmt.Errorf("applied migration %d is missing from source", version)
			}
			err := execStep(ctx, conn, "rollback", version, migrations[idx].DownSQL,
				`DELETE FROM `+migrationTable+` WHERE version = $1`, version)
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// Status reports the highest applied version and the versions not yet
// applied.
func (r *Runner) Status(ctx context.Context, db *sql.DB) (Status, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	migrations, applied, err := r.state(ctx, conn)
	if err != nil {
		return Status{}, err
	}
	status := Status{Pending: []int64{}}
	if len(applied) > 0 {
		status.Current = applied[len(applied)-1]
	}
	for _, item := range migrations {
		status.Latest = max(status.Latest, item.Version)
		if !slices.Contains(applied, item.Version) {
			status.Pending = append(status.Pending, item.Version)
		}
	}
	return status, nil
}

func (r *Runner) withLock(ctx context.Context, db *sql.DB, fn func(conn *sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
	}()
	return fn(conn)
}

// state loads the source migrations and the applied versions in ascending
// order, creating the version table if needed.
func (r *Runner) state(ctx context.Context, conn *sql.Conn) ([]migration, []int64, error) {
	migrations, err := loadMigrations(r.fsys)
	if err != nil {
		return nil, nil, err
	}
	_, err = conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+migrationTable+` (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return nil, nil, fmt.Errorf("ensure migration table: %w", err)
	}

	rows, err := conn.QueryContext(ctx, `SELECT version FROM `+migrationTable+` ORDER BY version ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var applied []int64
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, nil, fmt.Errorf("scan version: %w", err)
		}
		applied = append(applied, version)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows error: %w", err)
	}
	return migrations, applied, nil
}

// execStep runs script and the version-table bookkeeping in one transaction.
func execStep(ctx context.Context, conn *sql.Conn, action string, version int64, script, bookkeeping string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("%s migration %d: %w", action, version, err)
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return fmt.Errorf("record %s of migration %d: %w", action, version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s of migration %d: %w", action, version, err)
	}
	return nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "sql/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	items := map[int64]*migration{}
	for _, name := range names {
		matches := migrationNamePattern.FindStringSubmatch(path.Base(name))
		if matches == nil {
			continue
		}
		version, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version for %q: %w", name, err)
		}
		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", name, err)
		}

		item, ok := items[version]
		if !ok {
			item = &migration{Version: version, Name: matches[2]}
			items[version] = item
		} else if item.Name != matches[2] {
			return nil, fmt.Errorf("migration %d has mismatched names %q and %q", version, item.Name, matches[2])
		}
		if matches[3] == "up" {
			item.UpSQL = string(script)
		} else {
			item.DownSQL = string(script)
		}
	}

	migrations := make([]migration, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.UpSQL) == "" {
			return nil, fmt.Errorf("migration %d missing up SQL", item.Version)
		}
		if strings.TrimSpace(item.DownSQL) == "" {
			return nil, fmt.Errorf("migration %d missing down SQL", item.Version)
		}
		migrations = append(migrations, *item)
	}
	slices.SortFunc(migrations, func(a, b migration) int { return cmp.Compare(a.Version, b.Version) })
	return migrations, nil
}
