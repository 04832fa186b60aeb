// Package sqlite provides SQLite-based persistent storage for FocusQuest.
// Uses WAL mode for concurrent reads and a single writer connection so that
// every completion transaction is serialised.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/focusquest/focusquest/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every repository method. The same methods run against the
// pool (autocommit reads) or inside a transaction handed out by InTx.
type Queries struct {
	q querier
}

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	*Queries
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/focusquest.db.
// Enables WAL mode, foreign keys, a 5-second busy timeout and immediate
// write locks for transactions.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "focusquest.db")
	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer; one connection also serialises InTx callers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{Queries: &Queries{q: db}, db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// InTx runs fn inside a transaction. Any error from fn rolls everything back.
// fn must only use the Queries it is given: the pool has a single connection,
// so touching d from inside fn would block forever.
func (d *DB) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id              TEXT PRIMARY KEY,
			display_name         TEXT NOT NULL,
			motivation           TEXT NOT NULL DEFAULT '',
			total_xp             INTEGER NOT NULL DEFAULT 0 CHECK(total_xp >= 0),
			level                INTEGER NOT NULL DEFAULT 1 CHECK(level >= 1),
			current_level_xp     INTEGER NOT NULL DEFAULT 0,
			xp_for_next_level    INTEGER NOT NULL DEFAULT 100 CHECK(xp_for_next_level > 0),
			preferred_theme      TEXT NOT NULL DEFAULT '',
			xp_enabled           BOOLEAN NOT NULL DEFAULT 1,
			streaks_enabled      BOOLEAN NOT NULL DEFAULT 1,
			leaderboards_enabled BOOLEAN NOT NULL DEFAULT 1,
			created_at           INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS habits (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			title               TEXT NOT NULL,
			notes               TEXT NOT NULL DEFAULT '',
			theme               TEXT NOT NULL DEFAULT '',
			difficulty          TEXT NOT NULL,
			frequency           TEXT NOT NULL DEFAULT 'daily',
			xp_reward           INTEGER NOT NULL,
			is_completed        BOOLEAN NOT NULL DEFAULT 0,
			last_completed_date TEXT,
			current_streak      INTEGER NOT NULL DEFAULT 0,
			longest_streak      INTEGER NOT NULL DEFAULT 0,
			CHECK(longest_streak >= current_streak)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			notes        TEXT NOT NULL DEFAULT '',
			theme        TEXT NOT NULL DEFAULT '',
			difficulty   TEXT NOT NULL,
			xp_reward    INTEGER NOT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT 0,
			due_date     TEXT,
			deadline     INTEGER,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,

		`CREATE TABLE IF NOT EXISTS subtasks (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id      INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			description  TEXT NOT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT 0,
			position     INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id)`,

		`CREATE TABLE IF NOT EXISTS focus_sessions (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			duration_minutes    INTEGER NOT NULL CHECK(duration_minutes > 0),
			sessions_completed  INTEGER NOT NULL DEFAULT 1 CHECK(sessions_completed >= 1),
			xp_earned           INTEGER NOT NULL DEFAULT 0,
			motivation_snapshot TEXT NOT NULL DEFAULT '',
			created_at          INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_focus_user_created ON focus_sessions(user_id, created_at)`,

		// One row per (user, date); never deleted.
		`CREATE TABLE IF NOT EXISTS daily_metrics (
			user_id              TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			metric_date          TEXT NOT NULL,
			focus_minutes        INTEGER NOT NULL DEFAULT 0,
			tasks_completed      INTEGER NOT NULL DEFAULT 0,
			habits_completed     INTEGER NOT NULL DEFAULT 0,
			xp_earned            INTEGER NOT NULL DEFAULT 0,
			weekly_xp            INTEGER NOT NULL DEFAULT 0,
			weekly_focus_minutes INTEGER NOT NULL DEFAULT 0,
			UNIQUE(user_id, metric_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_date ON daily_metrics(metric_date)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullableDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func datePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v.String, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", v.String, err)
	}
	return &t, nil
}

const dateLayout = domain.DateLayout
