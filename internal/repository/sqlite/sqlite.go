// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code: no C compiler needed, works everywhere Go works.
//
// TWO TYPES, TWO LIFETIMES:
//   - DB      owns the *sql.DB connection pool. One per process, safe for concurrent use.
//   - Session is one unit of work. Created per request by DB.Session(), never shared.
//
// The pool is the only thing requests have in common; everything a request
// mutates lives in its own Session until SaveChanges commits it.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/sakif/cityinfo/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its dialect, base FS and logger in package globals.
var migrateMu sync.Mutex

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out repository sessions.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens the SQLite database at dbPath and migrates it to the latest schema.
//
// dbPath examples:
//   - "data/cityinfo.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests; lost on close)
//
// PRAGMAS PER CONNECTION:
// database/sql may open several connections. A PRAGMA sent with Exec only reaches
// whichever connection ran it, so foreign keys would be enforced on some
// connections and silently ignored on others. modernc's "_pragma" DSN parameter
// is applied every time the driver opens a connection.
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is a separate, empty database.
	// Pinning the pool to one connection keeps every query on the same one.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, logger: logger}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Session starts a new unit of work.
func (db *DB) Session() repository.CityInfoRepository {
	return newSession(db.conn)
}

// Ping reports whether the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate applies the embedded goose migrations in migrations/.
//
// MIGRATIONS:
// goose records applied versions in the goose_db_version table, so running
// migrate on every start is safe: already-applied files are skipped.
func (db *DB) migrate(ctx context.Context) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{logger: db.logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.conn, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func dsn(dbPath string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if !isMemory(dbPath) {
		// WAL lets readers proceed while a write transaction is open.
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(pragmas, "&")
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

// Fatalf logs at error level but does not exit; the error is returned by goose.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}
