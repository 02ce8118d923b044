package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sc4plugins/custom-budget-departments/internal/common"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var postgresRetry = common.RetryOptions{
	MaxAttempts:  5,
	InitialDelay: 250 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

// Store keeps cities and their save segments in SQLite or PostgreSQL.
type Store struct {
	db     *sql.DB
	driver string
	dsn    string
}

// Open connects to the database named by driver and dsn.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(dsn)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: database driver %q", common.ErrInvalidConfig, driver)
	}
}

// NewSQLiteStore opens a SQLite database at dbPath, creating its directory.
func NewSQLiteStore(dbPath string) (*Store, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverSQLite, dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps writes serialized and an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, driver: DriverSQLite, dsn: dbPath}, nil
}

// NewPostgresStore connects to a PostgreSQL database. The first ping is
// retried so a server that is still starting up can be waited for.
func NewPostgresStore(ctx context.Context, dsn string) (*Store, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(dsn, "dsn"); err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ping := func() error { return db.PingContext(ctx) }
	if err := common.WithRetry(ctx, ping, postgresRetry); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, driver: DriverPostgres, dsn: dsn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.driver
}

// rebind rewrites ? placeholders into PostgreSQL's numbered form.
func (s *Store) rebind(query string) string {
	return rebind(s.driver, query)
}

func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
