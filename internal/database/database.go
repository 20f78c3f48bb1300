package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrClosed is returned by every call on a closed catalog database.
var ErrClosed = errors.New("catalog database is closed")

// Database is a connection to the SQLite file holding the archive catalog
type Database struct {
	db   *sql.DB
	path string
}

// DatabaseOptions configures how the catalog file is opened
type DatabaseOptions struct {
	// Path to the SQLite database file. Missing parent folders are created.
	Path string

	// WALMode lets query run while index is writing
	WALMode bool

	// ForeignKeys makes deleting an archive row cascade to its entries
	ForeignKeys bool

	// BusyTimeout sets how long a locked catalog is waited on
	BusyTimeout time.Duration
}

// DefaultDatabaseOptions returns the options index and query open the catalog with
func DefaultDatabaseOptions(path string) *DatabaseOptions {
	return &DatabaseOptions{
		Path:        path,
		WALMode:     true,
		ForeignKeys: true,
		BusyTimeout: 30 * time.Second,
	}
}

// NewDatabase opens the catalog file and checks the connection
func NewDatabase(options *DatabaseOptions) (*Database, error) {
	if options == nil {
		return nil, fmt.Errorf("database options cannot be nil")
	}
	if options.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if dir := filepath.Dir(options.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", buildConnectionString(options))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", options.Path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to catalog %s: %w", options.Path, err)
	}

	return &Database{db: db, path: options.Path}, nil
}

// Path returns the catalog file the database was opened on
func (d *Database) Path() string {
	return d.path
}

// Close closes the connection. Closing twice is not an error.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil
	if err != nil {
		return fmt.Errorf("closing catalog: %w", err)
	}
	return nil
}

func (d *Database) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if d.db == nil {
		return nil, ErrClosed
	}

	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}

// Query runs a statement that returns rows
func (d *Database) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if d.db == nil {
		return nil, ErrClosed
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// QueryRow runs a statement that returns at most one row. The database must
// be open.
func (d *Database) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// HasCatalog reports whether index has created the catalog tables yet
func (d *Database) HasCatalog(ctx context.Context) (bool, error) {
	if d.db == nil {
		return false, ErrClosed
	}

	var count int
	err := d.QueryRow(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('archives', 'entries')`,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("looking for catalog tables: %w", err)
	}
	return count == 2, nil
}

// buildConnectionString turns the options into a go-sqlite3 DSN. The driver
// only applies pragmas passed as its underscore-prefixed parameters.
func buildConnectionString(options *DatabaseOptions) string {
	var params []string
	if options.WALMode {
		params = append(params, "_journal_mode=WAL")
	}
	if options.ForeignKeys {
		params = append(params, "_foreign_keys=on")
	}
	if options.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_busy_timeout=%d", options.BusyTimeout.Milliseconds()))
	}
	params = append(params, "_synchronous=NORMAL")

	return options.Path + "?" + strings.Join(params, "&")
}
