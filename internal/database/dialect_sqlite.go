package database

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // pure go sqlite driver, registered as "sqlite"
)

// SQLiteDialect implements Dialect for SQLite. The default uses mattn/go-sqlite3;
// the pure variant uses modernc.org/sqlite for CGO-free builds.
type SQLiteDialect struct {
	driver string
}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{driver: "sqlite3"}
}

// NewPureSQLiteDialect creates a SQLite dialect on the modernc driver
func NewPureSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{driver: "sqlite"}
}

func (d *SQLiteDialect) DriverName() string {
	return d.driver
}

// DSN carries the pragmas in the connection string so every pooled connection gets them
func (d *SQLiteDialect) DSN(config DialectConfig) string {
	sep := "?"
	if strings.Contains(config.Path, "?") {
		sep = "&"
	}
	if d.driver == "sqlite" {
		return config.Path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return config.Path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// SQLite pragmas are per connection, so keep a single one open
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return err
	}

	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) ResetSequenceQuery(table string) string {
	// AUTOINCREMENT tracks MAX(rowid) in sqlite_sequence
	return ""
}
