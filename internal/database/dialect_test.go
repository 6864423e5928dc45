package database

import (
	"strings"
	"testing"
)

func TestDialectDrivers(t *testing.T) {
	tests := []struct {
		name             string
		dialect          Dialect
		driver           string
		lastInsertID     bool
		migrationsSubdir string
	}{
		{"SQLite", NewSQLiteDialect(), "sqlite3", true, "sqlite"},
		{"Pure SQLite", NewPureSQLiteDialect(), "sqlite", true, "sqlite"},
		{"PostgreSQL", NewPostgresDialect(), "postgres", false, "postgres"},
		{"pgx", NewPgxDialect(), "pgx", false, "postgres"},
		{"MySQL", NewMySQLDialect(), "mysql", true, "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsSubdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.migrationsSubdir)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		input   string
		driver  string
		wantErr bool
	}{
		{"", "sqlite3", false},
		{"SQLite", "sqlite3", false},
		{"sqlite-pure", "sqlite", false},
		{"postgresql", "postgres", false},
		{"pgx", "pgx", false},
		{"mysql", "mysql", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := DialectFor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("DialectFor(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("DialectFor(%q) error = %v", tt.input, err)
			}
			if d.DriverName() != tt.driver {
				t.Errorf("DialectFor(%q).DriverName() = %v, want %v", tt.input, d.DriverName(), tt.driver)
			}
		})
	}
}

func TestSQLiteDSNCarriesPragmas(t *testing.T) {
	dsn := NewSQLiteDialect().DSN(DialectConfig{Path: "family.db"})
	if !strings.HasPrefix(dsn, "family.db") || !strings.Contains(dsn, "_foreign_keys=on") {
		t.Errorf("DSN() = %q, want foreign keys enabled", dsn)
	}

	dsn = NewPureSQLiteDialect().DSN(DialectConfig{Path: "family.db"})
	if !strings.Contains(dsn, "_pragma=foreign_keys(1)") {
		t.Errorf("pure DSN() = %q, want foreign_keys pragma", dsn)
	}
}

func TestResetSequenceQuery(t *testing.T) {
	if q := NewSQLiteDialect().ResetSequenceQuery("members"); q != "" {
		t.Errorf("SQLite ResetSequenceQuery() = %q, want empty", q)
	}
	if q := NewMySQLDialect().ResetSequenceQuery("members"); q != "" {
		t.Errorf("MySQL ResetSequenceQuery() = %q, want empty", q)
	}

	q := NewPostgresDialect().ResetSequenceQuery("members")
	if !strings.Contains(q, "pg_get_serial_sequence('members', 'id')") {
		t.Errorf("PostgreSQL ResetSequenceQuery() = %q", q)
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM members WHERE id = ?",
			expected: "SELECT * FROM members WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM members WHERE id = ?",
			expected: "SELECT * FROM members WHERE id = $1",
		},
		{
			name:     "pgx multiple placeholders",
			dialect:  NewPgxDialect(),
			query:    "INSERT INTO clans (clan_name, description) VALUES (?, ?)",
			expected: "INSERT INTO clans (clan_name, description) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE members SET first_name = ?, last_name = ? WHERE id = ?",
			expected: "UPDATE members SET first_name = ?, last_name = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	sql := "-- header\nCREATE TABLE a (id INT);\n\nCREATE INDEX i ON a(id);\n"
	got := splitStatements(sql)
	if len(got) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(got), got)
	}
}
