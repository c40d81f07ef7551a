package database

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("DSN", func(t *testing.T) {
		dsn, err := dialect.DSN(DialectConfig{Path: "family.db"})
		if err != nil {
			t.Fatalf("DSN() error = %v", err)
		}
		if dsn != "family.db?"+sqliteParams {
			t.Errorf("DSN() = %v", dsn)
		}

		dsn, err = dialect.DSN(DialectConfig{Path: "file:family.db?mode=rwc"})
		if err != nil {
			t.Fatalf("DSN() error = %v", err)
		}
		if dsn != "file:family.db?mode=rwc&"+sqliteParams {
			t.Errorf("DSN() = %v", dsn)
		}

		if _, err := dialect.DSN(DialectConfig{}); err == nil {
			t.Error("DSN() with empty path should fail")
		}
	})

	t.Run("LockClause", func(t *testing.T) {
		if dialect.LockClause() != "" {
			t.Errorf("LockClause() = %q, want empty", dialect.LockClause())
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if result {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("LockClause", func(t *testing.T) {
		if dialect.LockClause() != " FOR UPDATE" {
			t.Errorf("LockClause() = %q", dialect.LockClause())
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN forces parseTime", func(t *testing.T) {
		dsn, err := dialect.DSN(DialectConfig{URL: "user:pass@tcp(localhost:3306)/family"})
		if err != nil {
			t.Fatalf("DSN() error = %v", err)
		}
		if !strings.Contains(dsn, "parseTime=true") {
			t.Errorf("DSN() = %v, want parseTime=true", dsn)
		}
	})

	t.Run("DSN rejects garbage", func(t *testing.T) {
		if _, err := dialect.DSN(DialectConfig{URL: "not a dsn"}); err == nil {
			t.Error("DSN() should fail for an invalid DSN")
		}
	})
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "sqlite3", false},
		{"sqlite", "sqlite3", false},
		{"PostgreSQL", "postgres", false},
		{"mysql", "mysql", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dialect, err := DialectFor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DialectFor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && dialect.DriverName() != tt.want {
				t.Errorf("DialectFor(%q) = %v, want %v", tt.input, dialect.DriverName(), tt.want)
			}
		})
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
			query:    "SELECT * FROM persons WHERE id = ?",
			expected: "SELECT * FROM persons WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM persons WHERE id = ?",
			expected: "SELECT * FROM persons WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO persons (first_name, last_name) VALUES (?, ?)",
			expected: "INSERT INTO persons (first_name, last_name) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE persons SET first_name = ?, last_name = ? WHERE id = ?",
			expected: "UPDATE persons SET first_name = ?, last_name = ? WHERE id = ?",
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

func TestInsertIgnore(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{"SQLite", NewSQLiteDialect(), "INSERT INTO relationships (a, b) VALUES (?, ?) ON CONFLICT DO NOTHING"},
		{"PostgreSQL", NewPostgresDialect(), "INSERT INTO relationships (a, b) VALUES (?, ?) ON CONFLICT DO NOTHING"},
		{"MySQL", NewMySQLDialect(), "INSERT INTO relationships (a, b) VALUES (?, ?) ON DUPLICATE KEY UPDATE id = id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.InsertIgnore("relationships", "a", "b")
			if result != tt.expected {
				t.Errorf("InsertIgnore() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{"SQLite unique", NewSQLiteDialect(), sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"SQLite wrapped", NewSQLiteDialect(), fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}), true},
		{"SQLite foreign key", NewSQLiteDialect(), sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, false},
		{"PostgreSQL unique", NewPostgresDialect(), &pq.Error{Code: "23505"}, true},
		{"PostgreSQL other", NewPostgresDialect(), &pq.Error{Code: "23503"}, false},
		{"MySQL duplicate", NewMySQLDialect(), &mysql.MySQLError{Number: 1062}, true},
		{"MySQL other", NewMySQLDialect(), &mysql.MySQLError{Number: 1452}, false},
		{"plain error", NewMySQLDialect(), errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name: "comments around statements",
			content: `
-- leading comment
CREATE TABLE a (id INTEGER);

CREATE INDEX idx_a ON a(id);
-- trailing comment
`,
			want: []string{"CREATE TABLE a (id INTEGER)", "CREATE INDEX idx_a ON a(id)"},
		},
		{
			name: "semicolon inside comment",
			content: `
-- edges; every edge has a reciprocal row
CREATE TABLE b (
    -- ids are never reused; rows are only appended
    id INTEGER
);
`,
			want: []string{"CREATE TABLE b (\n    id INTEGER\n)"},
		},
		{
			name:    "only comments",
			content: "-- nothing; here\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitStatements() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrationFilesEmbedded(t *testing.T) {
	for _, dialect := range []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		files, err := MigrationFiles(dialect)
		if err != nil {
			t.Fatalf("MigrationFiles(%s) error = %v", dialect.MigrationsSubdir(), err)
		}
		if len(files) == 0 {
			t.Errorf("no migrations embedded for %s", dialect.MigrationsSubdir())
		}
	}
}

func TestMigrationStatementsParse(t *testing.T) {
	for _, dialect := range []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		files, err := MigrationFiles(dialect)
		if err != nil {
			t.Fatalf("MigrationFiles(%s) error = %v", dialect.MigrationsSubdir(), err)
		}
		for _, file := range files {
			content, err := migrationFiles.ReadFile(file)
			if err != nil {
				t.Fatalf("ReadFile(%s) error = %v", file, err)
			}
			for _, stmt := range splitStatements(string(content)) {
				if !strings.HasPrefix(stmt, "CREATE ") && !strings.HasPrefix(stmt, "ALTER ") && !strings.HasPrefix(stmt, "INSERT ") {
					t.Errorf("%s: statement does not start with a SQL keyword: %q", file, stmt)
				}
			}
		}
	}
}
