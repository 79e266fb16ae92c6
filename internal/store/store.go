package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the persistence gateway for users, tests, questions and student tests.
type Store struct {
	db     *sql.DB
	driver string
}

// New opens the database and creates the schema if needed.
// For sqlite, dsn is a file path or ":memory:"; for postgres it is a connection string.
func New(driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
		if err == nil && dsn == ":memory:" {
			// Each connection would get its own empty in-memory database.
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(25)
			db.SetConnMaxLifetime(5 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	_, err := s.db.Exec(schema)
	return err
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	role TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_by INTEGER REFERENCES users(id),
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	time_limit INTEGER NOT NULL DEFAULT 0,
	score INTEGER NOT NULL DEFAULT 0,
	teacher_id INTEGER NOT NULL REFERENCES users(id),
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS test_questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	test_id INTEGER NOT NULL REFERENCES tests(id),
	question TEXT NOT NULL,
	options TEXT NOT NULL,
	answer TEXT NOT NULL,
	score INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_test_questions_test ON test_questions(test_id);

CREATE TABLE IF NOT EXISTS student_tests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	test_id INTEGER NOT NULL REFERENCES tests(id),
	user_id INTEGER NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'pending',
	answers TEXT,
	score INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	submitted_at DATETIME,
	UNIQUE (test_id, user_id)
);

CREATE TABLE IF NOT EXISTS test_sessions (
	test_id INTEGER NOT NULL REFERENCES tests(id),
	user_id INTEGER NOT NULL REFERENCES users(id),
	started_at DATETIME NOT NULL,
	PRIMARY KEY (test_id, user_id)
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
	jti TEXT PRIMARY KEY,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	sha256 TEXT NOT NULL,
	imported_at DATETIME NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	role TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_by BIGINT REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tests (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	time_limit INTEGER NOT NULL DEFAULT 0,
	score INTEGER NOT NULL DEFAULT 0,
	teacher_id BIGINT NOT NULL REFERENCES users(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS test_questions (
	id BIGSERIAL PRIMARY KEY,
	test_id BIGINT NOT NULL REFERENCES tests(id),
	question TEXT NOT NULL,
	options JSONB NOT NULL,
	answer JSONB NOT NULL,
	score INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_test_questions_test ON test_questions(test_id);

CREATE TABLE IF NOT EXISTS student_tests (
	id BIGSERIAL PRIMARY KEY,
	test_id BIGINT NOT NULL REFERENCES tests(id),
	user_id BIGINT NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'pending',
	answers JSONB,
	score INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	submitted_at TIMESTAMPTZ,
	UNIQUE (test_id, user_id)
);

CREATE TABLE IF NOT EXISTS test_sessions (
	test_id BIGINT NOT NULL REFERENCES tests(id),
	user_id BIGINT NOT NULL REFERENCES users(id),
	started_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (test_id, user_id)
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
	jti TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	sha256 TEXT NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL
);
`

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// insertID runs an INSERT ... RETURNING id statement.
func (s *Store) insertID(ctx context.Context, q queryer, query string, args ...any) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// isUniqueViolation reports whether err is a unique-constraint failure on either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// prefixed qualifies each column in a comma-separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func now() time.Time {
	return time.Now().UTC()
}
