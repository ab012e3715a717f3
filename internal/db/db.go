package db

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

// Open connects to Postgres through the pgx stdlib driver and verifies the
// connection before returning it.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(defaultConnMaxIdle)
	db.SetConnMaxLifetime(defaultConnMaxLife)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetMaxOpenConns(defaultMaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Store wraps the database handle so every statement is logged with its
// arguments at debug level before it runs.
type Store struct {
	*sql.DB
	logger *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{DB: db, logger: logger}
}

func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	s.logger.Debug("sql", "query", compact(query), "args", args)
	return s.DB.Query(query, args...)
}

func (s *Store) QueryRow(query string, args ...any) *sql.Row {
	s.logger.Debug("sql", "query", compact(query), "args", args)
	return s.DB.QueryRow(query, args...)
}

func (s *Store) Exec(query string, args ...any) (sql.Result, error) {
	s.logger.Debug("sql", "query", compact(query), "args", args)
	return s.DB.Exec(query, args...)
}

func (s *Store) Begin() (*Tx, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, logger: s.logger}, nil
}

// Tx keeps the statement trace going inside a transaction.
type Tx struct {
	*sql.Tx
	logger *slog.Logger
}

func (t *Tx) QueryRow(query string, args ...any) *sql.Row {
	t.logger.Debug("sql", "query", compact(query), "args", args)
	return t.Tx.QueryRow(query, args...)
}

func (t *Tx) Exec(query string, args ...any) (sql.Result, error) {
	t.logger.Debug("sql", "query", compact(query), "args", args)
	return t.Tx.Exec(query, args...)
}

// compact collapses the indentation of multi-line query constants into a
// single log-friendly line.
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// alt_names holds the brace-delimited list representation, e.g. {Bob,Robert}.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT true,
		admin BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS donors (
		id SERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		other_last_name TEXT,
		alt_names TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS donors_users (
		donor_id INT NOT NULL REFERENCES donors (id) ON DELETE CASCADE,
		user_id INT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		relation TEXT,
		PRIMARY KEY (donor_id, user_id)
	)`,
}

// Bootstrap creates the schema on first run. Statements are idempotent so
// existing installations are left untouched.
func Bootstrap(db *sql.DB) error {
	for _, statement := range schemaStatements {
		if _, err := db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}
