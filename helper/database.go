package helper

import (
	"database/sql"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// Database wraps the sql connection together with the logger handed to
// the database handlers.
type Database struct {
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a Postgres connection from the configuration and
// verifies it with a ping.
func NewDatabase(config *PostgresConfiguration, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{}))
	}

	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, NewError("open database", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, NewError("ping database", err)
	}

	return &Database{Instance: db, Logger: logger}, nil
}

// NewTestDatabase opens a connection for tests and panics on failure.
func NewTestDatabase(config *PostgresConfiguration) *Database {
	database, err := NewDatabase(config, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		log.Panicf("error connecting to test database: %v", err)
	}
	return database
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.Instance.Close()
}
