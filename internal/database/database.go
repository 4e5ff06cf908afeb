// Package database records randomization runs in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database wraps the connection and provides the run history operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig connects to the configured database and runs migrations.
func OpenWithConfig(config Config) (*Database, error) {
	dialect := NewDialect(DialectType(config.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = config.Postgres.DSN()
	default:
		if err := os.MkdirAll(filepath.Dir(config.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = config.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, ok := dialect.(*SQLiteDialect); ok {
		// PRAGMAs are per connection
		db.SetMaxOpenConns(1)
	} else {
		if config.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		}
		if config.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(config.Postgres.MaxIdleConns)
		}
		if config.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(config.Postgres.ConnMaxLifetime)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database (%s): %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id ` + d.dialect.AutoIncrementKey() + `,
			seed BIGINT NOT NULL,
			item_algorithm TEXT NOT NULL DEFAULT '',
			config_digest TEXT NOT NULL DEFAULT '',
			input_digest TEXT NOT NULL DEFAULT '',
			output_digest TEXT NOT NULL DEFAULT '',
			repairs INTEGER NOT NULL DEFAULT 0,
			floors_before INTEGER NOT NULL DEFAULT 0,
			floors_after INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS group_resizes (
			id ` + d.dialect.AutoIncrementKey() + `,
			run_id BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			mappa_index INTEGER NOT NULL,
			old_floors INTEGER NOT NULL,
			new_floors INTEGER NOT NULL,
			applied ` + d.dialect.BoolType() + ` NOT NULL,
			reason TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_group_resizes_run_id ON group_resizes(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_output_digest ON runs(output_digest)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// insert runs an INSERT and returns the new row's id.
func (d *Database) insert(exec execer, query string, args ...any) (int64, error) {
	q := d.qb.BuildWithReturning(query, "id")
	if d.dialect.SupportsLastInsertID() {
		res, err := exec.Exec(q, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	if err := exec.QueryRow(q, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
