// Package postgres implements storage.Repository against a single
// Postgres database. It follows the teacher's mpostgres connection
// shape (a small struct owning *sql.DB plus a migrate.Migrate runner)
// but drops primary/replica load balancing: the spec has no operation
// that benefits from read-replica routing, and bxcodec/dbresolver has
// no other component in this module that could exercise it (see
// DESIGN.md "Dropped teacher dependencies").
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Connection is a singleton handle to the ledger's Postgres database.
type Connection struct {
	ConnectionString string
	MigrationsPath   string
	Logger           *zap.Logger
	Tracer           trace.Tracer

	db *sql.DB
}

// tracer returns the configured Tracer, falling back to otel's global
// no-op tracer when none was wired — mirrors the teacher's
// NewTracerFromContext default of otel.Tracer("default") against an
// unconfigured provider.
func (c *Connection) tracer() trace.Tracer {
	if c.Tracer != nil {
		return c.Tracer
	}

	return trace.NewNoopTracerProvider().Tracer("ledgercore/storage/postgres")
}

// Connect opens the pool and applies pending migrations. Grounded on
// mpostgres.PostgresConnection.Connect, minus the replica leg.
func (c *Connection) Connect(ctx context.Context) error {
	db, err := sql.Open("pgx", c.ConnectionString)
	if err != nil {
		return fmt.Errorf("postgres: open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}

	c.db = db

	if c.MigrationsPath == "" {
		return nil
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MultiStatementEnabled: true})
	if err != nil {
		return fmt.Errorf("postgres: migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+c.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("postgres: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: migrate up: %w", err)
	}

	if c.Logger != nil {
		c.Logger.Info("postgres connected and migrated")
	}

	return nil
}

// DB returns the underlying pool, panicking if Connect was never
// called — a programmer error, not a runtime condition callers should
// handle.
func (c *Connection) DB() *sql.DB {
	if c.db == nil {
		panic("postgres: Connection.DB called before Connect")
	}

	return c.db
}

// Close releases the pool.
func (c *Connection) Close() error {
	if c.db == nil {
		return nil
	}

	return c.db.Close()
}
