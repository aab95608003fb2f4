//go:build integration

// Package dbtest runs repositories against a disposable PostgreSQL container.
// Each test gets its own migrated schema so tests can run in parallel.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/migrations"
)

const image = "postgres:16-alpine"

// Postgres is a running container plus an admin pool on its default schema.
type Postgres struct {
	ConnStr   string
	Pool      *pgxpool.Pool
	container *postgres.PostgresContainer
}

// Start launches the container and waits until it accepts connections.
func Start(ctx context.Context) (*Postgres, error) {
	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("records"),
		postgres.WithUsername("records"),
		postgres.WithPassword("records"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, fmt.Errorf("connection string: %w", err)
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 4})
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, err
	}

	return &Postgres{ConnStr: connStr, Pool: pool, container: ctr}, nil
}

// Close releases the admin pool and removes the container.
func (p *Postgres) Close() {
	p.Pool.Close()
	if err := testcontainers.TerminateContainer(p.container); err != nil {
		fmt.Fprintf(os.Stderr, "terminate postgres container: %v\n", err)
	}
}

// Schema creates a fresh schema, applies the embedded migrations to it and
// returns a pool whose connections resolve unqualified tables there. The
// schema is dropped when the test ends.
func (p *Postgres) Schema(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	if _, err := db.NewMigrator(p.Pool, migrations.FS).Up(ctx, schema); err != nil {
		t.Fatalf("migrate schema %s: %v", schema, err)
	}

	cfg, err := pgxpool.ParseConfig(p.ConnStr)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("schema pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if _, err := p.Pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})
	return pool
}

// Run is a TestMain helper: it starts the container, runs the tests and
// tears everything down, exiting with the test status.
func Run(m *testing.M, pg **Postgres) {
	ctx := context.Background()
	p, err := Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}
	*pg = p
	code := m.Run()
	p.Close()
	os.Exit(code)
}
