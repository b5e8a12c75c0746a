package repository

import (
	"context"
	"os/exec"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// dockerAvailable reports whether the Docker daemon is reachable.
// testcontainers-go panics when Docker is missing, so probe first.
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

func newTestPostgresDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("Docker not available, skipping PostgreSQL integration tests")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tasks"),
		postgres.WithUsername("tasks"),
		postgres.WithPassword("tasks"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	return dsn
}

func TestTaskRepositoryPostgres(t *testing.T) {
	dsn := newTestPostgresDSN(t)

	db, err := InitDB(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("InitDB(postgres) failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	runStoreSuite(t, func(t *testing.T) TaskStore {
		if _, err := db.Exec(`TRUNCATE tasks RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate tasks: %v", err)
		}
		repo, err := NewTaskRepository(db, DriverPostgres)
		if err != nil {
			t.Fatalf("NewTaskRepository failed: %v", err)
		}
		return repo
	})
}
