package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/valueobjects"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// setupDB starts one PostgreSQL container per test run, migrates it and
// returns a fresh pool. Tests share the database, so they use unique ids.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests need docker")
	}

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("setup test database: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, sharedDSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ideabox",
				"POSTGRES_PASSWORD": "ideabox",
				"POSTGRES_DB":       "ideabox",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://ideabox:ideabox@%s:%s/ideabox?sslmode=disable", host, port.Port())
	if err := Migrate(ctx, dsn); err != nil {
		return "", err
	}
	return dsn, nil
}

func newIdea(t *testing.T, title, creator string) *aggregates.Idea {
	t.Helper()
	tt, err := valueobjects.NewTitle(title)
	require.NoError(t, err)
	desc, err := valueobjects.NewDescription("Fridays")
	require.NoError(t, err)
	idea, err := aggregates.NewIdea(tt, desc, "S100", creator, t0)
	require.NoError(t, err)
	return idea
}
