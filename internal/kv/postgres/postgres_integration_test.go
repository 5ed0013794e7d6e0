package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/kv/kvtest"
)

// postgresDSN returns NURTURE_POSTGRES_DSN when set, otherwise starts a throwaway container.
func postgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("NURTURE_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("short mode; skipping postgres container")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "nurture",
			"POSTGRES_PASSWORD": "nurture",
			"POSTGRES_DB":       "nurture",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://nurture:nurture@%s:%s/nurture?sslmode=disable", host, port.Port())
}

func makePGStore(t *testing.T) kv.KV {
	t.Helper()
	db, err := Open(postgresDSN(t))
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	s, err := NewWithDB(context.Background(), db)
	if err != nil {
		t.Fatalf("postgres schema: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore_Compliance(t *testing.T) {
	kvtest.Run(t, makePGStore)
}
