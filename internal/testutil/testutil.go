// Package testutil holds helpers shared by the integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/devops-challenge/userapi/internal/migrate"
	"github.com/devops-challenge/userapi/internal/model"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error

	redisOnce sync.Once
	redisURL  string
	redisErr  error
)

// DatabaseURL returns DATABASE_URL when set. Otherwise it starts one
// throwaway PostgreSQL container per test binary and returns its DSN; the
// testcontainers reaper removes it when the process exits. The test is
// skipped when neither is available.
func DatabaseURL(t testing.TB) string {
	t.Helper()

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	containerOnce.Do(func() {
		containerDSN, containerErr = startPostgres(context.Background())
	})
	if containerErr != nil {
		t.Skipf("DATABASE_URL not set and postgres container unavailable: %v", containerErr)
	}
	return containerDSN
}

func startPostgres(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "userapi",
				"POSTGRES_PASSWORD": "userapi",
				"POSTGRES_DB":       "userapi",
			},
			// The entrypoint restarts postgres once after initdb.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}

	return fmt.Sprintf("postgres://userapi:userapi@%s:%s/userapi?sslmode=disable", host, port.Port()), nil
}

// RedisURL is DatabaseURL for REDIS_URL and a redis:7-alpine container.
func RedisURL(t testing.TB) string {
	t.Helper()

	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}

	redisOnce.Do(func() {
		redisURL, redisErr = startRedis(context.Background())
	})
	if redisErr != nil {
		t.Skipf("REDIS_URL not set and redis container unavailable: %v", redisErr)
	}
	return redisURL
}

func startRedis(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port()), nil
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

func migrationRunner(dsn string) (migrate.Runner, error) {
	return migrate.New(dsn, migrate.DefaultTable, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// MigrateUp applies every embedded migration.
func MigrateUp(ctx context.Context, dsn string) error {
	runner, err := migrationRunner(dsn)
	if err != nil {
		return err
	}
	return runner.Up(ctx)
}

// ResetUserSchema rolls every migration back and applies them again,
// leaving an empty "user" table.
func ResetUserSchema(ctx context.Context, dsn string) error {
	runner, err := migrationRunner(dsn)
	if err != nil {
		return err
	}
	if err := runner.Up(ctx); err != nil {
		return err
	}
	if err := runner.Down(ctx, 0, true); err != nil {
		return err
	}
	return runner.Up(ctx)
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// UniqueEmail returns an address that no other test run will produce.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@email.com", prefix, ulid.Make().String())
}

// NewTestUser returns a NewUser with a unique email.
func NewTestUser(t testing.TB, name string) model.NewUser {
	t.Helper()
	return model.NewUser{
		Email: UniqueEmail(name),
		Name:  name,
	}
}

// SeedUsers inserts n users named user0..user(n-1) and returns them in
// insertion order.
func SeedUsers(ctx context.Context, pool *pgxpool.Pool, n int) ([]model.User, error) {
	users := make([]model.User, 0, n)
	for i := 0; i < n; i++ {
		var u model.User
		err := pool.QueryRow(ctx,
			`INSERT INTO "user" (email, name) VALUES ($1, $2) RETURNING id, email, name, created_at`,
			fmt.Sprintf("user%d@email.com", i), fmt.Sprintf("user%d", i),
		).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("seed user %d: %w", i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// SeedOneUser inserts a single user.
func SeedOneUser(ctx context.Context, pool *pgxpool.Pool) (model.User, error) {
	users, err := SeedUsers(ctx, pool, 1)
	if err != nil {
		return model.User{}, err
	}
	return users[0], nil
}

// SeedTwentyUsers inserts the twenty-user fixture used by pagination tests.
func SeedTwentyUsers(ctx context.Context, pool *pgxpool.Pool) ([]model.User, error) {
	return SeedUsers(ctx, pool, 20)
}
