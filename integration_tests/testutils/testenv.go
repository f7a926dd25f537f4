package testutils

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	natsmodule "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/srk-board/config"
	"github.com/Black-And-White-Club/srk-board/db/bundb"
	"github.com/Black-And-White-Club/srk-board/integration_tests/containers"
)

// TestEnvironment holds the containers and clients shared by the integration tests.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc

	PgContainer    *postgres.PostgresContainer
	NatsContainer  *natsmodule.NATSContainer
	RedisContainer testcontainers.Container

	DB       *bun.DB
	Pool     *pgxpool.Pool
	NatsConn *nats.Conn
	Redis    *redis.Client
	Config   *config.Config
	Logger   *slog.Logger
}

// NewTestEnvironment starts Postgres, NATS and Redis and applies the ledger migrations.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := env.setup(ctx); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) setup(ctx context.Context) error {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	redisContainer, redisAddr, err := containers.SetupRedisContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup redis container: %w", err)
	}
	env.RedisContainer = redisContainer

	env.DB, err = bundb.Open(ctx, pgConnStr)
	if err != nil {
		return err
	}
	if err := bundb.Migrate(ctx, env.DB, env.Logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	env.Pool, err = bundb.OpenPool(ctx, pgConnStr)
	if err != nil {
		return err
	}

	env.NatsConn, err = nats.Connect(natsURL, nats.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	env.Redis = redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := env.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL},
		Redis:    config.RedisConfig{Addr: redisAddr},
	}
	return nil
}

// Reset empties the ledger, river's job table and redis between tests.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	if err := CleanupDatabase(ctx, env.DB); err != nil {
		return err
	}
	return env.Redis.FlushAll(ctx).Err()
}

// Cleanup closes the clients and terminates the containers.
func (env *TestEnvironment) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.Redis != nil {
		_ = env.Redis.Close()
	}
	if env.NatsConn != nil {
		env.NatsConn.Close()
	}
	if env.Pool != nil {
		env.Pool.Close()
	}
	if env.DB != nil {
		_ = env.DB.Close()
	}

	terminate := func(name string, c testcontainers.Container) {
		if c == nil {
			return
		}
		if err := c.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate %s container: %v", name, err)
		}
	}
	if env.RedisContainer != nil {
		terminate("redis", env.RedisContainer)
	}
	if env.NatsContainer != nil {
		terminate("nats", env.NatsContainer)
	}
	if env.PgContainer != nil {
		terminate("postgres", env.PgContainer)
	}

	if env.CancelContext != nil {
		env.CancelContext()
	}
}
