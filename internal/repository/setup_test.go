package repository

import (
	"context"
	"testing"
	"time"

	"digicommerce/internal/database"
	"digicommerce/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application
// schema and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(connStr, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedCategory inserts a category and returns it.
func seedCategory(t *testing.T, pool *pgxpool.Pool, name string) model.Category {
	c := model.Category{Name: name}
	require.NoError(t, NewCategoryRepository(pool, zerolog.Nop()).Create(context.Background(), &c))
	return c
}

// seedProduct inserts a product through the repository in its own transaction.
func seedProduct(t *testing.T, pool *pgxpool.Pool, p model.Product) model.Product {
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, NewProductRepository(pool, zerolog.Nop()).Create(ctx, tx, &p))
	require.NoError(t, tx.Commit(ctx))
	return p
}

// seedUser inserts a user with the given email.
func seedUser(t *testing.T, pool *pgxpool.Pool, email string) model.User {
	u, err := NewUserRepository(pool, zerolog.Nop()).EnsureByEmail(context.Background(), email, email)
	require.NoError(t, err)
	return *u
}
