package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"panel-service/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. The database is wiped, so never point it at real data.
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres repository test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(pool))

	_, err = pool.Exec(ctx, `
		TRUNCATE activity_log, domains, storages, user_roles, role_permissions, users, roles, permissions
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)

	return pool
}
