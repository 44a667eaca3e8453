package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssafy/baperang/backend/pkg/config"
)

func connect(t *testing.T) *DB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestNew(t *testing.T) {
	db := connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, db.Ping(ctx))
}

func TestHealthCheck(t *testing.T) {
	db := connect(t)

	status, err := db.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Stats.MaxConns, int32(0))
}

func TestMigrate(t *testing.T) {
	db := connect(t)

	require.NoError(t, db.Migrate(context.Background()))
	// second run must be a no-op
	require.NoError(t, db.Migrate(context.Background()))
}

func TestMigrationsAreIdempotentStatements(t *testing.T) {
	require.Equal(t, len(migrations), MigrationCount())
	for _, stmt := range migrations {
		assert.Contains(t, strings.ToUpper(stmt), "IF NOT EXISTS")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{URL: "::not a url::", MaxConns: 1}}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
