package app_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"shoppingtop/internal/app"
	"shoppingtop/internal/config"
	"shoppingtop/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newApp(t *testing.T) (*app.App, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		DBDriver:    database.DriverSQLite,
		DatabaseDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		JWTSecret:   "app_test_jwt_secret_value",
		SessionTTL:  time.Hour,
	}
	db, err := database.Open(database.Config{Driver: cfg.DBDriver, DSN: cfg.DatabaseDSN, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	a, err := app.New(cfg, db, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return a, cfg
}

func TestSeedAdmin(t *testing.T) {
	a, cfg := newApp(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	// Nothing configured, nothing seeded
	require.NoError(t, a.SeedAdmin(ctx, cfg, log))
	_, _, err := a.AuthService.LoginUser(ctx, "admin", "admin-password")
	assert.Error(t, err)

	cfg.AdminUsername = "admin"
	cfg.AdminPassword = "admin-password"
	require.NoError(t, a.SeedAdmin(ctx, cfg, log))
	// Seeding twice keeps the existing account
	require.NoError(t, a.SeedAdmin(ctx, cfg, log))

	token, user, err := a.AuthService.LoginUser(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", user.Username)
}

func TestSeedAdminRejectsShortPassword(t *testing.T) {
	a, cfg := newApp(t)
	cfg.AdminUsername = "admin"
	cfg.AdminPassword = "123"

	err := a.SeedAdmin(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
