package infrastructure

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"users-service/internal/adapter/db/postgres"
	"users-service/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		DB: config.DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   filepath.Join(t.TempDir(), "users.db"),
			MaxOpenConns: 10,
			MaxIdleConns: 1,
		},
		Logger: config.LoggerConfig{Level: "warn", SlowQuerySeconds: 1},
	}
}

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := NewDatabase(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, CloseDatabase(db)) }()

	assert.True(t, db.Migrator().HasTable(&postgres.UserSchema{}))
	assert.True(t, db.Migrator().HasIndex(&postgres.UserSchema{}, "idx_users_email_unique"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DB.Driver = "oracle"

	_, err := NewDatabase(cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestCloseDatabase_Nil(t *testing.T) {
	assert.NoError(t, CloseDatabase(nil))
}

func TestNewRedisClient(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		client, err := NewRedisClient(context.Background(), &config.Config{}, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("enabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{Redis: config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mr.Port()}}

		client, err := NewRedisClient(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.NoError(t, client.Close())
	})
}

func TestNewDatabase_InMemorySQLiteKeepsConnection(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DB.SQLitePath = ":memory:"
	cfg.DB.MaxIdleConns = 0
	cfg.DB.ConnMaxLifetime = 1
	cfg.DB.ConnMaxIdleTime = 1

	db, err := NewDatabase(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, CloseDatabase(db)) }()

	require.NoError(t, db.Create(&postgres.UserSchema{Name: "John", Surname: "Doe", Email: "john@example.com"}).Error)

	// Past both configured limits; a recycled connection would drop the table.
	time.Sleep(1500 * time.Millisecond)

	var count int64
	require.NoError(t, db.Model(&postgres.UserSchema{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	stats := sqlDB.Stats()
	assert.Zero(t, stats.MaxLifetimeClosed)
	assert.Zero(t, stats.MaxIdleTimeClosed)
}
