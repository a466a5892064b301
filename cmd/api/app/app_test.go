package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"users-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DB: config.DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   filepath.Join(t.TempDir(), "users.db"),
			MaxOpenConns: 1,
		},
		App: config.AppConfig{
			HTTPPort:               "0",
			GRPCPort:               "0",
			GRPCEnabled:            true,
			ShutdownTimeoutSeconds: 2,
		},
		Logger: config.LoggerConfig{ServiceName: "users-service"},
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, err := NewWithConfig(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Server.Listen(ctx))
	require.NotEmpty(t, a.Server.HTTPAddr())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestNewWithConfig_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.HTTPPort = ""

	_, err := NewWithConfig(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, ".", getConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/users")
	assert.Equal(t, "/etc/users", getConfigPath())
}
