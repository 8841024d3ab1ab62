package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ENV", "")

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "DEV", conf.Env)
		assert.True(t, conf.Debug)
		assert.False(t, conf.TestMode)
		assert.Equal(t, ":8000", conf.Server.Host)
		assert.Equal(t, 20.0, conf.Server.RateLimit)
		assert.EqualValues(t, 100<<20, conf.Server.MaxUploadSize)
		assert.Equal(t, "disk", conf.Storage.Backend)
		assert.Equal(t, "http://localhost:8000", conf.Client.BaseURL)
		assert.Equal(t, "/resources", conf.Client.ResourcePath)
		assert.Equal(t, 2*time.Minute, conf.Client.Timeout)
		assert.True(t, conf.Client.AutoLoad)
		assert.True(t, conf.Client.AutoCleanup)
	})

	t.Run("test mode", func(t *testing.T) {
		t.Setenv("ENV", "test")

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "TEST", conf.Env)
		assert.True(t, conf.TestMode)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ENV", "qa")
		t.Setenv("QA_DEBUG", "false")
		t.Setenv("QA_SERVER_HOST", ":9000")
		t.Setenv("QA_SERVER_RATELIMIT", "5.5")
		t.Setenv("QA_SERVER_JWTEXPIRATIONDELTA", "1h")
		t.Setenv("QA_STORAGE_BACKEND", "inmem")
		t.Setenv("QA_CLIENT_TIMEOUT", "3s")
		t.Setenv("QA_CLIENT_AUTOCLEANUP", "false")

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "QA", conf.Env)
		assert.False(t, conf.Debug)
		assert.Equal(t, ":9000", conf.Server.Host)
		assert.Equal(t, 5.5, conf.Server.RateLimit)
		assert.Equal(t, time.Hour, conf.Server.JWTExpirationDelta)
		assert.Equal(t, "inmem", conf.Storage.Backend)
		assert.Equal(t, 3*time.Second, conf.Client.Timeout)
		assert.False(t, conf.Client.AutoCleanup)
	})

	t.Run("dot env file", func(t *testing.T) {
		t.Setenv("ENV", "prod")
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, "config", ".env.prod"),
			[]byte("PROD_APPNAME=Academia\nPROD_CLIENT_BASEURL=https://api.masomo.cd\n"),
			0o600,
		))
		chdir(t, dir)
		t.Cleanup(func() {
			_ = os.Unsetenv("PROD_APPNAME")
			_ = os.Unsetenv("PROD_CLIENT_BASEURL")
		})

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "Academia", conf.AppName)
		assert.Equal(t, "https://api.masomo.cd", conf.Client.BaseURL)
	})
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
