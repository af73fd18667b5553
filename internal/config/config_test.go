package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "inmemory", cfg.Storage.Driver)
	assert.Equal(t, 20, cfg.Feed.DefaultPageSize)
	assert.Equal(t, 100, cfg.Feed.MaxPageSize)
	assert.Equal(t, 500, cfg.Feed.CandidateWindow)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BT_HTTP_PORT", "9090")
	t.Setenv("BT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("http:\n  port: 3000\nfeed:\n  default_page_size: 10\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, 10, cfg.Feed.DefaultPageSize)
	// Неупомянутые секции остаются на значениях по умолчанию
	assert.Equal(t, "inmemory", cfg.Storage.Driver)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("BT_STORAGE_DRIVER", "mysql")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("BT_STORAGE_DRIVER", "postgres")
		_, err := Load("")
		assert.Error(t, err)
	})
}
