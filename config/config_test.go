package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "TZ", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "SESSION_SECRET",
		"SESSION_TTL", "PAGE_SIZE", "DEV_LOGIN", "WATERSYNC_CONFIG"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "watersync.db", cfg.DBPath)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 336*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.DevLogin)
}

func TestLoadSecretRequired(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DEV_LOGIN", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.DevLogin)
	assert.NotEmpty(t, cfg.SessionSecret)
}

func TestLoadYAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "watersync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
db_path: /data/field.db
session_secret: from-file
session_ttl: 2h
page_size: 50
`), 0o600))
	t.Setenv("WATERSYNC_CONFIG", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port, "environment wins over the file")
	assert.Equal(t, "/data/field.db", cfg.DBPath)
	assert.Equal(t, "from-file", cfg.SessionSecret)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 50, cfg.PageSize)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"DB_DRIVER": "postgres"},
		"unknown driver":       {"DB_DRIVER": "mysql"},
		"page size":            {"PAGE_SIZE": "0"},
		"ttl":                  {"SESSION_TTL": "forever"},
		"missing overlay":      {"WATERSYNC_CONFIG": "/nonexistent/watersync.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SESSION_SECRET", "s3cret")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
