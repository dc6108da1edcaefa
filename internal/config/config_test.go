package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poscheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
base_url: http://127.0.0.1:47851
timeout_seconds: 10
run_log: /tmp/runs.db
roles:
  admin:
    username: admin
    password: secret
  cashier:
    username: cashier
    password: secret
    pin: "1234"
browser:
  driver_url: http://127.0.0.1:9000
  app_url: http://127.0.0.1:3000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:47851", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, "/tmp/runs.db", cfg.RunLog)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Browser.DriverURL)

	admin, ok := cfg.Role("admin")
	require.True(t, ok)
	assert.Equal(t, "admin", admin.Username)

	cashier, ok := cfg.Role("cashier")
	require.True(t, ok)
	assert.Equal(t, "1234", cashier.Pin)

	_, ok = cfg.Role("ghost")
	assert.False(t, ok)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
base_url: http://127.0.0.1:47851
roles:
  admin:
    username: admin
    password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.TimeoutSeconds)
	assert.Equal(t, DefaultRunLogPath, cfg.RunLog)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
base_url: http://127.0.0.1:47851
base_ur1: typo
roles:
  admin:
    username: admin
    password: secret
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing base_url",
			content: "roles:\n  admin:\n    username: a\n    password: b\n",
			want:    "base_url is required",
		},
		{
			name:    "missing roles",
			content: "base_url: http://127.0.0.1:47851\n",
			want:    "roles map is required",
		},
		{
			name:    "missing password",
			content: "base_url: http://127.0.0.1:47851\nroles:\n  admin:\n    username: a\n",
			want:    "password is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
base_url: http://file-value
timeout_seconds: 10
roles:
  admin:
    username: admin
    password: secret
`)

	t.Setenv("POSCHECK_BASE_URL", "http://env-value")
	t.Setenv("POSCHECK_TIMEOUT_SECONDS", "3")
	t.Setenv("POSCHECK_DRIVER_URL", "http://127.0.0.1:9000")
	t.Setenv("POSCHECK_RUN_LOG", "/tmp/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env-value", cfg.BaseURL)
	assert.Equal(t, 3, cfg.TimeoutSeconds)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Browser.DriverURL)
	assert.Equal(t, "/tmp/env.db", cfg.RunLog)
}

func TestEnvOverrideIgnoresInvalidTimeout(t *testing.T) {
	path := writeConfig(t, `
base_url: http://127.0.0.1:47851
timeout_seconds: 10
roles:
  admin:
    username: admin
    password: secret
`)

	t.Setenv("POSCHECK_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TimeoutSeconds)
}
