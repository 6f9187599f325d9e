package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// LoadFromFile Tests
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://crm.local:8081
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://crm.local:8081", cfg.API.BaseURL)
	assert.Equal(t, 30000, cfg.API.Timeout)
	assert.Equal(t, RehydrateTrust, cfg.Auth.Rehydrate)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, 300, cfg.Listing.DebounceMs)
	assert.Equal(t, 10000, cfg.Export.AdminPageSize)
	assert.Equal(t, "stores", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "fieldsales-console", cfg.Observability.ServiceName)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("CONSOLE_TEST_BASE", "http://from-env:9000")
	path := writeConfig(t, `
api:
  base_url: ${CONSOLE_TEST_BASE}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.API.BaseURL)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "missing base url",
			body:   "logging:\n  level: debug\n",
			errMsg: "api.base_url is required",
		},
		{
			name: "unknown rehydrate policy",
			body: `
api:
  base_url: http://x
auth:
  rehydrate: sometimes
`,
			errMsg: "auth.rehydrate must be one of",
		},
		{
			name: "redis storage without address",
			body: `
api:
  base_url: http://x
storage:
  backend: redis
`,
			errMsg: "database.redis.address is required",
		},
		{
			name: "unknown storage backend",
			body: `
api:
  base_url: http://x
storage:
  backend: sqlite
`,
			errMsg: "storage.backend must be one of",
		},
		{
			name: "telegram without token",
			body: `
api:
  base_url: http://x
integrations:
  telegram:
    enabled: true
`,
			errMsg: "integrations.telegram.bot_token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CRM_API_BASE_URL", "")
			t.Setenv("TELEGRAM_BOT_TOKEN", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 300*time.Millisecond, GetDuration(300))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
