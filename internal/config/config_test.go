package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerscout/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Parser.CatalogConcurrency)
	assert.Equal(t, 50, cfg.Parser.SupplierConcurrency)
	assert.Equal(t, 5, cfg.Parser.Retries)
	assert.Equal(t, 2*time.Second, cfg.Parser.Backoff)
	assert.Equal(t, 10*time.Minute, cfg.Parser.CacheTTL)
	assert.Equal(t, "goquery", cfg.Parser.HTMLParser)
	assert.Equal(t, 3, cfg.Parser.JobConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.Proxy.CacheTTL)
	assert.Equal(t, 60*time.Second, cfg.Proxy.BanTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RETRIES", "2")
	t.Setenv("TIMEOUT", "15s")
	t.Setenv("HTML_PARSER", "nethtml")
	t.Setenv("USE_PROXY", "false")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Parser.Retries)
	assert.Equal(t, 15*time.Second, cfg.Parser.Timeout)
	assert.Equal(t, "nethtml", cfg.Parser.HTMLParser)
	assert.False(t, cfg.Proxy.Enabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		error string
	}{
		{
			name:  "retries above bound",
			env:   map[string]string{"RETRIES": "11"},
			error: "retries",
		},
		{
			name:  "job concurrency above bound",
			env:   map[string]string{"JOB_CONCURRENCY": "21"},
			error: "job concurrency",
		},
		{
			name:  "zero stage concurrency",
			env:   map[string]string{"CATALOG_CONCURRENCY": "0"},
			error: "concurrency",
		},
		{
			name:  "unknown html parser",
			env:   map[string]string{"HTML_PARSER": "regex"},
			error: "html parser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.error)
		})
	}
}
