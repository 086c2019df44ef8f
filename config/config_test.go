package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"CACHE_URL=localhost:6380\nRATE_LIMIT_FAIL_OPEN=true\nSITE_URL=https://example.org/\nTRUSTED_PROXIES=10.0.0.1, 10.0.0.2\n",
	), 0o600))
	for _, key := range []string{"CACHE_URL", "RATE_LIMIT_FAIL_OPEN", "SITE_URL", "TRUSTED_PROXIES", "ADDR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6380", cfg.CacheURL)
	assert.True(t, cfg.RateLimitFailOpen)
	assert.Equal(t, "https://example.org", cfg.SiteURL)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
	assert.Equal(t, ":4000", cfg.Addr)
}

func TestLoadConfig_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("RATE_LIMIT_FAIL_OPEN", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.False(t, cfg.RateLimitFailOpen)
}
