package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/table"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, client.DefaultBaseURL, cfg.APIURL)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, table.DefaultLimit, cfg.PageSize)
	assert.Equal(t, client.DefaultTimeout, cfg.GetTimeout())
	assert.False(t, cfg.CookieSecure)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://api.example.kz
timeout: 3s
page_size: 10
category_cache_ttl: 1m
cookie_secure: true
`), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.kz", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.GetTimeout())
	assert.Equal(t, time.Minute, cfg.GetCacheTTL())
	assert.Equal(t, 10, cfg.PageSize)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, DefaultListen, cfg.Listen, "unset keys keep defaults")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://file.example.kz\npage_size: 10\n"), 0600))

	t.Setenv("BARLYQ_API_URL", "https://env.example.kz")
	t.Setenv("BARLYQ_PAGE_SIZE", "7")
	t.Setenv("BARLYQ_LISTEN", "0.0.0.0:9000")
	t.Setenv("BARLYQ_COOKIE_SECURE", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.kz", cfg.APIURL)
	assert.Equal(t, 7, cfg.PageSize)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad timeout", yaml: "timeout: soon\n"},
		{name: "bad ttl", yaml: "category_cache_ttl: forever\n"},
		{name: "negative page size", yaml: "page_size: -1\n"},
		{name: "bad yaml", yaml: "api_url: [\n"},
		{name: "bad env page size", env: map[string]string{"BARLYQ_PAGE_SIZE": "many"}},
		{name: "bad env bool", env: map[string]string{"BARLYQ_COOKIE_SECURE": "perhaps"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0600))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.APIURL = "https://saved.example.kz"
	cfg.PageSize = 33
	require.NoError(t, SaveConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
