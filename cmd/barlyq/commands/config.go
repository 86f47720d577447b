package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/cache"
	"github.com/barlyqqyzmet/admin/internal/local"
	"github.com/barlyqqyzmet/admin/internal/table"
)

const (
	DefaultListen = "127.0.0.1:7480"
	Version       = "0.4.0"
	envPrefix     = "BARLYQ_"
)

// Config holds the barlyq configuration.
type Config struct {
	APIURL           string `yaml:"api_url"`
	BaseDir          string `yaml:"base_dir"`
	Timeout          string `yaml:"timeout"`
	RefreshHeader    string `yaml:"refresh_header"`
	Listen           string `yaml:"listen"`
	PageSize         int    `yaml:"page_size"`
	CategoryCacheTTL string `yaml:"category_cache_ttl"`
	LogLevel         string `yaml:"log_level"`
	CookieSecure     bool   `yaml:"cookie_secure"`
}

func DefaultConfig() *Config {
	return &Config{
		APIURL:           client.DefaultBaseURL,
		BaseDir:          local.DefaultBaseDir(),
		Timeout:          client.DefaultTimeout.String(),
		RefreshHeader:    client.DefaultRefreshHeader,
		Listen:           DefaultListen,
		PageSize:         table.DefaultLimit,
		CategoryCacheTTL: cache.DefaultTTL.String(),
		LogLevel:         "info",
	}
}

// ConfigPath is $BARLYQ_CONFIG or ~/.barlyq/config.yaml.
func ConfigPath() string {
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p
	}
	return filepath.Join(local.DefaultBaseDir(), "config.yaml")
}

// LoadConfig reads .env from the working directory, then the YAML file at
// path, then BARLYQ_* overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"API_URL":        &c.APIURL,
		"BASE_DIR":       &c.BaseDir,
		"TIMEOUT":        &c.Timeout,
		"REFRESH_HEADER": &c.RefreshHeader,
		"LISTEN":         &c.Listen,
		"CACHE_TTL":      &c.CategoryCacheTTL,
		"LOG_LEVEL":      &c.LogLevel,
	}
	for name, dst := range str {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv(envPrefix + "PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPAGE_SIZE: %w", envPrefix, err)
		}
		c.PageSize = n
	}
	if v := os.Getenv(envPrefix + "COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sCOOKIE_SECURE: %w", envPrefix, err)
		}
		c.CookieSecure = b
	}
	return nil
}

// Validate checks durations and sizes.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if _, err := time.ParseDuration(c.CategoryCacheTTL); err != nil {
		return fmt.Errorf("invalid category_cache_ttl %q: %w", c.CategoryCacheTTL, err)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	return nil
}

// GetTimeout returns the HTTP timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return client.DefaultTimeout
	}
	return d
}

// GetCacheTTL returns how long the category tree is cached.
func (c *Config) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CategoryCacheTTL)
	if err != nil {
		return cache.DefaultTTL
	}
	return d
}

func (c *Config) engineOptions() local.Options {
	return local.Options{
		BaseDir:       c.BaseDir,
		APIURL:        c.APIURL,
		Timeout:       c.GetTimeout(),
		RefreshHeader: c.RefreshHeader,
		CacheTTL:      c.GetCacheTTL(),
	}
}
