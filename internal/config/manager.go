package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sitemap-extract/pkg/crawler"
)

const envPrefix = "EXTRACT"

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads configuration from configPath, or from config.yaml in the
// working directory or XDGConfigDir when configPath is empty. A missing
// config file is not an error when no path was given. Environment variables
// (EXTRACT_ prefix, plus OPENAI_API_KEY) and a .env file override file values;
// overrides, keyed like "crawler.concurrency", take precedence over all.
func (m *manager) Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	m.setupViper(configPath)

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for key, value := range overrides {
		m.viper.Set(key, value)
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m.config = &config
	return &config, nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// ConfigFileUsed reports the file viper read, or "" when running on
// defaults and environment only.
func (m *manager) ConfigFileUsed() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.ConfigFileUsed()
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	} else {
		m.viper.SetConfigName("config")
		m.viper.SetConfigType("yaml")
		m.viper.AddConfigPath(".")
		m.viper.AddConfigPath(XDGConfigDir())
	}

	for key, value := range Defaults() {
		m.viper.SetDefault(key, value)
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	m.viper.BindEnv("llm.api_key", envPrefix+"_LLM_API_KEY", "OPENAI_API_KEY")
	m.viper.BindEnv("sitemap.url", envPrefix+"_SITEMAP_URL", "SITEMAP_URL")
}

// Defaults returns every known key with its default value.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"sitemap.url":        "",
		"sitemap.timeout":    30 * time.Second,
		"sitemap.user_agent": "",

		"llm.provider":    "openai/gpt-4o-mini",
		"llm.api_key":     "",
		"llm.instruction": "",
		"llm.base_url":    "",
		"llm.timeout":     120 * time.Second,
		"llm.max_tokens":  4096,
		"llm.temperature": 0.0,

		"output.dir":          "./.data",
		"output.strip_prefix": "",
		"output.report":       "",

		"crawler.engine":         crawler.EngineBrowser,
		"crawler.concurrency":    5,
		"crawler.page_timeout":   time.Duration(0),
		"crawler.nav_timeout":    60 * time.Second,
		"crawler.wait_time":      time.Duration(0),
		"crawler.user_agent":     "",
		"crawler.cache_dir":      "",
		"crawler.chrome_path":    "",
		"crawler.headless":       true,
		"crawler.respect_robots": false,
		"crawler.bypass_cache":   true,

		"logger.level":       "info",
		"logger.format":      "console",
		"logger.output":      "stdout",
		"logger.time_format": "",
		"logger.no_color":    false,
	}
}

func validateConfig(config *Config) error {
	if config.Sitemap.URL == "" {
		return ErrMissingSitemapURL
	}
	u, err := url.Parse(config.Sitemap.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("sitemap url %q must be an absolute http(s) URL", config.Sitemap.URL)
	}

	switch config.Crawler.Fetch.Engine {
	case crawler.EngineBrowser, crawler.EngineHTTP:
	default:
		return fmt.Errorf("%w: %q", crawler.ErrUnknownEngine, config.Crawler.Fetch.Engine)
	}

	if config.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}

	if config.Crawler.Pool.TaskTimeout < 0 {
		return fmt.Errorf("crawler.page_timeout cannot be negative")
	}

	switch config.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", config.Logger.Format)
	}

	return nil
}
