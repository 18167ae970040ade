package config

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"sitemap-extract/pkg/crawler"
	"sitemap-extract/pkg/extraction"
	"sitemap-extract/pkg/llm"
	"sitemap-extract/pkg/logger"
	"sitemap-extract/pkg/storage"
	"sitemap-extract/pkg/worker"
)

const AppName = "sitemap-extract"

var ErrMissingSitemapURL = errors.New("sitemap url is required (set sitemap.url or EXTRACT_SITEMAP_URL)")

type Config struct {
	Sitemap SitemapConfig `mapstructure:"sitemap"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Output  OutputConfig  `mapstructure:"output"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Logger  logger.Config `mapstructure:"logger"`
}

type SitemapConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type LLMConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Instruction string `mapstructure:"instruction"`

	llm.Config `mapstructure:",squash"`
}

type OutputConfig struct {
	storage.StorageConfig `mapstructure:",squash"`

	// Report is an optional path for a markdown run summary.
	Report string `mapstructure:"report"`
}

type CrawlerConfig struct {
	Fetch crawler.Config `mapstructure:",squash"`
	Pool  worker.Config  `mapstructure:",squash"`
}

// BuildSpec builds the extraction spec from the llm section. It fails with
// extraction.ErrMissingAPIKey when no key is configured.
func (c *Config) BuildSpec() (*extraction.Spec, error) {
	opts := []extraction.Option{extraction.WithProvider(c.LLM.Provider)}
	if c.LLM.Instruction != "" {
		opts = append(opts, extraction.WithInstruction(c.LLM.Instruction))
	}
	return extraction.BuildSpec(c.LLM.APIKey, opts...)
}

// StripPrefix returns the prefix removed from article URLs when naming
// artifacts, defaulting to the sitemap's origin.
func (c *Config) StripPrefix() string {
	if c.Output.StripPrefix != "" {
		return c.Output.StripPrefix
	}
	return storage.DefaultStripPrefix(c.Sitemap.URL)
}

// XDGConfigDir is searched for config.yaml after the working directory.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir is a suggested location for crawler.cache_dir.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName, "pages")
}

type Manager interface {
	Load(configPath string, overrides map[string]interface{}) (*Config, error)
	GetConfig() *Config
	ConfigFileUsed() string
}
