// Package llm sends page content to a hosted language model and returns the
// structured record it extracted.
package llm

import (
	"context"
	"errors"
	"time"

	"sitemap-extract/pkg/extraction"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")
	ErrEmptyResponse       = errors.New("LLM returned no content")
)

// Client extracts a record matching spec's schema from page content. The
// returned string is a JSON array of extracted blocks.
type Client interface {
	Extract(ctx context.Context, spec *extraction.Spec, req Request) (string, error)
}

// Request carries one page worth of input.
type Request struct {
	URL     string
	Content string
}

// Config holds transport settings shared by all providers.
type Config struct {
	// BaseURL overrides the provider endpoint, e.g. a local OpenAI-compatible
	// server. Required for vendors without a well-known endpoint.
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	return c
}
