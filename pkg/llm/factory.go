package llm

import (
	"fmt"

	"sitemap-extract/pkg/extraction"
)

// openAICompatible lists vendors that speak the chat-completions protocol,
// with their default endpoints. An empty endpoint means BaseURL is required.
var openAICompatible = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"ollama":     "http://localhost:11434/v1",
	"custom":     "",
}

// NewClient returns the client matching spec's vendor.
func NewClient(spec *extraction.Spec, cfg Config) (Client, error) {
	cfg = cfg.withDefaults()
	vendor := spec.Vendor()

	if vendor == "anthropic" {
		return NewAnthropicClient(spec.APIToken(), cfg), nil
	}

	endpoint, ok := openAICompatible[vendor]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, spec.Provider())
	}
	if cfg.BaseURL != "" {
		endpoint = cfg.BaseURL
	}
	if endpoint == "" {
		return nil, fmt.Errorf("%w: %q requires llm.base_url", ErrUnsupportedProvider, spec.Provider())
	}
	return NewOpenAIClient(endpoint, cfg), nil
}
