package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"sitemap-extract/pkg/extraction"
	"sitemap-extract/pkg/logger"
)

// AnthropicClient extracts records through the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	cfg    Config
	log    *logger.Logger
}

func NewAnthropicClient(apiKey string, cfg Config) *AnthropicClient {
	cfg = cfg.withDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		log:    logger.GetLogger().WithField("component", "anthropic_client"),
	}
}

func (c *AnthropicClient) Extract(ctx context.Context, spec *extraction.Spec, req Request) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(spec.Model()),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: anthropic.Float(c.cfg.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(spec)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	c.log.WithFields(map[string]interface{}{
		"url":         req.URL,
		"stop_reason": string(msg.StopReason),
	}).Debug("LLM extraction completed")

	return NormalizeBlocks(reply.String())
}
