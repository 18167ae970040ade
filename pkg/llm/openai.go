package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"

	"sitemap-extract/pkg/extraction"
	"sitemap-extract/pkg/logger"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Stream         bool           `json:"stream"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIClient talks to any chat-completions compatible endpoint.
type OpenAIClient struct {
	client   *fasthttp.Client
	endpoint string
	cfg      Config
	log      *logger.Logger

	totalRequests  uint64
	failedRequests uint64
}

func NewOpenAIClient(baseURL string, cfg Config) *OpenAIClient {
	cfg = cfg.withDefaults()
	return &OpenAIClient{
		client: &fasthttp.Client{
			ReadTimeout:               cfg.Timeout,
			WriteTimeout:              cfg.Timeout,
			MaxIdemponentCallAttempts: 1,
			MaxResponseBodySize:       32 << 20,
		},
		endpoint: strings.TrimRight(baseURL, "/") + "/chat/completions",
		cfg:      cfg,
		log:      logger.GetLogger().WithField("component", "openai_client"),
	}
}

func (c *OpenAIClient) Extract(ctx context.Context, spec *extraction.Spec, req Request) (string, error) {
	atomic.AddUint64(&c.totalRequests, 1)
	start := time.Now()

	reply, err := c.complete(ctx, spec, req)
	if err != nil {
		atomic.AddUint64(&c.failedRequests, 1)
		return "", err
	}

	c.log.WithFields(map[string]interface{}{
		"url":         req.URL,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("LLM extraction completed")

	return NormalizeBlocks(reply)
}

func (c *OpenAIClient) complete(ctx context.Context, spec *extraction.Spec, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: spec.Model(),
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(spec)},
			{Role: "user", Content: userPrompt(req)},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   spec.SchemaName(),
				Schema: spec.Schema(),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(c.endpoint)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := spec.APIToken(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.SetBody(body)

	deadline := time.Now().Add(c.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.client.DoDeadline(httpReq, httpResp, deadline); err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(httpResp.Body(), &parsed)

	if httpResp.StatusCode() != fasthttp.StatusOK {
		if decodeErr == nil && parsed.Error != nil {
			return "", fmt.Errorf("LLM API returned status %d: %s", httpResp.StatusCode(), parsed.Error.Message)
		}
		return "", fmt.Errorf("LLM API returned status %d: %s", httpResp.StatusCode(), truncate(string(httpResp.Body()), 512))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

// Stats returns the number of requests sent and how many failed.
func (c *OpenAIClient) Stats() (total, failed uint64) {
	return atomic.LoadUint64(&c.totalRequests), atomic.LoadUint64(&c.failedRequests)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
