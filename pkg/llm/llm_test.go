package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemap-extract/pkg/extraction"
)

const articleReply = `{"title":"Best Cards","summary":"Long summary.","brief_summary":"Short.","keywords":["miles","cards"]}`

func mustSpec(t *testing.T, provider string) *extraction.Spec {
	t.Helper()
	spec, err := extraction.BuildSpec("test-key", extraction.WithProvider(provider))
	require.NoError(t, err)
	return spec
}

func TestNormalizeBlocks(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr bool
	}{
		{name: "object is wrapped", reply: `{"title":"a"}`, want: `[{"title":"a"}]`},
		{name: "array is kept", reply: `[{"title":"a"},{"title":"b"}]`, want: `[{"title":"a"},{"title":"b"}]`},
		{name: "code fence", reply: "```json\n{\"title\":\"a\"}\n```", want: `[{"title":"a"}]`},
		{name: "empty", reply: "  ", wantErr: true},
		{name: "prose", reply: "Here is the summary", wantErr: true},
		{name: "scalar", reply: `"just a string"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBlocks(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestNewClient_Dispatch(t *testing.T) {
	client, err := NewClient(mustSpec(t, "openai/gpt-4o"), Config{})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)

	client, err = NewClient(mustSpec(t, "anthropic/claude-3-5-haiku-latest"), Config{})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, client)

	_, err = NewClient(mustSpec(t, "mystery/model"), Config{})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = NewClient(mustSpec(t, "custom/local-model"), Config{})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	client, err = NewClient(mustSpec(t, "custom/local-model"), Config{BaseURL: "http://localhost:8080/v1"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1/chat/completions", client.(*OpenAIClient).endpoint)
}

func TestOpenAIClient_Extract(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": articleReply}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/v1", Config{Timeout: 5 * time.Second})
	got, err := client.Extract(context.Background(), mustSpec(t, "openai/gpt-4o-mini"), Request{
		URL:     "https://site.com/a",
		Content: "Some article text.",
	})
	require.NoError(t, err)

	var blocks []extraction.Article
	require.NoError(t, json.Unmarshal([]byte(got), &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, "Best Cards", blocks[0].Title)
	assert.Equal(t, []string{"miles", "cards"}, blocks[0].Keywords)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, "json_schema", captured.ResponseFormat.Type)
	require.NotNil(t, captured.ResponseFormat.JSONSchema)
	assert.Equal(t, "article", captured.ResponseFormat.JSONSchema.Name)
	require.Len(t, captured.Messages, 2)
	assert.Contains(t, captured.Messages[0].Content, "Ignore advertisement or noisy content")
	assert.Contains(t, captured.Messages[1].Content, "https://site.com/a")
	assert.Contains(t, captured.Messages[1].Content, "Some article text.")

	total, failed := client.Stats()
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, uint64(0), failed)
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, Config{Timeout: 5 * time.Second})
	_, err := client.Extract(context.Background(), mustSpec(t, "openai/gpt-4o"), Request{URL: "https://site.com/a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	_, failed := client.Stats()
	assert.Equal(t, uint64(1), failed)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, Config{Timeout: 5 * time.Second})
	_, err := client.Extract(context.Background(), mustSpec(t, "openai/gpt-4o"), Request{URL: "https://site.com/a"})

	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropicClient_Extract(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-3-5-haiku-latest",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]interface{}{
				{"type": "text", "text": "```json\n" + articleReply + "\n```"},
			},
			"usage": map[string]int{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	got, err := client.Extract(context.Background(), mustSpec(t, "anthropic/claude-3-5-haiku-latest"), Request{
		URL:     "https://site.com/b",
		Content: "Body",
	})
	require.NoError(t, err)
	assert.JSONEq(t, "["+articleReply+"]", got)

	assert.Equal(t, "claude-3-5-haiku-latest", captured["model"])
	assert.NotEmpty(t, captured["system"])
}
