package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"sitemap-extract/pkg/extraction"
)

func systemPrompt(spec *extraction.Spec) string {
	var b strings.Builder
	b.WriteString("You extract structured data from web page content.\n")
	b.WriteString(spec.Instruction())
	b.WriteString("\n\nRespond with JSON only, matching this JSON Schema:\n")
	b.Write(spec.Schema())
	return b.String()
}

func userPrompt(req Request) string {
	return fmt.Sprintf("Here is the content from the URL:\n<url>%s</url>\n\n<url_content>\n%s\n</url_content>", req.URL, req.Content)
}

// NormalizeBlocks turns a model reply into a JSON array. A single object is
// wrapped, an array is kept, and a reply fenced in markdown code markers is
// unwrapped first.
func NormalizeBlocks(reply string) (string, error) {
	trimmed := stripCodeFence(strings.TrimSpace(reply))
	if trimmed == "" {
		return "", ErrEmptyResponse
	}

	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return "", fmt.Errorf("LLM reply is not valid JSON: %w", err)
	}

	var blocks []interface{}
	switch v := value.(type) {
	case []interface{}:
		blocks = v
	case map[string]interface{}:
		blocks = []interface{}{v}
	default:
		return "", fmt.Errorf("LLM reply is %T, want object or array", value)
	}

	out, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("failed to encode blocks: %w", err)
	}
	return string(out), nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
