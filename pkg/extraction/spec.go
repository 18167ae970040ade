// Package extraction describes what an LLM should pull out of a crawled page
// and in which shape.
package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// ErrMissingAPIKey is returned when no LLM credential is configured. Nothing
// useful can run without one, so callers treat it as fatal.
var ErrMissingAPIKey = errors.New("LLM API key is not configured")

const (
	// DefaultProvider is used when no provider is configured.
	DefaultProvider = "openai/gpt-4o-mini"

	// TypeSchema asks the engine for output conforming to Spec.Schema.
	TypeSchema = "schema"
)

// DefaultInstruction requests the four Article fields and tells the model to
// leave out page chrome.
const DefaultInstruction = `From the crawled content, extract the following details:
1. Title of the page
2. Summary of the page, which is a detailed summary
3. Brief summary of the page, which is a paragraph text
4. Keywords assigned to the page, which is a list of keywords.
The extracted JSON format should look like this:
{"title": "Page Title", "summary": "Detailed summary of the page.", "brief_summary": "Brief summary in a paragraph.", "keywords": ["keyword1", "keyword2", "keyword3"]}
Ignore advertisement or noisy content.`

// Article is the record extracted from every page.
type Article struct {
	Title        string   `json:"title" jsonschema:"description=Title of the page"`
	Summary      string   `json:"summary" jsonschema:"description=Detailed summary of the page"`
	BriefSummary string   `json:"brief_summary" jsonschema:"description=One-paragraph summary of the page"`
	Keywords     []string `json:"keywords" jsonschema:"description=Keywords assigned to the page"`
}

// Spec is the immutable extraction configuration shared by every URL of a
// batch. Build it with BuildSpec.
type Spec struct {
	provider      string
	apiToken      string
	instruction   string
	schema        json.RawMessage
	schemaName    string
	extraction    string
	applyChunking bool
}

// Option customises BuildSpec.
type Option func(*Spec)

// WithProvider selects the "<vendor>/<model>" provider identifier.
func WithProvider(provider string) Option {
	return func(s *Spec) {
		if p := strings.TrimSpace(provider); p != "" {
			s.provider = p
		}
	}
}

// WithInstruction replaces DefaultInstruction.
func WithInstruction(instruction string) Option {
	return func(s *Spec) {
		if i := strings.TrimSpace(instruction); i != "" {
			s.instruction = i
		}
	}
}

// BuildSpec returns the extraction configuration for Article records. The
// schema is derived from Article, content chunking is disabled, and a blank
// apiKey is rejected with ErrMissingAPIKey.
func BuildSpec(apiKey string, opts ...Option) (*Spec, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	schema, err := ArticleSchema()
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		provider:      DefaultProvider,
		apiToken:      apiKey,
		instruction:   DefaultInstruction,
		schema:        schema,
		schemaName:    "article",
		extraction:    TypeSchema,
		applyChunking: false,
	}
	for _, opt := range opts {
		opt(spec)
	}
	return spec, nil
}

// ArticleSchema returns the JSON Schema for Article with all definitions
// inlined.
func ArticleSchema() (json.RawMessage, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Article{})
	schema.Version = ""
	schema.ID = ""

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal article schema: %w", err)
	}
	return raw, nil
}

func (s *Spec) Provider() string { return s.provider }

func (s *Spec) APIToken() string { return s.apiToken }

func (s *Spec) Instruction() string { return s.instruction }

func (s *Spec) SchemaName() string { return s.schemaName }

func (s *Spec) ExtractionType() string { return s.extraction }

// ApplyChunking is always false: pages are sent whole, and content beyond
// the model's context window is the provider's to truncate or reject.
func (s *Spec) ApplyChunking() bool { return s.applyChunking }

// Schema returns a copy of the output schema.
func (s *Spec) Schema() json.RawMessage {
	return append(json.RawMessage(nil), s.schema...)
}

// Vendor and Model split the provider identifier, e.g. "openai/gpt-4o".
// An identifier without a slash is treated as a bare vendor name.
func (s *Spec) Vendor() string {
	vendor, _, _ := strings.Cut(s.provider, "/")
	return strings.ToLower(vendor)
}

func (s *Spec) Model() string {
	_, model, _ := strings.Cut(s.provider, "/")
	return model
}
