package extraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSpec_RequiresAPIKey(t *testing.T) {
	for _, key := range []string{"", "   ", "\n"} {
		spec, err := BuildSpec(key)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
		assert.Nil(t, spec)
	}
}

func TestBuildSpec_Defaults(t *testing.T) {
	spec, err := BuildSpec("sk-test")
	require.NoError(t, err)

	assert.Equal(t, DefaultProvider, spec.Provider())
	assert.Equal(t, "openai", spec.Vendor())
	assert.Equal(t, "gpt-4o-mini", spec.Model())
	assert.Equal(t, "sk-test", spec.APIToken())
	assert.Equal(t, TypeSchema, spec.ExtractionType())
	assert.False(t, spec.ApplyChunking())
	assert.Contains(t, spec.Instruction(), "Ignore advertisement or noisy content")
	for _, field := range []string{"title", "summary", "brief_summary", "keywords"} {
		assert.Contains(t, spec.Instruction(), field)
	}
}

func TestBuildSpec_Options(t *testing.T) {
	spec, err := BuildSpec("key",
		WithProvider("anthropic/claude-3-5-haiku-latest"),
		WithInstruction("Only the title."),
		WithProvider("  "),
	)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", spec.Vendor())
	assert.Equal(t, "claude-3-5-haiku-latest", spec.Model())
	assert.Equal(t, "Only the title.", spec.Instruction())
}

func TestArticleSchema_DeclaresAllFields(t *testing.T) {
	raw, err := ArticleSchema()
	require.NoError(t, err)

	var schema struct {
		Type                 string                            `json:"type"`
		Properties           map[string]map[string]interface{} `json:"properties"`
		Required             []string                          `json:"required"`
		AdditionalProperties *bool                             `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"title", "summary", "brief_summary", "keywords"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["title"]["type"])
	assert.Equal(t, "string", schema.Properties["brief_summary"]["type"])
	assert.Equal(t, "array", schema.Properties["keywords"]["type"])
	require.NotNil(t, schema.AdditionalProperties)
	assert.False(t, *schema.AdditionalProperties)
}

func TestSpec_SchemaIsCopied(t *testing.T) {
	spec, err := BuildSpec("key")
	require.NoError(t, err)

	first := spec.Schema()
	first[0] = 'X'

	assert.NotEqual(t, first, spec.Schema())
}
