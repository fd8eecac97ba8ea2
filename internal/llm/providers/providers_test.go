package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/llm/langchain"
	"github.com/joseph-ayodele/invoice-parser/internal/llm/openai"
)

func TestNewOpenAI(t *testing.T) {
	c, closeFn, err := New(t.Context(), common.LLMConfig{
		Provider: common.ProviderOpenAI,
		OpenAI:   common.OpenAIConfig{APIKey: "sk"},
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, c)
	assert.NoError(t, closeFn())
}

func TestNewAzure(t *testing.T) {
	c, _, err := New(t.Context(), common.LLMConfig{
		Provider: common.ProviderAzure,
		Azure:    common.AzureOpenAIConfig{Endpoint: "https://res.openai.azure.com", APIKey: "k", Deployment: "gpt-4o-mini", APIVersion: "2024-08-01-preview"},
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &langchain.Client{}, c)
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, closeFn, err := New(t.Context(), common.LLMConfig{Provider: common.ProviderGemini}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.NotNil(t, closeFn)

	_, _, err = New(t.Context(), common.LLMConfig{Provider: "bard"}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}
