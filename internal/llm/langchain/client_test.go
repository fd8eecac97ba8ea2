package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
)

type fakeModel struct {
	got  []llms.MessageContent
	opts llms.CallOptions
	resp *llms.ContentResponse
	err  error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.got = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	fm := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "| a |\n| --- |"}}}}
	c := New(fm, "gpt-4o-mini", 0.2, nil)

	out, err := c.Complete(t.Context(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "| a |\n| --- |", out.Content)
	assert.Equal(t, "gpt-4o-mini", out.Model)

	require.Len(t, fm.got, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, fm.got[0].Role)
	require.Len(t, fm.got[0].Parts, 1)
	assert.Equal(t, llms.TextContent{Text: "the prompt"}, fm.got[0].Parts[0])
	assert.InDelta(t, 0.2, fm.opts.Temperature, 1e-6)
}

func TestCompleteErrors(t *testing.T) {
	_, err := New(&fakeModel{err: errors.New("deployment not found")}, "m", 0, nil).Complete(t.Context(), "p")
	assert.ErrorContains(t, err, "deployment not found")

	_, err = New(&fakeModel{resp: &llms.ContentResponse{}}, "m", 0, nil).Complete(t.Context(), "p")
	assert.ErrorContains(t, err, "no choices")
}

func TestNewAzureClientRequiresCredentials(t *testing.T) {
	_, err := NewAzureClient(AzureConfig{Endpoint: "https://x.openai.azure.com"}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}
