package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
)

func TestFirstText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []genai.Part{&genai.Blob{MIMEType: "image/png"}}}},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("| a | b |\n"), genai.Text("| --- | --- |")}}},
	}}
	assert.Equal(t, "| a | b |\n| --- | --- |", firstText(resp))
	assert.Empty(t, firstText(nil))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{}))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(t.Context(), Config{}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}
