package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/ocr"
	"github.com/joseph-ayodele/invoice-parser/internal/repository"
)

func localConfig(t *testing.T) *common.Config {
	t.Helper()
	return &common.Config{
		Analyzer: common.AnalyzerConfig{Backend: common.AnalyzerLocal},
		LLM: common.LLMConfig{
			Provider: common.ProviderOpenAI,
			OpenAI:   common.OpenAIConfig{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1", Model: "gpt-4o-mini"},
		},
		Store:   common.StoreConfig{Driver: common.StoreNone},
		TempDir: t.TempDir(),
	}
}

func TestNewWithoutStore(t *testing.T) {
	a, err := New(t.Context(), localConfig(t), nil, Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Processor)
	assert.Nil(t, a.DB)
	assert.IsType(t, repository.NopJobRepository{}, a.Jobs)
}

func TestNewWithSQLiteStore(t *testing.T) {
	cfg := localConfig(t)
	cfg.Store = common.StoreConfig{Driver: common.StoreSQLite, DSN: filepath.Join(t.TempDir(), "jobs.db")}

	a, err := New(t.Context(), cfg, nil, Options{})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.DB)
	jobs, err := a.Jobs.ListRecent(t.Context(), 5)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestNewRejectsBadConfigBeforeIO(t *testing.T) {
	cfg := localConfig(t)
	cfg.LLM.OpenAI.APIKey = ""
	_, err := New(t.Context(), cfg, nil, Options{})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	// analyze-only mode does not need LLM credentials
	a, err := New(t.Context(), cfg, nil, Options{AnalyzeOnly: true})
	require.NoError(t, err)
	a.Close()
}

func TestNewAnalyzer(t *testing.T) {
	cfg := localConfig(t)
	an, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ocr.Extractor{}, an)

	cfg.Analyzer = common.AnalyzerConfig{Backend: common.AnalyzerAzure}
	_, err = NewAnalyzer(cfg, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	cfg.Analyzer = common.AnalyzerConfig{Backend: "textract"}
	_, err = NewAnalyzer(cfg, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}
