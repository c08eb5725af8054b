package app

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/tabletinfo/internal/config"
	"github.com/vbonduro/tabletinfo/internal/druginfo"
	"github.com/vbonduro/tabletinfo/internal/prompt"
	claudevision "github.com/vbonduro/tabletinfo/internal/vision/claude"
	geminivision "github.com/vbonduro/tabletinfo/internal/vision/gemini"
	ollamavision "github.com/vbonduro/tabletinfo/internal/vision/ollama"
	openaivision "github.com/vbonduro/tabletinfo/internal/vision/openai"
)

func baseConfig() *config.Config {
	return &config.Config{
		ExtractionBackend: "gemini",
		AnalysisMode:      prompt.ModeSummary,
		PromptVersion:     "v1",
		GeminiModel:       "gemini-1.5-flash",
		OllamaHost:        "https://ollama.example.test",
		OllamaModel:       "llava",
		LookupTimeout:     time.Second,
	}
}

func TestNewExtractor(t *testing.T) {
	tests := []struct {
		backend string
		check   func(t *testing.T, v any)
	}{
		{"gemini", func(t *testing.T, v any) { assert.IsType(t, &geminivision.GeminiExtractor{}, v) }},
		{"GEMINI", func(t *testing.T, v any) { assert.IsType(t, &geminivision.GeminiExtractor{}, v) }},
		{"claude", func(t *testing.T, v any) { assert.IsType(t, &claudevision.ClaudeExtractor{}, v) }},
		{"openai", func(t *testing.T, v any) { assert.IsType(t, &openaivision.OpenAIExtractor{}, v) }},
		{"ollama", func(t *testing.T, v any) { assert.IsType(t, &ollamavision.OllamaExtractor{}, v) }},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := baseConfig()
			cfg.ExtractionBackend = tt.backend
			ext, err := NewExtractor(cfg, slog.Default())
			require.NoError(t, err)
			tt.check(t, ext)
		})
	}
}

func TestNewExtractorUnknownBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.ExtractionBackend = "bard"
	_, err := NewExtractor(cfg, slog.Default())
	assert.ErrorContains(t, err, "bard")
}

func TestNewExtractorOllamaRequiresHost(t *testing.T) {
	cfg := baseConfig()
	cfg.ExtractionBackend = "ollama"
	cfg.OllamaHost = ""
	_, err := NewExtractor(cfg, slog.Default())
	assert.ErrorContains(t, err, "OLLAMA_HOST")
}

func TestNewLookers(t *testing.T) {
	cfg := baseConfig()
	cfg.Lookups = []string{"medlineplus", "rxnorm"}

	lookers := NewLookers(cfg)
	require.Len(t, lookers, 2)
	assert.Equal(t, druginfo.SourceRxNorm, lookers[0].Source())
	assert.Equal(t, druginfo.SourceMedlinePlus, lookers[1].Source())

	cfg.Lookups = nil
	assert.Empty(t, NewLookers(cfg))
}

func TestNewAnalysisService(t *testing.T) {
	cfg := baseConfig()
	cfg.AnalysisMode = prompt.ModeName
	cfg.Lookups = []string{"rxnorm", "fda", "medlineplus"}

	svc, err := NewAnalysisService(cfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, prompt.ModeName, svc.Mode())
}

func TestNewAnalysisServiceUnknownPromptVersion(t *testing.T) {
	cfg := baseConfig()
	cfg.PromptVersion = "v99"

	_, err := NewAnalysisService(cfg, slog.Default())
	assert.ErrorContains(t, err, "v99")
}
