// Package app builds an AnalysisService from configuration. Both the HTTP
// server and the CLI share it.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/tabletinfo/internal/config"
	"github.com/vbonduro/tabletinfo/internal/druginfo"
	"github.com/vbonduro/tabletinfo/internal/prompt"
	"github.com/vbonduro/tabletinfo/internal/service"
	"github.com/vbonduro/tabletinfo/internal/vision"
	claudevision "github.com/vbonduro/tabletinfo/internal/vision/claude"
	geminivision "github.com/vbonduro/tabletinfo/internal/vision/gemini"
	ollamavision "github.com/vbonduro/tabletinfo/internal/vision/ollama"
	openaivision "github.com/vbonduro/tabletinfo/internal/vision/openai"
)

func NewAnalysisService(cfg *config.Config, logger *slog.Logger) (*service.AnalysisService, error) {
	catalog, err := prompt.Load()
	if err != nil {
		return nil, err
	}
	tmpl, err := catalog.Template(cfg.PromptVersion, cfg.AnalysisMode)
	if err != nil {
		return nil, fmt.Errorf("failed to select prompt: %w", err)
	}

	extractor, err := NewExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}

	var lookers []druginfo.Looker
	if cfg.AnalysisMode == prompt.ModeName {
		lookers = NewLookers(cfg)
	}
	logger.Info("analysis configured",
		"mode", tmpl.Mode,
		"prompt_version", tmpl.Version,
		"backend", cfg.ExtractionBackend,
		"lookups", cfg.Lookups,
	)
	return service.NewAnalysisService(extractor, tmpl, lookers, logger), nil
}

// NewExtractor returns the extraction backend named by cfg.ExtractionBackend.
// A missing API key is only logged; the first request will fail instead.
func NewExtractor(cfg *config.Config, logger *slog.Logger) (vision.Extractor, error) {
	switch strings.ToLower(cfg.ExtractionBackend) {
	case "gemini":
		warnMissingKey(logger, cfg.GoogleAPIKey, "GOOGLE_API_KEY")
		logger.Info("using Gemini extraction backend", "model", cfg.GeminiModel)
		return geminivision.NewGeminiExtractor(cfg.GoogleAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL), nil
	case "claude":
		warnMissingKey(logger, cfg.ClaudeAPIKey, "CLAUDE_API_KEY")
		logger.Info("using Claude extraction backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeExtractor(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "openai":
		warnMissingKey(logger, cfg.OpenAIAPIKey, "OPENAI_API_KEY")
		logger.Info("using OpenAI extraction backend", "model", cfg.OpenAIModel)
		return openaivision.NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "ollama":
		if cfg.OllamaHost == "" {
			return nil, fmt.Errorf("OLLAMA_HOST is required when EXTRACTION_BACKEND=ollama")
		}
		logger.Info("using Ollama extraction backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollamavision.NewOllamaExtractor(cfg.OllamaHost, cfg.OllamaModel, cfg.OllamaAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown EXTRACTION_BACKEND %q", cfg.ExtractionBackend)
	}
}

// NewLookers builds the enabled lookup clients in RxNorm, FDA, MedlinePlus
// order, sharing one client bounded by cfg.LookupTimeout.
func NewLookers(cfg *config.Config) []druginfo.Looker {
	client := &http.Client{Timeout: cfg.LookupTimeout}
	var lookers []druginfo.Looker
	if cfg.LookupEnabled(string(druginfo.SourceRxNorm)) {
		lookers = append(lookers, druginfo.NewRxNormClient(cfg.RxNormURL, client))
	}
	if cfg.LookupEnabled(string(druginfo.SourceFDA)) {
		lookers = append(lookers, druginfo.NewFDAClient(cfg.FDAURL, client))
	}
	if cfg.LookupEnabled(string(druginfo.SourceMedlinePlus)) {
		lookers = append(lookers, druginfo.NewMedlinePlusClient(cfg.MedlinePlusURL, client))
	}
	return lookers
}

func warnMissingKey(logger *slog.Logger, key, name string) {
	if key == "" {
		logger.Warn(name + " is not set; extraction requests will fail")
	}
}
