package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/vbonduro/tabletinfo/internal/prompt"
)

type Config struct {
	ListenAddr        string `env:"LISTEN_ADDR" envDefault:":8080"`
	ExtractionBackend string `env:"EXTRACTION_BACKEND" envDefault:"gemini"`
	AnalysisMode      string `env:"ANALYSIS_MODE" envDefault:"summary"`
	PromptVersion     string `env:"PROMPT_VERSION" envDefault:"v1"`

	GoogleAPIKey  string `env:"GOOGLE_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL"`

	ClaudeAPIKey string `env:"CLAUDE_API_KEY"`
	ClaudeModel  string `env:"CLAUDE_MODEL" envDefault:"claude-3-5-sonnet-latest"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	OllamaHost   string `env:"OLLAMA_HOST"`
	OllamaModel  string `env:"OLLAMA_MODEL" envDefault:"llava"`
	OllamaAPIKey string `env:"OLLAMA_API_KEY"`

	// Lookups lists the enabled drug reference sources. When unset in name
	// mode, all three are enabled; "none" disables them explicitly.
	Lookups        []string      `env:"LOOKUPS" envSeparator:","`
	RxNormURL      string        `env:"RXNORM_URL" envDefault:"https://rxnav.nlm.nih.gov/REST/rxcui.json"`
	FDAURL         string        `env:"FDA_URL" envDefault:"https://api.fda.gov/drug/label.json"`
	MedlinePlusURL string        `env:"MEDLINEPLUS_URL" envDefault:"https://wsearch.nlm.nih.gov/ws/query"`
	LookupTimeout  time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}


var knownLookups = map[string]bool{
	"rxnorm":      true,
	"fda":         true,
	"medlineplus": true,
}

// Load reads an optional .env file from the working directory, then the
// process environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.AnalysisMode = strings.ToLower(strings.TrimSpace(cfg.AnalysisMode))
	switch cfg.AnalysisMode {
	case prompt.ModeSummary, prompt.ModeName:
	default:
		return nil, fmt.Errorf("unknown ANALYSIS_MODE %q", cfg.AnalysisMode)
	}

	if len(cfg.Lookups) == 0 && cfg.AnalysisMode == prompt.ModeName {
		cfg.Lookups = []string{"rxnorm", "fda", "medlineplus"}
	}
	lookups, err := normaliseLookups(cfg.Lookups)
	if err != nil {
		return nil, err
	}
	cfg.Lookups = lookups

	return cfg, nil
}

// LookupEnabled reports whether the named lookup source is configured.
func (c *Config) LookupEnabled(name string) bool {
	for _, l := range c.Lookups {
		if l == name {
			return true
		}
	}
	return false
}

func normaliseLookups(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool)
	for _, l := range raw {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		if l == "none" {
			return []string{}, nil
		}
		if !knownLookups[l] {
			return nil, fmt.Errorf("unknown lookup source %q", l)
		}
		seen[l] = true
		out = append(out, l)
	}
	return out, nil
}
