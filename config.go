package companionsdk

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ──────────────────────────────────────────────
// Configuration — env-driven, safe defaults
// ──────────────────────────────────────────────

// Config holds SDK-wide settings. Every field has a working default so a
// zero-config setup runs with the background evaluator disabled.
type Config struct {
	// Evaluator provider: "openai", "anthropic", or "" to disable
	// background re-scoring entirely.
	EvaluatorProvider string        `env:"COMPANION_EVALUATOR_PROVIDER"`
	EvaluatorModel    string        `env:"COMPANION_EVALUATOR_MODEL"`
	EvaluatorAPIKey   string        `env:"COMPANION_EVALUATOR_API_KEY"`
	EvaluatorBaseURL  string        `env:"COMPANION_EVALUATOR_BASE_URL"`
	EvaluatorTimeout  time.Duration `env:"COMPANION_EVALUATOR_TIMEOUT" envDefault:"15s"`
	EvaluatorWorkers  int           `env:"COMPANION_EVALUATOR_WORKERS" envDefault:"2"`
	EvaluatorQueue    int           `env:"COMPANION_EVALUATOR_QUEUE" envDefault:"64"`

	ExchangeCapacity int `env:"COMPANION_EXCHANGE_CAPACITY" envDefault:"1000"`
	RetrainThreshold int `env:"COMPANION_RETRAIN_THRESHOLD" envDefault:"500"`
}

// DefaultConfig returns the built-in defaults without reading the
// environment.
func DefaultConfig() Config {
	return Config{
		EvaluatorTimeout: 15 * time.Second,
		EvaluatorWorkers: 2,
		EvaluatorQueue:   64,
		ExchangeCapacity: 1000,
		RetrainThreshold: 500,
	}
}

// LoadConfig reads configuration from COMPANION_* environment variables on
// top of the defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config parse: %w", err)
	}
	return cfg, nil
}

// NewEvaluatorClient builds the evaluator client named by the config.
// Returns nil when no provider is configured.
func (c Config) NewEvaluatorClient() (EvaluatorClient, error) {
	switch c.EvaluatorProvider {
	case "":
		return nil, nil
	case "openai":
		if c.EvaluatorBaseURL != "" {
			return NewOpenAIEvaluatorWithConfig(c.EvaluatorAPIKey, c.EvaluatorBaseURL, c.EvaluatorModel), nil
		}
		return NewOpenAIEvaluator(c.EvaluatorAPIKey, c.EvaluatorModel), nil
	case "anthropic":
		return NewAnthropicEvaluator(c.EvaluatorAPIKey, c.EvaluatorModel), nil
	default:
		return nil, fmt.Errorf("unknown evaluator provider %q", c.EvaluatorProvider)
	}
}
