package config

import (
	"time"

	"github.com/aristath/careercrew/internal/logging"
)

// Credential variables read by the default roster.
const (
	GeminiKeyEnv        = "GEMINI_API_KEY"
	PerplexityKeyEnv    = "PERPLEXITY_API_KEY"
	OpenRouterKeyEnv    = "OPENROUTER_API_KEY"
	OpenRouterAltKeyEnv = "OPENROUTER_API_KEY_1"
)

func temp(v float64) *float64 { return &v }

// DefaultConfig returns the built-in configuration: five providers and a
// three-deep chain for every task kind.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxInputLen:     10000,
		},
		Logging: logging.Config{Level: "info", Format: "text"},
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:             false,
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
			HalfOpenRequests:    3,
		},
		Providers: map[string]ProviderConfig{
			"gemini_primary": {
				Type:          "gemini",
				Model:         "gemini-2.0-flash",
				Temperature:   temp(0.7),
				CredentialEnv: GeminiKeyEnv,
			},
			"gemini_secondary": {
				Type:          "gemini",
				Model:         "gemini-2.0-flash",
				Temperature:   temp(0.5),
				CredentialEnv: GeminiKeyEnv,
			},
			"perplexity": {
				Type:          "openai",
				Model:         "sonar-reasoning-pro",
				BaseURL:       "https://api.perplexity.ai",
				CredentialEnv: PerplexityKeyEnv,
			},
			"openrouter_primary": {
				Type:          "openai",
				Model:         "deepseek/deepseek-r1",
				BaseURL:       "https://openrouter.ai/api/v1",
				Temperature:   temp(0.7),
				CredentialEnv: OpenRouterKeyEnv,
			},
			"openrouter_secondary": {
				Type:          "openai",
				Model:         "deepseek/deepseek-r1",
				BaseURL:       "https://openrouter.ai/api/v1",
				Temperature:   temp(0.5),
				CredentialEnv: OpenRouterAltKeyEnv,
			},
		},
		Chains: map[string][]string{
			"profile_analysis":   {"gemini_primary", "openrouter_primary", "perplexity"},
			"career_exploration": {"perplexity", "openrouter_primary", "gemini_primary"},
			"skill_development":  {"openrouter_primary", "gemini_secondary", "perplexity"},
			"market_analysis":    {"perplexity", "openrouter_secondary", "gemini_primary"},
			"roadmap_strategy":   {"gemini_secondary", "openrouter_primary", "perplexity"},
			"learning_resources": {"openrouter_secondary", "perplexity", "gemini_primary"},
			"report_generation":  {"gemini_primary", "openrouter_primary", "gemini_secondary"},
		},
	}
}
