package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/careercrew/internal/orchestrator"
)

func TestSaveCreatesParentDirAndValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "config.json")

	require.NoError(t, Save(DefaultConfig(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Config
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "sonar-reasoning-pro", loaded.Providers["perplexity"].Model)
}

// TestSaveThenLoad verifies a saved file loads back to the same settings.
func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Retry.AttemptTimeout = 45 * time.Second
	cfg.Engine.FatalPatterns = []string{"quota exceeded"}
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, cfg.Retry, loaded.Retry)
	assert.Equal(t, cfg.Breaker, loaded.Breaker)
	assert.Equal(t, cfg.Chains, loaded.Chains)
	assert.Equal(t, []string{"quota exceeded"}, loaded.Engine.FatalPatterns)
	require.NotNil(t, loaded.Providers["gemini_secondary"].Temperature)
	assert.InDelta(t, 0.5, *loaded.Providers["gemini_secondary"].Temperature, 1e-9)
}

func TestEngineChains(t *testing.T) {
	chains, err := DefaultConfig().EngineChains()
	require.NoError(t, err)
	require.Len(t, chains, 7)

	market := chains["market_analysis"]
	require.Len(t, market, 3)
	assert.Equal(t, "perplexity", market[0].Name)
	assert.Equal(t, "openai", market[0].Type)
	assert.Equal(t, "https://api.perplexity.ai", market[0].BaseURL)
	assert.Equal(t, OpenRouterAltKeyEnv, market[1].CredentialEnv)
	assert.Equal(t, "gemini_primary", market[2].Name)
	require.NotNil(t, market[2].Temperature)
	assert.InDelta(t, 0.7, *market[2].Temperature, 1e-9)
}

func TestEngineConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.FatalPatterns = []string{"Quota Exceeded"}

	assert.Equal(t, orchestrator.DefaultRetryConfig(), cfg.EngineRetry())
	assert.Equal(t, orchestrator.DefaultBreakerConfig(), cfg.EngineBreaker())

	c := cfg.Classifier()
	assert.Equal(t, orchestrator.ClassFatal, c.Classify(assertErr("quota exceeded for today")))
	assert.Equal(t, orchestrator.ClassRetryable, c.Classify(assertErr("503 Service Unavailable")))

	handles := cfg.Handles()
	require.Len(t, handles, 5)
	assert.Equal(t, "gemini_primary", handles[0].Name, "handles are sorted")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// TestYAML_RedactsCredentials verifies credential values never appear.
func TestYAML_RedactsCredentials(t *testing.T) {
	secret := "sk-very-secret"
	lookup := func(key string) string {
		if key == GeminiKeyEnv {
			return secret
		}
		return ""
	}

	data, err := DefaultConfig().YAML(lookup)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, secret)
	assert.Contains(t, out, "credential_env: GEMINI_API_KEY")
	assert.Contains(t, out, "credential: set")
	assert.Contains(t, out, "credential: missing")
	assert.Contains(t, out, "base_delay: 2s")

	profile := strings.Index(out, "profile_analysis:")
	report := strings.Index(out, "report_generation:")
	require.True(t, profile > 0 && report > 0)
	assert.Less(t, profile, report, "chains follow the task sequence")
	assert.Contains(t, out, "profile_analysis: [gemini_primary, openrouter_primary, perplexity]")
}
