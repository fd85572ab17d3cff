package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		globalConfig  string
		projectConfig string
		check         func(t *testing.T, cfg *Config)
	}{
		{
			name: "No config files - returns defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Len(t, cfg.Providers, 5)
				assert.Len(t, cfg.Chains, 7)
				assert.Equal(t, 3, cfg.Retry.MaxRetries)
				assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
				assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
				assert.False(t, cfg.Breaker.Enabled, "breakers are opt-in")
				assert.Equal(t, []string{"gemini_primary", "openrouter_primary", "perplexity"}, cfg.Chains["profile_analysis"])
			},
		},
		{
			name: "Global only - adds provider and replaces chain",
			globalConfig: `{
				"providers": {"ollama": {"type": "command", "command": "ollama", "args": ["run", "llama3.2"]}},
				"chains": {"profile_analysis": ["ollama", "gemini_primary"]}
			}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Len(t, cfg.Providers, 6)
				assert.Equal(t, []string{"run", "llama3.2"}, cfg.Providers["ollama"].Args)
				assert.Equal(t, []string{"ollama", "gemini_primary"}, cfg.Chains["profile_analysis"])
				assert.Len(t, cfg.Chains["career_exploration"], 3, "other chains untouched")
			},
		},
		{
			name:          "Project overrides global - project wins, fields merge",
			globalConfig:  `{"providers": {"perplexity": {"model": "sonar"}}, "retry": {"base_delay": "1s"}}`,
			projectConfig: `{"providers": {"perplexity": {"model": "sonar-pro"}}, "retry": {"max_delay": "10s"}}`,
			check: func(t *testing.T, cfg *Config) {
				p := cfg.Providers["perplexity"]
				assert.Equal(t, "sonar-pro", p.Model)
				assert.Equal(t, "https://api.perplexity.ai", p.BaseURL, "unset fields keep their defaults")
				assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
				assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
			},
		},
		{
			name:         "Provider names are case-insensitive",
			globalConfig: `{"providers": {"Ollama": {"type": "command", "command": "ollama"}}, "chains": {"report_generation": ["OLLAMA"]}}`,
			check: func(t *testing.T, cfg *Config) {
				chains, err := cfg.EngineChains()
				require.NoError(t, err)
				assert.Equal(t, "ollama", chains["report_generation"][0].Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.globalConfig != "" {
				globalPath = writeFile(t, tmpDir, "global.json", tt.globalConfig)
			}
			projectPath := ""
			if tt.projectConfig != "" {
				projectPath = writeFile(t, tmpDir, "project.json", tt.projectConfig)
			}

			cfg, err := Load(globalPath, projectPath)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CAREERCREW_SERVER_ADDR", ":9000")
	t.Setenv("CAREERCREW_RETRY_MAX_RETRIES", "5")
	t.Setenv("CAREERCREW_PROVIDERS_GEMINI_PRIMARY_MODEL", "gemini-2.5-pro")

	project := writeFile(t, t.TempDir(), "project.json", `{"server": {"addr": ":7000"}}`)
	cfg, err := Load("", project)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "environment beats files")
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, "gemini-2.5-pro", cfg.Providers["gemini_primary"].Model)
}

func TestLoad_BreakerOptIn(t *testing.T) {
	project := writeFile(t, t.TempDir(), "project.json", `{"breaker": {"enabled": true}}`)
	cfg, err := Load("", project)
	require.NoError(t, err)

	bc := cfg.EngineBreaker()
	assert.True(t, bc.Enabled)
	assert.Equal(t, uint32(5), bc.ConsecutiveFailures, "thresholds keep their defaults")
	assert.Equal(t, 30*time.Second, bc.OpenTimeout)
}

func TestLoad_MalformedJSON(t *testing.T) {
	globalPath := writeFile(t, t.TempDir(), "global.json", "{invalid json")

	_, err := Load(globalPath, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global.json")
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	require.NoError(t, err)
	assert.Len(t, cfg.Providers, 5)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"unknown provider in chain", `{"chains": {"market_analysis": ["nope"]}}`, `unknown provider "nope"`},
		{"empty chain", `{"chains": {"market_analysis": []}}`, "Chains[market_analysis]"},
		{"max delay below base", `{"retry": {"base_delay": "10s", "max_delay": "1s"}}`, "MaxDelay"},
		{"zero retries", `{"retry": {"max_retries": 0}}`, "MaxRetries"},
		{"bad provider type", `{"providers": {"x": {"type": "carrier-pigeon", "model": "m"}}}`, "Type"},
		{"chat without base url", `{"providers": {"x": {"type": "openai", "model": "m"}}}`, "BaseURL"},
		{"malformed base url", `{"providers": {"x": {"type": "openai", "model": "m", "base_url": "not a url"}}}`, "invalid base_url"},
		{"command without binary", `{"providers": {"x": {"type": "command"}}}`, "Command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "project.json", tt.config)
			_, err := Load("", path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MissingKindChain(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Chains, "roadmap_strategy")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chain configured for roadmap_strategy")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "CAREERCREW_TEST_FRESH=from-file\nCAREERCREW_TEST_EXISTING=from-file\n")

	os.Unsetenv("CAREERCREW_TEST_FRESH")
	t.Cleanup(func() { os.Unsetenv("CAREERCREW_TEST_FRESH") })
	t.Setenv("CAREERCREW_TEST_EXISTING", "from-env")

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("CAREERCREW_TEST_FRESH"))
	assert.Equal(t, "from-env", os.Getenv("CAREERCREW_TEST_EXISTING"))
}
