package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aristath/careercrew/internal/logging"
)

// Save persists the configuration to a JSON file.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Credential states reported by YAML.
const (
	CredentialSet     = "set"
	CredentialMissing = "missing"
)

type effectiveProvider struct {
	ProviderConfig `yaml:",inline"`
	Credential     string `yaml:"credential,omitempty"`
}

type effectiveConfig struct {
	Server    ServerConfig                 `yaml:"server"`
	Logging   logging.Config               `yaml:"logging"`
	Retry     RetryConfig                  `yaml:"retry"`
	Breaker   BreakerConfig                `yaml:"breaker"`
	Engine    EngineConfig                 `yaml:"engine"`
	Providers map[string]effectiveProvider `yaml:"providers"`
	Chains    yaml.Node                    `yaml:"chains"`
}

// YAML renders the effective configuration. Credential values never appear;
// each provider reports only whether its variable is set, as seen through
// lookup.
func (c *Config) YAML(lookup func(string) string) ([]byte, error) {
	if lookup == nil {
		lookup = os.Getenv
	}

	out := effectiveConfig{
		Server:    c.Server,
		Logging:   c.Logging,
		Retry:     c.Retry,
		Breaker:   c.Breaker,
		Engine:    c.Engine,
		Providers: make(map[string]effectiveProvider, len(c.Providers)),
	}
	for name, p := range c.Providers {
		ep := effectiveProvider{ProviderConfig: p}
		if p.CredentialEnv != "" {
			ep.Credential = CredentialMissing
			if lookup(p.CredentialEnv) != "" {
				ep.Credential = CredentialSet
			}
		}
		out.Providers[name] = ep
	}

	// Chains keep the task sequence order instead of map order.
	out.Chains = yaml.Node{Kind: yaml.MappingNode}
	for _, kind := range c.chainOrder() {
		var value yaml.Node
		if err := value.Encode(c.Chains[kind]); err != nil {
			return nil, fmt.Errorf("encoding chain %s: %w", kind, err)
		}
		value.Style = yaml.FlowStyle
		out.Chains.Content = append(out.Chains.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kind}, &value)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
