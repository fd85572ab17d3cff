package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aristath/careercrew/internal/scheduler"
)

var validate = validator.New()

// Validate checks field constraints and cross-references: every chain entry
// must name a configured provider and every task kind needs a chain.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	var problems []string
	for name, p := range c.Providers {
		if p.BaseURL == "" {
			continue
		}
		if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("provider %s: invalid base_url %q", name, p.BaseURL))
		}
	}
	for kind, names := range c.Chains {
		for _, name := range names {
			if _, ok := c.provider(name); !ok {
				problems = append(problems, fmt.Sprintf("chain %s references unknown provider %q", kind, name))
			}
		}
	}
	for _, kind := range scheduler.Kinds(scheduler.CareerTasks()) {
		if len(c.Chains[string(kind)]) == 0 {
			problems = append(problems, fmt.Sprintf("no chain configured for %s", kind))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// provider looks a provider up by case-insensitive name.
func (c *Config) provider(name string) (ProviderConfig, bool) {
	if p, ok := c.Providers[name]; ok {
		return p, true
	}
	for k, p := range c.Providers {
		if strings.EqualFold(k, name) {
			return p, true
		}
	}
	return ProviderConfig{}, false
}
