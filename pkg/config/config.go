package config

import (
	"net/url"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the immutable interception configuration supplied at
// construction time.
type Config struct {
	// FirstPartyHosts lists the hosts the application owns; requests to
	// them (or their subdomains) are eligible for trace injection.
	FirstPartyHosts []string `yaml:"first_party_hosts"`

	// InternalEndpoints lists the SDK's own intake URLs; requests to
	// their origins are never tracked or modified.
	InternalEndpoints []string `yaml:"internal_endpoints"`

	TracingEnabled          bool `yaml:"tracing_enabled"`
	ResourceTrackingEnabled bool `yaml:"resource_tracking_enabled"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}
	return cfg, nil
}

// Validate rejects internal endpoints the classifier would silently
// drop.
func (c *Config) Validate() error {
	for _, raw := range c.InternalEndpoints {
		u, err := url.Parse(raw)
		if err != nil {
			return errors.Wrapf(err, "internal endpoint %q is not a valid URL", raw)
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.Errorf("internal endpoint %q must have a scheme and a host", raw)
		}
	}
	return nil
}
