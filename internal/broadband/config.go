package broadband

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ResolverConfig is the source-priority configuration for the resolver.
type ResolverConfig struct {
	// SourceOrder lists source names in priority order. The first source
	// returning a non-empty record set wins.
	SourceOrder []string `yaml:"source_order"`

	// CacheTTL is the lifetime of a cached result. Default: 24h.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// SourceTimeout bounds each individual source call. Default: 20s.
	SourceTimeout time.Duration `yaml:"source_timeout"`
}

// UnmarshalYAML decodes duration fields from strings like "24h".
func (c *ResolverConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		SourceOrder   []string `yaml:"source_order"`
		CacheTTL      string   `yaml:"cache_ttl"`
		SourceTimeout string   `yaml:"source_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.SourceOrder = raw.SourceOrder
	if raw.CacheTTL != "" {
		d, err := time.ParseDuration(raw.CacheTTL)
		if err != nil {
			return eris.Wrap(err, "broadband: parse cache_ttl")
		}
		c.CacheTTL = d
	}
	if raw.SourceTimeout != "" {
		d, err := time.ParseDuration(raw.SourceTimeout)
		if err != nil {
			return eris.Wrap(err, "broadband: parse source_timeout")
		}
		c.SourceTimeout = d
	}
	return nil
}

// DefaultResolverConfig returns the canonical fallback ladder: the local
// mirror first (fast, no external dependency), then the live APIs.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		SourceOrder:   []string{"mirror", "opendata", "bdcmap"},
		CacheTTL:      24 * time.Hour,
		SourceTimeout: 20 * time.Second,
	}
}

// LoadResolverConfig reads a resolver config from a YAML file, filling
// unset values from the defaults.
func LoadResolverConfig(path string) (*ResolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "broadband: read config %s", path)
	}

	// The YAML has a top-level "resolver" key.
	var wrapper struct {
		Resolver ResolverConfig `yaml:"resolver"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "broadband: parse config")
	}

	cfg := wrapper.Resolver
	defaults := DefaultResolverConfig()
	if len(cfg.SourceOrder) == 0 {
		cfg.SourceOrder = defaults.SourceOrder
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = defaults.SourceTimeout
	}
	return &cfg, nil
}
