// Package config loads the application configuration from a YAML file
// and HOMEHUB_-prefixed environment variables, and owns the global
// logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Census    CensusConfig    `yaml:"census" mapstructure:"census"`
	Broadband BroadbandConfig `yaml:"broadband" mapstructure:"broadband"`
	FCC       FCCConfig       `yaml:"fcc" mapstructure:"fcc"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	Seed        bool   `yaml:"seed" mapstructure:"seed"`
}

// GeocodeConfig configures the address geocoder.
type GeocodeConfig struct {
	RateLimit   int `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CensusConfig configures the census block resolver.
type CensusConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BroadbandConfig configures the resolution pipeline.
type BroadbandConfig struct {
	SourceOrder        []string `yaml:"source_order" mapstructure:"source_order"`
	CacheTTLHours      int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	SourceTimeoutSecs  int      `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
	ResolverConfigPath string   `yaml:"resolver_config_path" mapstructure:"resolver_config_path"`
}

// CacheTTL returns the cache lifetime as a duration.
func (c BroadbandConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// SourceTimeout returns the per-source timeout as a duration.
func (c BroadbandConfig) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSecs) * time.Second
}

// FCCConfig configures the bulk availability data importer.
type FCCConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOMEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "homehub.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.seed", true)
	v.SetDefault("geocode.rate_limit", 50)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("census.timeout_secs", 10)
	v.SetDefault("broadband.source_order", []string{"mirror", "opendata", "bdcmap"})
	v.SetDefault("broadband.cache_ttl_hours", 24)
	v.SetDefault("broadband.source_timeout_secs", 20)
	v.SetDefault("fcc.batch_size", 5000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
