package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/gopikant21/jumbotail/pkg/config"
)

// Config holds all configuration for the catalog search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Result cache
	CacheTTL      time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"5m"`
	CacheCapacity int           `env:"SEARCH_CACHE_CAPACITY" envDefault:"1000"`

	// Seed data loaded at startup when no upstream feed is configured
	SeedEnabled bool `env:"SEED_ENABLED" envDefault:"true"`
	SeedCount   int  `env:"SEED_COUNT" envDefault:"500"`

	// Product service URL for reindex fetching (empty disables reindex)
	ProductFeedURL string `env:"PRODUCT_FEED_URL" envDefault:""`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampler  float64 `env:"TRACING_SAMPLER" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache capacity must be positive: %d", c.CacheCapacity)
	}
	if c.SeedEnabled && c.SeedCount < 1 {
		return fmt.Errorf("seed count must be positive: %d", c.SeedCount)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka enabled but no brokers configured")
	}
	if c.TracingSampler < 0 || c.TracingSampler > 1 {
		return fmt.Errorf("tracing sampler must be in [0,1]: %f", c.TracingSampler)
	}
	return nil
}
