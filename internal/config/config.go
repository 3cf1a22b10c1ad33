package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/backend"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/observability"
)

// CacheConfig holds TTL policy and sweeper settings
type CacheConfig struct {
	DefaultTTLSeconds int            `yaml:"default_ttl_seconds" json:"default_ttl_seconds"`
	Namespaces        map[string]int `yaml:"namespaces" json:"namespaces"` // seconds
	SweepInterval     time.Duration  `yaml:"sweep_interval" json:"sweep_interval"`
	Codec             string         `yaml:"codec" json:"codec"`
}

// BackendConfig holds durable mirror settings. An empty URL means
// in-process only.
type BackendConfig struct {
	URL            string        `yaml:"url" json:"url"`
	KeyPrefix      string        `yaml:"key_prefix" json:"key_prefix"`
	QueueSize      int           `yaml:"queue_size" json:"queue_size"`
	OpTimeout      time.Duration `yaml:"op_timeout" json:"op_timeout"`
	HealthInterval time.Duration `yaml:"health_interval" json:"health_interval"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	MaxRetries     uint          `yaml:"max_retries" json:"max_retries"`
}

// DaemonConfig holds daemon-specific settings
type DaemonConfig struct {
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	LogFormat   string `yaml:"log_format" json:"log_format"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Exporter    string  `yaml:"exporter" json:"exporter"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
}

// ObservabilityConfig groups telemetry settings
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// Config is the central configuration struct embedding all component configs
type Config struct {
	Cache         CacheConfig         `yaml:"cache" json:"cache"`
	Backend       BackendConfig       `yaml:"backend" json:"backend"`
	Daemon        DaemonConfig        `yaml:"daemon" json:"daemon"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// DefaultConfig returns a Config with the dashboard's namespace policy
func DefaultConfig() *Config {
	sel := backend.DefaultSelectorConfig()
	return &Config{
		Cache: CacheConfig{
			DefaultTTLSeconds: 300,
			Namespaces: map[string]int{
				"predictions":  1800,
				"simulations":  3600,
				"team-stats":   900,
				"player-stats": 900,
				"schedule":     21600,
				"standings":    3600,
				"live-games":   30,
			},
			SweepInterval: cache.DefaultSweepInterval,
			Codec:         "json",
		},
		Backend: BackendConfig{
			KeyPrefix:      backend.DefaultKeyPrefix,
			QueueSize:      sel.QueueSize,
			OpTimeout:      sel.OpTimeout,
			HealthInterval: sel.HealthInterval,
			MaxBackoff:     sel.MaxBackoff,
			MaxRetries:     sel.MaxRetries,
		},
		Daemon: DaemonConfig{
			MetricsAddr: ":9464",
			LogLevel:    "info",
			LogFormat:   "text",
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Exporter:    "otlp-http",
				Endpoint:    "localhost:4318",
				ServiceName: "playoffcache",
				SampleRate:  1.0,
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML (or JSON) file on top of
// the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the config
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("CACHE_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("CACHE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_SWEEP_INTERVAL: %w", err)
		}
		cfg.Cache.SweepInterval = d
	}
	if v := os.Getenv("CACHE_DEFAULT_TTL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_DEFAULT_TTL_SECONDS: %w", err)
		}
		cfg.Cache.DefaultTTLSeconds = n
	}
	if v := os.Getenv("CACHE_LOG_LEVEL"); v != "" {
		cfg.Daemon.LogLevel = v
	}
	if v := os.Getenv("CACHE_LOG_FORMAT"); v != "" {
		cfg.Daemon.LogFormat = v
	}
	if v := os.Getenv("CACHE_METRICS_ADDR"); v != "" {
		cfg.Daemon.MetricsAddr = v
	}
	if v := os.Getenv("CACHE_OTLP_ENDPOINT"); v != "" {
		cfg.Observability.Tracing.Enabled = true
		cfg.Observability.Tracing.Endpoint = v
	}
	return nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.DefaultTTLSeconds < 0 {
		errs = append(errs, errors.New("cache.default_ttl_seconds must not be negative"))
	}
	for ns, secs := range c.Cache.Namespaces {
		if secs <= 0 {
			errs = append(errs, fmt.Errorf("cache.namespaces.%s must be positive", ns))
		}
	}
	if _, err := cache.CodecByName(c.Cache.Codec); err != nil {
		errs = append(errs, err)
	}
	if c.Backend.URL != "" {
		if _, err := backend.Detect(c.Backend.URL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Observability.Tracing.SampleRate < 0 || c.Observability.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("observability.tracing.sample_rate must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

// ForCache converts the policy settings for cache.New
func (c *Config) ForCache() cache.Config {
	ttls := make(map[string]time.Duration, len(c.Cache.Namespaces))
	for ns, secs := range c.Cache.Namespaces {
		ttls[ns] = time.Duration(secs) * time.Second
	}
	return cache.Config{
		DefaultTTL:    time.Duration(c.Cache.DefaultTTLSeconds) * time.Second,
		NamespaceTTLs: ttls,
		SweepInterval: c.Cache.SweepInterval,
	}
}

// ForSelector converts the backend settings for backend.NewSelector
func (c *Config) ForSelector() backend.SelectorConfig {
	sel := backend.DefaultSelectorConfig()
	if c.Backend.QueueSize > 0 {
		sel.QueueSize = c.Backend.QueueSize
	}
	if c.Backend.OpTimeout > 0 {
		sel.OpTimeout = c.Backend.OpTimeout
	}
	if c.Backend.HealthInterval > 0 {
		sel.HealthInterval = c.Backend.HealthInterval
	}
	if c.Backend.MaxBackoff > 0 {
		sel.MaxBackoff = c.Backend.MaxBackoff
	}
	if c.Backend.MaxRetries > 0 {
		sel.MaxRetries = c.Backend.MaxRetries
	}
	return sel
}

// ForTracing converts the tracing settings for observability.Init
func (c *Config) ForTracing() observability.Config {
	t := c.Observability.Tracing
	return observability.Config{
		Enabled:     t.Enabled,
		Exporter:    t.Exporter,
		Endpoint:    t.Endpoint,
		ServiceName: t.ServiceName,
		SampleRate:  t.SampleRate,
	}
}
