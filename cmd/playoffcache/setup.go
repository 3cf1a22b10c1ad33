package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/backend"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/config"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/logging"
)

// loadConfig layers defaults, the config file, the environment and flags,
// then configures logging.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}
	if logLevel != "" {
		cfg.Daemon.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Daemon.LogFormat = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logging.InitStructured(cfg.Daemon.LogFormat, cfg.Daemon.LogLevel)
	return cfg, nil
}

// newSelector opens the configured backend without dialing it. It returns
// nil when no backend is configured.
func newSelector(ctx context.Context, cfg *config.Config) (*backend.Selector, error) {
	if cfg.Backend.URL == "" {
		return nil, nil
	}
	b, err := backend.Open(ctx, cfg.Backend.URL, cfg.Backend.KeyPrefix)
	if err != nil {
		return nil, err
	}
	return backend.NewSelector(b, cfg.ForSelector()), nil
}

func buildCache(cfg *config.Config, sel *backend.Selector, opts ...cache.Option) (*cache.Cache, error) {
	codec, err := cache.CodecByName(cfg.Cache.Codec)
	if err != nil {
		return nil, err
	}
	opts = append(opts, cache.WithCodec(codec))
	if sel != nil {
		opts = append(opts, cache.WithBackend(sel))
	}
	return cache.New(cfg.ForCache(), opts...), nil
}

// waitFor polls cond every 10ms until it holds or timeout passes.
func waitFor(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if cond() {
			return true
		}
		select {
		case <-ctx.Done():
			return cond()
		case <-ticker.C:
		}
	}
}
