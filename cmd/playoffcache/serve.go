package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/api"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/logging"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/metrics"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/observability"
)

func serveCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cache with metrics, stats and admin endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.Daemon.MetricsAddr = httpAddr
			}

			ctx := context.Background()
			if err := observability.Init(ctx, cfg.ForTracing()); err != nil {
				return err
			}
			defer observability.Shutdown(context.Background())

			prom := metrics.New(metrics.DefaultNamespace, nil)

			sel, err := newSelector(ctx, cfg)
			if err != nil {
				return err
			}
			if sel != nil {
				sel.SetStateHook(prom.ObserveBackendTransition)
			}

			c, err := buildCache(cfg, sel, cache.WithComputeObserver(prom.ObserveCompute))
			if err != nil {
				return err
			}
			defer c.Destroy()

			if err := prom.RegisterCache(c); err != nil {
				return err
			}

			httpServer := api.StartHTTPServer(cfg.Daemon.MetricsAddr, api.ServerConfig{
				Cache:   c,
				Metrics: prom,
			})
			logging.Op().Info("playoffcache serving",
				"addr", cfg.Daemon.MetricsAddr,
				"backend", c.Selector().Name(),
				"tracing", observability.Enabled())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			sig := <-sigCh
			logging.Op().Info("shutting down", "signal", sig.String())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
			return nil
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP address (overrides daemon.metrics_addr)")

	return cmd
}
