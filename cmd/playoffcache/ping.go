package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/backend"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/output"
)

// pingBackend starts sel and waits until it connects, fails its first
// handshake cycle, or timeout passes.
func pingBackend(ctx context.Context, sel *backend.Selector, timeout time.Duration) (backend.State, time.Duration) {
	start := time.Now()
	sel.Start()
	waitFor(ctx, timeout, func() bool {
		s := sel.State()
		return s == backend.StateConnected || s == backend.StateErrored
	})
	return sel.State(), time.Since(start)
}

func pingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the durable backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Backend.URL == "" {
				return fmt.Errorf("no backend configured: set --backend-url or CACHE_BACKEND_URL")
			}

			ctx := context.Background()
			sel, err := newSelector(ctx, cfg)
			if err != nil {
				return err
			}
			defer sel.Close()

			p := output.NewPrinter(output.ParseFormat(outputFormat))
			state, took := pingBackend(ctx, sel, timeout)
			if state != backend.StateConnected {
				p.Error("%s backend %s after %s", sel.Name(), state, took.Round(time.Millisecond))
				return fmt.Errorf("backend not reachable")
			}
			p.Success("%s backend connected in %s", sel.Name(), took.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "How long to wait for the handshake")

	return cmd
}
