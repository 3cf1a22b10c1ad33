package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/output"
)

// benchResult summarizes one bench run.
type benchResult struct {
	Ops     int
	Elapsed time.Duration
	Stats   cache.Stats
	Keys    []string
}

// runBench performs n set/get pairs in namespace and, with listKeys, lists
// the resulting keys.
func runBench(c *cache.Cache, namespace string, n int, listKeys bool) benchResult {
	start := time.Now()
	for i := 0; i < n; i++ {
		c.Set(namespace, map[string]int{"iteration": i}, cache.DefaultTTL, i)
		c.Get(namespace, i)
	}
	res := benchResult{
		Ops:     2 * n,
		Elapsed: time.Since(start),
		Stats:   c.Stats(),
	}
	if listKeys {
		res.Keys = c.Keys(cache.NamespacePrefix(namespace) + "*")
	}
	return res
}

func benchCmd() *cobra.Command {
	var (
		n         int
		namespace string
		listKeys  bool
		wait      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run set/get pairs against the cache and print its stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Cache.SweepInterval = -1

			ctx := context.Background()
			sel, err := newSelector(ctx, cfg)
			if err != nil {
				return err
			}
			c, err := buildCache(cfg, sel)
			if err != nil {
				return err
			}
			defer c.Destroy()

			p := output.NewPrinter(output.ParseFormat(outputFormat))
			if sel != nil && !waitFor(ctx, wait, sel.Connected) {
				p.SetWriter(os.Stderr)
				p.Warning("backend %s not connected after %s, running in memory", sel.Name(), wait)
				p.SetWriter(os.Stdout)
			}

			res := runBench(c, namespace, n, listKeys)

			if sel != nil && sel.Connected() {
				waitFor(ctx, wait, func() bool { return sel.Pending() == 0 })
				res.Stats = c.Stats()
			}

			if err := p.PrintStats(res.Stats); err != nil {
				return err
			}
			if listKeys {
				if err := p.PrintKeys(res.Keys); err != nil {
					return err
				}
			}
			if output.ParseFormat(outputFormat) == output.FormatTable {
				p.Success("%d ops in %s", res.Ops, res.Elapsed.Round(time.Microsecond))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 500, "Number of set/get pairs")
	cmd.Flags().StringVar(&namespace, "namespace", "bench", "Namespace to write into")
	cmd.Flags().BoolVar(&listKeys, "keys", false, "List the written keys after the run")
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "How long to wait for the backend")

	return cmd
}
