package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seanpm2001/atom/internal/logging"
	"github.com/seanpm2001/atom/internal/metrics"
	"github.com/seanpm2001/atom/internal/schema"
	"github.com/seanpm2001/atom/internal/schema/watcher"
)

const shutdownTimeout = 5 * time.Second

func newWatchCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Reload class definitions as they change",
		Long: `Loads class definitions and reloads them whenever a file changes.
A broken edit is reported and the previous classes stay registered.

When metrics are enabled (metrics.enabled or --metrics-addr), reload
and runtime metrics are served at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := c.schemaPaths(args)
			if err != nil {
				return err
			}
			if addr == "" && c.cfg.Metrics.Enabled {
				addr = c.cfg.Metrics.Addr
			}

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			col := metrics.New(promReg, c.cfg.Metrics.Namespace)

			logger := logging.Component(c.logger, "watch")
			reg := c.newRegistry(col)
			w, err := watcher.New(reg, paths,
				watcher.WithDebounce(c.cfg.Schema.Debounce.Std()),
				watcher.WithLogger(logging.Component(c.logger, "watcher")),
				watcher.WithOnReload(func(res *schema.LoadResult, err error) {
					col.RecordReload(res, err)
				}),
			)
			if err != nil {
				return err
			}
			defer w.Close()

			res, err := w.Start()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %d classes in %d files\n", reg.Len(), len(res.Files))

			if addr == "" {
				<-cmd.Context().Done()
				return nil
			}
			return serveMetrics(cmd.Context(), addr, promReg, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "metrics-addr", "", "serve /metrics on this address")
	return cmd
}

// serveMetrics serves the registry until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("Serving metrics", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
