package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nemanja-m/gopool/internal/health"
	"github.com/nemanja-m/gopool/internal/httpserver"
	"github.com/nemanja-m/gopool/internal/metrics"
	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/pool"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "httpserver",
	Short: "Serve static pages with a fixed-size worker pool",
	Long: `httpserver accepts TCP connections and hands each one to a fixed-size
worker pool, which answers GET requests from a static page table.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	config.BindFlags(rootCmd.Flags())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	poolMetrics := metrics.NewPoolMetrics(reg)

	workers, err := pool.New(cfg.Pool.Workers,
		pool.WithQueueSize(cfg.Pool.QueueSize),
		pool.WithLogger(logger),
		pool.WithHooks(poolMetrics.Hooks()),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	metrics.RegisterQueueGauges(reg, workers)

	routes, err := httpserver.NewRouteTable(cfg.Static.Routes)
	if err != nil {
		workers.Close()
		return fmt.Errorf("failed to build route table: %w", err)
	}
	handler := httpserver.NewHandler(routes, os.DirFS(cfg.Static.Root), cfg.Static.NotFound)
	server := httpserver.NewServer(cfg.HTTP, workers, handler, logger)

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		workers.Close()
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Addr, err)
	}

	logger.Info("Server started",
		"addr", ln.Addr().String(),
		"workers", workers.Size(),
		"queue_size", cfg.Pool.QueueSize,
		"routes", routes.Len(),
	)

	g, gctx := errgroup.WithContext(ctx)

	var healthServer *health.Server
	if cfg.Health.Addr != "" {
		healthServer = health.NewServer(cfg.Health, logger)
		g.Go(healthServer.Start)
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, reg, logger)
		g.Go(metricsServer.ListenAndServe)
	}

	g.Go(func() error {
		return server.Serve(gctx, ln)
	})
	if healthServer != nil {
		healthServer.SetServing(true)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		if healthServer != nil {
			healthServer.SetServing(false)
		}
		server.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pool.ShutdownTimeout)
		defer cancel()

		if err := workers.Shutdown(shutdownCtx); err != nil {
			if !errors.Is(err, pool.ErrShutdownTimeout) {
				return err
			}
			logger.Warn("Pool did not drain before the deadline",
				"timeout", cfg.Pool.ShutdownTimeout.String(),
				"running", workers.Stats().Running,
			)
		}

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to stop metrics server", "error", err)
			}
		}
		if healthServer != nil {
			healthServer.Stop()
		}

		stats := workers.Stats()
		logger.Info("Server stopped",
			"completed", stats.Completed,
			"panicked", stats.Panicked,
			"rejected", stats.Rejected,
		)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		return err
	}
	return nil
}
