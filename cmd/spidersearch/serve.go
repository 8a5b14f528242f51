package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/spidersearch/internal/cache"
	"github.com/nao1215/spidersearch/internal/config"
	"github.com/nao1215/spidersearch/internal/index"
	"github.com/nao1215/spidersearch/internal/metrics"
	"github.com/nao1215/spidersearch/internal/search"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// indexCheckInterval is how often serve pings the index in the background.
const indexCheckInterval = 30 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve ranked search queries over HTTP",
		Long: `Serve starts the query frontend.

GET / renders the search form and POST / with the form key "search" returns
up to ten pages ranked by the summed frequency of the query words.
GET /healthz reports index reachability and GET /metrics exposes Prometheus
metrics. When server.redis_addr is set, ranked results are cached in Redis
for server.cache_ttl.

Examples:
  # Serve on the configured port
  spidersearch serve

  # Serve on port 9000
  spidersearch serve -p 9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().IntP("port", "p", config.DefaultServerPort, "Port to listen on (overrides server.port)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		if cfg.Server.Port, err = cmd.Flags().GetInt("port"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, slog.LevelWarn)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// runServe serves queries until ctx is done.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := index.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close index", "error", err)
		}
	}()

	m := metrics.New()

	resultCache, closeCache := openCache(ctx, cfg.Server, logger)
	defer closeCache()

	svc := search.NewService(store,
		search.WithCache(resultCache),
		search.WithCacheRecorder(m),
		search.WithServiceLogger(logger),
	)
	srv := search.NewServer(svc,
		search.WithHealthCheck(store),
		search.WithRequestRecorder(m),
		search.WithMetricsHandler(m.Handler()),
		search.WithLogger(logger),
		search.WithReadTimeout(cfg.Server.ReadTimeout),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr())
	})
	g.Go(func() error {
		monitorIndex(ctx, store, logger)
		return nil
	})
	return g.Wait()
}

// openCache connects to Redis when configured. The result cache is optional:
// an unreachable server disables it instead of failing the command.
func openCache(ctx context.Context, cfg config.Server, logger *slog.Logger) (cache.Cache, func()) {
	if cfg.RedisAddr == "" || cfg.CacheTTL == 0 {
		return cache.Nop{}, func() {}
	}

	rc := cache.NewRedis(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.CacheTTL)
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("result cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = rc.Close()
		return cache.Nop{}, func() {}
	}

	logger.Info("result cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Error("failed to close result cache", "error", err)
		}
	}
}

// monitorIndex pings the index every indexCheckInterval and logs when it
// becomes unreachable or recovers.
func monitorIndex(ctx context.Context, store index.Store, logger *slog.Logger) {
	ticker := time.NewTicker(indexCheckInterval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := store.Ping(ctx)
		switch {
		case err != nil && healthy && ctx.Err() == nil:
			logger.Warn("index unreachable", "error", err)
			healthy = false
		case err == nil && !healthy:
			logger.Warn("index reachable again")
			healthy = true
		}
	}
}
