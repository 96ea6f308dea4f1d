package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/config"
	"analytics-query-service/internal/controller"
	"analytics-query-service/internal/db"
	httpserver "analytics-query-service/internal/http"
	"analytics-query-service/internal/logger"
	"analytics-query-service/internal/repository"
	"analytics-query-service/internal/seed"
	"analytics-query-service/internal/service"
	"analytics-query-service/internal/telemetry"
)

func main() {
	root := &cobra.Command{
		Use:           "analytics-query-service",
		Short:         "Dynamic analytics query engine over ClickHouse",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the events table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			conn, err := db.NewConnection(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer conn.Close()

			if err := db.RunMigrations(cmd.Context(), conn); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var (
		websiteID string
		sessions  int
		days      int
		seedValue int64
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write synthetic sessions for a website",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			conn, err := db.NewConnection(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer conn.Close()

			if err := db.RunMigrations(cmd.Context(), conn); err != nil {
				return err
			}

			to := time.Now().UTC()
			opts := seed.Options{
				WebsiteID: websiteID,
				Sessions:  sessions,
				From:      to.AddDate(0, 0, -days),
				To:        to,
				Seed:      seedValue,
			}
			written, err := seed.Run(cmd.Context(), repository.NewEventWriter(conn), opts, batchSize, log)
			if err != nil {
				return err
			}
			log.Info("seed complete", zap.String("website_id", websiteID), zap.Int("events", written))
			return nil
		},
	}
	cmd.Flags().StringVar(&websiteID, "website", "demo", "website id to write events for")
	cmd.Flags().IntVar(&sessions, "sessions", 1000, "number of sessions to generate")
	cmd.Flags().IntVar(&days, "days", 30, "spread sessions over this many past days")
	cmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed, 0 for time based")
	cmd.Flags().IntVar(&batchSize, "batch-size", 10000, "events per insert batch")
	return cmd
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func serve(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.AppMode)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	conn, err := db.NewConnection(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var store repository.QueryStore
	switch cfg.ClickHouseDriver {
	case config.DriverSQL:
		var sqlDB *sql.DB
		sqlDB, err = db.NewSQLDB(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer sqlDB.Close()
		store = repository.NewSQLStore(sqlDB, cfg.QueryTimeout)
	default:
		store = repository.NewNativeStore(conn, cfg.QueryTimeout)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(telemetry.NewMetrics(reg)),
		service.WithLimits(service.Limits{Default: cfg.QueryDefaultLimit, Max: cfg.QueryMaxLimit}),
		service.WithConcurrency(cfg.BatchConcurrency),
		service.WithMaxQueries(cfg.BatchMaxQueries),
		service.WithFunnelWindow(cfg.FunnelWindow),
	}
	if cfg.QueryCacheTTL > 0 {
		cache, err := service.NewCache(cfg.QueryCacheMaxCost)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
		defer cache.Close()
		opts = append(opts, service.WithCache(cache, cfg.QueryCacheTTL))
	}

	registry := builders.Default()
	dispatcher := service.NewDispatcher(registry, store, opts...)
	batchService := service.NewBatchService(dispatcher, registry, opts...)
	funnelService := service.NewFunnelService(dispatcher, opts...)
	analyticsController := controller.NewAnalyticsController(dispatcher, batchService, funnelService, registry)

	server := httpserver.NewServer(cfg, analyticsController, reg, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.HTTPPort), zap.String("driver", cfg.ClickHouseDriver))
		errCh <- server.Listen(cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
		return server.Shutdown()
	}
}
