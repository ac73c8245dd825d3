package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fretehub/fretehub/cmd/fretehub/cli"
	"github.com/fretehub/fretehub/internal/analytics"
	analyticsdb "github.com/fretehub/fretehub/internal/analytics/db"
	"github.com/fretehub/fretehub/internal/analytics/export"
	analytichttp "github.com/fretehub/fretehub/internal/analytics/http"
	"github.com/fretehub/fretehub/internal/analytics/svg"
	"github.com/fretehub/fretehub/internal/app"
	"github.com/fretehub/fretehub/internal/fueling"
	"github.com/fretehub/fretehub/internal/observability"
	"github.com/fretehub/fretehub/internal/platform/cache"
	"github.com/fretehub/fretehub/internal/platform/db"
	"github.com/fretehub/fretehub/internal/routes"
	"github.com/fretehub/fretehub/internal/view"
	"github.com/fretehub/fretehub/jobs"
	"github.com/fretehub/fretehub/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(redisOpts)
		code := jobsCLI.Run(ctx, os.Args[2:])
		_ = jobsCLI.Close()
		os.Exit(code)
	}

	if err := run(ctx, stop, cfg, logger, redisOpts); err != nil {
		logger.Error("fretehub", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger, redisOpts asynq.RedisClientOpt) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGConnMaxAge})
	if err != nil {
		return err
	}
	defer pool.Close()

	// Without Redis the dashboards still work, uncached; the fueling store does not.
	redisClient, err := cache.New(ctx, cache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable, running without cache", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	analyticsMetrics := analytics.NewMetrics(metrics.Registerer())
	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL).WithMetrics(analyticsMetrics)
	if redisClient != nil {
		if err := analyticsCache.ListenForInvalidation(ctx, ""); err != nil {
			logger.Warn("cache invalidation listener", slog.Any("error", err))
		}
	}
	analyticsService := analytics.NewService(analyticsdb.New(pool), analyticsCache).
		WithLocation(cfg.Location()).
		WithMetrics(analyticsMetrics)

	reportClient := report.NewClient(cfg.GotenbergURL)
	analyticsHandler := analytichttp.NewHandler(
		logger,
		analyticsService,
		templates,
		svg.Renderer{},
		export.NewPDFExporter(reportClient),
		analyticsCache,
	).WithLocation(cfg.Location()).WithExportLimit(cfg.ExportLimit)

	var fuelingHandler *fueling.Handler
	if redisClient != nil {
		fuelingHandler = fueling.NewHandler(fueling.NewStore(redisClient), logger)
	}
	routesHandler := routes.NewHandler(routes.NewService(routes.NewRepository(pool)), logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	readiness := map[string]app.Check{
		"postgres":  pool.Ping,
		"gotenberg": reportClient.Ping,
	}
	if redisClient != nil {
		readiness["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		AnalyticsHandler: analyticsHandler,
		FuelingHandler:   fuelingHandler,
		RoutesHandler:    routesHandler,
		ReportHandler:    report.NewHandler(reportClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Readiness:        readiness,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	if redisClient != nil {
		warmBoot(ctx, redisOpts, logger)
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", cfg.AppTimezone))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// warmBoot asks the worker to prebuild the current month so the first page
// view after a deploy is served from cache.
func warmBoot(ctx context.Context, opts asynq.RedisClientOpt, logger *slog.Logger) {
	client := jobs.NewClient(opts)
	defer func() { _ = client.Close() }()
	if err := client.EnqueueDashboardWarmup(ctx, ""); err != nil {
		logger.Warn("enqueue boot warmup", slog.Any("error", err))
	}
}
