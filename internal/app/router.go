package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	analytichttp "github.com/fretehub/fretehub/internal/analytics/http"
	"github.com/fretehub/fretehub/internal/fueling"
	"github.com/fretehub/fretehub/internal/observability"
	"github.com/fretehub/fretehub/internal/platform/httpx"
	"github.com/fretehub/fretehub/internal/routes"
	"github.com/fretehub/fretehub/jobs"
	"github.com/fretehub/fretehub/report"
	"github.com/fretehub/fretehub/web"
)

// Check probes one dependency for /readyz.
type Check func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router. Nil handlers
// leave their routes unmounted.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AnalyticsHandler *analytichttp.Handler
	FuelingHandler   *fueling.Handler
	RoutesHandler    *routes.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler

	Readiness map[string]Check
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Readiness, params.Logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	if params.AnalyticsHandler != nil {
		params.AnalyticsHandler.MountRoutes(r)
	}
	if params.FuelingHandler != nil {
		params.FuelingHandler.MountRoutes(r)
	}
	if params.RoutesHandler != nil {
		params.RoutesHandler.MountRoutes(r)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// readinessHandler runs every check concurrently; any failure answers 503.
func readinessHandler(checks map[string]Check, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		results := make([]string, len(names))
		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				if err := checks[name](ctx); err != nil {
					logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
					results[i] = "down"
					return err
				}
				results[i] = "ok"
				return nil
			})
		}
		status, code := "ok", http.StatusOK
		if err := g.Wait(); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		out := readiness{Status: status, Checks: map[string]string{}}
		for i, name := range names {
			out.Checks[name] = results[i]
		}
		httpx.JSON(w, code, out)
	}
}

// staticCacheHandler lets browsers keep static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
