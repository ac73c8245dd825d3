package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/fretehub/fretehub/internal/platform/httpx"
)

// MountRoutes registers dashboard pages, JSON endpoints and exports.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export limit reached")
		}),
	)

	r.Get("/dashboard", h.handleOverviewPage)
	r.Get("/dashboard/analytics", h.handleAnalyticsPage)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/dashboard/analytics/export.csv", h.handleCSV)
		gr.Get("/dashboard/analytics/export.xlsx", h.handleXLSX)
		gr.Get("/dashboard/analytics/export.pdf", h.handlePDF)
	})

	r.Route("/api/dashboard", func(api chi.Router) {
		api.Get("/analytics", h.handleDashboardJSON)
		api.Get("/overview", h.handleOverviewJSON)
		api.Post("/cache/bump", h.handleCacheBump)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
