package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fretehub/fretehub/internal/platform/httpx"
)

// RouteService is what the handler needs from Service.
type RouteService interface {
	Get(ctx context.Context, routeID string) (Route, error)
	SetStations(ctx context.Context, routeID string, in StationsInput) (Route, error)
}

// Handler serves route reads and station edits.
type Handler struct {
	service RouteService
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service RouteService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the route endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/routes/{routeID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/stations", h.putStations)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	route, err := h.service.Get(r.Context(), chi.URLParam(r, "routeID"))
	if err != nil {
		h.fail(w, "get route", err)
		return
	}
	httpx.JSON(w, http.StatusOK, route)
}

func (h *Handler) putStations(w http.ResponseWriter, r *http.Request) {
	var in StationsInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	routeID := chi.URLParam(r, "routeID")
	route, err := h.service.SetStations(r.Context(), routeID, in)
	if err != nil {
		h.fail(w, "set route stations", err)
		return
	}
	h.logger.Info("route stations replaced",
		slog.String("route_id", route.ID),
		slog.Int("stations", len(route.Stations)),
	)
	httpx.JSON(w, http.StatusOK, route)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrNotFound) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
