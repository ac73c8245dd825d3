package fueling

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fretehub/fretehub/internal/platform/httpx"
)

// Confirmations is the storage contract used by the handler.
type Confirmations interface {
	Get(ctx context.Context, tripID string) (Answer, error)
	Set(ctx context.Context, tripID string, answer Answer) error
	Clear(ctx context.Context, tripID string) error
	List(ctx context.Context, tripIDs []string) (map[string]Answer, error)
}

// Handler exposes the confirmation store over HTTP.
type Handler struct {
	store    Confirmations
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler builds a handler on store.
func NewHandler(store Confirmations, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger, validate: validator.New()}
}

// MountRoutes registers the confirmation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/trips/fueling-confirmations", h.list)
	r.Route("/api/trips/{tripID}/fueling-confirmation", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.put)
		r.Delete("/", h.clear)
	})
}

type confirmationResponse struct {
	TripID string `json:"trip_id"`
	Answer Answer `json:"answer"`
}

type confirmationRequest struct {
	Answer string `json:"answer" validate:"required,oneof=yes no"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	answer, err := h.store.Get(r.Context(), tripID)
	if err != nil {
		h.fail(w, "get confirmation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, confirmationResponse{TripID: strings.ToLower(tripID), Answer: answer})
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	var req confirmationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, ErrInvalidAnswer)
		return
	}
	if err := h.store.Set(r.Context(), tripID, Answer(req.Answer)); err != nil {
		h.fail(w, "set confirmation", err)
		return
	}
	h.logger.Info("fueling confirmation recorded", slog.String("trip_id", tripID), slog.String("answer", req.Answer))
	httpx.JSON(w, http.StatusOK, confirmationResponse{TripID: strings.ToLower(tripID), Answer: Answer(req.Answer)})
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context(), chi.URLParam(r, "tripID")); err != nil {
		h.fail(w, "clear confirmation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, part := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	answers, err := h.store.List(r.Context(), ids)
	if err != nil {
		h.fail(w, "list confirmations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, answers)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrNotFound) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
