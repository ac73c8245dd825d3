package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fretehub/fretehub/internal/analytics"
	"github.com/fretehub/fretehub/internal/analytics/export"
	"github.com/fretehub/fretehub/internal/analytics/ui"
	"github.com/fretehub/fretehub/internal/platform/httpx"
	"github.com/fretehub/fretehub/internal/view"
)

const (
	requestTimeout = 5 * time.Second
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	Dashboard(ctx context.Context, now time.Time) (analytics.Dashboard, error)
	Overview(ctx context.Context, now time.Time) (analytics.Overview, error)
}

// CacheBumper invalidates cached dashboard bundles.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Handler coordinates HTTP requests for the fleet dashboards.
type Handler struct {
	logger      *slog.Logger
	service     DashboardService
	templates   *view.Engine
	charts      ui.ChartRenderer
	pdf         PDFService
	cache       CacheBumper
	location    *time.Location
	validate    *validator.Validate
	exportLimit int
	csvPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, templates *view.Engine, charts ui.ChartRenderer, pdf PDFService, cache CacheBumper) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		charts:      charts,
		pdf:         pdf,
		cache:       cache,
		location:    time.UTC,
		validate:    validator.New(),
		exportLimit: 10,
		now:         time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) *Handler {
	if fn != nil {
		h.now = fn
	}
	return h
}

// WithLocation sets the business time zone used to resolve the current month.
func (h *Handler) WithLocation(loc *time.Location) *Handler {
	if loc != nil {
		h.location = loc
	}
	return h
}

// WithExportLimit sets how many exports a client may request per minute.
func (h *Handler) WithExportLimit(perMinute int) *Handler {
	if perMinute > 0 {
		h.exportLimit = perMinute
	}
	return h
}

type filterQuery struct {
	Month string `validate:"omitempty,datetime=2006-01"`
}

// parseFilters resolves ?month=YYYY-MM into the filters shown on the page and
// the reference time handed to the service. The current month keeps the real
// clock; any other month is evaluated as of its last second.
func (h *Handler) parseFilters(r *http.Request) (ui.DashboardFilters, time.Time, error) {
	now := h.now().In(h.location)
	q := filterQuery{Month: strings.TrimSpace(r.URL.Query().Get("month"))}
	if err := h.validate.Struct(q); err != nil {
		return ui.DashboardFilters{}, time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", httpx.ErrValidation)
	}
	ref := now
	if q.Month != "" && q.Month != analytics.MonthKey(now) {
		start, err := analytics.ParseMonth(q.Month, h.location)
		if err != nil {
			return ui.DashboardFilters{}, time.Time{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		ref = start.AddDate(0, 1, 0).Add(-time.Second)
	}
	return ui.DashboardFilters{Month: analytics.MonthKey(ref), Label: analytics.MonthLabel(ref)}, ref, nil
}

func (h *Handler) handleOverviewPage(w http.ResponseWriter, r *http.Request) {
	filters, ref, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, "Parâmetro inválido", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	degraded := false
	ov, err := h.service.Overview(ctx, ref)
	if err != nil {
		h.logError("load overview", err)
		ov = analytics.BuildOverview(analytics.OverviewInput{}, ref)
		degraded = true
	}
	vm, err := ui.BuildOverview(h.charts, filters, ov)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}
	vm.Degraded = degraded

	if err := h.templates.Render(w, "pages/dashboard.html", view.TemplateData{
		Title:       "Dashboard",
		CurrentPath: r.URL.Path,
		Data:        vm,
	}); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleAnalyticsPage(w http.ResponseWriter, r *http.Request) {
	filters, ref, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, "Parâmetro inválido", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	degraded := false
	d, err := h.service.Dashboard(ctx, ref)
	if err != nil {
		h.logError("load dashboard", err)
		d = analytics.Aggregate(nil, nil, ref)
		degraded = true
	}
	vm, err := ui.BuildAnalytics(h.charts, filters, d)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}
	vm.Degraded = degraded

	if err := h.templates.Render(w, "pages/analytics.html", view.TemplateData{
		Title:       "Análises",
		CurrentPath: r.URL.Path,
		Data:        vm,
	}); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	_, ref, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	d, err := h.service.Dashboard(ctx, ref)
	if err != nil {
		h.logError("load dashboard", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) handleOverviewJSON(w http.ResponseWriter, r *http.Request) {
	_, ref, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	ov, err := h.service.Overview(ctx, ref)
	if err != nil {
		h.logError("load overview", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ov)
}

func (h *Handler) handleCacheBump(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "disabled"})
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logError("bump cache", err)
		httpx.RespondError(w, fmt.Errorf("%w: cache", httpx.ErrUnavailable))
		return
	}
	h.logger.Info("analytics cache bumped", slog.String("remote", r.RemoteAddr))
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "bumped"})
}

// loadForExport fetches the bundle for an export; exports never degrade to zeros.
func (h *Handler) loadForExport(w http.ResponseWriter, r *http.Request) (ui.DashboardFilters, time.Time, analytics.Dashboard, bool) {
	filters, ref, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return ui.DashboardFilters{}, time.Time{}, analytics.Dashboard{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	d, err := h.service.Dashboard(ctx, ref)
	if err != nil {
		h.logError("load dashboard", err)
		httpx.RespondError(w, err)
		return ui.DashboardFilters{}, time.Time{}, analytics.Dashboard{}, false
	}
	w.Header().Set("X-Export-ID", uuid.NewString())
	return filters, ref, d, true
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	filters, _, d, ok := h.loadForExport(w, r)
	if !ok {
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteDashboardCSV(buf, d); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	httpx.Attachment(w, "text/csv; charset=utf-8", exportName(filters, "csv"))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	filters, _, d, ok := h.loadForExport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, d); err != nil {
		h.handleServerError(w, "write xlsx", err)
		return
	}
	httpx.Attachment(w, xlsxMIME, exportName(filters, "xlsx"))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream xlsx", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.RespondError(w, fmt.Errorf("%w: pdf exporter", httpx.ErrUnavailable))
		return
	}
	filters, ref, d, ok := h.loadForExport(w, r)
	if !ok {
		return
	}
	vm, err := ui.BuildAnalytics(h.charts, filters, d)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	pdfBytes, err := h.pdf.RenderDashboard(ctx, export.DashboardPayload{
		Month:       analytics.MonthBucket{Key: filters.Month, Label: filters.Label, Start: analytics.StartOfMonth(ref)},
		GeneratedAt: h.now().In(h.location),
		Dashboard:   d,
		Charts: map[string]template.HTML{
			"1. Receita x Custos":     vm.Charts.RevenueCost,
			"2. Resultado":            vm.Charts.Waterfall,
			"3. Custos por categoria": vm.Charts.Stacked,
		},
	})
	if err != nil {
		if errors.Is(err, export.ErrPDFUnavailable) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
			return
		}
		h.logError("render pdf", err)
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "pdf rendering failed")
		return
	}
	httpx.Attachment(w, "application/pdf", exportName(filters, "pdf"))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func exportName(filters ui.DashboardFilters, ext string) string {
	return fmt.Sprintf("fretehub-analytics-%s.%s", filters.Month, ext)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	h.logger.Error(context, slog.Any("error", err))
}
