package export

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"time"

	"github.com/fretehub/fretehub/internal/analytics"
	"github.com/fretehub/fretehub/internal/platform/i18n"
)

// ErrPDFUnavailable is returned when no HTML-to-PDF backend is configured.
var ErrPDFUnavailable = errors.New("export: pdf renderer not configured")

// HTMLRenderer converts an HTML document into PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// DashboardPayload aggregates analytics data destined for PDF rendering.
type DashboardPayload struct {
	Month       analytics.MonthBucket
	GeneratedAt time.Time
	Dashboard   analytics.Dashboard
	// Charts are inline SVG fragments keyed by section title.
	Charts map[string]template.HTML
}

// PDFExporter lays the dashboard out as HTML and hands it to the renderer.
type PDFExporter struct {
	renderer HTMLRenderer
	tpl      *template.Template
}

// NewPDFExporter builds an exporter backed by renderer.
func NewPDFExporter(renderer HTMLRenderer) *PDFExporter {
	tpl := template.Must(template.New("dashboard").Funcs(template.FuncMap{
		"money": i18n.Money,
		"sub":   func(a, b float64) float64 { return a - b },
	}).Parse(dashboardHTML))
	return &PDFExporter{renderer: renderer, tpl: tpl}
}

// RenderDashboard returns the PDF bytes for payload.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil || p.renderer == nil {
		return nil, ErrPDFUnavailable
	}
	html, err := p.HTML(payload)
	if err != nil {
		return nil, err
	}
	return p.renderer.RenderHTML(ctx, html)
}

// HTML renders the document sent to the PDF backend.
func (p *PDFExporter) HTML(payload DashboardPayload) (string, error) {
	var buf bytes.Buffer
	if err := p.tpl.Execute(&buf, payload); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="utf-8"><title>Análise {{.Month.Label}}</title>
<style>
body{font-family:sans-serif;margin:24px;color:#0f172a}
h1{font-size:20px}h2{font-size:15px;margin-top:20px}
table{width:100%;border-collapse:collapse;margin-bottom:12px}
th,td{border:1px solid #ddd;padding:4px 6px;text-align:right;font-size:11px}
th{background:#f1f5f9}td.label,th.label{text-align:left}
.chart svg{width:100%;height:auto}
</style></head><body>
<h1>Análise de frota: {{.Month.Label}}</h1>
<p>Gerado em {{.GeneratedAt.Format "02/01/2006 15:04"}}</p>
{{range $title, $svg := .Charts}}<section class="chart"><h2>{{$title}}</h2>{{$svg}}</section>{{end}}
{{with .Dashboard}}
<h2>Série mensal</h2>
<table><thead><tr><th class="label">Mês</th><th>Receita</th><th>Custos</th><th>Margem</th></tr></thead><tbody>
{{range .MonthlySeries}}<tr><td class="label">{{.Month}}</td><td>{{money .Revenue}}</td><td>{{money .Cost}}</td><td>{{money (sub .Revenue .Cost)}}</td></tr>
{{end}}</tbody></table>
<h2>Custos por categoria</h2>
<table><tbody>{{range .CategoryBreakdown}}<tr><td class="label">{{.Category.Label}}</td><td>{{money .Amount}}</td></tr>{{end}}</tbody></table>
<h2>Viagens por status</h2>
<table><tbody>{{range .StatusBreakdown}}<tr><td class="label">{{.Status.Label}}</td><td>{{.Count}}</td></tr>{{end}}</tbody></table>
<h2>Top clientes</h2>
<table><tbody>{{range .TopClients}}<tr><td class="label">{{.Name}}</td><td>{{money .Revenue}}</td></tr>{{end}}</tbody></table>
<h2>Top rotas</h2>
<table><tbody>{{range .TopRoutes}}<tr><td class="label">{{.Name}}</td><td>{{money .Revenue}}</td></tr>{{end}}</tbody></table>
{{end}}
</body></html>`
