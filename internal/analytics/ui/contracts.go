package ui

import (
	"html/template"

	"github.com/fretehub/fretehub/internal/analytics"
	"github.com/fretehub/fretehub/internal/analytics/svg"
	"github.com/fretehub/fretehub/internal/platform/i18n"
)

// DashboardFilters represents sanitized query filters used by the dashboards.
type DashboardFilters struct {
	Month string
	Label string
}

// ChartRenderer abstracts SVG rendering for the dashboards.
type ChartRenderer interface {
	Line(width, height int, labels []string, series []svg.Series, opts svg.Opts) (template.HTML, error)
	Bars(width, height int, labels []string, series []svg.Series, opts svg.Opts) (template.HTML, error)
	Stacked(width, height int, labels []string, series []svg.Series, opts svg.Opts) (template.HTML, error)
	Waterfall(width, height int, steps []svg.Step, opts svg.Opts) (template.HTML, error)
	HBars(width int, items []svg.Item, opts svg.Opts) (template.HTML, error)
}

// Totals sums the six month series for the analytics header cards.
type Totals struct {
	Revenue float64
	Cost    float64
	Profit  float64
	Margin  float64
	Trips   int
}

// AnalyticsCharts holds the rendered SVG fragments of the analytics page.
type AnalyticsCharts struct {
	RevenueCost template.HTML
	Margin      template.HTML
	Trips       template.HTML
	AvgTicket   template.HTML
	Waterfall   template.HTML
	Stacked     template.HTML
	Categories  template.HTML
	TopClients  template.HTML
	TopRoutes   template.HTML
}

// AnalyticsViewModel combines the aggregated bundle and its charts.
type AnalyticsViewModel struct {
	Filters   DashboardFilters
	Dashboard analytics.Dashboard
	Totals    Totals
	Charts    AnalyticsCharts
	// Degraded is set when the data could not be loaded and zeros are shown.
	Degraded bool
}

// OverviewViewModel feeds the main dashboard page.
type OverviewViewModel struct {
	Filters     DashboardFilters
	Overview    analytics.Overview
	CategorySVG template.HTML
	Degraded    bool
}

// SumTotals folds the monthly series into window totals.
func SumTotals(d analytics.Dashboard) Totals {
	var t Totals
	for _, m := range d.MonthlySeries {
		t.Revenue += m.Revenue
		t.Cost += m.Cost
	}
	for _, m := range d.TripsPerMonth {
		t.Trips += m.Trips
	}
	t.Profit = t.Revenue - t.Cost
	if t.Revenue > 0 {
		t.Margin = t.Profit / t.Revenue * 100
	}
	return t
}

// CategoryItems converts a breakdown into labelled chart items.
func CategoryItems(rows []analytics.CategoryAmount) []svg.Item {
	items := make([]svg.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, svg.Item{Label: row.Category.Label(), Value: row.Amount})
	}
	return items
}

// RankingItems converts a ranking into labelled chart items.
func RankingItems(rows []analytics.RankedEntry) []svg.Item {
	items := make([]svg.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, svg.Item{Label: row.Name, Value: row.Revenue})
	}
	return items
}

// StepLabel translates a waterfall step for display.
func StepLabel(step string) string {
	switch step {
	case analytics.StepRevenue:
		return "Receita"
	case analytics.StepCost:
		return "Custos"
	case analytics.StepProfit:
		return "Lucro"
	default:
		return step
	}
}

// BuildAnalytics renders every chart of the analytics page.
func BuildAnalytics(r ChartRenderer, filters DashboardFilters, d analytics.Dashboard) (AnalyticsViewModel, error) {
	vm := AnalyticsViewModel{Filters: filters, Dashboard: d, Totals: SumTotals(d)}
	money := svg.Opts{Format: i18n.Money}

	labels := make([]string, 0, len(d.MonthlySeries))
	revenue := make([]float64, 0, len(d.MonthlySeries))
	cost := make([]float64, 0, len(d.MonthlySeries))
	for _, m := range d.MonthlySeries {
		labels = append(labels, m.Month)
		revenue = append(revenue, m.Revenue)
		cost = append(cost, m.Cost)
	}
	var err error
	opts := money
	opts.Title, opts.Description = "Receita x Custos", "Receita e custos por mês"
	vm.Charts.RevenueCost, err = r.Bars(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.Series{
		{Label: "Receita", Color: "#2563eb", Values: revenue},
		{Label: "Custos", Color: "#f97316", Values: cost},
	}, opts)
	if err != nil {
		return AnalyticsViewModel{}, err
	}

	opts = money
	opts.Title, opts.Description, opts.ShowDots, opts.FillArea = "Margem", "Receita menos custos por mês", true, true
	vm.Charts.Margin, err = r.Line(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.Series{
		{Label: "Margem", Color: "#16a34a", Values: values(d.MarginPerMonth)},
	}, opts)
	if err != nil {
		return AnalyticsViewModel{}, err
	}

	trips := make([]float64, 0, len(d.TripsPerMonth))
	for _, m := range d.TripsPerMonth {
		trips = append(trips, float64(m.Trips))
	}
	vm.Charts.Trips, err = r.Line(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.Series{
		{Label: "Viagens", Values: trips},
	}, svg.Opts{Title: "Viagens", Description: "Viagens iniciadas por mês", ShowDots: true})
	if err != nil {
		return AnalyticsViewModel{}, err
	}

	opts = money
	opts.Title, opts.Description, opts.ShowDots = "Ticket médio", "Frete médio por viagem", true
	vm.Charts.AvgTicket, err = r.Line(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.Series{
		{Label: "Ticket médio", Color: "#9333ea", Values: values(d.AvgTicketPerMonth)},
	}, opts)
	if err != nil {
		return AnalyticsViewModel{}, err
	}

	steps := make([]svg.Step, 0, len(d.Waterfall))
	for _, s := range d.Waterfall {
		step := svg.Step{Label: StepLabel(s.Label), Base: s.Base, Value: s.Value}
		if s.Label == analytics.StepProfit {
			step.Color = "#2563eb"
		}
		steps = append(steps, step)
	}
	opts = money
	opts.Title, opts.Description = "Resultado", "Receita, custos e lucro no período"
	vm.Charts.Waterfall, err = r.Waterfall(svg.DefaultWidth, svg.DefaultHeight, steps, opts)
	if err != nil {
		return AnalyticsViewModel{}, err
	}

	stackLabels := make([]string, 0, len(d.StackedSeries))
	for _, m := range d.StackedSeries {
		stackLabels = append(stackLabels, m.Month)
	}
	series := make([]svg.Series, 0, len(d.StackedCategories))
	for i, category := range d.StackedCategories {
		vals := make([]float64, 0, len(d.StackedSeries))
		for _, m := range d.StackedSeries {
			vals = append(vals, d.StackedValue(m, category))
		}
		series = append(series, svg.Series{Label: category.Label(), Color: svg.Palette[i%len(svg.Palette)], Values: vals})
	}
	opts = money
	opts.Title, opts.Description = "Custos por categoria", "Custos empilhados dos últimos meses"
	vm.Charts.Stacked, err = r.Stacked(svg.DefaultWidth, svg.DefaultHeight, stackLabels, series, opts)
	if err != nil {
		return AnalyticsViewModel{}, err
	}

	opts = money
	opts.Title = "Custos por categoria"
	if vm.Charts.Categories, err = r.HBars(svg.DefaultWidth, CategoryItems(d.CategoryBreakdown), opts); err != nil {
		return AnalyticsViewModel{}, err
	}
	opts.Title = "Top clientes"
	if vm.Charts.TopClients, err = r.HBars(svg.DefaultWidth, RankingItems(d.TopClients), opts); err != nil {
		return AnalyticsViewModel{}, err
	}
	opts.Title = "Top rotas"
	if vm.Charts.TopRoutes, err = r.HBars(svg.DefaultWidth, RankingItems(d.TopRoutes), opts); err != nil {
		return AnalyticsViewModel{}, err
	}
	return vm, nil
}

// BuildOverview renders the main dashboard charts.
func BuildOverview(r ChartRenderer, filters DashboardFilters, ov analytics.Overview) (OverviewViewModel, error) {
	chart, err := r.HBars(svg.DefaultWidth, CategoryItems(ov.CostsByCategory), svg.Opts{
		Title:  "Custos do mês",
		Format: i18n.Money,
	})
	if err != nil {
		return OverviewViewModel{}, err
	}
	return OverviewViewModel{Filters: filters, Overview: ov, CategorySVG: chart}, nil
}

func values(points []analytics.MonthlyValue) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Value)
	}
	return out
}
