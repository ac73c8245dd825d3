package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Defaults applied when a trip has no joined client or route.
const (
	NoClientName    = "No client"
	OneOffRouteName = "One-off route"
	TopN            = 8
)

// Waterfall step labels.
const (
	StepRevenue = "Revenue"
	StepCost    = "Cost"
	StepProfit  = "Profit"
)

// MonthlyAmount pairs revenue and cost for one month.
type MonthlyAmount struct {
	Month   string  `json:"month"`
	Key     string  `json:"key"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
}

// MonthlyCount is a per-month trip count.
type MonthlyCount struct {
	Month string `json:"month"`
	Key   string `json:"key"`
	Trips int    `json:"trips"`
}

// MonthlyValue is a generic per-month number.
type MonthlyValue struct {
	Month string  `json:"month"`
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// CategoryAmount is a cost total for one category.
type CategoryAmount struct {
	Category CostCategory `json:"category"`
	Amount   float64      `json:"amount"`
}

// StatusCount is the number of trips in one status.
type StatusCount struct {
	Status TripStatus `json:"status"`
	Count  int        `json:"count"`
}

// WaterfallStep is one bar of the revenue to profit waterfall.
type WaterfallStep struct {
	Label string  `json:"label"`
	Base  float64 `json:"base"`
	Value float64 `json:"value"`
}

// StackedMonth holds per-category costs for one month. Values is aligned with
// Dashboard.StackedCategories.
type StackedMonth struct {
	Month  string    `json:"month"`
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
}

// RankedEntry is a top-N row.
type RankedEntry struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

// Dashboard is the full analytics bundle for the trailing window.
type Dashboard struct {
	Months            []MonthBucket    `json:"months"`
	MonthlySeries     []MonthlyAmount  `json:"monthly_series"`
	TripsPerMonth     []MonthlyCount   `json:"trips_per_month"`
	AvgTicketPerMonth []MonthlyValue   `json:"avg_ticket_per_month"`
	AvgKmPerMonth     []MonthlyValue   `json:"avg_km_per_month"`
	VolumePerMonth    []MonthlyValue   `json:"volume_per_month"`
	MarginPerMonth    []MonthlyValue   `json:"margin_per_month"`
	CategoryBreakdown []CategoryAmount `json:"category_breakdown"`
	StatusBreakdown   []StatusCount    `json:"status_breakdown"`
	Waterfall         []WaterfallStep  `json:"waterfall"`
	StackedCategories []CostCategory   `json:"stacked_categories"`
	StackedSeries     []StackedMonth   `json:"stacked_category_series"`
	TopClients        []RankedEntry    `json:"top_clients"`
	TopRoutes         []RankedEntry    `json:"top_routes"`
}

// StackedValue returns the cost of category c in month m, zero when absent.
func (d Dashboard) StackedValue(m StackedMonth, c CostCategory) float64 {
	for i, cat := range d.StackedCategories {
		if cat == c && i < len(m.Values) {
			return m.Values[i]
		}
	}
	return 0
}

type monthAccumulator struct {
	revenue decimal.Decimal
	cost    decimal.Decimal
	trips   int
	km      float64
	volume  float64
}

// orderedSums keeps decimal totals keyed by string in first-seen order.
type orderedSums struct {
	keys []string
	sums map[string]decimal.Decimal
}

func newOrderedSums() *orderedSums {
	return &orderedSums{sums: make(map[string]decimal.Decimal)}
}

func (o *orderedSums) add(key string, v decimal.Decimal) {
	current, ok := o.sums[key]
	if !ok {
		o.keys = append(o.keys, key)
		current = decimal.Zero
	}
	o.sums[key] = current.Add(v)
}

// Aggregate rolls trips and costs into the dashboard bundle for the six months
// ending with now's month. Trip timestamps are bucketed in now's location.
// Status counts, waterfall totals and rankings cover every supplied record.
func Aggregate(trips []Trip, costs []CostEntry, now time.Time) Dashboard {
	window := TrailingMonths(now, WindowMonths)
	loc := now.Location()

	perMonth := make(map[string]*monthAccumulator, len(window.Months))
	for _, m := range window.Months {
		perMonth[m.Key] = &monthAccumulator{revenue: decimal.Zero, cost: decimal.Zero}
	}

	totalRevenue := decimal.Zero
	statusOrder := make([]TripStatus, 0, 4)
	statusCounts := make(map[TripStatus]int, 4)
	clients := newOrderedSums()
	routes := newOrderedSums()

	for _, trip := range trips {
		freight := amountOf(trip.FreightValue)
		totalRevenue = totalRevenue.Add(freight)

		if trip.StartDate != nil {
			if acc, ok := perMonth[tripMonthKey(*trip.StartDate, loc)]; ok {
				acc.revenue = acc.revenue.Add(freight)
				acc.trips++
				acc.km += floatOf(trip.ActualKm)
				acc.volume += floatOf(trip.VolumeTons)
			}
		}

		status := trip.Status.orDefault()
		if _, seen := statusCounts[status]; !seen {
			statusOrder = append(statusOrder, status)
		}
		statusCounts[status]++

		client := trip.ClientName
		if client == "" {
			client = NoClientName
		}
		clients.add(client, freight)

		route := trip.RouteName
		if route == "" {
			route = OneOffRouteName
		}
		routes.add(route, freight)
	}

	stackedWindow := window.Months[len(window.Months)-StackedMonths:]
	stackedKeys := make(map[string]bool, len(stackedWindow))
	for _, m := range stackedWindow {
		stackedKeys[m.Key] = true
	}

	totalCost := decimal.Zero
	categories := newOrderedSums()
	// month key -> category -> sum, restricted to the stacked months.
	stacked := make(map[string]map[CostCategory]decimal.Decimal, len(stackedWindow))
	extras := make([]CostCategory, 0)
	seenExtra := make(map[CostCategory]bool)

	for _, cost := range costs {
		amount := amountOf(cost.Amount)
		totalCost = totalCost.Add(amount)

		category := cost.Category
		if category == "" {
			category = CategoryOther
		}
		categories.add(string(category), amount)
		if !category.Canonical() && !seenExtra[category] {
			seenExtra[category] = true
			extras = append(extras, category)
		}

		if cost.Date == nil {
			continue
		}
		key := dateMonthKey(*cost.Date)
		if acc, ok := perMonth[key]; ok {
			acc.cost = acc.cost.Add(amount)
		}
		if stackedKeys[key] {
			cell, ok := stacked[key]
			if !ok {
				cell = make(map[CostCategory]decimal.Decimal)
				stacked[key] = cell
			}
			prev, ok := cell[category]
			if !ok {
				prev = decimal.Zero
			}
			cell[category] = prev.Add(amount)
		}
	}

	out := Dashboard{
		Months:            window.Months,
		MonthlySeries:     make([]MonthlyAmount, 0, len(window.Months)),
		TripsPerMonth:     make([]MonthlyCount, 0, len(window.Months)),
		AvgTicketPerMonth: make([]MonthlyValue, 0, len(window.Months)),
		AvgKmPerMonth:     make([]MonthlyValue, 0, len(window.Months)),
		VolumePerMonth:    make([]MonthlyValue, 0, len(window.Months)),
		MarginPerMonth:    make([]MonthlyValue, 0, len(window.Months)),
	}
	for _, m := range window.Months {
		acc := perMonth[m.Key]
		revenue := acc.revenue.InexactFloat64()
		cost := acc.cost.InexactFloat64()
		avgTicket, avgKm := 0.0, 0.0
		if acc.trips > 0 {
			avgTicket = revenue / float64(acc.trips)
			avgKm = acc.km / float64(acc.trips)
		}
		out.MonthlySeries = append(out.MonthlySeries, MonthlyAmount{Month: m.Label, Key: m.Key, Revenue: revenue, Cost: cost})
		out.TripsPerMonth = append(out.TripsPerMonth, MonthlyCount{Month: m.Label, Key: m.Key, Trips: acc.trips})
		out.AvgTicketPerMonth = append(out.AvgTicketPerMonth, MonthlyValue{Month: m.Label, Key: m.Key, Value: avgTicket})
		out.AvgKmPerMonth = append(out.AvgKmPerMonth, MonthlyValue{Month: m.Label, Key: m.Key, Value: avgKm})
		out.VolumePerMonth = append(out.VolumePerMonth, MonthlyValue{Month: m.Label, Key: m.Key, Value: acc.volume})
		out.MarginPerMonth = append(out.MarginPerMonth, MonthlyValue{Month: m.Label, Key: m.Key, Value: revenue - cost})
	}

	out.CategoryBreakdown = make([]CategoryAmount, 0, len(categories.keys))
	for _, key := range categories.keys {
		out.CategoryBreakdown = append(out.CategoryBreakdown, CategoryAmount{
			Category: CostCategory(key),
			Amount:   categories.sums[key].InexactFloat64(),
		})
	}

	out.StatusBreakdown = make([]StatusCount, 0, len(statusOrder))
	for _, status := range statusOrder {
		out.StatusBreakdown = append(out.StatusBreakdown, StatusCount{Status: status, Count: statusCounts[status]})
	}

	revenueTotal := totalRevenue.InexactFloat64()
	costTotal := totalCost.InexactFloat64()
	out.Waterfall = []WaterfallStep{
		{Label: StepRevenue, Base: 0, Value: revenueTotal},
		{Label: StepCost, Base: revenueTotal, Value: -costTotal},
		{Label: StepProfit, Base: 0, Value: revenueTotal - costTotal},
	}

	out.StackedCategories = make([]CostCategory, 0, len(CanonicalCategories)+len(extras))
	out.StackedCategories = append(out.StackedCategories, CanonicalCategories...)
	out.StackedCategories = append(out.StackedCategories, extras...)
	out.StackedSeries = make([]StackedMonth, 0, len(stackedWindow))
	for _, m := range stackedWindow {
		values := make([]float64, len(out.StackedCategories))
		if cell, ok := stacked[m.Key]; ok {
			for i, category := range out.StackedCategories {
				if v, ok := cell[category]; ok {
					values[i] = v.InexactFloat64()
				}
			}
		}
		out.StackedSeries = append(out.StackedSeries, StackedMonth{Month: m.Label, Key: m.Key, Values: values})
	}

	out.TopClients = rank(clients, TopN)
	out.TopRoutes = rank(routes, TopN)
	return out
}

func rank(sums *orderedSums, limit int) []RankedEntry {
	entries := make([]RankedEntry, 0, len(sums.keys))
	for _, key := range sums.keys {
		entries = append(entries, RankedEntry{Name: key, Revenue: sums.sums[key].InexactFloat64()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Revenue > entries[j].Revenue
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
