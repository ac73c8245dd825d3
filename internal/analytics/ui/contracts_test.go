package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fretehub/fretehub/internal/analytics"
	"github.com/fretehub/fretehub/internal/analytics/svg"
)

func TestBuildAnalyticsFromEmptyBundle(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	d := analytics.Aggregate(nil, nil, now)

	vm, err := BuildAnalytics(svg.Renderer{}, DashboardFilters{Month: "2024-06"}, d)
	require.NoError(t, err)
	assert.Equal(t, Totals{}, vm.Totals)
	for name, chart := range map[string]string{
		"revenue":   string(vm.Charts.RevenueCost),
		"margin":    string(vm.Charts.Margin),
		"waterfall": string(vm.Charts.Waterfall),
		"stacked":   string(vm.Charts.Stacked),
		"clients":   string(vm.Charts.TopClients),
	} {
		assert.True(t, strings.HasPrefix(chart, "<svg"), "%s chart should render", name)
	}
	assert.Contains(t, string(vm.Charts.TopClients), "Sem dados")
}

func TestSumTotals(t *testing.T) {
	d := analytics.Dashboard{
		MonthlySeries: []analytics.MonthlyAmount{{Revenue: 1000, Cost: 250}, {Revenue: 500, Cost: 0}},
		TripsPerMonth: []analytics.MonthlyCount{{Trips: 2}, {Trips: 1}},
	}
	totals := SumTotals(d)
	assert.Equal(t, 1500.0, totals.Revenue)
	assert.Equal(t, 1250.0, totals.Profit)
	assert.Equal(t, 3, totals.Trips)
	assert.InDelta(t, 83.33, totals.Margin, 0.01)
}

func TestItemsUseDisplayLabels(t *testing.T) {
	items := CategoryItems([]analytics.CategoryAmount{
		{Category: analytics.CategoryToll, Amount: 30},
		{Category: "Lavagem", Amount: 10},
	})
	require.Len(t, items, 2)
	assert.Equal(t, "Pedágio", items[0].Label)
	assert.Equal(t, "Lavagem", items[1].Label)
	assert.Equal(t, "Lucro", StepLabel(analytics.StepProfit))
}
