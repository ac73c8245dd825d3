package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) *time.Time {
	t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func money(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func ptr(v float64) *float64 { return &v }

var referenceNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func seriesByKey(t *testing.T, d Dashboard, key string) MonthlyAmount {
	t.Helper()
	for _, m := range d.MonthlySeries {
		if m.Key == key {
			return m
		}
	}
	t.Fatalf("month %s missing from series", key)
	return MonthlyAmount{}
}

func TestAggregateConcreteScenario(t *testing.T) {
	trips := []Trip{
		{ID: "t1", StartDate: day(2024, time.June, 1), ClientName: "Acme", FreightValue: money(1000), Status: StatusCompleted},
		{ID: "t2", StartDate: day(2024, time.May, 10), ClientName: "Acme", FreightValue: money(500), Status: StatusCompleted},
	}
	costs := []CostEntry{
		{ID: "c1", Date: day(2024, time.June, 5), Category: CategoryDiesel, Amount: money(300)},
	}

	d := Aggregate(trips, costs, referenceNow)

	june := seriesByKey(t, d, "2024-06")
	assert.Equal(t, 1000.0, june.Revenue)
	assert.Equal(t, 300.0, june.Cost)
	may := seriesByKey(t, d, "2024-05")
	assert.Equal(t, 500.0, may.Revenue)
	assert.Equal(t, 0.0, may.Cost)

	require.Len(t, d.MarginPerMonth, WindowMonths)
	assert.Equal(t, 700.0, d.MarginPerMonth[5].Value)

	assert.Equal(t, []CategoryAmount{{Category: CategoryDiesel, Amount: 300}}, d.CategoryBreakdown)
	assert.Equal(t, []RankedEntry{{Name: "Acme", Revenue: 1500}}, d.TopClients)
	assert.Equal(t, []RankedEntry{{Name: OneOffRouteName, Revenue: 1500}}, d.TopRoutes)
	assert.Equal(t, []WaterfallStep{
		{Label: StepRevenue, Base: 0, Value: 1500},
		{Label: StepCost, Base: 1500, Value: -300},
		{Label: StepProfit, Base: 0, Value: 1200},
	}, d.Waterfall)
	assert.Equal(t, []StatusCount{{Status: StatusCompleted, Count: 2}}, d.StatusBreakdown)
}

func TestAggregateMonthBuckets(t *testing.T) {
	d := Aggregate(nil, nil, referenceNow)
	require.Len(t, d.Months, WindowMonths)
	keys := make([]string, 0, len(d.Months))
	labels := make([]string, 0, len(d.Months))
	for _, m := range d.Months {
		keys = append(keys, m.Key)
		labels = append(labels, m.Label)
	}
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"}, keys)
	assert.Equal(t, "jan de 24", labels[0])
	assert.Equal(t, "jun de 24", labels[5])
}

func TestAggregateWindowCrossesYear(t *testing.T) {
	now := time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC)
	d := Aggregate(nil, nil, now)
	assert.Equal(t, "2024-09", d.Months[0].Key)
	assert.Equal(t, "2025-02", d.Months[5].Key)
	assert.Equal(t, "set de 24", d.Months[0].Label)
}

func TestAggregateEmptyInput(t *testing.T) {
	d := Aggregate(nil, nil, referenceNow)

	require.Len(t, d.MonthlySeries, WindowMonths)
	for i := range d.MonthlySeries {
		assert.Zero(t, d.MonthlySeries[i].Revenue)
		assert.Zero(t, d.MonthlySeries[i].Cost)
		assert.Zero(t, d.TripsPerMonth[i].Trips)
		assert.Zero(t, d.AvgTicketPerMonth[i].Value)
		assert.Zero(t, d.AvgKmPerMonth[i].Value)
		assert.Zero(t, d.VolumePerMonth[i].Value)
		assert.Zero(t, d.MarginPerMonth[i].Value)
	}
	assert.Empty(t, d.TopClients)
	assert.Empty(t, d.TopRoutes)
	assert.Empty(t, d.CategoryBreakdown)
	assert.Empty(t, d.StatusBreakdown)

	require.Len(t, d.StackedSeries, StackedMonths)
	assert.Equal(t, CanonicalCategories, d.StackedCategories)
	for _, m := range d.StackedSeries {
		assert.Equal(t, make([]float64, len(CanonicalCategories)), m.Values)
	}
}

func TestAggregateNullFreightCountsTrip(t *testing.T) {
	trips := []Trip{{ID: "t1", StartDate: day(2024, time.June, 2)}}
	d := Aggregate(trips, nil, referenceNow)

	june := seriesByKey(t, d, "2024-06")
	assert.Zero(t, june.Revenue)
	assert.Equal(t, 1, d.TripsPerMonth[5].Trips)
	assert.Zero(t, d.AvgTicketPerMonth[5].Value)
	assert.Equal(t, []StatusCount{{Status: StatusPlanned, Count: 1}}, d.StatusBreakdown)
	assert.Equal(t, []RankedEntry{{Name: NoClientName, Revenue: 0}}, d.TopClients)
}

func TestAggregateAverages(t *testing.T) {
	trips := []Trip{
		{StartDate: day(2024, time.April, 1), FreightValue: money(1200), ActualKm: ptr(300), VolumeTons: ptr(20)},
		{StartDate: day(2024, time.April, 20), FreightValue: money(800), ActualKm: ptr(500), VolumeTons: ptr(15.5)},
		{StartDate: day(2024, time.April, 21), ActualKm: ptr(100)},
	}
	d := Aggregate(trips, nil, referenceNow)
	april := 3
	assert.Equal(t, "2024-04", d.AvgTicketPerMonth[april].Key)
	assert.InDelta(t, 2000.0/3, d.AvgTicketPerMonth[april].Value, 1e-9)
	assert.InDelta(t, 300.0, d.AvgKmPerMonth[april].Value, 1e-9)
	assert.InDelta(t, 35.5, d.VolumePerMonth[april].Value, 1e-9)
	assert.Zero(t, d.AvgKmPerMonth[0].Value)
}

func TestAggregateOutOfWindowRecords(t *testing.T) {
	trips := []Trip{
		{StartDate: day(2023, time.December, 31), ClientName: "Old", FreightValue: money(900), Status: StatusCancelled},
		{StartDate: day(2024, time.June, 30), ClientName: "New", FreightValue: money(100), Status: StatusInProgress},
		{ClientName: "Undated", FreightValue: money(50)},
	}
	costs := []CostEntry{
		{Date: day(2023, time.November, 2), Category: CategoryToll, Amount: money(70)},
		{Date: day(2024, time.June, 1), Category: CategoryToll, Amount: money(30)},
	}
	d := Aggregate(trips, costs, referenceNow)

	total := 0.0
	for _, m := range d.MonthlySeries {
		total += m.Revenue
	}
	assert.Equal(t, 100.0, total)
	assert.Equal(t, []CategoryAmount{{Category: CategoryToll, Amount: 100}}, d.CategoryBreakdown)
	assert.Equal(t, 30.0, seriesByKey(t, d, "2024-06").Cost)

	assert.Equal(t, []StatusCount{
		{Status: StatusCancelled, Count: 1},
		{Status: StatusInProgress, Count: 1},
		{Status: StatusPlanned, Count: 1},
	}, d.StatusBreakdown)
	assert.Equal(t, "Old", d.TopClients[0].Name)
	assert.Equal(t, 1050.0, d.Waterfall[0].Value)
	assert.Equal(t, -100.0, d.Waterfall[1].Value)
}

func TestAggregateTripBucketsInReferenceLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, loc)
	// 02:00 UTC on June 1st is still May 31st in Sao Paulo.
	start := time.Date(2024, time.June, 1, 2, 0, 0, 0, time.UTC)
	d := Aggregate([]Trip{{StartDate: &start, FreightValue: money(10)}}, nil, now)

	assert.Equal(t, 10.0, seriesByKey(t, d, "2024-05").Revenue)
	assert.Zero(t, seriesByKey(t, d, "2024-06").Revenue)
}

func TestAggregateMarginEqualsRevenueMinusCost(t *testing.T) {
	trips := []Trip{
		{StartDate: day(2024, time.March, 3), FreightValue: money(0.1)},
		{StartDate: day(2024, time.March, 4), FreightValue: money(0.2)},
		{StartDate: day(2024, time.June, 4), FreightValue: money(10.35)},
	}
	costs := []CostEntry{
		{Date: day(2024, time.March, 9), Category: CategoryDiesel, Amount: money(0.7)},
		{Date: day(2024, time.June, 9), Category: CategoryOther, Amount: money(99.99)},
	}
	d := Aggregate(trips, costs, referenceNow)
	for i, m := range d.MonthlySeries {
		assert.Equal(t, m.Revenue-m.Cost, d.MarginPerMonth[i].Value, m.Key)
	}
	assert.Equal(t, 0.3, seriesByKey(t, d, "2024-03").Revenue)
}

func TestAggregateStackedCategories(t *testing.T) {
	costs := []CostEntry{
		{Date: day(2024, time.June, 1), Category: "Pneus", Amount: money(40)},
		{Date: day(2024, time.June, 2), Category: CategoryDiesel, Amount: money(100)},
		{Date: day(2024, time.March, 2), Category: "Lavagem", Amount: money(15)},
		{Date: day(2024, time.January, 2), Category: CategoryDiesel, Amount: money(999)},
		{Date: day(2024, time.May, 2), Amount: money(5)},
	}
	d := Aggregate(nil, costs, referenceNow)

	expected := append(append([]CostCategory{}, CanonicalCategories...), "Pneus", "Lavagem")
	assert.Equal(t, expected, d.StackedCategories)

	require.Len(t, d.StackedSeries, StackedMonths)
	assert.Equal(t, "2024-03", d.StackedSeries[0].Key)
	assert.Equal(t, "2024-06", d.StackedSeries[3].Key)

	assert.Equal(t, 15.0, d.StackedValue(d.StackedSeries[0], "Lavagem"))
	assert.Equal(t, 5.0, d.StackedValue(d.StackedSeries[2], CategoryOther))
	assert.Equal(t, 100.0, d.StackedValue(d.StackedSeries[3], CategoryDiesel))
	assert.Equal(t, 40.0, d.StackedValue(d.StackedSeries[3], "Pneus"))
	assert.Zero(t, d.StackedValue(d.StackedSeries[1], CategoryDiesel))
	for _, m := range d.StackedSeries {
		assert.Len(t, m.Values, len(expected))
	}
}

func TestAggregateTopNTruncatesAndSorts(t *testing.T) {
	trips := make([]Trip, 0, 12)
	total := 0.0
	for i := 0; i < 12; i++ {
		v := float64((i%5)+1) * 100
		total += v
		trips = append(trips, Trip{
			StartDate:    day(2024, time.June, 1),
			ClientName:   fmt.Sprintf("client-%02d", i),
			FreightValue: money(v),
		})
	}
	d := Aggregate(trips, nil, referenceNow)

	require.Len(t, d.TopClients, TopN)
	for i := 1; i < len(d.TopClients); i++ {
		assert.GreaterOrEqual(t, d.TopClients[i-1].Revenue, d.TopClients[i].Revenue)
	}
	// Ties keep encounter order.
	assert.Equal(t, "client-04", d.TopClients[0].Name)
	assert.Equal(t, "client-09", d.TopClients[1].Name)
	assert.Equal(t, total, d.Waterfall[0].Value)
}

func TestAggregateIsIdempotent(t *testing.T) {
	trips := []Trip{
		{StartDate: day(2024, time.June, 1), ClientName: "B", RouteName: "SP-RJ", FreightValue: money(10)},
		{StartDate: day(2024, time.May, 1), ClientName: "A", RouteName: "SP-RJ", FreightValue: money(10)},
	}
	costs := []CostEntry{{Date: day(2024, time.June, 1), Category: "X", Amount: money(1)}}
	first := Aggregate(trips, costs, referenceNow)
	second := Aggregate(trips, costs, referenceNow)
	assert.Equal(t, first, second)
	assert.Equal(t, "B", trips[0].ClientName)
}

func TestParseEnums(t *testing.T) {
	assert.Equal(t, StatusInProgress, ParseTripStatus("Em andamento"))
	assert.Equal(t, StatusCompleted, ParseTripStatus("Concluida"))
	assert.Equal(t, StatusCancelled, ParseTripStatus("Cancelada"))
	assert.Equal(t, StatusPlanned, ParseTripStatus(""))
	assert.Equal(t, StatusPlanned, ParseTripStatus("???"))

	assert.Equal(t, CategoryToll, ParseCostCategory("Pedagio"))
	assert.Equal(t, CategoryPerDiem, ParseCostCategory("Diárias"))
	assert.Equal(t, CategoryCommission, ParseCostCategory("Comissao"))
	assert.Equal(t, CategoryAdBlue, ParseCostCategory("Arla"))
	assert.Equal(t, CategoryOther, ParseCostCategory("  "))
	assert.Equal(t, CostCategory("Pneus"), ParseCostCategory(" Pneus "))
	assert.Equal(t, "Pedágio", CategoryToll.Label())
}
