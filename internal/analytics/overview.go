package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	recentTripsLimit = 5
	upcomingLimit    = 3
)

// OverviewInput carries the raw records for the monthly overview. Trips, Costs
// and Fuelings are expected to be scoped to the reference month; receivables
// and payables are the open ones.
type OverviewInput struct {
	Trips               []Trip
	Costs               []CostEntry
	Fuelings            []Fueling
	Receivables         []Receivable
	Payables            []Payable
	ActiveVehicles      int
	PendingMaintenances int
}

// KPISummary holds the headline cards of the main dashboard.
type KPISummary struct {
	Revenue             float64 `json:"revenue"`
	Costs               float64 `json:"costs"`
	NetProfit           float64 `json:"net_profit"`
	OperatingMargin     float64 `json:"operating_margin"`
	Trips               int     `json:"trips"`
	KmDriven            float64 `json:"km_driven"`
	LitersFueled        float64 `json:"liters_fueled"`
	KmPerLiter          float64 `json:"km_per_liter"`
	ReceivablesOpen     float64 `json:"receivables_open"`
	PayablesOpen        float64 `json:"payables_open"`
	ActiveVehicles      int     `json:"active_vehicles"`
	PendingMaintenances int     `json:"pending_maintenances"`
}

// RecentTrip is a row of the recent trips table.
type RecentTrip struct {
	ID           string     `json:"id"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	ClientName   string     `json:"client_name"`
	RouteName    string     `json:"route_name"`
	VehiclePlate string     `json:"vehicle_plate"`
	DriverName   string     `json:"driver_name"`
	Freight      float64    `json:"freight"`
	Status       TripStatus `json:"status"`
}

// DueItem is an upcoming receivable or payable.
type DueItem struct {
	ID      string     `json:"id"`
	Party   string     `json:"party"`
	DueDate *time.Time `json:"due_date,omitempty"`
	Amount  float64    `json:"amount"`
	Overdue bool       `json:"overdue"`
}

// FinancialSummary compares open receivables with open payables.
type FinancialSummary struct {
	ReceivableTotal     float64   `json:"receivable_total"`
	PayableTotal        float64   `json:"payable_total"`
	Balance             float64   `json:"balance"`
	UpcomingReceivables []DueItem `json:"upcoming_receivables"`
	UpcomingPayables    []DueItem `json:"upcoming_payables"`
}

// Overview is the main dashboard bundle for one month.
type Overview struct {
	Month           MonthBucket      `json:"month"`
	KPI             KPISummary       `json:"kpi"`
	CostsByCategory []CategoryAmount `json:"costs_by_category"`
	RecentTrips     []RecentTrip     `json:"recent_trips"`
	Financial       FinancialSummary `json:"financial"`
}

// BuildOverview computes the monthly overview. Like Aggregate it never fails
// and treats missing values as zero.
func BuildOverview(in OverviewInput, now time.Time) Overview {
	month := StartOfMonth(now)
	out := Overview{
		Month: MonthBucket{Key: MonthKey(month), Label: MonthLabel(month), Start: month},
	}

	revenue := decimal.Zero
	km := 0.0
	for _, trip := range in.Trips {
		revenue = revenue.Add(amountOf(trip.FreightValue))
		km += floatOf(trip.ActualKm)
	}

	costs := decimal.Zero
	categories := newOrderedSums()
	for _, cost := range in.Costs {
		amount := amountOf(cost.Amount)
		costs = costs.Add(amount)
		category := cost.Category
		if category == "" {
			category = CategoryOther
		}
		categories.add(string(category), amount)
	}

	liters := 0.0
	for _, f := range in.Fuelings {
		liters += f.Liters
	}

	revenueF := revenue.InexactFloat64()
	costsF := costs.InexactFloat64()
	profit := revenueF - costsF
	margin := 0.0
	if revenueF > 0 {
		margin = profit / revenueF * 100
	}
	kmPerLiter := 0.0
	if liters > 0 {
		kmPerLiter = km / liters
	}

	out.Financial = summarizeFinancial(in.Receivables, in.Payables, now)
	out.KPI = KPISummary{
		Revenue:             revenueF,
		Costs:               costsF,
		NetProfit:           profit,
		OperatingMargin:     margin,
		Trips:               len(in.Trips),
		KmDriven:            km,
		LitersFueled:        liters,
		KmPerLiter:          kmPerLiter,
		ReceivablesOpen:     out.Financial.ReceivableTotal,
		PayablesOpen:        out.Financial.PayableTotal,
		ActiveVehicles:      in.ActiveVehicles,
		PendingMaintenances: in.PendingMaintenances,
	}

	out.CostsByCategory = make([]CategoryAmount, 0, len(categories.keys))
	for _, key := range categories.keys {
		out.CostsByCategory = append(out.CostsByCategory, CategoryAmount{Category: CostCategory(key), Amount: categories.sums[key].InexactFloat64()})
	}

	out.RecentTrips = recentTrips(in.Trips, recentTripsLimit)
	return out
}

func recentTrips(trips []Trip, limit int) []RecentTrip {
	sorted := make([]Trip, len(trips))
	copy(sorted, trips)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].StartDate, sorted[j].StartDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	rows := make([]RecentTrip, 0, len(sorted))
	for _, trip := range sorted {
		client := trip.ClientName
		if client == "" {
			client = NoClientName
		}
		route := trip.RouteName
		if route == "" {
			route = OneOffRouteName
		}
		rows = append(rows, RecentTrip{
			ID:           trip.ID,
			StartDate:    trip.StartDate,
			ClientName:   client,
			RouteName:    route,
			VehiclePlate: trip.VehiclePlate,
			DriverName:   trip.DriverName,
			Freight:      amountOf(trip.FreightValue).InexactFloat64(),
			Status:       trip.Status.orDefault(),
		})
	}
	return rows
}

func summarizeFinancial(receivables []Receivable, payables []Payable, now time.Time) FinancialSummary {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	recTotal := decimal.Zero
	recItems := make([]DueItem, 0, len(receivables))
	for _, r := range receivables {
		amount := amountOf(r.Amount)
		recTotal = recTotal.Add(amount)
		recItems = append(recItems, dueItem(r.ID, r.ClientName, r.DueDate, amount, today))
	}

	payTotal := decimal.Zero
	payItems := make([]DueItem, 0, len(payables))
	for _, p := range payables {
		amount := amountOf(p.Amount)
		payTotal = payTotal.Add(amount)
		party := p.Supplier
		if party == "" {
			party = p.Category
		}
		payItems = append(payItems, dueItem(p.ID, party, p.DueDate, amount, today))
	}

	recF := recTotal.InexactFloat64()
	payF := payTotal.InexactFloat64()
	return FinancialSummary{
		ReceivableTotal:     recF,
		PayableTotal:        payF,
		Balance:             recF - payF,
		UpcomingReceivables: nextDue(recItems, upcomingLimit),
		UpcomingPayables:    nextDue(payItems, upcomingLimit),
	}
}

// dueItem flags an item overdue when its calendar due date precedes today.
// Both sides are compared as civil dates.
func dueItem(id, party string, due *time.Time, amount decimal.Decimal, today time.Time) DueItem {
	item := DueItem{ID: id, Party: party, DueDate: due, Amount: amount.InexactFloat64()}
	if due != nil {
		civil := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
		item.Overdue = civil.Before(today)
	}
	return item
}

func nextDue(items []DueItem, limit int) []DueItem {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].DueDate, items[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
