package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	analyticsdb "github.com/fretehub/fretehub/internal/analytics/db"
)

// Repository exposes the read queries the dashboards rely on.
type Repository interface {
	ListTrips(ctx context.Context, arg analyticsdb.ListTripsParams) ([]analyticsdb.TripRow, error)
	ListCosts(ctx context.Context, arg analyticsdb.ListCostsParams) ([]analyticsdb.CostRow, error)
	ListFuelings(ctx context.Context, arg analyticsdb.ListFuelingsParams) ([]analyticsdb.FuelingRow, error)
	ListOpenReceivables(ctx context.Context) ([]analyticsdb.ReceivableRow, error)
	ListOpenPayables(ctx context.Context) ([]analyticsdb.PayableRow, error)
	CountActiveVehicles(ctx context.Context) (int64, error)
	CountPendingMaintenances(ctx context.Context) (int64, error)
}

// Service loads raw records, aggregates them and caches the bundles.
type Service struct {
	repo     Repository
	cache    *Cache
	metrics  *Metrics
	location *time.Location
	flight   singleflight.Group
}

// NewService wires a Repository with a Cache helper. Reference months are
// interpreted in UTC until WithLocation is called.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, location: time.UTC}
}

// WithLocation sets the business time zone used to bucket trips.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.location = loc
	}
	return s
}

// WithMetrics instruments builds on m.
func (s *Service) WithMetrics(m *Metrics) *Service {
	s.metrics = m
	return s
}

// Location returns the business time zone.
func (s *Service) Location() *time.Location {
	return s.location
}

// Cache exposes the cache so callers can bump it.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Dashboard returns the trailing six month analytics bundle ending with now's
// month. Trips and costs are fetched for that window only, so rankings are
// window-scoped.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	if s.repo == nil {
		return Dashboard{}, ErrRepositoryMissing
	}
	now = now.In(s.location)
	key := dashboardKey(s.location, MonthKey(now))
	loader := func(ctx context.Context) (any, error) {
		return s.loadDashboard(ctx, now)
	}
	var out Dashboard
	err := s.cached(ctx, key, &out, loader)
	return out, err
}

// Overview returns the main dashboard for now's month. Overdue flags depend on
// the day, so it is cached per day.
func (s *Service) Overview(ctx context.Context, now time.Time) (Overview, error) {
	if s.repo == nil {
		return Overview{}, ErrRepositoryMissing
	}
	now = now.In(s.location)
	key := overviewKey(s.location, now.Format("2006-01-02"))
	loader := func(ctx context.Context) (any, error) {
		return s.loadOverview(ctx, now)
	}
	var out Overview
	err := s.cached(ctx, key, &out, loader)
	return out, err
}

func (s *Service) cached(ctx context.Context, base string, dest any, loader func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, base)
	if err != nil {
		return err
	}
	// Concurrent misses for the same key share one load.
	v, err, _ := s.flight.Do(key, func() (any, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), dest)
}

func (s *Service) loadDashboard(ctx context.Context, now time.Time) (out Dashboard, err error) {
	start := time.Now()
	defer func() { s.metrics.observeBuild("dashboard", start, err) }()

	window := TrailingMonths(now, WindowMonths)
	var (
		tripRows []analyticsdb.TripRow
		costRows []analyticsdb.CostRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.ListTrips(gctx, tripRange(window))
		tripRows = rows
		return err
	})
	g.Go(func() error {
		from, to := dateRange(window)
		rows, err := s.repo.ListCosts(gctx, analyticsdb.ListCostsParams{From: from, To: to})
		costRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return Aggregate(tripsFromRows(tripRows), costsFromRows(costRows), now), nil
}

func (s *Service) loadOverview(ctx context.Context, now time.Time) (out Overview, err error) {
	start := time.Now()
	defer func() { s.metrics.observeBuild("overview", start, err) }()

	window := TrailingMonths(now, 1)
	from, to := dateRange(window)
	var (
		tripRows    []analyticsdb.TripRow
		costRows    []analyticsdb.CostRow
		fuelRows    []analyticsdb.FuelingRow
		receivables []analyticsdb.ReceivableRow
		payables    []analyticsdb.PayableRow
		vehicles    int64
		maintenance int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tripRows, err = s.repo.ListTrips(gctx, tripRange(window))
		return err
	})
	g.Go(func() (err error) {
		costRows, err = s.repo.ListCosts(gctx, analyticsdb.ListCostsParams{From: from, To: to})
		return err
	})
	g.Go(func() (err error) {
		fuelRows, err = s.repo.ListFuelings(gctx, analyticsdb.ListFuelingsParams{From: from, To: to})
		return err
	})
	g.Go(func() (err error) {
		receivables, err = s.repo.ListOpenReceivables(gctx)
		return err
	})
	g.Go(func() (err error) {
		payables, err = s.repo.ListOpenPayables(gctx)
		return err
	})
	g.Go(func() (err error) {
		vehicles, err = s.repo.CountActiveVehicles(gctx)
		return err
	})
	g.Go(func() (err error) {
		maintenance, err = s.repo.CountPendingMaintenances(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	return BuildOverview(OverviewInput{
		Trips:               tripsFromRows(tripRows),
		Costs:               costsFromRows(costRows),
		Fuelings:            fuelingsFromRows(fuelRows),
		Receivables:         receivablesFromRows(receivables),
		Payables:            payablesFromRows(payables),
		ActiveVehicles:      int(vehicles),
		PendingMaintenances: int(maintenance),
	}, now), nil
}

func tripRange(w Window) analyticsdb.ListTripsParams {
	return analyticsdb.ListTripsParams{
		From: pgtype.Timestamptz{Time: w.Start, Valid: true},
		To:   pgtype.Timestamptz{Time: w.End, Valid: true},
	}
}

// dateRange converts the window to civil date bounds.
func dateRange(w Window) (pgtype.Date, pgtype.Date) {
	civil := func(t time.Time) pgtype.Date {
		return pgtype.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
	}
	return civil(w.Start), civil(w.End)
}

func tripsFromRows(rows []analyticsdb.TripRow) []Trip {
	trips := make([]Trip, 0, len(rows))
	for _, row := range rows {
		trips = append(trips, Trip{
			ID:           uuidString(row.ID),
			StartDate:    timestampPtr(row.StartDate),
			ClientName:   row.ClientName.String,
			RouteName:    row.RouteName.String,
			VehiclePlate: row.VehiclePlate.String,
			DriverName:   row.DriverName.String,
			FreightValue: numericToDecimal(row.FreightValue),
			ActualKm:     float8Ptr(row.ActualKm),
			VolumeTons:   float8Ptr(row.VolumeTons),
			Status:       ParseTripStatus(row.Status.String),
		})
	}
	return trips
}

func costsFromRows(rows []analyticsdb.CostRow) []CostEntry {
	costs := make([]CostEntry, 0, len(rows))
	for _, row := range rows {
		costs = append(costs, CostEntry{
			ID:       uuidString(row.ID),
			TripID:   uuidString(row.TripID),
			Date:     datePtr(row.Date),
			Category: ParseCostCategory(row.Category.String),
			Amount:   numericToDecimal(row.Amount),
		})
	}
	return costs
}

func fuelingsFromRows(rows []analyticsdb.FuelingRow) []Fueling {
	out := make([]Fueling, 0, len(rows))
	for _, row := range rows {
		out = append(out, Fueling{
			ID:        uuidString(row.ID),
			VehicleID: uuidString(row.VehicleID),
			Date:      datePtr(row.Date),
			Liters:    row.Liters.Float64,
			Total:     numericToDecimal(row.Total),
		})
	}
	return out
}

func receivablesFromRows(rows []analyticsdb.ReceivableRow) []Receivable {
	out := make([]Receivable, 0, len(rows))
	for _, row := range rows {
		out = append(out, Receivable{
			ID:         uuidString(row.ID),
			ClientName: row.ClientName.String,
			DueDate:    datePtr(row.DueDate),
			Amount:     numericToDecimal(row.Amount),
		})
	}
	return out
}

func payablesFromRows(rows []analyticsdb.PayableRow) []Payable {
	out := make([]Payable, 0, len(rows))
	for _, row := range rows {
		out = append(out, Payable{
			ID:       uuidString(row.ID),
			Supplier: row.Supplier.String,
			Category: row.Category.String,
			DueDate:  datePtr(row.DueDate),
			Amount:   numericToDecimal(row.Amount),
		})
	}
	return out
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func timestampPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid || ts.InfinityModifier != pgtype.Finite {
		return nil
	}
	t := ts.Time
	return &t
}

func datePtr(d pgtype.Date) *time.Time {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return nil
	}
	t := d.Time
	return &t
}

func float8Ptr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// numericToDecimal treats NULL, NaN and infinities as absent.
func numericToDecimal(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromBigInt(n.Int, n.Exp))
}
