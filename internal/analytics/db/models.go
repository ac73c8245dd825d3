package analyticsdb

import "github.com/jackc/pgx/v5/pgtype"

type TripRow struct {
	ID           pgtype.UUID
	StartDate    pgtype.Timestamptz
	ClientName   pgtype.Text
	RouteName    pgtype.Text
	VehiclePlate pgtype.Text
	DriverName   pgtype.Text
	FreightValue pgtype.Numeric
	ActualKm     pgtype.Float8
	VolumeTons   pgtype.Float8
	Status       pgtype.Text
}

type ListTripsParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

type CostRow struct {
	ID       pgtype.UUID
	TripID   pgtype.UUID
	Date     pgtype.Date
	Category pgtype.Text
	Amount   pgtype.Numeric
}

type ListCostsParams struct {
	From pgtype.Date
	To   pgtype.Date
}

type FuelingRow struct {
	ID        pgtype.UUID
	VehicleID pgtype.UUID
	Date      pgtype.Date
	Liters    pgtype.Float8
	Total     pgtype.Numeric
}

type ListFuelingsParams struct {
	From pgtype.Date
	To   pgtype.Date
}

type ReceivableRow struct {
	ID         pgtype.UUID
	ClientName pgtype.Text
	DueDate    pgtype.Date
	Amount     pgtype.Numeric
}

type PayableRow struct {
	ID       pgtype.UUID
	Supplier pgtype.Text
	Category pgtype.Text
	DueDate  pgtype.Date
	Amount   pgtype.Numeric
}
