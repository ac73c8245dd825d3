package routes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/fretehub/fretehub/internal/platform/db"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	db.Beginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes routes in Postgres.
type Repository struct {
	pool DB
}

// NewRepository wraps pool.
func NewRepository(pool DB) *Repository {
	return &Repository{pool: pool}
}

const getRoute = `
SELECT id, nome, origem_cidade, origem_estado, destino_cidade, destino_estado,
       km_planejado, pedagio_planejado, tempo_ciclo_esperado_horas
FROM rotas
WHERE id = $1`

const listRouteStations = `
SELECT p.id, p.nome, p.localidade, p.referencia, rp.ordem
FROM rota_postos rp
JOIN postos_abastecimento p ON p.id = rp.posto_id
WHERE rp.rota_id = $1
ORDER BY rp.ordem`

// Get loads a route with its stations in stop order.
func (r *Repository) Get(ctx context.Context, routeID uuid.UUID) (Route, error) {
	var (
		id                            pgtype.UUID
		name, originCity, originState pgtype.Text
		destCity, destState           pgtype.Text
		km, cycle                     pgtype.Float8
		toll                          pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, getRoute, routeID).Scan(&id, &name, &originCity, &originState, &destCity, &destState, &km, &toll, &cycle)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, ErrNotFound
	}
	if err != nil {
		return Route{}, fmt.Errorf("routes: get %s: %w", routeID, err)
	}
	route := Route{
		ID:                 uuid.UUID(id.Bytes).String(),
		Name:               name.String,
		Origin:             Place{City: originCity.String, State: originState.String},
		Destination:        Place{City: destCity.String, State: destState.String},
		PlannedKm:          floatPtr(km),
		PlannedToll:        numeric(toll),
		ExpectedCycleHours: floatPtr(cycle),
	}

	rows, err := r.pool.Query(ctx, listRouteStations, routeID)
	if err != nil {
		return Route{}, fmt.Errorf("routes: stations of %s: %w", routeID, err)
	}
	defer rows.Close()
	route.Stations = make([]FuelStation, 0)
	for rows.Next() {
		var (
			sid                        pgtype.UUID
			sname, location, reference pgtype.Text
			order                      int32
		)
		if err := rows.Scan(&sid, &sname, &location, &reference, &order); err != nil {
			return Route{}, err
		}
		route.Stations = append(route.Stations, FuelStation{
			ID:        uuid.UUID(sid.Bytes).String(),
			Name:      sname.String,
			Location:  location.String,
			Reference: reference.String,
			Order:     int(order),
		})
	}
	if err := rows.Err(); err != nil {
		return Route{}, err
	}
	return route, nil
}

// ReplaceStations swaps the route's station list for stationIDs in one
// transaction. Order follows the slice index.
func (r *Repository) ReplaceStations(ctx context.Context, routeID uuid.UUID, stationIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rotas WHERE id = $1 FOR UPDATE)`, routeID).Scan(&exists); err != nil {
			return fmt.Errorf("routes: lock %s: %w", routeID, err)
		}
		if !exists {
			return ErrNotFound
		}

		if len(stationIDs) > 0 {
			var known int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM postos_abastecimento WHERE id = ANY($1)`, stationIDs).Scan(&known); err != nil {
				return fmt.Errorf("routes: check stations: %w", err)
			}
			if known != len(stationIDs) {
				return ErrUnknownStation
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM rota_postos WHERE rota_id = $1`, routeID); err != nil {
			return fmt.Errorf("routes: clear stations: %w", err)
		}
		if len(stationIDs) == 0 {
			return nil
		}
		rows := make([][]any, 0, len(stationIDs))
		for i, sid := range stationIDs {
			rows = append(rows, []any{routeID, sid, int32(i)})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"rota_postos"}, []string{"rota_id", "posto_id", "ordem"}, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("routes: insert stations: %w", err)
		}
		return nil
	})
}

func floatPtr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func numeric(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromBigInt(n.Int, n.Exp))
}
