package analyticsdb

import (
	"context"
)

const listTrips = `
SELECT v.id,
       v.data_inicio       AS start_date,
       c.nome              AS client_name,
       r.nome              AS route_name,
       ve.placa_cavalo     AS vehicle_plate,
       m.nome              AS driver_name,
       v.valor_frete       AS freight_value,
       v.km_real           AS actual_km,
       v.volume_toneladas  AS volume_tons,
       v.status
FROM viagens v
LEFT JOIN clientes c ON c.id = v.cliente_id
LEFT JOIN rotas r ON r.id = v.rota_id
LEFT JOIN veiculos ve ON ve.id = v.veiculo_id
LEFT JOIN motoristas m ON m.id = v.motorista_id
WHERE v.data_inicio >= $1 AND v.data_inicio < $2
ORDER BY v.data_inicio DESC`

// ListTrips returns trips that started in [From, To).
func (q *Queries) ListTrips(ctx context.Context, arg ListTripsParams) ([]TripRow, error) {
	rows, err := q.db.Query(ctx, listTrips, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]TripRow, 0)
	for rows.Next() {
		var i TripRow
		if err := rows.Scan(
			&i.ID,
			&i.StartDate,
			&i.ClientName,
			&i.RouteName,
			&i.VehiclePlate,
			&i.DriverName,
			&i.FreightValue,
			&i.ActualKm,
			&i.VolumeTons,
			&i.Status,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCosts = `
SELECT id, viagem_id AS trip_id, data AS date, categoria AS category, valor AS amount
FROM custos_viagem
WHERE data >= $1 AND data < $2`

// ListCosts returns cost entries dated in [From, To).
func (q *Queries) ListCosts(ctx context.Context, arg ListCostsParams) ([]CostRow, error) {
	rows, err := q.db.Query(ctx, listCosts, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]CostRow, 0)
	for rows.Next() {
		var i CostRow
		if err := rows.Scan(&i.ID, &i.TripID, &i.Date, &i.Category, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listFuelings = `
SELECT id, veiculo_id AS vehicle_id, data AS date, litros AS liters, valor_total AS total
FROM abastecimentos
WHERE data >= $1 AND data < $2`

// ListFuelings returns fuel purchases dated in [From, To).
func (q *Queries) ListFuelings(ctx context.Context, arg ListFuelingsParams) ([]FuelingRow, error) {
	rows, err := q.db.Query(ctx, listFuelings, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]FuelingRow, 0)
	for rows.Next() {
		var i FuelingRow
		if err := rows.Scan(&i.ID, &i.VehicleID, &i.Date, &i.Liters, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOpenReceivables = `
SELECT cr.id, c.nome AS client_name, cr.data_vencimento AS due_date, cr.valor AS amount
FROM contas_receber cr
LEFT JOIN clientes c ON c.id = cr.cliente_id
WHERE cr.status = 'Em aberto'
ORDER BY cr.data_vencimento`

// ListOpenReceivables returns receivables still awaiting payment.
func (q *Queries) ListOpenReceivables(ctx context.Context) ([]ReceivableRow, error) {
	rows, err := q.db.Query(ctx, listOpenReceivables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]ReceivableRow, 0)
	for rows.Next() {
		var i ReceivableRow
		if err := rows.Scan(&i.ID, &i.ClientName, &i.DueDate, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOpenPayables = `
SELECT id, fornecedor AS supplier, categoria AS category, data_vencimento AS due_date, valor AS amount
FROM contas_pagar
WHERE status = 'Em aberto'
ORDER BY data_vencimento`

// ListOpenPayables returns payables not yet settled.
func (q *Queries) ListOpenPayables(ctx context.Context) ([]PayableRow, error) {
	rows, err := q.db.Query(ctx, listOpenPayables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]PayableRow, 0)
	for rows.Next() {
		var i PayableRow
		if err := rows.Scan(&i.ID, &i.Supplier, &i.Category, &i.DueDate, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countVehicles = `SELECT count(*) FROM veiculos`

// CountActiveVehicles counts the registered fleet.
func (q *Queries) CountActiveVehicles(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countVehicles).Scan(&count)
	return count, err
}

const countStoppedMaintenances = `SELECT count(*) FROM manutencoes WHERE veiculo_parado`

// CountPendingMaintenances counts maintenance orders that keep a vehicle off the road.
func (q *Queries) CountPendingMaintenances(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countStoppedMaintenances).Scan(&count)
	return count, err
}
