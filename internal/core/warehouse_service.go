package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// WarehouseInput carries the editable fields of a warehouse.
type WarehouseInput struct {
	Name          string
	Address       string
	Type          WarehouseType
	StorageMethod string
	Capacity      decimal.Decimal
	CapacityUnit  string
}

// WarehouseUtilization is a read view of how full a warehouse is.
type WarehouseUtilization struct {
	WarehouseID   int
	WarehouseName string
	Type          WarehouseType
	Capacity      decimal.Decimal
	Used          decimal.Decimal
	Free          decimal.Decimal
	Unit          string
}

// WarehouseService manages warehouse master data and per-object stock views.
// The ledger itself is owned by StockService.
type WarehouseService interface {
	CreateWarehouse(ctx context.Context, in WarehouseInput) (*Warehouse, error)
	UpdateWarehouse(ctx context.Context, warehouseID int, in WarehouseInput) (*Warehouse, error)
	// DeleteWarehouse removes the warehouse and, by cascade, its entire
	// ledger. The desktop tool this replaces confirmed this with the user;
	// callers here are expected to do the same.
	DeleteWarehouse(ctx context.Context, warehouseID int) error
	GetWarehouse(ctx context.Context, warehouseID int) (*Warehouse, error)
	ListWarehouses(ctx context.Context) ([]Warehouse, error)

	// StockLevels lists the net stock of every object ever moved through the
	// warehouse, including objects whose net is back to zero.
	StockLevels(ctx context.Context, warehouseID int) ([]StockLevel, error)
	// Utilization reports capacity usage for every warehouse.
	Utilization(ctx context.Context) ([]WarehouseUtilization, error)
}

type warehouseService struct {
	pool *pgxpool.Pool
}

func NewWarehouseService(pool *pgxpool.Pool) WarehouseService {
	return &warehouseService{pool: pool}
}

func validWarehouseType(t WarehouseType) bool {
	switch t {
	case GrainStore, VegetableStore, FertilizerStore:
		return true
	}
	return false
}

func (s *warehouseService) CreateWarehouse(ctx context.Context, in WarehouseInput) (*Warehouse, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("warehouse name is required")
	}
	if !validWarehouseType(in.Type) {
		return nil, fmt.Errorf("unknown warehouse type %q", in.Type)
	}
	if !in.Capacity.IsPositive() {
		return nil, fmt.Errorf("warehouse capacity must be positive, got %s", in.Capacity)
	}
	unit := in.CapacityUnit
	if unit == "" {
		unit = "t"
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (name, address, warehouse_type, storage_method, capacity, capacity_unit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, in.Name, in.Address, in.Type, in.StorageMethod, in.Capacity, unit).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert warehouse: %w", err)
	}
	return s.GetWarehouse(ctx, id)
}

func (s *warehouseService) UpdateWarehouse(ctx context.Context, warehouseID int, in WarehouseInput) (*Warehouse, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("warehouse name is required")
	}
	if !validWarehouseType(in.Type) {
		return nil, fmt.Errorf("unknown warehouse type %q", in.Type)
	}
	if !in.Capacity.IsPositive() {
		return nil, fmt.Errorf("warehouse capacity must be positive, got %s", in.Capacity)
	}

	// Shrinking capacity below current stock would break the capacity
	// invariant for all future incoming movements without invalidating the
	// ledger, so it is refused outright.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx, "SELECT id FROM warehouses WHERE id = $1 FOR UPDATE", warehouseID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("warehouse %d not found", warehouseID)
		}
		return nil, fmt.Errorf("failed to lock warehouse %d: %w", warehouseID, err)
	}

	total, err := totalStockQ(ctx, tx, warehouseID)
	if err != nil {
		return nil, err
	}
	if in.Capacity.LessThan(total) {
		return nil, domainErrorf(KindCapacityExceeded,
			"cannot set capacity of warehouse %d to %s: current stock is %s",
			warehouseID, in.Capacity.String(), total.String())
	}

	unit := in.CapacityUnit
	if unit == "" {
		unit = "t"
	}
	_, err = tx.Exec(ctx, `
		UPDATE warehouses
		SET name = $1, address = $2, warehouse_type = $3, storage_method = $4,
		    capacity = $5, capacity_unit = $6
		WHERE id = $7
	`, in.Name, in.Address, in.Type, in.StorageMethod, in.Capacity, unit, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to update warehouse %d: %w", warehouseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit warehouse update: %w", err)
	}
	return s.GetWarehouse(ctx, warehouseID)
}

func (s *warehouseService) DeleteWarehouse(ctx context.Context, warehouseID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM warehouses WHERE id = $1", warehouseID)
	if err != nil {
		return fmt.Errorf("failed to delete warehouse %d: %w", warehouseID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("warehouse %d not found", warehouseID)
	}
	return nil
}

const warehouseSelect = `
	SELECT id, name, address, warehouse_type, storage_method, capacity, capacity_unit, created_at
	FROM warehouses
`

func scanWarehouse(row pgxRowScanner) (*Warehouse, error) {
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.Address, &w.Type, &w.StorageMethod,
		&w.Capacity, &w.CapacityUnit, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *warehouseService) GetWarehouse(ctx context.Context, warehouseID int) (*Warehouse, error) {
	w, err := scanWarehouse(s.pool.QueryRow(ctx, warehouseSelect+" WHERE id = $1", warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("warehouse %d not found", warehouseID)
		}
		return nil, fmt.Errorf("failed to fetch warehouse %d: %w", warehouseID, err)
	}
	return w, nil
}

func (s *warehouseService) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := s.pool.Query(ctx, warehouseSelect+" ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read warehouses: %w", err)
	}
	return warehouses, nil
}

func (s *warehouseService) StockLevels(ctx context.Context, warehouseID int) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT wo.warehouse_id, w.name, wo.object_kind, wo.object_id,
		       COALESCE(c.name, f.name, ''),
		       SUM(CASE WHEN wo.operation_kind = 'incoming' THEN wo.quantity ELSE -wo.quantity END),
		       MIN(wo.unit)
		FROM warehouse_operations wo
		JOIN warehouses w       ON w.id = wo.warehouse_id
		LEFT JOIN crops c       ON wo.object_kind = 'crop'       AND c.id = wo.object_id
		LEFT JOIN fertilizers f ON wo.object_kind = 'fertilizer' AND f.id = wo.object_id
		WHERE wo.warehouse_id = $1
		GROUP BY wo.warehouse_id, w.name, wo.object_kind, wo.object_id, c.name, f.name
		ORDER BY wo.object_kind, COALESCE(c.name, f.name, '')
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var l StockLevel
		if err := rows.Scan(&l.WarehouseID, &l.WarehouseName, &l.ObjectKind,
			&l.ObjectID, &l.ObjectName, &l.Net, &l.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock levels: %w", err)
	}
	return levels, nil
}

func (s *warehouseService) Utilization(ctx context.Context) ([]WarehouseUtilization, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT w.id, w.name, w.warehouse_type, w.capacity, w.capacity_unit,
		       COALESCE(SUM(CASE WHEN wo.operation_kind = 'incoming' THEN wo.quantity ELSE -wo.quantity END), 0)
		FROM warehouses w
		LEFT JOIN warehouse_operations wo ON wo.warehouse_id = w.id
		GROUP BY w.id, w.name, w.warehouse_type, w.capacity, w.capacity_unit
		ORDER BY w.name, w.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouse utilization: %w", err)
	}
	defer rows.Close()

	var result []WarehouseUtilization
	for rows.Next() {
		var u WarehouseUtilization
		if err := rows.Scan(&u.WarehouseID, &u.WarehouseName, &u.Type,
			&u.Capacity, &u.Unit, &u.Used); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse utilization: %w", err)
		}
		u.Free = u.Capacity.Sub(u.Used)
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read warehouse utilization: %w", err)
	}
	return result, nil
}
