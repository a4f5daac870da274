package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers inside and outside transactions.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// MovementInput describes one quantity movement to append to the ledger.
type MovementInput struct {
	WarehouseID int
	Kind        OperationKind
	ObjectKind  ObjectKind
	ObjectID    int
	Date        string // YYYY-MM-DD
	Quantity    decimal.Decimal
	Unit        string
	Reason      string
	Comment     string
	RecordedBy  string
	PlotID      *int
	TaskID      *int
}

// HistoryFilter narrows a ledger history query. Zero values mean "any".
type HistoryFilter struct {
	ObjectKind ObjectKind
	ObjectID   int
	Kind       OperationKind
	DateFrom   string
	DateTo     string
}

// StockService maintains the append-only warehouse ledger and answers
// net-stock queries. The check-then-append sequence of RecordMovement is a
// single transaction: no entry violating the stock or capacity invariant is
// ever committed, even transiently.
type StockService interface {
	// RecordMovement appends one ledger entry in its own transaction.
	// Fails with ErrInsufficientStock when an outgoing quantity exceeds the
	// object's net stock, and with ErrCapacityExceeded when an incoming
	// quantity would push the warehouse's total net stock past capacity.
	RecordMovement(ctx context.Context, in MovementInput) (int64, error)
	// RecordMovementTx is the Tx-scoped variant used by the task
	// orchestrator to keep the movement atomic with task and plot updates.
	RecordMovementTx(ctx context.Context, tx pgx.Tx, in MovementInput) (int64, error)
	// CurrentStock returns incoming minus outgoing for one object in one
	// warehouse; zero when no entries exist.
	CurrentStock(ctx context.Context, warehouseID int, objectKind ObjectKind, objectID int) (decimal.Decimal, error)
	// TotalStock returns the net stock summed across all objects in the
	// warehouse.
	TotalStock(ctx context.Context, warehouseID int) (decimal.Decimal, error)
	// History returns ledger entries for a warehouse, newest date first,
	// same-date entries most recently inserted first.
	History(ctx context.Context, warehouseID int, filter HistoryFilter) ([]LedgerEntry, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

func (s *stockService) RecordMovement(ctx context.Context, in MovementInput) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := s.RecordMovementTx(ctx, tx, in)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit stock movement: %w", err)
	}
	return id, nil
}

func (s *stockService) RecordMovementTx(ctx context.Context, tx pgx.Tx, in MovementInput) (int64, error) {
	if !in.Quantity.IsPositive() {
		return 0, fmt.Errorf("movement quantity must be positive, got %s", in.Quantity)
	}
	if in.Kind != OperationIncoming && in.Kind != OperationOutgoing {
		return 0, fmt.Errorf("unknown operation kind %q", in.Kind)
	}

	// Lock the warehouse row: serializes the check-then-append sequence and
	// pins the capacity value for the duration of the transaction.
	var capacity decimal.Decimal
	var whType WarehouseType
	err := tx.QueryRow(ctx,
		"SELECT capacity, warehouse_type FROM warehouses WHERE id = $1 FOR UPDATE",
		in.WarehouseID,
	).Scan(&capacity, &whType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFoundf("warehouse %d not found", in.WarehouseID)
		}
		return 0, fmt.Errorf("failed to lock warehouse %d: %w", in.WarehouseID, err)
	}

	if !storable(whType, in.ObjectKind) {
		return 0, fmt.Errorf("warehouse %d (%s) cannot store objects of kind %s", in.WarehouseID, whType, in.ObjectKind)
	}

	objectName, err := resolveObjectName(ctx, tx, in.ObjectKind, in.ObjectID)
	if err != nil {
		return 0, err
	}

	switch in.Kind {
	case OperationOutgoing:
		net, err := currentStockQ(ctx, tx, in.WarehouseID, in.ObjectKind, in.ObjectID)
		if err != nil {
			return 0, err
		}
		if in.Quantity.GreaterThan(net) {
			return 0, domainErrorf(KindInsufficientStock,
				"insufficient stock of %s in warehouse %d: have %s, need %s",
				objectName, in.WarehouseID, net.String(), in.Quantity.String())
		}
	case OperationIncoming:
		total, err := totalStockQ(ctx, tx, in.WarehouseID)
		if err != nil {
			return 0, err
		}
		if total.Add(in.Quantity).GreaterThan(capacity) {
			return 0, domainErrorf(KindCapacityExceeded,
				"warehouse %d capacity exceeded: capacity %s, current %s, incoming %s",
				in.WarehouseID, capacity.String(), total.String(), in.Quantity.String())
		}
	}

	var entryID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO warehouse_operations
			(warehouse_id, operation_kind, object_kind, object_id, op_date,
			 quantity, unit, reason, comment, recorded_by, plot_id, task_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, in.WarehouseID, in.Kind, in.ObjectKind, in.ObjectID, in.Date,
		in.Quantity, in.Unit, in.Reason, in.Comment, in.RecordedBy, in.PlotID, in.TaskID,
	).Scan(&entryID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return entryID, nil
}

func (s *stockService) CurrentStock(ctx context.Context, warehouseID int, objectKind ObjectKind, objectID int) (decimal.Decimal, error) {
	return currentStockQ(ctx, s.pool, warehouseID, objectKind, objectID)
}

func (s *stockService) TotalStock(ctx context.Context, warehouseID int) (decimal.Decimal, error) {
	return totalStockQ(ctx, s.pool, warehouseID)
}

func (s *stockService) History(ctx context.Context, warehouseID int, filter HistoryFilter) ([]LedgerEntry, error) {
	query := `
		SELECT wo.id, wo.warehouse_id, wo.operation_kind, wo.object_kind, wo.object_id,
		       COALESCE(c.name, f.name, ''),
		       wo.op_date::text, wo.quantity, wo.unit, wo.reason, wo.comment,
		       wo.recorded_by, wo.plot_id, wo.task_id, wo.created_at
		FROM warehouse_operations wo
		LEFT JOIN crops c       ON wo.object_kind = 'crop'       AND c.id = wo.object_id
		LEFT JOIN fertilizers f ON wo.object_kind = 'fertilizer' AND f.id = wo.object_id
		WHERE wo.warehouse_id = $1
	`
	args := []any{warehouseID}

	if filter.ObjectKind != "" {
		args = append(args, filter.ObjectKind)
		query += fmt.Sprintf(" AND wo.object_kind = $%d", len(args))
	}
	if filter.ObjectID != 0 {
		args = append(args, filter.ObjectID)
		query += fmt.Sprintf(" AND wo.object_id = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND wo.operation_kind = $%d", len(args))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		query += fmt.Sprintf(" AND wo.op_date >= $%d", len(args))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		query += fmt.Sprintf(" AND wo.op_date <= $%d", len(args))
	}
	query += " ORDER BY wo.op_date DESC, wo.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger history: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.WarehouseID, &e.Kind, &e.ObjectKind, &e.ObjectID,
			&e.ObjectName, &e.Date, &e.Quantity, &e.Unit, &e.Reason, &e.Comment,
			&e.RecordedBy, &e.PlotID, &e.TaskID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger history: %w", err)
	}
	return entries, nil
}

// storable reports whether a warehouse of the given type may hold objects
// of the given kind: fertilizer stores hold fertilizers, grain and
// vegetable stores hold crops.
func storable(whType WarehouseType, kind ObjectKind) bool {
	if kind == ObjectFertilizer {
		return whType == FertilizerStore
	}
	return whType == GrainStore || whType == VegetableStore
}

func resolveObjectName(ctx context.Context, q querier, kind ObjectKind, id int) (string, error) {
	table := "crops"
	if kind == ObjectFertilizer {
		table = "fertilizers"
	}
	var name string
	err := q.QueryRow(ctx, fmt.Sprintf("SELECT name FROM %s WHERE id = $1", table), id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", notFoundf("%s %d not found", kind, id)
		}
		return "", fmt.Errorf("failed to resolve %s %d: %w", kind, id, err)
	}
	return name, nil
}

func currentStockQ(ctx context.Context, q querier, warehouseID int, objectKind ObjectKind, objectID int) (decimal.Decimal, error) {
	var net decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN operation_kind = 'incoming' THEN quantity ELSE -quantity END), 0)
		FROM warehouse_operations
		WHERE warehouse_id = $1 AND object_kind = $2 AND object_id = $3
	`, warehouseID, objectKind, objectID).Scan(&net)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute current stock: %w", err)
	}
	return net, nil
}

func totalStockQ(ctx context.Context, q querier, warehouseID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN operation_kind = 'incoming' THEN quantity ELSE -quantity END), 0)
		FROM warehouse_operations
		WHERE warehouse_id = $1
	`, warehouseID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute total stock: %w", err)
	}
	return total, nil
}
