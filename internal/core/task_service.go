package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreateTaskInput carries the fields of a newly planned field task.
type CreateTaskInput struct {
	PlotID      int
	Category    TaskCategory
	TaskType    string
	PlanDate    string // YYYY-MM-DD
	Description string
	Comment     string
}

// StartTaskInput assigns resources when a planned task begins. Stock may
// pre-bind the warehouse movement the completion will execute; it can still
// be supplied or overridden at completion time.
type StartTaskInput struct {
	WorkerIDs    []int
	EquipmentIDs []int
	StartDate    string // YYYY-MM-DD
	Stock        *StockLink
}

// CompletionData supplies or overrides the stock movement parameters at
// completion time. Nil pointers and zero Quantity mean "use what the task
// already carries".
type CompletionData struct {
	WarehouseID *int
	ObjectID    *int
	Quantity    decimal.Decimal
	Unit        string
	RecordedBy  string
}

// TaskService manages the field-task lifecycle:
//
//	planned → in_progress → completed
//	planned → cancelled
//	in_progress → cancelled
//
// Completion runs the category's effect (stock movement, harvest record,
// plot status/crop update) atomically with the status flip: either all land
// or none do.
type TaskService interface {
	CreateTask(ctx context.Context, in CreateTaskInput) (*FieldTask, error)
	// StartTask transitions planned → in_progress, assigns workers and
	// equipment, and projects the plot's interim status.
	StartTask(ctx context.Context, taskID int, in StartTaskInput) (*FieldTask, error)
	// CompleteTask transitions in_progress → completed (or planned →
	// completed for categories exempt from an explicit start) and executes
	// the completion effect. Stock failures (ErrInsufficientStock,
	// ErrCapacityExceeded) are surfaced unchanged and leave the task in its
	// prior status.
	CompleteTask(ctx context.Context, taskID int, endDate string, data CompletionData) (*FieldTask, error)
	// CancelTask transitions planned or in_progress → cancelled. A
	// cancelled task never produced a stock movement, so nothing is
	// reversed.
	CancelTask(ctx context.Context, taskID int) (*FieldTask, error)

	GetTask(ctx context.Context, taskID int) (*FieldTask, error)
	ListTasks(ctx context.Context, plotID *int, status *TaskStatus) ([]FieldTask, error)
}

type taskService struct {
	pool  *pgxpool.Pool
	stock StockService
}

func NewTaskService(pool *pgxpool.Pool, stock StockService) TaskService {
	return &taskService{pool: pool, stock: stock}
}

func (s *taskService) CreateTask(ctx context.Context, in CreateTaskInput) (*FieldTask, error) {
	if !ValidTaskType(in.Category, in.TaskType) {
		return nil, fmt.Errorf("task type %q is not valid for category %q", in.TaskType, in.Category)
	}

	var plotID int
	err := s.pool.QueryRow(ctx, "SELECT id FROM plots WHERE id = $1", in.PlotID).Scan(&plotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("plot %d not found", in.PlotID)
		}
		return nil, fmt.Errorf("failed to verify plot %d: %w", in.PlotID, err)
	}

	var taskID int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO field_tasks (plot_id, category, task_type, status, plan_date, description, comment)
		VALUES ($1, $2, $3, 'planned', $4, $5, $6)
		RETURNING id
	`, in.PlotID, in.Category, in.TaskType, in.PlanDate, in.Description, in.Comment).Scan(&taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert field task: %w", err)
	}

	return s.GetTask(ctx, taskID)
}

func (s *taskService) StartTask(ctx context.Context, taskID int, in StartTaskInput) (*FieldTask, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockTask(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if hdr.status != TaskPlanned {
		return nil, domainErrorf(KindInvalidTransition,
			"task %d cannot be started: status is %s (must be planned)", taskID, hdr.status)
	}

	if in.Stock != nil {
		eff := CompletionEffectFor(hdr.category, hdr.taskType)
		if !eff.RequiresMovement() {
			return nil, fmt.Errorf("task %d (%s/%s) does not take a stock link", taskID, hdr.category, hdr.taskType)
		}
		if in.Stock.ObjectKind != eff.Movement.ObjectKind {
			return nil, fmt.Errorf("task %d expects a %s stock link, got %s",
				taskID, eff.Movement.ObjectKind, in.Stock.ObjectKind)
		}
		_, err = tx.Exec(ctx, `
			UPDATE field_tasks
			SET warehouse_id = $1, object_kind = $2, object_id = $3, quantity = $4, unit = $5
			WHERE id = $6
		`, in.Stock.WarehouseID, in.Stock.ObjectKind, in.Stock.ObjectID, in.Stock.Quantity, in.Stock.Unit, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to store stock link for task %d: %w", taskID, err)
		}
	}

	for i, workerID := range in.WorkerIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO field_task_workers (task_id, worker_id, ordinal) VALUES ($1, $2, $3)",
			taskID, workerID, i+1,
		); err != nil {
			return nil, fmt.Errorf("failed to assign worker %d to task %d: %w", workerID, taskID, err)
		}
	}
	for i, equipmentID := range in.EquipmentIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO field_task_equipment (task_id, equipment_id, ordinal) VALUES ($1, $2, $3)",
			taskID, equipmentID, i+1,
		); err != nil {
			return nil, fmt.Errorf("failed to assign equipment %d to task %d: %w", equipmentID, taskID, err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE field_tasks
		SET status = 'in_progress', start_date = $1, updated_at = NOW()
		WHERE id = $2
	`, in.StartDate, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to start task %d: %w", taskID, err)
	}

	// Project the plot's interim status inside the same transaction.
	interim := StartStatusFor(hdr.category, hdr.taskType)
	if _, err := tx.Exec(ctx,
		"UPDATE plots SET status = $1, updated_at = NOW() WHERE id = $2",
		interim, hdr.plotID,
	); err != nil {
		return nil, fmt.Errorf("failed to project plot %d status: %w", hdr.plotID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit start task: %w", err)
	}

	return s.GetTask(ctx, taskID)
}

func (s *taskService) CompleteTask(ctx context.Context, taskID int, endDate string, data CompletionData) (*FieldTask, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockTask(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	switch hdr.status {
	case TaskInProgress:
		// normal path
	case TaskPlanned:
		if !CanCompleteWithoutStart(hdr.category, hdr.taskType) {
			return nil, domainErrorf(KindInvalidTransition,
				"task %d (%s/%s) must be started before completion", taskID, hdr.category, hdr.taskType)
		}
	default:
		return nil, domainErrorf(KindInvalidTransition,
			"task %d cannot be completed: status is %s (terminal)", taskID, hdr.status)
	}

	eff := CompletionEffectFor(hdr.category, hdr.taskType)

	var movedObjectName string
	var movedQuantity decimal.Decimal
	if eff.RequiresMovement() {
		link, err := hdr.effectiveStock(data)
		if err != nil {
			return nil, err
		}

		// Persist the effective parameters back onto the task before moving
		// stock, so the ledger entry and the task row agree.
		_, err = tx.Exec(ctx, `
			UPDATE field_tasks
			SET warehouse_id = $1, object_kind = $2, object_id = $3, quantity = $4, unit = $5
			WHERE id = $6
		`, link.WarehouseID, link.ObjectKind, link.ObjectID, link.Quantity, link.Unit, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock link for task %d: %w", taskID, err)
		}

		// A stock failure aborts the whole transaction: the task keeps its
		// prior status and no ledger entry survives. The error is surfaced
		// to the caller unchanged.
		_, err = s.stock.RecordMovementTx(ctx, tx, MovementInput{
			WarehouseID: link.WarehouseID,
			Kind:        eff.Movement.Kind,
			ObjectKind:  link.ObjectKind,
			ObjectID:    link.ObjectID,
			Date:        endDate,
			Quantity:    link.Quantity,
			Unit:        link.Unit,
			Reason:      fmt.Sprintf("%s/%s", hdr.category, hdr.taskType),
			RecordedBy:  data.RecordedBy,
			PlotID:      &hdr.plotID,
			TaskID:      &taskID,
		})
		if err != nil {
			return nil, err
		}

		movedObjectName, err = resolveObjectName(ctx, tx, link.ObjectKind, link.ObjectID)
		if err != nil {
			return nil, err
		}
		movedQuantity = link.Quantity
	}

	if eff.RecordHarvest {
		if _, err := tx.Exec(ctx, `
			INSERT INTO harvests (plot_id, task_id, harvest_date, culture, amount)
			VALUES ($1, $2, $3, $4, $5)
		`, hdr.plotID, taskID, endDate, movedObjectName, movedQuantity); err != nil {
			return nil, fmt.Errorf("failed to record harvest for plot %d: %w", hdr.plotID, err)
		}
	}

	if eff.PlotStatus != "" {
		if eff.SetCrop {
			_, err = tx.Exec(ctx,
				"UPDATE plots SET status = $1, crop = $2, updated_at = NOW() WHERE id = $3",
				eff.PlotStatus, movedObjectName, hdr.plotID)
		} else {
			_, err = tx.Exec(ctx,
				"UPDATE plots SET status = $1, updated_at = NOW() WHERE id = $2",
				eff.PlotStatus, hdr.plotID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to project plot %d status: %w", hdr.plotID, err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE field_tasks
		SET status = 'completed', end_date = $1, updated_at = NOW()
		WHERE id = $2
	`, endDate, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task %d: %w", taskID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit complete task: %w", err)
	}

	return s.GetTask(ctx, taskID)
}

func (s *taskService) CancelTask(ctx context.Context, taskID int) (*FieldTask, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hdr, err := lockTask(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if hdr.status != TaskPlanned && hdr.status != TaskInProgress {
		return nil, domainErrorf(KindInvalidTransition,
			"task %d cannot be cancelled: status is %s", taskID, hdr.status)
	}

	_, err = tx.Exec(ctx,
		"UPDATE field_tasks SET status = 'cancelled', updated_at = NOW() WHERE id = $1",
		taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel task %d: %w", taskID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancel task: %w", err)
	}

	return s.GetTask(ctx, taskID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *taskService) GetTask(ctx context.Context, taskID int) (*FieldTask, error) {
	t, err := fetchTaskQ(ctx, s.pool, taskID)
	if err != nil {
		return nil, err
	}

	t.WorkerIDs, err = fetchAssignedIDs(ctx, s.pool, "field_task_workers", "worker_id", taskID)
	if err != nil {
		return nil, err
	}
	t.EquipmentIDs, err = fetchAssignedIDs(ctx, s.pool, "field_task_equipment", "equipment_id", taskID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *taskService) ListTasks(ctx context.Context, plotID *int, status *TaskStatus) ([]FieldTask, error) {
	query := taskSelect + " WHERE 1=1"
	var args []any
	if plotID != nil {
		args = append(args, *plotID)
		query += fmt.Sprintf(" AND plot_id = $%d", len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY plan_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []FieldTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

// ── Internals ────────────────────────────────────────────────────────────────

// taskHeader is the locked slice of a task row needed for a transition.
type taskHeader struct {
	plotID   int
	category TaskCategory
	taskType string
	status   TaskStatus

	warehouseID *int
	objectKind  *ObjectKind
	objectID    *int
	quantity    *decimal.Decimal
	unit        *string
}

func lockTask(ctx context.Context, tx pgx.Tx, taskID int) (*taskHeader, error) {
	var h taskHeader
	err := tx.QueryRow(ctx, `
		SELECT plot_id, category, task_type, status,
		       warehouse_id, object_kind, object_id, quantity, unit
		FROM field_tasks WHERE id = $1 FOR UPDATE
	`, taskID).Scan(&h.plotID, &h.category, &h.taskType, &h.status,
		&h.warehouseID, &h.objectKind, &h.objectID, &h.quantity, &h.unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("task %d not found", taskID)
		}
		return nil, fmt.Errorf("failed to fetch task %d: %w", taskID, err)
	}
	return &h, nil
}

// effectiveStock merges the stock link stored on the task with completion
// overrides and validates that everything a movement needs is present.
func (h *taskHeader) effectiveStock(data CompletionData) (*StockLink, error) {
	link := StockLink{ObjectKind: CompletionEffectFor(h.category, h.taskType).Movement.ObjectKind}

	switch {
	case data.WarehouseID != nil:
		link.WarehouseID = *data.WarehouseID
	case h.warehouseID != nil:
		link.WarehouseID = *h.warehouseID
	}
	switch {
	case data.ObjectID != nil:
		link.ObjectID = *data.ObjectID
	case h.objectID != nil:
		link.ObjectID = *h.objectID
	}
	switch {
	case data.Quantity.IsPositive():
		link.Quantity = data.Quantity
	case h.quantity != nil:
		link.Quantity = *h.quantity
	}
	switch {
	case data.Unit != "":
		link.Unit = data.Unit
	case h.unit != nil:
		link.Unit = *h.unit
	default:
		link.Unit = "t"
	}

	if link.WarehouseID == 0 || link.ObjectID == 0 || !link.Quantity.IsPositive() {
		return nil, domainErrorf(KindMissingStockParameters,
			"task requires a %s movement but warehouse/object/quantity are not fully specified",
			link.ObjectKind)
	}
	return &link, nil
}

const taskSelect = `
	SELECT id, plot_id, category, task_type, status,
	       plan_date::text, start_date::text, end_date::text,
	       description, comment,
	       warehouse_id, object_kind, object_id, quantity, unit,
	       created_at, updated_at
	FROM field_tasks
`

type pgxRowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row pgxRowScanner) (*FieldTask, error) {
	var t FieldTask
	var warehouseID, objectID *int
	var objectKind *ObjectKind
	var quantity *decimal.Decimal
	var unit *string
	if err := row.Scan(
		&t.ID, &t.PlotID, &t.Category, &t.TaskType, &t.Status,
		&t.PlanDate, &t.StartDate, &t.EndDate,
		&t.Description, &t.Comment,
		&warehouseID, &objectKind, &objectID, &quantity, &unit,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	if warehouseID != nil && objectKind != nil && objectID != nil && quantity != nil {
		u := "t"
		if unit != nil {
			u = *unit
		}
		t.Stock = &StockLink{
			WarehouseID: *warehouseID,
			ObjectKind:  *objectKind,
			ObjectID:    *objectID,
			Quantity:    *quantity,
			Unit:        u,
		}
	}
	return &t, nil
}

func fetchTaskQ(ctx context.Context, q querier, taskID int) (*FieldTask, error) {
	t, err := scanTask(q.QueryRow(ctx, taskSelect+" WHERE id = $1", taskID))
	if err != nil {
		// pgx surfaces ErrNoRows through Scan.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("task %d not found", taskID)
		}
		return nil, err
	}
	return t, nil
}

func fetchAssignedIDs(ctx context.Context, q querier, table, column string, taskID int) ([]int, error) {
	rows, err := q.Query(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE task_id = $1 ORDER BY ordinal", column, table),
		taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return ids, nil
}
