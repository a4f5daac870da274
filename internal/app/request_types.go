package app

import (
	"github.com/shopspring/decimal"

	"farm-manager/internal/core"
)

// PlanTaskRequest is the input for planning a new field task.
type PlanTaskRequest struct {
	PlotID      int
	Category    core.TaskCategory
	TaskType    string
	PlanDate    string
	Description string
	Comment     string
}

// StartTaskRequest is the input for starting a planned task.
type StartTaskRequest struct {
	StartDate    string
	WorkerIDs    []int
	EquipmentIDs []int
	Stock        *core.StockLink
}

// CompleteTaskRequest is the input for completing a task. The stock fields
// override whatever the task already carries; nil/zero means "keep".
type CompleteTaskRequest struct {
	EndDate     string
	WarehouseID *int
	ObjectID    *int
	Quantity    decimal.Decimal
	Unit        string
	RecordedBy  string
}

// ManualMovementRequest is the input for a ledger entry recorded outside the
// task flow.
type ManualMovementRequest struct {
	WarehouseID int
	Kind        core.OperationKind
	ObjectKind  core.ObjectKind
	ObjectID    int
	Date        string
	Quantity    decimal.Decimal
	Unit        string
	Reason      string
	Comment     string
	RecordedBy  string
}
