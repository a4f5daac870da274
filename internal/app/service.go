package app

import (
	"context"

	"farm-manager/internal/ai"
	"farm-manager/internal/core"
)

// ApplicationService is the single interface UI adapters (REPL, CLI) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ListPlots returns all plots with their projected statuses.
	ListPlots(ctx context.Context) (*PlotListResult, error)

	// GetPlotCard returns one plot with its task and harvest history.
	GetPlotCard(ctx context.Context, plotID int) (*PlotCardResult, error)

	// ListTasks returns field tasks, optionally filtered by plot and status.
	ListTasks(ctx context.Context, plotID *int, status *core.TaskStatus) (*TaskListResult, error)

	// PlanTask creates a new planned field task.
	PlanTask(ctx context.Context, req PlanTaskRequest) (*core.FieldTask, error)

	// StartTask transitions a planned task to in_progress with its resource
	// assignments.
	StartTask(ctx context.Context, taskID int, req StartTaskRequest) (*core.FieldTask, error)

	// CompleteTask finishes a task, executing its stock movement, harvest
	// record and plot status update atomically.
	CompleteTask(ctx context.Context, taskID int, req CompleteTaskRequest) (*core.FieldTask, error)

	// CancelTask cancels a planned or running task.
	CancelTask(ctx context.Context, taskID int) (*core.FieldTask, error)

	// GetWarehouseOverview returns every warehouse with its utilization and
	// per-object stock levels.
	GetWarehouseOverview(ctx context.Context) (*WarehouseOverviewResult, error)

	// RecordManualMovement appends a ledger entry outside the task flow
	// (purchases, sales, write-offs).
	RecordManualMovement(ctx context.Context, req ManualMovementRequest) (int64, error)

	// GetSeasonReport aggregates harvests and task activity over a date range.
	GetSeasonReport(ctx context.Context, dateFrom, dateTo string) (*SeasonReportResult, error)

	// ListWorkers returns the worker roster.
	ListWorkers(ctx context.Context) (*WorkerListResult, error)
	CreateWorker(ctx context.Context, in core.WorkerInput) (*core.Worker, error)
	UpdateWorker(ctx context.Context, workerID int, in core.WorkerInput) (*core.Worker, error)
	DeleteWorker(ctx context.Context, workerID int) error

	// ListEquipment returns the machinery fleet.
	ListEquipment(ctx context.Context) (*EquipmentListResult, error)
	CreateEquipment(ctx context.Context, in core.EquipmentInput) (*core.Equipment, error)
	UpdateEquipment(ctx context.Context, equipmentID int, in core.EquipmentInput) (*core.Equipment, error)
	DeleteEquipment(ctx context.Context, equipmentID int) error

	// ListCrops and ListFertilizers return the object catalogs the ledger
	// and task stock links reference.
	ListCrops(ctx context.Context) (*CropListResult, error)
	CreateCrop(ctx context.Context, in core.CropInput) (*core.Crop, error)
	ListFertilizers(ctx context.Context) (*FertilizerListResult, error)
	CreateFertilizer(ctx context.Context, in core.FertilizerInput) (*core.Fertilizer, error)

	// AttachDocument stores a file attachment against a domain entity.
	AttachDocument(ctx context.Context, in core.AttachDocumentInput) (*core.Document, error)
	// ListDocuments returns an entity's attachments without file data.
	ListDocuments(ctx context.Context, entityKind string, entityID int) (*DocumentListResult, error)
	DeleteDocument(ctx context.Context, documentID int) error

	// ProposeTask sends a natural language work description to the AI agent
	// and returns a structured field-task proposal for confirmation.
	ProposeTask(ctx context.Context, text string) (*ai.TaskProposal, error)
}
