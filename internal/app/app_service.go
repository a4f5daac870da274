package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"farm-manager/internal/ai"
	"farm-manager/internal/core"
)

type appService struct {
	pool       *pgxpool.Pool
	plots      core.PlotService
	tasks      core.TaskService
	stock      core.StockService
	warehouses core.WarehouseService
	catalog    core.CatalogService
	workers    core.WorkerService
	equipment  core.EquipmentService
	documents  core.DocumentService
	reporting  core.ReportingService
	agent      *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	plots core.PlotService,
	tasks core.TaskService,
	stock core.StockService,
	warehouses core.WarehouseService,
	catalog core.CatalogService,
	workers core.WorkerService,
	equipment core.EquipmentService,
	documents core.DocumentService,
	reporting core.ReportingService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		pool:       pool,
		plots:      plots,
		tasks:      tasks,
		stock:      stock,
		warehouses: warehouses,
		catalog:    catalog,
		workers:    workers,
		equipment:  equipment,
		documents:  documents,
		reporting:  reporting,
		agent:      agent,
	}
}

func (s *appService) ListPlots(ctx context.Context) (*PlotListResult, error) {
	plots, err := s.plots.ListPlots(ctx)
	if err != nil {
		return nil, err
	}
	return &PlotListResult{Plots: plots}, nil
}

func (s *appService) GetPlotCard(ctx context.Context, plotID int) (*PlotCardResult, error) {
	plot, err := s.plots.GetPlot(ctx, plotID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListTasks(ctx, &plotID, nil)
	if err != nil {
		return nil, err
	}
	harvests, err := s.plots.Harvests(ctx, plotID, core.HarvestFilter{})
	if err != nil {
		return nil, err
	}
	return &PlotCardResult{Plot: plot, Tasks: tasks, Harvests: harvests}, nil
}

func (s *appService) ListTasks(ctx context.Context, plotID *int, status *core.TaskStatus) (*TaskListResult, error) {
	tasks, err := s.tasks.ListTasks(ctx, plotID, status)
	if err != nil {
		return nil, err
	}
	return &TaskListResult{Tasks: tasks}, nil
}

func (s *appService) PlanTask(ctx context.Context, req PlanTaskRequest) (*core.FieldTask, error) {
	return s.tasks.CreateTask(ctx, core.CreateTaskInput{
		PlotID:      req.PlotID,
		Category:    req.Category,
		TaskType:    req.TaskType,
		PlanDate:    req.PlanDate,
		Description: req.Description,
		Comment:     req.Comment,
	})
}

func (s *appService) StartTask(ctx context.Context, taskID int, req StartTaskRequest) (*core.FieldTask, error) {
	return s.tasks.StartTask(ctx, taskID, core.StartTaskInput{
		WorkerIDs:    req.WorkerIDs,
		EquipmentIDs: req.EquipmentIDs,
		StartDate:    req.StartDate,
		Stock:        req.Stock,
	})
}

func (s *appService) CompleteTask(ctx context.Context, taskID int, req CompleteTaskRequest) (*core.FieldTask, error) {
	return s.tasks.CompleteTask(ctx, taskID, req.EndDate, core.CompletionData{
		WarehouseID: req.WarehouseID,
		ObjectID:    req.ObjectID,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		RecordedBy:  req.RecordedBy,
	})
}

func (s *appService) CancelTask(ctx context.Context, taskID int) (*core.FieldTask, error) {
	return s.tasks.CancelTask(ctx, taskID)
}

func (s *appService) GetWarehouseOverview(ctx context.Context) (*WarehouseOverviewResult, error) {
	utilizations, err := s.warehouses.Utilization(ctx)
	if err != nil {
		return nil, err
	}
	result := &WarehouseOverviewResult{}
	for _, u := range utilizations {
		levels, err := s.warehouses.StockLevels(ctx, u.WarehouseID)
		if err != nil {
			return nil, err
		}
		result.Warehouses = append(result.Warehouses, WarehouseStock{
			Utilization: u,
			Levels:      levels,
		})
	}
	return result, nil
}

func (s *appService) RecordManualMovement(ctx context.Context, req ManualMovementRequest) (int64, error) {
	return s.stock.RecordMovement(ctx, core.MovementInput{
		WarehouseID: req.WarehouseID,
		Kind:        req.Kind,
		ObjectKind:  req.ObjectKind,
		ObjectID:    req.ObjectID,
		Date:        req.Date,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Reason:      req.Reason,
		Comment:     req.Comment,
		RecordedBy:  req.RecordedBy,
	})
}

func (s *appService) GetSeasonReport(ctx context.Context, dateFrom, dateTo string) (*SeasonReportResult, error) {
	harvests, err := s.reporting.HarvestTotals(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	activity, err := s.reporting.ActivityByCategory(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	return &SeasonReportResult{
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Harvests: harvests,
		Activity: activity,
	}, nil
}

func (s *appService) ListWorkers(ctx context.Context) (*WorkerListResult, error) {
	workers, err := s.workers.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	return &WorkerListResult{Workers: workers}, nil
}

func (s *appService) CreateWorker(ctx context.Context, in core.WorkerInput) (*core.Worker, error) {
	return s.workers.CreateWorker(ctx, in)
}

func (s *appService) UpdateWorker(ctx context.Context, workerID int, in core.WorkerInput) (*core.Worker, error) {
	return s.workers.UpdateWorker(ctx, workerID, in)
}

func (s *appService) DeleteWorker(ctx context.Context, workerID int) error {
	return s.workers.DeleteWorker(ctx, workerID)
}

func (s *appService) ListEquipment(ctx context.Context) (*EquipmentListResult, error) {
	equipment, err := s.equipment.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}
	return &EquipmentListResult{Equipment: equipment}, nil
}

func (s *appService) CreateEquipment(ctx context.Context, in core.EquipmentInput) (*core.Equipment, error) {
	return s.equipment.CreateEquipment(ctx, in)
}

func (s *appService) UpdateEquipment(ctx context.Context, equipmentID int, in core.EquipmentInput) (*core.Equipment, error) {
	return s.equipment.UpdateEquipment(ctx, equipmentID, in)
}

func (s *appService) DeleteEquipment(ctx context.Context, equipmentID int) error {
	return s.equipment.DeleteEquipment(ctx, equipmentID)
}

func (s *appService) ListCrops(ctx context.Context) (*CropListResult, error) {
	crops, err := s.catalog.ListCrops(ctx)
	if err != nil {
		return nil, err
	}
	return &CropListResult{Crops: crops}, nil
}

func (s *appService) CreateCrop(ctx context.Context, in core.CropInput) (*core.Crop, error) {
	return s.catalog.CreateCrop(ctx, in)
}

func (s *appService) ListFertilizers(ctx context.Context) (*FertilizerListResult, error) {
	fertilizers, err := s.catalog.ListFertilizers(ctx)
	if err != nil {
		return nil, err
	}
	return &FertilizerListResult{Fertilizers: fertilizers}, nil
}

func (s *appService) CreateFertilizer(ctx context.Context, in core.FertilizerInput) (*core.Fertilizer, error) {
	return s.catalog.CreateFertilizer(ctx, in)
}

func (s *appService) AttachDocument(ctx context.Context, in core.AttachDocumentInput) (*core.Document, error) {
	return s.documents.Attach(ctx, in)
}

func (s *appService) ListDocuments(ctx context.Context, entityKind string, entityID int) (*DocumentListResult, error) {
	docs, err := s.documents.List(ctx, entityKind, entityID)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Documents: docs}, nil
}

func (s *appService) DeleteDocument(ctx context.Context, documentID int) error {
	return s.documents.Delete(ctx, documentID)
}

func (s *appService) ProposeTask(ctx context.Context, text string) (*ai.TaskProposal, error) {
	plots, err := s.plots.ListPlots(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(plots))
	for _, p := range plots {
		names = append(names, p.Name)
	}
	return s.agent.ProposeTask(ctx, text, names)
}
