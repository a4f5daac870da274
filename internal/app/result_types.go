package app

import "farm-manager/internal/core"

// PlotListResult wraps the plot list view.
type PlotListResult struct {
	Plots []core.Plot
}

// PlotCardResult is the full card for one plot: master data plus task and
// harvest history.
type PlotCardResult struct {
	Plot     *core.Plot
	Tasks    []core.FieldTask
	Harvests []core.HarvestRecord
}

// TaskListResult wraps the task list view.
type TaskListResult struct {
	Tasks []core.FieldTask
}

// WarehouseStock pairs a warehouse's utilization with its per-object levels.
type WarehouseStock struct {
	Utilization core.WarehouseUtilization
	Levels      []core.StockLevel
}

// WarehouseOverviewResult wraps the warehouse overview view.
type WarehouseOverviewResult struct {
	Warehouses []WarehouseStock
}

// WorkerListResult wraps the worker roster view.
type WorkerListResult struct {
	Workers []core.Worker
}

// EquipmentListResult wraps the machinery fleet view.
type EquipmentListResult struct {
	Equipment []core.Equipment
}

// CropListResult wraps the crop catalog view.
type CropListResult struct {
	Crops []core.Crop
}

// FertilizerListResult wraps the fertilizer catalog view.
type FertilizerListResult struct {
	Fertilizers []core.Fertilizer
}

// DocumentListResult wraps an entity's attachment list (no file data).
type DocumentListResult struct {
	Documents []core.Document
}

// SeasonReportResult aggregates harvests and task activity for a date range.
type SeasonReportResult struct {
	DateFrom string
	DateTo   string
	Harvests []core.HarvestTotal
	Activity []core.SeasonActivity
}
