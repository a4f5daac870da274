package core_test

import (
	"context"
	"errors"
	"testing"

	"farm-manager/internal/core"
)

func TestPlotService_CreateAndGeometryRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	plots := core.NewPlotService(pool)
	ctx := context.Background()

	expiry := "2028-12-31"
	plot, err := plots.CreatePlot(ctx, core.PlotInput{
		Name: "South Field",
		Geometry: []core.Vertex{
			{Lat: 55.1001, Lng: 37.2001},
			{Lat: 55.1005, Lng: 37.2010},
			{Lat: 55.0998, Lng: 37.2015},
		},
		AreaHa:           qty("8.75"),
		Ownership:        core.OwnershipRented,
		RentalExpiryDate: &expiry,
	})
	if err != nil {
		t.Fatalf("CreatePlot failed: %v", err)
	}
	if plot.Status != core.PlotNew {
		t.Errorf("new plot should have status new, got %s", plot.Status)
	}
	if len(plot.Geometry) != 3 || plot.Geometry[0].Lat != 55.1001 {
		t.Errorf("geometry did not round-trip: %+v", plot.Geometry)
	}
	if plot.RentalExpiryDate == nil || *plot.RentalExpiryDate != expiry {
		t.Errorf("rental expiry did not round-trip: %v", plot.RentalExpiryDate)
	}
}

func TestPlotService_RentedRequiresExpiry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	plots := core.NewPlotService(pool)
	ctx := context.Background()

	_, err := plots.CreatePlot(ctx, core.PlotInput{
		Name:      "Leased Strip",
		Ownership: core.OwnershipRented,
	})
	if err == nil {
		t.Fatal("expected rented plot without expiry to be rejected")
	}

	// Switching an owned plot to rented without an expiry is rejected too.
	_, err = plots.UpdatePlot(ctx, 1, core.PlotInput{
		Name:      "North Field",
		Ownership: core.OwnershipRented,
	})
	if err == nil {
		t.Fatal("expected update to rented without expiry to be rejected")
	}
}

func TestPlotService_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	plots := core.NewPlotService(pool)
	ctx := context.Background()

	if _, err := plots.GetPlot(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := plots.DeletePlot(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPlotService_ReprojectStatus(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	plots := core.NewPlotService(pool)
	stock, tasks := newServices(pool)
	ctx := context.Background()

	mustRecord(t, stock, cropIn(1, core.OperationIncoming, "10"))

	// Sow, then harvest. The projection must land on "sown" because a
	// completed harvest does not relabel the plot.
	sowing, err := tasks.CreateTask(ctx, core.CreateTaskInput{
		PlotID: 1, Category: core.CategorySowing, TaskType: "sowing", PlanDate: "2026-04-10",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	sowing, err = tasks.StartTask(ctx, sowing.ID, core.StartTaskInput{
		StartDate: "2026-04-11",
		Stock: &core.StockLink{
			WarehouseID: 1, ObjectKind: core.ObjectCrop, ObjectID: 1, Quantity: qty("4"), Unit: "t",
		},
	})
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if _, err = tasks.CompleteTask(ctx, sowing.ID, "2026-04-12", core.CompletionData{}); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	harvest, err := tasks.CreateTask(ctx, core.CreateTaskInput{
		PlotID: 1, Category: core.CategoryHarvest, TaskType: "combining", PlanDate: "2026-08-01",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	harvest, err = tasks.StartTask(ctx, harvest.ID, core.StartTaskInput{StartDate: "2026-08-02"})
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	warehouseID, objectID := 1, 1
	if _, err = tasks.CompleteTask(ctx, harvest.ID, "2026-08-05", core.CompletionData{
		WarehouseID: &warehouseID, ObjectID: &objectID, Quantity: qty("20"),
	}); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	// Simulate drift: someone edited the stored label and crop by hand.
	if _, err := pool.Exec(ctx, "UPDATE plots SET status = 'plowed', crop = 'Barley' WHERE id = 1"); err != nil {
		t.Fatalf("failed to corrupt plot state: %v", err)
	}

	status, err := plots.ReprojectStatus(ctx, 1)
	if err != nil {
		t.Fatalf("ReprojectStatus failed: %v", err)
	}
	if status != core.PlotSown {
		t.Errorf("expected projection sown, got %s", status)
	}
	stored, crop := plotStatus(t, pool, 1)
	if stored != core.PlotSown {
		t.Errorf("projection was not persisted, stored %s", stored)
	}
	if crop != "Winter Wheat" {
		t.Errorf("reprojection should restore the sown culture, got %q", crop)
	}

	// Idempotent: a second run changes nothing.
	again, err := plots.ReprojectStatus(ctx, 1)
	if err != nil {
		t.Fatalf("second ReprojectStatus failed: %v", err)
	}
	if again != status {
		t.Errorf("reprojection not stable: %s then %s", status, again)
	}
}

func TestPlotService_HarvestHistory(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	plots := core.NewPlotService(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO harvests (plot_id, harvest_date, culture, amount) VALUES
			(1, '2025-08-10', 'Winter Wheat', 30),
			(1, '2026-08-05', 'Winter Wheat', 42.5),
			(1, '2026-09-01', 'Potato', 12)
	`)
	if err != nil {
		t.Fatalf("failed to seed harvests: %v", err)
	}

	all, err := plots.Harvests(ctx, 1, core.HarvestFilter{})
	if err != nil {
		t.Fatalf("Harvests failed: %v", err)
	}
	if len(all) != 3 || all[0].Date != "2026-09-01" {
		t.Errorf("expected 3 harvests newest first, got %+v", all)
	}

	wheat, err := plots.Harvests(ctx, 1, core.HarvestFilter{Culture: "Winter Wheat", DateFrom: "2026-01-01"})
	if err != nil {
		t.Fatalf("filtered Harvests failed: %v", err)
	}
	if len(wheat) != 1 || !wheat[0].Amount.Equal(qty("42.5")) {
		t.Errorf("expected one 2026 wheat harvest of 42.5, got %+v", wheat)
	}
}
