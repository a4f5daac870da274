package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"farm-manager/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE documents, harvests, warehouse_operations,
			field_task_equipment, field_task_workers, field_tasks,
			equipment, workers, warehouses, fertilizers, crops, plots
			RESTART IDENTITY CASCADE;

		INSERT INTO plots (id, name, area_ha, ownership) VALUES
			(1, 'North Field', 12.5, 'own');

		INSERT INTO crops (id, name) VALUES (1, 'Winter Wheat');
		INSERT INTO fertilizers (id, name) VALUES (1, 'Ammonium Nitrate');

		INSERT INTO warehouses (id, name, warehouse_type, capacity) VALUES
			(1, 'Grain Store A', 'grain_store', 100),
			(2, 'Fertilizer Shed', 'fertilizer_store', 50);

		SELECT setval('plots_id_seq', 10);
		SELECT setval('crops_id_seq', 10);
		SELECT setval('fertilizers_id_seq', 10);
		SELECT setval('warehouses_id_seq', 10);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustRecord(t *testing.T, stock core.StockService, in core.MovementInput) int64 {
	t.Helper()
	id, err := stock.RecordMovement(context.Background(), in)
	if err != nil {
		t.Fatalf("RecordMovement failed: %v", err)
	}
	return id
}

func cropIn(warehouseID int, kind core.OperationKind, quantity string) core.MovementInput {
	return core.MovementInput{
		WarehouseID: warehouseID,
		Kind:        kind,
		ObjectKind:  core.ObjectCrop,
		ObjectID:    1,
		Date:        "2026-04-01",
		Quantity:    qty(quantity),
		Unit:        "t",
		Reason:      "test",
	}
}

func TestStockService_NetStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	mustRecord(t, stock, cropIn(1, core.OperationIncoming, "10"))
	mustRecord(t, stock, cropIn(1, core.OperationIncoming, "5.5"))
	mustRecord(t, stock, cropIn(1, core.OperationOutgoing, "3"))

	net, err := stock.CurrentStock(ctx, 1, core.ObjectCrop, 1)
	if err != nil {
		t.Fatalf("CurrentStock failed: %v", err)
	}
	if !net.Equal(qty("12.5")) {
		t.Errorf("expected net stock 12.5, got %s", net)
	}
}

func TestStockService_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	mustRecord(t, stock, cropIn(1, core.OperationIncoming, "3"))

	_, err := stock.RecordMovement(ctx, cropIn(1, core.OperationOutgoing, "5"))
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The rejected movement must leave no trace in the ledger.
	var count int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM warehouse_operations").Scan(&count); err != nil {
		t.Fatalf("failed to count ledger entries: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 ledger entry after rejected outgoing, got %d", count)
	}

	// Taking exactly the available amount is allowed.
	if _, err := stock.RecordMovement(ctx, cropIn(1, core.OperationOutgoing, "3")); err != nil {
		t.Errorf("outgoing equal to net stock should succeed, got %v", err)
	}
}

func TestStockService_CapacityExceeded(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	// Capacity counts all objects in the warehouse, not just the incoming one.
	secondCrop := uuid.NewString()
	var secondCropID int
	err := pool.QueryRow(ctx, "INSERT INTO crops (name) VALUES ($1) RETURNING id", secondCrop).Scan(&secondCropID)
	if err != nil {
		t.Fatalf("failed to insert second crop: %v", err)
	}

	mustRecord(t, stock, cropIn(1, core.OperationIncoming, "60"))

	in := cropIn(1, core.OperationIncoming, "45")
	in.ObjectID = secondCropID
	if _, err := stock.RecordMovement(ctx, in); !errors.Is(err, core.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// Filling the warehouse to exactly its capacity is allowed.
	in.Quantity = qty("40")
	if _, err := stock.RecordMovement(ctx, in); err != nil {
		t.Errorf("incoming up to capacity should succeed, got %v", err)
	}
}

func TestStockService_WarehouseTypeMismatch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	// Fertilizer cannot enter a grain store.
	_, err := stock.RecordMovement(ctx, core.MovementInput{
		WarehouseID: 1,
		Kind:        core.OperationIncoming,
		ObjectKind:  core.ObjectFertilizer,
		ObjectID:    1,
		Date:        "2026-04-01",
		Quantity:    qty("1"),
		Unit:        "t",
	})
	if err == nil {
		t.Fatal("expected fertilizer into grain store to fail")
	}

	// Crop cannot enter a fertilizer store.
	if _, err := stock.RecordMovement(ctx, cropIn(2, core.OperationIncoming, "1")); err == nil {
		t.Fatal("expected crop into fertilizer store to fail")
	}
}

func TestStockService_RejectsUnknownReferences(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	in := cropIn(999, core.OperationIncoming, "1")
	if _, err := stock.RecordMovement(ctx, in); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown warehouse, got %v", err)
	}

	in = cropIn(1, core.OperationIncoming, "1")
	in.ObjectID = 999
	if _, err := stock.RecordMovement(ctx, in); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown crop, got %v", err)
	}

	in = cropIn(1, core.OperationIncoming, "0")
	if _, err := stock.RecordMovement(ctx, in); err == nil {
		t.Error("expected zero quantity to be rejected")
	}
}

func TestStockService_HistoryOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	first := cropIn(1, core.OperationIncoming, "5")
	first.Date = "2026-04-01"
	second := cropIn(1, core.OperationIncoming, "7")
	second.Date = "2026-04-03"
	// Same date as first: insertion order breaks the tie.
	third := cropIn(1, core.OperationOutgoing, "2")
	third.Date = "2026-04-01"

	firstID := mustRecord(t, stock, first)
	secondID := mustRecord(t, stock, second)
	thirdID := mustRecord(t, stock, third)

	entries, err := stock.History(ctx, 1, core.HistoryFilter{})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != secondID || entries[1].ID != thirdID || entries[2].ID != firstID {
		t.Errorf("unexpected order: got %d, %d, %d", entries[0].ID, entries[1].ID, entries[2].ID)
	}
	if entries[0].ObjectName != "Winter Wheat" {
		t.Errorf("expected joined object name, got %q", entries[0].ObjectName)
	}

	outgoing, err := stock.History(ctx, 1, core.HistoryFilter{Kind: core.OperationOutgoing})
	if err != nil {
		t.Fatalf("History with filter failed: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].ID != thirdID {
		t.Errorf("expected only the outgoing entry, got %+v", outgoing)
	}
}
