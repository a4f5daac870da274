package core_test

import (
	"context"
	"errors"
	"testing"

	"farm-manager/internal/core"
)

func TestWorkerService_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	workers := core.NewWorkerService(pool)
	ctx := context.Background()

	hire := "2026-03-01"
	worker, err := workers.CreateWorker(ctx, core.WorkerInput{
		Name:       "A. Petrov",
		Position:   "tractor driver",
		Contacts:   "+7 900 000-00-00",
		HireDate:   &hire,
		Salary:     qty("45000"),
		SalaryType: "monthly",
	})
	if err != nil {
		t.Fatalf("CreateWorker failed: %v", err)
	}
	if worker.Status != "active" {
		t.Errorf("new worker should default to active, got %q", worker.Status)
	}
	if worker.HireDate == nil || *worker.HireDate != hire {
		t.Errorf("hire date did not round-trip: %v", worker.HireDate)
	}

	if _, err := workers.CreateWorker(ctx, core.WorkerInput{}); err == nil {
		t.Error("expected worker without a name to be rejected")
	}

	fire := "2026-08-15"
	worker, err = workers.UpdateWorker(ctx, worker.ID, core.WorkerInput{
		Name:     "A. Petrov",
		Position: "tractor driver",
		HireDate: &hire,
		FireDate: &fire,
		Status:   "dismissed",
	})
	if err != nil {
		t.Fatalf("UpdateWorker failed: %v", err)
	}
	if worker.Status != "dismissed" || worker.FireDate == nil || *worker.FireDate != fire {
		t.Errorf("dismissal did not round-trip: %+v", worker)
	}

	list, err := workers.ListWorkers(ctx)
	if err != nil {
		t.Fatalf("ListWorkers failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 worker, got %d", len(list))
	}

	if err := workers.DeleteWorker(ctx, worker.ID); err != nil {
		t.Fatalf("DeleteWorker failed: %v", err)
	}
	if _, err := workers.GetWorker(ctx, worker.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := workers.UpdateWorker(ctx, worker.ID, core.WorkerInput{Name: "ghost"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for update of deleted worker, got %v", err)
	}
}

func TestEquipmentService_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	equipment := core.NewEquipmentService(pool)
	ctx := context.Background()

	machine, err := equipment.CreateEquipment(ctx, core.EquipmentInput{
		Category:  "tractor",
		Type:      "wheeled",
		Name:      "MTZ-82",
		Year:      "2019",
		RegNumber: "AB 1234 77",
	})
	if err != nil {
		t.Fatalf("CreateEquipment failed: %v", err)
	}
	if machine.Status != "operational" {
		t.Errorf("new equipment should default to operational, got %q", machine.Status)
	}

	if _, err := equipment.CreateEquipment(ctx, core.EquipmentInput{Name: "nameless"}); err == nil {
		t.Error("expected equipment without category/type to be rejected")
	}

	machine, err = equipment.UpdateEquipment(ctx, machine.ID, core.EquipmentInput{
		Category: "tractor",
		Type:     "wheeled",
		Name:     "MTZ-82",
		Status:   "under_repair",
		Notes:    "gearbox",
	})
	if err != nil {
		t.Fatalf("UpdateEquipment failed: %v", err)
	}
	if machine.Status != "under_repair" || machine.Notes != "gearbox" {
		t.Errorf("repair state did not round-trip: %+v", machine)
	}

	list, err := equipment.ListEquipment(ctx)
	if err != nil {
		t.Fatalf("ListEquipment failed: %v", err)
	}
	if len(list) != 1 || list[0].RegNumber != "AB 1234 77" {
		t.Errorf("unexpected equipment list: %+v", list)
	}

	if err := equipment.DeleteEquipment(ctx, machine.ID); err != nil {
		t.Fatalf("DeleteEquipment failed: %v", err)
	}
	if _, err := equipment.GetEquipment(ctx, machine.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

// Deleting an assigned worker cascades out of the join table but leaves the
// task itself intact.
func TestWorkerService_DeleteCascadesAssignment(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	workers := core.NewWorkerService(pool)
	_, tasks := newServices(pool)
	ctx := context.Background()

	worker, err := workers.CreateWorker(ctx, core.WorkerInput{Name: "B. Sidorov"})
	if err != nil {
		t.Fatalf("CreateWorker failed: %v", err)
	}

	task, err := tasks.CreateTask(ctx, core.CreateTaskInput{
		PlotID:   1,
		Category: core.CategoryCropCare,
		TaskType: "weeding",
		PlanDate: "2026-05-01",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	task, err = tasks.StartTask(ctx, task.ID, core.StartTaskInput{
		StartDate: "2026-05-02",
		WorkerIDs: []int{worker.ID},
	})
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if len(task.WorkerIDs) != 1 {
		t.Fatalf("expected 1 assignment, got %v", task.WorkerIDs)
	}

	if err := workers.DeleteWorker(ctx, worker.ID); err != nil {
		t.Fatalf("DeleteWorker failed: %v", err)
	}

	task, err = tasks.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if len(task.WorkerIDs) != 0 {
		t.Errorf("assignment should be gone after worker deletion, got %v", task.WorkerIDs)
	}
	if task.Status != core.TaskInProgress {
		t.Errorf("task should survive worker deletion, got %s", task.Status)
	}
}
