package core_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"farm-manager/internal/core"
)

func TestDocumentService_AttachListDelete(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	docs := core.NewDocumentService(pool)
	ctx := context.Background()

	doc, err := docs.Attach(ctx, core.AttachDocumentInput{
		EntityKind:   "plot",
		EntityID:     1,
		DocumentType: "lease_contract",
		FileName:     "lease.pdf",
		FileType:     "application/pdf",
		FileData:     []byte("%PDF-1.4 test"),
	})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if !bytes.Equal(doc.FileData, []byte("%PDF-1.4 test")) {
		t.Error("file data did not round-trip")
	}

	if _, err := docs.Attach(ctx, core.AttachDocumentInput{
		EntityKind: "spaceship", EntityID: 1, FileName: "x", FileData: []byte("y"),
	}); err == nil {
		t.Error("expected unknown entity kind to be rejected")
	}
	if _, err := docs.Attach(ctx, core.AttachDocumentInput{
		EntityKind: "plot", EntityID: 1, FileName: "empty.pdf",
	}); err == nil {
		t.Error("expected empty file data to be rejected")
	}

	list, err := docs.List(ctx, "plot", 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].FileName != "lease.pdf" {
		t.Errorf("unexpected document list: %+v", list)
	}
	if len(list[0].FileData) != 0 {
		t.Error("List must not load file data")
	}

	if err := docs.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := docs.Get(ctx, doc.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCatalogService_CropsAndFertilizers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	crop, err := catalog.CreateCrop(ctx, core.CropInput{
		Name:     "Potato",
		Category: "vegetable",
		Variety:  "Gala",
	})
	if err != nil {
		t.Fatalf("CreateCrop failed: %v", err)
	}

	crop, err = catalog.UpdateCrop(ctx, crop.ID, core.CropInput{Name: "Potato", Variety: "Red Scarlett"})
	if err != nil {
		t.Fatalf("UpdateCrop failed: %v", err)
	}
	if crop.Variety != "Red Scarlett" {
		t.Errorf("expected updated variety, got %q", crop.Variety)
	}

	crops, err := catalog.ListCrops(ctx)
	if err != nil {
		t.Fatalf("ListCrops failed: %v", err)
	}
	if len(crops) != 2 { // seeded Winter Wheat + Potato
		t.Errorf("expected 2 crops, got %d", len(crops))
	}

	expiry := "2027-06-30"
	fert, err := catalog.CreateFertilizer(ctx, core.FertilizerInput{
		Name:           "Superphosphate",
		FertilizerType: "mineral",
		Form:           "granular",
		ExpiryDate:     &expiry,
	})
	if err != nil {
		t.Fatalf("CreateFertilizer failed: %v", err)
	}
	if fert.ExpiryDate == nil || *fert.ExpiryDate != expiry {
		t.Errorf("expiry date did not round-trip: %v", fert.ExpiryDate)
	}

	if err := catalog.DeleteFertilizer(ctx, fert.ID); err != nil {
		t.Fatalf("DeleteFertilizer failed: %v", err)
	}
	if _, err := catalog.GetFertilizer(ctx, fert.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
