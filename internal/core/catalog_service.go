package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CropInput carries the editable fields of a crop catalog entry.
type CropInput struct {
	Name        string
	Category    string
	CropType    string
	Variety     string
	Description string
}

// FertilizerInput carries the editable fields of a fertilizer catalog entry.
type FertilizerInput struct {
	Name           string
	FertilizerType string
	Form           string
	Manufacturer   string
	ExpiryDate     *string
}

// CatalogService manages the crop and fertilizer catalogs referenced by the
// stock ledger and task stock links. Names are unique within each catalog.
type CatalogService interface {
	CreateCrop(ctx context.Context, in CropInput) (*Crop, error)
	UpdateCrop(ctx context.Context, cropID int, in CropInput) (*Crop, error)
	DeleteCrop(ctx context.Context, cropID int) error
	GetCrop(ctx context.Context, cropID int) (*Crop, error)
	ListCrops(ctx context.Context) ([]Crop, error)

	CreateFertilizer(ctx context.Context, in FertilizerInput) (*Fertilizer, error)
	UpdateFertilizer(ctx context.Context, fertilizerID int, in FertilizerInput) (*Fertilizer, error)
	DeleteFertilizer(ctx context.Context, fertilizerID int) error
	GetFertilizer(ctx context.Context, fertilizerID int) (*Fertilizer, error)
	ListFertilizers(ctx context.Context) ([]Fertilizer, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

// ── Crops ────────────────────────────────────────────────────────────────────

func (s *catalogService) CreateCrop(ctx context.Context, in CropInput) (*Crop, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("crop name is required")
	}
	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO crops (name, category, crop_type, variety, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, in.Name, in.Category, in.CropType, in.Variety, in.Description).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert crop: %w", err)
	}
	return s.GetCrop(ctx, id)
}

func (s *catalogService) UpdateCrop(ctx context.Context, cropID int, in CropInput) (*Crop, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("crop name is required")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE crops
		SET name = $1, category = $2, crop_type = $3, variety = $4, description = $5
		WHERE id = $6
	`, in.Name, in.Category, in.CropType, in.Variety, in.Description, cropID)
	if err != nil {
		return nil, fmt.Errorf("failed to update crop %d: %w", cropID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundf("crop %d not found", cropID)
	}
	return s.GetCrop(ctx, cropID)
}

func (s *catalogService) DeleteCrop(ctx context.Context, cropID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM crops WHERE id = $1", cropID)
	if err != nil {
		return fmt.Errorf("failed to delete crop %d: %w", cropID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("crop %d not found", cropID)
	}
	return nil
}

func (s *catalogService) GetCrop(ctx context.Context, cropID int) (*Crop, error) {
	var c Crop
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, category, crop_type, variety, description, created_at
		FROM crops WHERE id = $1
	`, cropID).Scan(&c.ID, &c.Name, &c.Category, &c.CropType, &c.Variety, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("crop %d not found", cropID)
		}
		return nil, fmt.Errorf("failed to fetch crop %d: %w", cropID, err)
	}
	return &c, nil
}

func (s *catalogService) ListCrops(ctx context.Context) ([]Crop, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, crop_type, variety, description, created_at
		FROM crops ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query crops: %w", err)
	}
	defer rows.Close()

	var crops []Crop
	for rows.Next() {
		var c Crop
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.CropType,
			&c.Variety, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		crops = append(crops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read crops: %w", err)
	}
	return crops, nil
}

// ── Fertilizers ──────────────────────────────────────────────────────────────

func (s *catalogService) CreateFertilizer(ctx context.Context, in FertilizerInput) (*Fertilizer, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("fertilizer name is required")
	}
	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO fertilizers (name, fertilizer_type, form, manufacturer, expiry_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, in.Name, in.FertilizerType, in.Form, in.Manufacturer, in.ExpiryDate).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert fertilizer: %w", err)
	}
	return s.GetFertilizer(ctx, id)
}

func (s *catalogService) UpdateFertilizer(ctx context.Context, fertilizerID int, in FertilizerInput) (*Fertilizer, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("fertilizer name is required")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE fertilizers
		SET name = $1, fertilizer_type = $2, form = $3, manufacturer = $4, expiry_date = $5
		WHERE id = $6
	`, in.Name, in.FertilizerType, in.Form, in.Manufacturer, in.ExpiryDate, fertilizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update fertilizer %d: %w", fertilizerID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundf("fertilizer %d not found", fertilizerID)
	}
	return s.GetFertilizer(ctx, fertilizerID)
}

func (s *catalogService) DeleteFertilizer(ctx context.Context, fertilizerID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM fertilizers WHERE id = $1", fertilizerID)
	if err != nil {
		return fmt.Errorf("failed to delete fertilizer %d: %w", fertilizerID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("fertilizer %d not found", fertilizerID)
	}
	return nil
}

func (s *catalogService) GetFertilizer(ctx context.Context, fertilizerID int) (*Fertilizer, error) {
	var f Fertilizer
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, fertilizer_type, form, manufacturer, expiry_date::text, created_at
		FROM fertilizers WHERE id = $1
	`, fertilizerID).Scan(&f.ID, &f.Name, &f.FertilizerType, &f.Form,
		&f.Manufacturer, &f.ExpiryDate, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("fertilizer %d not found", fertilizerID)
		}
		return nil, fmt.Errorf("failed to fetch fertilizer %d: %w", fertilizerID, err)
	}
	return &f, nil
}

func (s *catalogService) ListFertilizers(ctx context.Context) ([]Fertilizer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, fertilizer_type, form, manufacturer, expiry_date::text, created_at
		FROM fertilizers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fertilizers: %w", err)
	}
	defer rows.Close()

	var fertilizers []Fertilizer
	for rows.Next() {
		var f Fertilizer
		if err := rows.Scan(&f.ID, &f.Name, &f.FertilizerType, &f.Form,
			&f.Manufacturer, &f.ExpiryDate, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fertilizer: %w", err)
		}
		fertilizers = append(fertilizers, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fertilizers: %w", err)
	}
	return fertilizers, nil
}
