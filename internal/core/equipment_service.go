package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EquipmentInput carries the editable fields of an equipment record.
type EquipmentInput struct {
	Category  string
	Type      string
	Subtype   string
	Name      string
	Year      string
	RegNumber string
	Status    string
	Notes     string
}

// EquipmentService manages the machinery fleet assigned to field tasks.
type EquipmentService interface {
	CreateEquipment(ctx context.Context, in EquipmentInput) (*Equipment, error)
	UpdateEquipment(ctx context.Context, equipmentID int, in EquipmentInput) (*Equipment, error)
	DeleteEquipment(ctx context.Context, equipmentID int) error
	GetEquipment(ctx context.Context, equipmentID int) (*Equipment, error)
	ListEquipment(ctx context.Context) ([]Equipment, error)
}

type equipmentService struct {
	pool *pgxpool.Pool
}

func NewEquipmentService(pool *pgxpool.Pool) EquipmentService {
	return &equipmentService{pool: pool}
}

func (s *equipmentService) CreateEquipment(ctx context.Context, in EquipmentInput) (*Equipment, error) {
	if in.Name == "" || in.Category == "" || in.Type == "" {
		return nil, fmt.Errorf("equipment name, category and type are required")
	}
	status := in.Status
	if status == "" {
		status = "operational"
	}
	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO equipment (category, type, subtype, name, year, reg_number, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, in.Category, in.Type, in.Subtype, in.Name, in.Year, in.RegNumber, status, in.Notes).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert equipment: %w", err)
	}
	return s.GetEquipment(ctx, id)
}

func (s *equipmentService) UpdateEquipment(ctx context.Context, equipmentID int, in EquipmentInput) (*Equipment, error) {
	if in.Name == "" || in.Category == "" || in.Type == "" {
		return nil, fmt.Errorf("equipment name, category and type are required")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE equipment
		SET category = $1, type = $2, subtype = $3, name = $4, year = $5,
		    reg_number = $6, status = $7, notes = $8, updated_at = NOW()
		WHERE id = $9
	`, in.Category, in.Type, in.Subtype, in.Name, in.Year, in.RegNumber,
		in.Status, in.Notes, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to update equipment %d: %w", equipmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundf("equipment %d not found", equipmentID)
	}
	return s.GetEquipment(ctx, equipmentID)
}

func (s *equipmentService) DeleteEquipment(ctx context.Context, equipmentID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM equipment WHERE id = $1", equipmentID)
	if err != nil {
		return fmt.Errorf("failed to delete equipment %d: %w", equipmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("equipment %d not found", equipmentID)
	}
	return nil
}

const equipmentSelect = `
	SELECT id, category, type, subtype, name, year, reg_number, status, notes,
	       created_at, updated_at
	FROM equipment
`

func scanEquipment(row pgxRowScanner) (*Equipment, error) {
	var e Equipment
	if err := row.Scan(&e.ID, &e.Category, &e.Type, &e.Subtype, &e.Name,
		&e.Year, &e.RegNumber, &e.Status, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, equipmentID int) (*Equipment, error) {
	e, err := scanEquipment(s.pool.QueryRow(ctx, equipmentSelect+" WHERE id = $1", equipmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("equipment %d not found", equipmentID)
		}
		return nil, fmt.Errorf("failed to fetch equipment %d: %w", equipmentID, err)
	}
	return e, nil
}

func (s *equipmentService) ListEquipment(ctx context.Context) ([]Equipment, error) {
	rows, err := s.pool.Query(ctx, equipmentSelect+" ORDER BY category, name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment: %w", err)
	}
	defer rows.Close()

	var list []Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read equipment: %w", err)
	}
	return list, nil
}
