package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PlotInput carries the editable fields of a land plot. Status and Crop are
// intentionally absent: those are projections owned by the task lifecycle.
type PlotInput struct {
	Name             string
	Geometry         []Vertex
	AreaHa           decimal.Decimal
	Ownership        PlotOwnership
	RentalExpiryDate *string
	CadastralNumber  string
	Address          string
	LandCategory     string
	LandUse          string
	CadastralValue   decimal.Decimal
	OwnerName        string
	OwnerContacts    string
}

// HarvestFilter narrows a plot's harvest history. Zero values mean "any".
type HarvestFilter struct {
	Culture  string
	DateFrom string
	DateTo   string
}

// PlotService manages land plot records. Deleting a plot cascades to its
// tasks, harvests and ledger links per the schema.
type PlotService interface {
	CreatePlot(ctx context.Context, in PlotInput) (*Plot, error)
	UpdatePlot(ctx context.Context, plotID int, in PlotInput) (*Plot, error)
	DeletePlot(ctx context.Context, plotID int) error
	GetPlot(ctx context.Context, plotID int) (*Plot, error)
	ListPlots(ctx context.Context) ([]Plot, error)

	// Harvests returns the plot's harvest history, newest first.
	Harvests(ctx context.Context, plotID int, filter HarvestFilter) ([]HarvestRecord, error)

	// ReprojectStatus recomputes the plot's status label and crop from its
	// full task history and persists them. Idempotent; used after imports or
	// manual corrections to task rows.
	ReprojectStatus(ctx context.Context, plotID int) (PlotStatus, error)
}

type plotService struct {
	pool *pgxpool.Pool
}

func NewPlotService(pool *pgxpool.Pool) PlotService {
	return &plotService{pool: pool}
}

func validatePlotInput(in PlotInput) error {
	if in.Name == "" {
		return fmt.Errorf("plot name is required")
	}
	switch in.Ownership {
	case OwnershipOwn, "":
	case OwnershipRented:
		if in.RentalExpiryDate == nil || *in.RentalExpiryDate == "" {
			return fmt.Errorf("rented plot requires a rental expiry date")
		}
	default:
		return fmt.Errorf("unknown ownership %q", in.Ownership)
	}
	return nil
}

func encodeGeometry(vertices []Vertex) (string, error) {
	if vertices == nil {
		vertices = []Vertex{}
	}
	raw, err := json.Marshal(vertices)
	if err != nil {
		return "", fmt.Errorf("failed to encode plot geometry: %w", err)
	}
	return string(raw), nil
}

func (s *plotService) CreatePlot(ctx context.Context, in PlotInput) (*Plot, error) {
	if err := validatePlotInput(in); err != nil {
		return nil, err
	}
	geometry, err := encodeGeometry(in.Geometry)
	if err != nil {
		return nil, err
	}
	ownership := in.Ownership
	if ownership == "" {
		ownership = OwnershipOwn
	}

	var plotID int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO plots
			(name, geometry, area_ha, ownership, rental_expiry_date,
			 cadastral_number, address, land_category, land_use,
			 cadastral_value, owner_name, owner_contacts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, in.Name, geometry, in.AreaHa, ownership, in.RentalExpiryDate,
		in.CadastralNumber, in.Address, in.LandCategory, in.LandUse,
		in.CadastralValue, in.OwnerName, in.OwnerContacts,
	).Scan(&plotID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert plot: %w", err)
	}
	return s.GetPlot(ctx, plotID)
}

func (s *plotService) UpdatePlot(ctx context.Context, plotID int, in PlotInput) (*Plot, error) {
	if err := validatePlotInput(in); err != nil {
		return nil, err
	}
	geometry, err := encodeGeometry(in.Geometry)
	if err != nil {
		return nil, err
	}
	ownership := in.Ownership
	if ownership == "" {
		ownership = OwnershipOwn
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE plots
		SET name = $1, geometry = $2, area_ha = $3, ownership = $4,
		    rental_expiry_date = $5, cadastral_number = $6, address = $7,
		    land_category = $8, land_use = $9, cadastral_value = $10,
		    owner_name = $11, owner_contacts = $12, updated_at = NOW()
		WHERE id = $13
	`, in.Name, geometry, in.AreaHa, ownership, in.RentalExpiryDate,
		in.CadastralNumber, in.Address, in.LandCategory, in.LandUse,
		in.CadastralValue, in.OwnerName, in.OwnerContacts, plotID)
	if err != nil {
		return nil, fmt.Errorf("failed to update plot %d: %w", plotID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundf("plot %d not found", plotID)
	}
	return s.GetPlot(ctx, plotID)
}

func (s *plotService) DeletePlot(ctx context.Context, plotID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM plots WHERE id = $1", plotID)
	if err != nil {
		return fmt.Errorf("failed to delete plot %d: %w", plotID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("plot %d not found", plotID)
	}
	return nil
}

const plotSelect = `
	SELECT id, name, geometry, area_ha, ownership, rental_expiry_date::text,
	       status, crop, cadastral_number, address, land_category, land_use,
	       cadastral_value, owner_name, owner_contacts, created_at, updated_at
	FROM plots
`

func scanPlot(row pgxRowScanner) (*Plot, error) {
	var p Plot
	var geometry string
	if err := row.Scan(
		&p.ID, &p.Name, &geometry, &p.AreaHa, &p.Ownership, &p.RentalExpiryDate,
		&p.Status, &p.Crop, &p.CadastralNumber, &p.Address, &p.LandCategory,
		&p.LandUse, &p.CadastralValue, &p.OwnerName, &p.OwnerContacts,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(geometry), &p.Geometry); err != nil {
		return nil, fmt.Errorf("failed to decode geometry of plot %d: %w", p.ID, err)
	}
	return &p, nil
}

func (s *plotService) GetPlot(ctx context.Context, plotID int) (*Plot, error) {
	p, err := scanPlot(s.pool.QueryRow(ctx, plotSelect+" WHERE id = $1", plotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("plot %d not found", plotID)
		}
		return nil, fmt.Errorf("failed to fetch plot %d: %w", plotID, err)
	}
	return p, nil
}

func (s *plotService) ListPlots(ctx context.Context) ([]Plot, error) {
	rows, err := s.pool.Query(ctx, plotSelect+" ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query plots: %w", err)
	}
	defer rows.Close()

	var plots []Plot
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plot: %w", err)
		}
		plots = append(plots, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plots: %w", err)
	}
	return plots, nil
}

func (s *plotService) Harvests(ctx context.Context, plotID int, filter HarvestFilter) ([]HarvestRecord, error) {
	query := `
		SELECT id, plot_id, task_id, harvest_date::text, culture, amount
		FROM harvests
		WHERE plot_id = $1
	`
	args := []any{plotID}
	if filter.Culture != "" {
		args = append(args, filter.Culture)
		query += fmt.Sprintf(" AND culture = $%d", len(args))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		query += fmt.Sprintf(" AND harvest_date >= $%d", len(args))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		query += fmt.Sprintf(" AND harvest_date <= $%d", len(args))
	}
	query += " ORDER BY harvest_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvests: %w", err)
	}
	defer rows.Close()

	var records []HarvestRecord
	for rows.Next() {
		var h HarvestRecord
		if err := rows.Scan(&h.ID, &h.PlotID, &h.TaskID, &h.Date, &h.Culture, &h.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan harvest record: %w", err)
		}
		records = append(records, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read harvests: %w", err)
	}
	return records, nil
}

func (s *plotService) ReprojectStatus(ctx context.Context, plotID int) (PlotStatus, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentStatus PlotStatus
	var currentCrop string
	err = tx.QueryRow(ctx, "SELECT status, crop FROM plots WHERE id = $1 FOR UPDATE", plotID).
		Scan(&currentStatus, &currentCrop)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", notFoundf("plot %d not found", plotID)
		}
		return "", fmt.Errorf("failed to lock plot %d: %w", plotID, err)
	}

	// Most recent activity first: completed tasks by end date, running tasks
	// by start date. Ties break on id so re-runs are deterministic.
	rows, err := tx.Query(ctx, `
		SELECT t.category, t.task_type, t.status, COALESCE(c.name, '')
		FROM field_tasks t
		LEFT JOIN crops c ON t.object_kind = 'crop' AND c.id = t.object_id
		WHERE t.plot_id = $1 AND t.status IN ('in_progress', 'completed')
		ORDER BY COALESCE(t.end_date, t.start_date, t.plan_date) DESC, t.id DESC
	`, plotID)
	if err != nil {
		return "", fmt.Errorf("failed to query task history for plot %d: %w", plotID, err)
	}

	var history []TaskOutcome
	for rows.Next() {
		var t TaskOutcome
		if err := rows.Scan(&t.Category, &t.TaskType, &t.Status, &t.Culture); err != nil {
			rows.Close()
			return "", fmt.Errorf("failed to scan task history row: %w", err)
		}
		history = append(history, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read task history for plot %d: %w", plotID, err)
	}

	status, crop := ProjectState(history)
	if status != currentStatus || crop != currentCrop {
		if _, err := tx.Exec(ctx,
			"UPDATE plots SET status = $1, crop = $2, updated_at = NOW() WHERE id = $3",
			status, crop, plotID,
		); err != nil {
			return "", fmt.Errorf("failed to store projection for plot %d: %w", plotID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit status projection: %w", err)
	}
	return status, nil
}
