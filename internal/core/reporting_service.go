package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// HarvestTotal aggregates harvested amounts for one (plot, culture) pair.
type HarvestTotal struct {
	PlotID   int
	PlotName string
	Culture  string
	Total    decimal.Decimal
	Events   int
}

// SeasonActivity summarizes field work per category over a date range.
type SeasonActivity struct {
	Category  TaskCategory
	Planned   int
	Running   int
	Completed int
	Cancelled int
}

// ReportingService answers the read-only analytics questions the season
// review screens ask. All methods are pure queries against committed data.
type ReportingService interface {
	// HarvestTotals aggregates harvests by plot and culture over the given
	// date range (inclusive; empty bounds mean open-ended).
	HarvestTotals(ctx context.Context, dateFrom, dateTo string) ([]HarvestTotal, error)
	// ActivityByCategory counts tasks per category and status with a plan
	// date in the given range.
	ActivityByCategory(ctx context.Context, dateFrom, dateTo string) ([]SeasonActivity, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) HarvestTotals(ctx context.Context, dateFrom, dateTo string) ([]HarvestTotal, error) {
	query := `
		SELECT h.plot_id, p.name, h.culture, SUM(h.amount), COUNT(*)
		FROM harvests h
		JOIN plots p ON p.id = h.plot_id
		WHERE 1=1
	`
	var args []any
	if dateFrom != "" {
		args = append(args, dateFrom)
		query += fmt.Sprintf(" AND h.harvest_date >= $%d", len(args))
	}
	if dateTo != "" {
		args = append(args, dateTo)
		query += fmt.Sprintf(" AND h.harvest_date <= $%d", len(args))
	}
	query += " GROUP BY h.plot_id, p.name, h.culture ORDER BY p.name, h.culture"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvest totals: %w", err)
	}
	defer rows.Close()

	var totals []HarvestTotal
	for rows.Next() {
		var t HarvestTotal
		if err := rows.Scan(&t.PlotID, &t.PlotName, &t.Culture, &t.Total, &t.Events); err != nil {
			return nil, fmt.Errorf("failed to scan harvest total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read harvest totals: %w", err)
	}
	return totals, nil
}

func (s *reportingService) ActivityByCategory(ctx context.Context, dateFrom, dateTo string) ([]SeasonActivity, error) {
	query := `
		SELECT category,
		       COUNT(*) FILTER (WHERE status = 'planned'),
		       COUNT(*) FILTER (WHERE status = 'in_progress'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM field_tasks
		WHERE 1=1
	`
	var args []any
	if dateFrom != "" {
		args = append(args, dateFrom)
		query += fmt.Sprintf(" AND plan_date >= $%d", len(args))
	}
	if dateTo != "" {
		args = append(args, dateTo)
		query += fmt.Sprintf(" AND plan_date <= $%d", len(args))
	}
	query += " GROUP BY category ORDER BY category"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity by category: %w", err)
	}
	defer rows.Close()

	var result []SeasonActivity
	for rows.Next() {
		var a SeasonActivity
		if err := rows.Scan(&a.Category, &a.Planned, &a.Running, &a.Completed, &a.Cancelled); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity rows: %w", err)
	}
	return result, nil
}
