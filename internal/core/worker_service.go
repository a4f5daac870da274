package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// WorkerInput carries the editable fields of a worker record.
type WorkerInput struct {
	Name       string
	Position   string
	Contacts   string
	HireDate   *string
	FireDate   *string
	Salary     decimal.Decimal
	SalaryType string
	Status     string
	Comment    string
}

// WorkerService manages the worker roster assigned to field tasks.
type WorkerService interface {
	CreateWorker(ctx context.Context, in WorkerInput) (*Worker, error)
	UpdateWorker(ctx context.Context, workerID int, in WorkerInput) (*Worker, error)
	DeleteWorker(ctx context.Context, workerID int) error
	GetWorker(ctx context.Context, workerID int) (*Worker, error)
	ListWorkers(ctx context.Context) ([]Worker, error)
}

type workerService struct {
	pool *pgxpool.Pool
}

func NewWorkerService(pool *pgxpool.Pool) WorkerService {
	return &workerService{pool: pool}
}

func (s *workerService) CreateWorker(ctx context.Context, in WorkerInput) (*Worker, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("worker name is required")
	}
	status := in.Status
	if status == "" {
		status = "active"
	}
	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO workers (name, position, contacts, hire_date, fire_date, salary, salary_type, status, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, in.Name, in.Position, in.Contacts, in.HireDate, in.FireDate,
		in.Salary, in.SalaryType, status, in.Comment).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert worker: %w", err)
	}
	return s.GetWorker(ctx, id)
}

func (s *workerService) UpdateWorker(ctx context.Context, workerID int, in WorkerInput) (*Worker, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("worker name is required")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE workers
		SET name = $1, position = $2, contacts = $3, hire_date = $4, fire_date = $5,
		    salary = $6, salary_type = $7, status = $8, comment = $9
		WHERE id = $10
	`, in.Name, in.Position, in.Contacts, in.HireDate, in.FireDate,
		in.Salary, in.SalaryType, in.Status, in.Comment, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update worker %d: %w", workerID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundf("worker %d not found", workerID)
	}
	return s.GetWorker(ctx, workerID)
}

func (s *workerService) DeleteWorker(ctx context.Context, workerID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM workers WHERE id = $1", workerID)
	if err != nil {
		return fmt.Errorf("failed to delete worker %d: %w", workerID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("worker %d not found", workerID)
	}
	return nil
}

const workerSelect = `
	SELECT id, name, position, contacts, hire_date::text, fire_date::text,
	       salary, salary_type, status, comment, created_at
	FROM workers
`

func scanWorker(row pgxRowScanner) (*Worker, error) {
	var w Worker
	if err := row.Scan(&w.ID, &w.Name, &w.Position, &w.Contacts, &w.HireDate,
		&w.FireDate, &w.Salary, &w.SalaryType, &w.Status, &w.Comment, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *workerService) GetWorker(ctx context.Context, workerID int) (*Worker, error) {
	w, err := scanWorker(s.pool.QueryRow(ctx, workerSelect+" WHERE id = $1", workerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("worker %d not found", workerID)
		}
		return nil, fmt.Errorf("failed to fetch worker %d: %w", workerID, err)
	}
	return w, nil
}

func (s *workerService) ListWorkers(ctx context.Context) ([]Worker, error) {
	rows, err := s.pool.Query(ctx, workerSelect+" ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read workers: %w", err)
	}
	return workers, nil
}
