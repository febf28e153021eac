package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// projectRepository implements domain.ProjectRepository
type projectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project wallet repository
func NewProjectRepository(db *DB) domain.ProjectRepository {
	return &projectRepository{db: db}
}

func scanProject(row rowScanner) (*domain.ProjectWallet, error) {
	var project domain.ProjectWallet
	var budgetStr string
	var status string
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Client,
		&status,
		&budgetStr,
		&project.CreatedAt,
	); err != nil {
		return nil, err
	}

	budget, err := decimal.NewFromString(budgetStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse allocated budget: %w", err)
	}
	project.AllocatedBudget = budget
	project.Status = domain.ProjectStatus(status)
	return &project, nil
}

// GetByID retrieves a project wallet by its ID
func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectWallet, error) {
	query := `
		SELECT id, name, client, status, allocated_budget, created_at
		FROM project_wallets
		WHERE id = $1
	`

	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "project wallet", ID: id}
		}
		return nil, fmt.Errorf("failed to get project wallet: %w", err)
	}
	return project, nil
}

// List retrieves all project wallets, oldest first
func (r *projectRepository) List(ctx context.Context) ([]*domain.ProjectWallet, error) {
	query := `
		SELECT id, name, client, status, allocated_budget, created_at
		FROM project_wallets
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list project wallets: %w", err)
	}
	defer rows.Close()

	var projects []*domain.ProjectWallet
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project wallet: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project wallets: %w", err)
	}
	return projects, nil
}

// LockedFunds returns the sum of allocated budgets over ACTIVE projects,
// optionally excluding one project
func (r *projectRepository) LockedFunds(ctx context.Context, exclude *uuid.UUID) (decimal.Decimal, error) {
	if exclude != nil {
		query := `
			SELECT COALESCE(SUM(allocated_budget), 0)
			FROM project_wallets
			WHERE status = 'ACTIVE' AND id <> $1
		`
		return queryDecimal(ctx, r.db, query, *exclude)
	}

	query := `
		SELECT COALESCE(SUM(allocated_budget), 0)
		FROM project_wallets
		WHERE status = 'ACTIVE'
	`
	return queryDecimal(ctx, r.db, query)
}
