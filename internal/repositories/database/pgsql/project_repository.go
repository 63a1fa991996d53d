package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/construction_ledger/internal/models"
	"github.com/SscSPs/construction_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxProjectRepository struct {
	db querier
}

func newPgxProjectRepository(db querier) *PgxProjectRepository {
	return &PgxProjectRepository{db: db}
}

var _ portsrepo.ProjectRepositoryFacade = (*PgxProjectRepository)(nil)

// FindProjectByID retrieves a project with its per-currency balances.
func (r *PgxProjectRepository) FindProjectByID(ctx context.Context, projectID string) (*domain.Project, error) {
	query := `
		SELECT project_id, name, code, serial_number, status, currency, expense_counter, map_counter,
		       created_at, created_by, last_updated_at, last_updated_by, version
		FROM projects
		WHERE project_id = $1;
	`
	var m models.Project
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&m.ProjectID, &m.Name, &m.Code, &m.SerialNumber, &m.Status, &m.Currency,
		&m.ExpenseCounter, &m.MapCounter,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy, &m.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: project %s", apperrors.ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to find project %s: %w", projectID, err)
	}

	rows, err := r.db.Query(ctx, `SELECT currency, balance FROM project_balances WHERE project_id = $1;`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances of project %s: %w", projectID, err)
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal)
	for rows.Next() {
		var b models.ProjectBalance
		if err := rows.Scan(&b.Currency, &b.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan project balance: %w", err)
		}
		balances[b.Currency] = b.Balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project balances: %w", err)
	}

	project := domain.Project{
		ProjectID:      m.ProjectID,
		Name:           m.Name,
		Code:           m.Code,
		SerialNumber:   m.SerialNumber,
		Status:         domain.ProjectStatus(m.Status),
		Currency:       m.Currency,
		Balances:       balances,
		ExpenseCounter: m.ExpenseCounter,
		MapCounter:     m.MapCounter,
		AuditFields:    mapping.ToDomainAuditFields(m.AuditFields),
	}
	return &project, nil
}

// AdjustProjectBalance adds delta to the project balance in currency, creating the row on first use.
func (r *PgxProjectRepository) AdjustProjectBalance(ctx context.Context, projectID, currency string, delta decimal.Decimal, userID string, now time.Time) error {
	query := `
		INSERT INTO project_balances (project_id, currency, balance, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, currency)
		DO UPDATE SET balance = project_balances.balance + EXCLUDED.balance,
		              last_updated_at = EXCLUDED.last_updated_at,
		              last_updated_by = EXCLUDED.last_updated_by;
	`
	if _, err := r.db.Exec(ctx, query, projectID, currency, delta, now, userID); err != nil {
		return fmt.Errorf("failed to adjust balance of project %s: %w", projectID, err)
	}
	return nil
}

// IncrementProjectCounters bumps the expense and map counters.
func (r *PgxProjectRepository) IncrementProjectCounters(ctx context.Context, projectID string, expenseDelta, mapDelta int, userID string, now time.Time) error {
	query := `
		UPDATE projects
		SET expense_counter = expense_counter + $2,
		    map_counter = map_counter + $3,
		    last_updated_at = $4,
		    last_updated_by = $5,
		    version = version + 1
		WHERE project_id = $1;
	`
	tag, err := r.db.Exec(ctx, query, projectID, expenseDelta, mapDelta, now, userID)
	if err != nil {
		return fmt.Errorf("failed to increment counters of project %s: %w", projectID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: project %s", apperrors.ErrNotFound, projectID)
	}
	return nil
}
