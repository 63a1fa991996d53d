package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/construction_ledger/internal/models"
	"github.com/SscSPs/construction_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const periodColumns = `period_id, project_id, run_id, currency, fund_type, date_from, date_to, total_amount, note, created_at, created_by`

type PgxPeriodRepository struct {
	db querier
}

func newPgxPeriodRepository(db querier) *PgxPeriodRepository {
	return &PgxPeriodRepository{db: db}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (domain.DistributionPeriod, error) {
	var m models.DistributionPeriod
	err := row.Scan(&m.PeriodID, &m.ProjectID, &m.RunID, &m.Currency, &m.FundType, &m.DateFrom, &m.DateTo,
		&m.TotalAmount, &m.Note, &m.CreatedAt, &m.CreatedBy)
	if err != nil {
		return domain.DistributionPeriod{}, err
	}
	return mapping.ToDomainPeriod(m), nil
}

func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.DistributionPeriod) error {
	m := mapping.ToModelPeriod(period)
	query := `INSERT INTO distribution_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	_, err := r.db.Exec(ctx, query, m.PeriodID, m.ProjectID, m.RunID, m.Currency, m.FundType, m.DateFrom, m.DateTo,
		m.TotalAmount, m.Note, m.CreatedAt, m.CreatedBy)
	if err != nil {
		return wrapWriteErr(err, "period "+m.PeriodID)
	}
	return nil
}

// SaveLineItems inserts a period's line items as one batch.
func (r *PgxPeriodRepository) SaveLineItems(ctx context.Context, items []domain.PeriodLineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO period_line_items (line_item_id, period_id, position, participant, employee_id,
			bank_amount, cash_amount, bank_held, cash_held, discount, total, percentage, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	batch := &pgx.Batch{}
	for i, item := range items {
		m := mapping.ToModelLineItem(item, i)
		batch.Queue(query, m.LineItemID, m.PeriodID, m.Position, m.Participant, m.EmployeeID,
			m.BankAmount, m.CashAmount, m.BankHeld, m.CashHeld, m.Discount, m.Total, m.Percentage, m.Note, m.CreatedAt)
	}
	if err := execBatch(ctx, r.db, batch); err != nil {
		return wrapWriteErr(err, "period line items")
	}
	return nil
}

func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.DistributionPeriod, error) {
	period, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM distribution_periods WHERE period_id = $1;`, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, periodID)
		}
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	return &period, nil
}

// ListPeriods lists a project's periods newest first, strictly after the cursor when given.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context, projectID string, limit int, after *domain.PeriodCursor) ([]domain.DistributionPeriod, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if after == nil {
		rows, err = r.db.Query(ctx, `SELECT `+periodColumns+`
			FROM distribution_periods
			WHERE project_id = $1
			ORDER BY created_at DESC, period_id DESC
			LIMIT $2;`, projectID, limit)
	} else {
		rows, err = r.db.Query(ctx, `SELECT `+periodColumns+`
			FROM distribution_periods
			WHERE project_id = $1 AND (created_at, period_id) < ($2, $3)
			ORDER BY created_at DESC, period_id DESC
			LIMIT $4;`, projectID, after.CreatedAt, after.PeriodID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	periods := make([]domain.DistributionPeriod, 0, limit)
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating periods: %w", err)
	}
	return periods, nil
}

// ListLineItems returns every line item of a period in insertion order, company first.
func (r *PgxPeriodRepository) ListLineItems(ctx context.Context, periodID string) ([]domain.PeriodLineItem, error) {
	query := `
		SELECT line_item_id, period_id, position, participant, employee_id, bank_amount, cash_amount,
		       bank_held, cash_held, discount, total, percentage, note, created_at
		FROM period_line_items
		WHERE period_id = $1
		ORDER BY position;
	`
	rows, err := r.db.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items of period %s: %w", periodID, err)
	}
	defer rows.Close()

	items := make([]domain.PeriodLineItem, 0)
	for rows.Next() {
		var m models.PeriodLineItem
		if err := rows.Scan(&m.LineItemID, &m.PeriodID, &m.Position, &m.Participant, &m.EmployeeID, &m.BankAmount,
			&m.CashAmount, &m.BankHeld, &m.CashHeld, &m.Discount, &m.Total, &m.Percentage, &m.Note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, mapping.ToDomainLineItem(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}
	return items, nil
}
