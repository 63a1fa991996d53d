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

const percentageLogColumns = `log_id, project_id, currency, amount, percentage, distributed, period_id,
	source_expense_id, source_payment_id, created_at, created_by, distributed_at`

type PgxPercentageLogRepository struct {
	db querier
}

func newPgxPercentageLogRepository(db querier) *PgxPercentageLogRepository {
	return &PgxPercentageLogRepository{db: db}
}

var _ portsrepo.PercentageLogRepositoryFacade = (*PgxPercentageLogRepository)(nil)

func scanPercentageLog(row pgx.Row) (domain.PercentageLog, error) {
	var m models.PercentageLog
	err := row.Scan(
		&m.LogID, &m.ProjectID, &m.Currency, &m.Amount, &m.Percentage, &m.Distributed, &m.PeriodID,
		&m.SourceExpenseID, &m.SourcePaymentID, &m.CreatedAt, &m.CreatedBy, &m.DistributedAt,
	)
	if err != nil {
		return domain.PercentageLog{}, err
	}
	return mapping.ToDomainPercentageLog(m), nil
}

// FindPercentageLogsByIDs returns the logs that exist among ids, keyed by id.
func (r *PgxPercentageLogRepository) FindPercentageLogsByIDs(ctx context.Context, logIDs []string) (map[string]domain.PercentageLog, error) {
	found := make(map[string]domain.PercentageLog, len(logIDs))
	if len(logIDs) == 0 {
		return found, nil
	}

	rows, err := r.db.Query(ctx, `SELECT `+percentageLogColumns+` FROM percentage_logs WHERE log_id = ANY($1);`, logIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query percentage logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		log, err := scanPercentageLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan percentage log: %w", err)
		}
		found[log.LogID] = log
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating percentage logs: %w", err)
	}
	return found, nil
}

// ListUndistributedLogs returns the open logs of a project in currency, oldest first.
func (r *PgxPercentageLogRepository) ListUndistributedLogs(ctx context.Context, projectID, currency string) ([]domain.PercentageLog, error) {
	query := `SELECT ` + percentageLogColumns + `
		FROM percentage_logs
		WHERE project_id = $1 AND upper(currency) = upper($2) AND NOT distributed
		ORDER BY created_at ASC, log_id ASC;`

	rows, err := r.db.Query(ctx, query, projectID, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to list undistributed logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.PercentageLog, 0)
	for rows.Next() {
		log, err := scanPercentageLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan percentage log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating percentage logs: %w", err)
	}
	return logs, nil
}

// MarkLogsDistributed flips distributed=true on open logs of projectID.
// Rows already distributed are left alone and not counted.
func (r *PgxPercentageLogRepository) MarkLogsDistributed(ctx context.Context, projectID string, logIDs []string, periodID string, now time.Time) (int64, error) {
	if len(logIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE percentage_logs
		SET distributed = TRUE, period_id = $3, distributed_at = $4
		WHERE project_id = $1 AND log_id = ANY($2) AND NOT distributed;
	`
	tag, err := r.db.Exec(ctx, query, projectID, logIDs, periodID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark logs distributed: %w", err)
	}
	return tag.RowsAffected(), nil
}

type PgxPercentagePoolRepository struct {
	db querier
}

func newPgxPercentagePoolRepository(db querier) *PgxPercentagePoolRepository {
	return &PgxPercentagePoolRepository{db: db}
}

var _ portsrepo.PercentagePoolRepositoryFacade = (*PgxPercentagePoolRepository)(nil)

// FindPools returns the cash and bank pool rows of a project in currency.
func (r *PgxPercentagePoolRepository) FindPools(ctx context.Context, projectID, currency string) ([]domain.PercentagePool, error) {
	query := `
		SELECT pool_id, project_id, currency, fund_type, balance, last_updated_at
		FROM project_percentage
		WHERE project_id = $1 AND upper(currency) = upper($2)
		ORDER BY fund_type;
	`
	rows, err := r.db.Query(ctx, query, projectID, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to query percentage pools: %w", err)
	}
	defer rows.Close()

	pools := make([]domain.PercentagePool, 0, 2)
	for rows.Next() {
		var m models.PercentagePool
		if err := rows.Scan(&m.PoolID, &m.ProjectID, &m.Currency, &m.FundType, &m.Balance, &m.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan percentage pool: %w", err)
		}
		pools = append(pools, mapping.ToDomainPercentagePool(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating percentage pools: %w", err)
	}
	return pools, nil
}

// ReducePoolBalance subtracts amount from a pool, flooring at zero, and returns the new balance.
func (r *PgxPercentagePoolRepository) ReducePoolBalance(ctx context.Context, projectID, currency string, fund domain.FundType, amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	query := `
		UPDATE project_percentage
		SET balance = GREATEST(balance - $4, 0), last_updated_at = $5
		WHERE project_id = $1 AND upper(currency) = upper($2) AND fund_type = $3
		RETURNING balance;
	`
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, query, projectID, currency, string(fund), amount, now).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: %s pool of project %s in %s", apperrors.ErrNotFound, fund, projectID, currency)
		}
		return decimal.Zero, fmt.Errorf("failed to reduce %s pool: %w", fund, err)
	}
	return balance, nil
}
