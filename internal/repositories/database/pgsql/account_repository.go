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
)

const accountColumns = `account_id, owner, employee_id, kind, currency, bank_balance, cash_balance, bank_held, cash_held,
	created_at, created_by, last_updated_at, last_updated_by, version`

type PgxAccountRepository struct {
	db querier
}

func newPgxAccountRepository(db querier) *PgxAccountRepository {
	return &PgxAccountRepository{db: db}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID, &m.Owner, &m.EmployeeID, &m.Kind, &m.Currency,
		&m.BankBalance, &m.CashBalance, &m.BankHeld, &m.CashHeld,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy, &m.Version,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

// FindEmployeeAccounts returns the accounts that exist for employeeIDs in currency, keyed by employee id.
func (r *PgxAccountRepository) FindEmployeeAccounts(ctx context.Context, employeeIDs []string, currency string) (map[string]domain.Account, error) {
	found := make(map[string]domain.Account, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return found, nil
	}

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner = 'employee' AND employee_id = ANY($1) AND upper(currency) = upper($2);`
	rows, err := r.db.Query(ctx, query, employeeIDs, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		found[acc.EmployeeID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return found, nil
}

// FindCompanyAccount retrieves the company account of a kind in currency.
func (r *PgxAccountRepository) FindCompanyAccount(ctx context.Context, kind domain.CompanyAccountKind, currency string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner = 'company' AND kind = $1 AND upper(currency) = upper($2);`
	acc, err := scanAccount(r.db.QueryRow(ctx, query, string(kind), currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: company %s account in %s", apperrors.ErrNotFound, kind, currency)
		}
		return nil, fmt.Errorf("failed to find company %s account: %w", kind, err)
	}
	return &acc, nil
}

// ApplyAccountDelta increments the four counters in one statement so concurrent
// writers never lose an update.
func (r *PgxAccountRepository) ApplyAccountDelta(ctx context.Context, accountID string, delta domain.AccountDelta, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET bank_balance = bank_balance + $2,
		    cash_balance = cash_balance + $3,
		    bank_held = bank_held + $4,
		    cash_held = cash_held + $5,
		    last_updated_at = $6,
		    last_updated_by = $7,
		    version = version + 1
		WHERE account_id = $1;
	`
	tag, err := r.db.Exec(ctx, query, accountID, delta.BankBalance, delta.CashBalance, delta.BankHeld, delta.CashHeld, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return nil
}
