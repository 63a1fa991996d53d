package pgsql

import (
	"context"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/construction_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// PgxLedgerRecordRepository writes the append-only evidence tables.
type PgxLedgerRecordRepository struct {
	db querier
}

func newPgxLedgerRecordRepository(db querier) *PgxLedgerRecordRepository {
	return &PgxLedgerRecordRepository{db: db}
}

var _ portsrepo.LedgerRecordWriter = (*PgxLedgerRecordRepository)(nil)

func (r *PgxLedgerRecordRepository) SaveHeldRecords(ctx context.Context, records []domain.HeldRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := `
		INSERT INTO held_records (held_id, employee_id, project_id, period_id, currency, fund_type, amount, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, h := range records {
		batch.Queue(query, h.HeldID, h.EmployeeID, h.ProjectID, h.PeriodID, h.Currency, string(h.Type), h.Amount, h.Note, h.CreatedAt, h.CreatedBy)
	}
	if err := execBatch(ctx, r.db, batch); err != nil {
		return wrapWriteErr(err, "held records")
	}
	return nil
}

func (r *PgxLedgerRecordRepository) SaveEmployeeDiscounts(ctx context.Context, records []domain.DiscountRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := `
		INSERT INTO employee_discounts (discount_id, employee_id, project_id, period_id, currency, amount, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	batch := &pgx.Batch{}
	for _, d := range records {
		batch.Queue(query, d.DiscountID, d.EmployeeID, d.ProjectID, d.PeriodID, d.Currency, d.Amount, d.Note, d.CreatedAt, d.CreatedBy)
	}
	if err := execBatch(ctx, r.db, batch); err != nil {
		return wrapWriteErr(err, "employee discounts")
	}
	return nil
}

func (r *PgxLedgerRecordRepository) SaveCompanyDiscount(ctx context.Context, record domain.DiscountRecord) error {
	query := `
		INSERT INTO company_discounts (discount_id, project_id, period_id, currency, amount, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.Exec(ctx, query, record.DiscountID, record.ProjectID, record.PeriodID, record.Currency, record.Amount, record.Note, record.CreatedAt, record.CreatedBy)
	if err != nil {
		return wrapWriteErr(err, "company discount "+record.DiscountID)
	}
	return nil
}

func (r *PgxLedgerRecordRepository) SavePayrollEntries(ctx context.Context, entries []domain.PayrollEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
		INSERT INTO payroll_entries (payroll_id, employee_id, project_id, currency, pay_date, total_salary, basic_salary,
			percentage_salary, payment_method, status, source, source_id, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, e.PayrollID, e.EmployeeID, e.ProjectID, e.Currency, e.PayDate, e.TotalSalary, e.BasicSalary,
			e.PercentageSalary, string(e.PaymentMethod), string(e.Status), string(e.Source), mapping.NullString(e.SourceID),
			e.Note, e.CreatedAt, e.CreatedBy)
	}
	if err := execBatch(ctx, r.db, batch); err != nil {
		return wrapWriteErr(err, "payroll entries")
	}
	return nil
}
