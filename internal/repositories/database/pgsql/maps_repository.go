package pgsql

import (
	"context"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/construction_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// PgxMapsRepository writes maps distributions and the expense they book.
type PgxMapsRepository struct {
	db querier
}

func newPgxMapsRepository(db querier) *PgxMapsRepository {
	return &PgxMapsRepository{db: db}
}

var (
	_ portsrepo.ExpenseWriter          = (*PgxMapsRepository)(nil)
	_ portsrepo.MapsDistributionWriter = (*PgxMapsRepository)(nil)
)

func (r *PgxMapsRepository) SaveExpense(ctx context.Context, e domain.ProjectExpense) error {
	query := `
		INSERT INTO project_expenses (expense_id, project_id, currency, category, description, amount, serial_number, expense_date, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.db.Exec(ctx, query, e.ExpenseID, e.ProjectID, e.Currency, e.Category, e.Description, e.Amount, e.SerialNumber, e.ExpenseDate, e.CreatedAt, e.CreatedBy)
	if err != nil {
		return wrapWriteErr(err, "expense "+e.ExpenseID)
	}
	return nil
}

func (r *PgxMapsRepository) SaveExpensePayment(ctx context.Context, p domain.ExpensePayment) error {
	query := `
		INSERT INTO expense_payments (payment_id, expense_id, project_id, currency, amount, method, paid_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.Exec(ctx, query, p.PaymentID, p.ExpenseID, p.ProjectID, p.Currency, p.Amount, string(p.Method), p.PaidAt, p.CreatedBy)
	if err != nil {
		return wrapWriteErr(err, "expense payment "+p.PaymentID)
	}
	return nil
}

func (r *PgxMapsRepository) SaveMapsDistribution(ctx context.Context, h domain.MapsDistribution) error {
	query := `
		INSERT INTO maps_distributions (maps_distribution_id, project_id, run_id, expense_id, currency, method, total_amount, map_count, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query, h.MapsDistributionID, h.ProjectID, h.RunID, h.ExpenseID, h.Currency, string(h.Method),
		h.TotalAmount, h.MapCount, h.Note, h.CreatedAt, h.CreatedBy)
	if err != nil {
		return wrapWriteErr(err, "maps distribution "+h.MapsDistributionID)
	}
	return nil
}

func (r *PgxMapsRepository) SaveMapsItems(ctx context.Context, items []domain.MapsDistributionItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO maps_distribution_items (item_id, maps_distribution_id, position, name, price, quantity, total, company_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(query, it.ItemID, it.MapsDistributionID, i, it.Name, it.Price, it.Quantity, it.Total, it.CompanyPercentage)
	}
	if err := execBatch(ctx, r.db, batch); err != nil {
		return wrapWriteErr(err, "maps items")
	}
	return nil
}

func (r *PgxMapsRepository) SaveMapsDetails(ctx context.Context, details []domain.MapsDistributionDetail) error {
	if len(details) == 0 {
		return nil
	}
	query := `
		INSERT INTO maps_distribution_details (detail_id, item_id, maps_distribution_id, participant, employee_id, percentage, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	batch := &pgx.Batch{}
	for _, d := range details {
		batch.Queue(query, d.DetailID, d.ItemID, d.MapsDistributionID, string(d.Participant), mapping.NullString(d.EmployeeID), d.Percentage, d.Amount)
	}
	if err := execBatch(ctx, r.db, batch); err != nil {
		return wrapWriteErr(err, "maps details")
	}
	return nil
}
