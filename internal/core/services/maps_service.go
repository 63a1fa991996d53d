package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/utils/distribution"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// mapsService implements the MapsDistributionSvc interface
type mapsService struct {
	runSupport
}

// NewMapsDistributionService creates the maps distribution service.
func NewMapsDistributionService(store portsrepo.LedgerStore, options ...DistributionOption) portssvc.MapsDistributionSvc {
	return &mapsService{runSupport: newRunSupport(store, options...)}
}

var _ portssvc.MapsDistributionSvc = (*mapsService)(nil)

func (s *mapsService) CommitMaps(ctx context.Context, projectID, currency string, items []domain.MapItemInput, method domain.FundType, actor domain.Actor, opts domain.CommitOptions) (*domain.MapsResult, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: actor is required", apperrors.ErrValidation)
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", apperrors.ErrValidation)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: payment method must be bank or cash, got %q", apperrors.ErrValidation, method)
	}
	if err := validateMapItems(items); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, projectID)
	if err != nil {
		s.LogWarn(ctx, "Could not acquire project lock", slog.String("project_id", projectID), slog.String("error", err.Error()))
		return nil, err
	}
	defer unlock()

	previous, err := s.existingRun(ctx, opts.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		if previous.Status == domain.RunSucceeded && previous.ProjectID == projectID {
			s.LogInfo(ctx, "Replaying successful maps distribution run", slog.String("run_id", previous.RunID))
			return replayMapsResult(previous), nil
		}
		return nil, refuseAttempted(previous)
	}

	project, err := s.store.FindProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", projectID, err)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = project.Currency
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: project %s has no default currency", apperrors.ErrValidation, projectID)
	}

	employeeIDs := mapEmployeeIDs(items)
	employees, err := s.store.FindEmployeeAccounts(ctx, employeeIDs, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee accounts: %w", err)
	}
	missing := &apperrors.AccountMissingError{Currency: currency}
	for _, id := range employeeIDs {
		if _, ok := employees[id]; !ok {
			missing.EmployeeIDs = append(missing.EmployeeIDs, id)
		}
	}
	company, err := findCompanyAccounts(ctx, s.store, currency, []domain.CompanyAccountKind{domain.CompanyMain}, missing)
	if err != nil {
		return nil, err
	}
	if len(missing.EmployeeIDs) > 0 || len(missing.CompanyKinds) > 0 {
		s.LogWarn(ctx, "Maps distribution blocked by missing accounts", slog.String("error", missing.Error()))
		return nil, missing
	}

	run, err := s.beginRun(ctx, projectID, domain.RunMaps, opts.IdempotencyKey, actor)
	if err != nil {
		return nil, err
	}

	plan := buildMapsPlan(run.RunID, *project, currency, items, method, &runAccounts{employees: employees, company: company}, actor, opts, s.Now())
	tracker := newStepTracker(ctx)

	s.LogInfo(ctx, "Committing maps distribution",
		slog.String("run_id", run.RunID),
		slog.String("project_id", projectID),
		slog.Int("map_count", len(items)),
		slog.String("total", plan.header.TotalAmount.String()),
		slog.String("method", string(method)))

	runErr := s.execute(ctx, tracker, func(store portsrepo.LedgerStore) error {
		return applyMapsPlan(store, tracker, plan)
	})
	result := &domain.MapsResult{
		RunID:          run.RunID,
		Distribution:   plan.header,
		Expense:        plan.expense,
		Payment:        plan.payment,
		Items:          plan.items,
		Details:        plan.details,
		PayrollEntries: plan.payroll,
		CompletedSteps: tracker.completed,
	}
	var snapshot any
	if runErr == nil {
		snapshot = result
	}
	s.finish(ctx, run, tracker, runErr, []string{plan.header.MapsDistributionID, plan.expense.ExpenseID}, snapshot, actor)

	if runErr != nil {
		s.LogError(ctx, runErr, "Maps distribution failed", slog.String("run_id", run.RunID))
		return nil, runErr
	}
	return result, nil
}

// validateMapItems checks every item independently; there is no partition across items.
func validateMapItems(items []domain.MapItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one map item is required", apperrors.ErrValidation)
	}
	for i, item := range items {
		label := strings.TrimSpace(item.Name)
		if label == "" {
			return fmt.Errorf("%w: map item %d has no name", apperrors.ErrValidation, i)
		}
		if item.Price.IsNegative() || !item.Quantity.IsPositive() {
			return fmt.Errorf("%w: map %s needs a non-negative price and a positive quantity", apperrors.ErrValidation, label)
		}
		if item.CompanyPercentage.IsNegative() || item.CompanyPercentage.GreaterThan(distribution.Hundred) {
			return fmt.Errorf("%w: map %s company percentage out of range", apperrors.ErrValidation, label)
		}
		seen := make(map[string]struct{}, len(item.Employees))
		pcts := make([]decimal.Decimal, 0, len(item.Employees)+1)
		for _, e := range item.Employees {
			if e.EmployeeID == "" {
				return fmt.Errorf("%w: map %s has a participant without employee id", apperrors.ErrValidation, label)
			}
			if _, dup := seen[e.EmployeeID]; dup {
				return fmt.Errorf("%w: map %s lists employee %s more than once", apperrors.ErrValidation, label, e.EmployeeID)
			}
			seen[e.EmployeeID] = struct{}{}
			if e.Percentage.IsNegative() || e.Percentage.GreaterThan(distribution.Hundred) {
				return fmt.Errorf("%w: map %s employee %s percentage out of range", apperrors.ErrValidation, label, e.EmployeeID)
			}
			pcts = append(pcts, e.Percentage)
		}
		pcts = append(pcts, item.CompanyPercentage)
		if err := distribution.CheckPartition(label, pcts...); err != nil {
			return err
		}
	}
	return nil
}

func mapEmployeeIDs(items []domain.MapItemInput) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, e := range item.Employees {
			if _, ok := seen[e.EmployeeID]; ok {
				continue
			}
			seen[e.EmployeeID] = struct{}{}
			ids = append(ids, e.EmployeeID)
		}
	}
	return ids
}

func replayMapsResult(run *domain.DistributionRun) *domain.MapsResult {
	var stored domain.MapsResult
	if restoreSnapshot(run, &stored) {
		stored.Replayed = true
		return &stored
	}
	result := &domain.MapsResult{RunID: run.RunID, Replayed: true}
	result.Distribution.RunID = run.RunID
	result.Distribution.ProjectID = run.ProjectID
	if len(run.ResultIDs) > 0 {
		result.Distribution.MapsDistributionID = run.ResultIDs[0]
	}
	if len(run.ResultIDs) > 1 {
		result.Expense.ExpenseID = run.ResultIDs[1]
		result.Distribution.ExpenseID = run.ResultIDs[1]
	}
	return result
}

type mapsPlan struct {
	projectID       string
	currency        string
	actorID         string
	now             time.Time
	mapCount        int
	expense         domain.ProjectExpense
	payment         domain.ExpensePayment
	header          domain.MapsDistribution
	items           []domain.MapsDistributionItem
	details         []domain.MapsDistributionDetail
	employeeUpdates []accountUpdate
	companyUpdate   accountUpdate
	payroll         []domain.PayrollEntry
}

// buildMapsPlan prices every map and splits it by largest remainder, so each
// map's details are non-negative and sum to its total.
func buildMapsPlan(runID string, project domain.Project, currency string, inputs []domain.MapItemInput, method domain.FundType, accounts *runAccounts, actor domain.Actor, opts domain.CommitOptions, now time.Time) *mapsPlan {
	plan := &mapsPlan{
		projectID: project.ProjectID,
		currency:  currency,
		actorID:   actor.ID,
		now:       now,
		mapCount:  len(inputs),
	}
	headerID := uuid.NewString()
	grandTotal := decimal.Zero
	companyTotal := decimal.Zero
	perEmployee := make(map[string]decimal.Decimal)
	var order []string

	for _, in := range inputs {
		item := domain.MapsDistributionItem{
			ItemID:             uuid.NewString(),
			MapsDistributionID: headerID,
			Name:               strings.TrimSpace(in.Name),
			Price:              in.Price,
			Quantity:           in.Quantity,
			Total:              in.Total(),
			CompanyPercentage:  in.CompanyPercentage,
		}
		plan.items = append(plan.items, item)
		grandTotal = grandTotal.Add(item.Total)

		pcts := make([]decimal.Decimal, 0, len(in.Employees)+1)
		for _, e := range in.Employees {
			pcts = append(pcts, e.Percentage)
		}
		amounts := distribution.AllocateCents(item.Total, append(pcts, in.CompanyPercentage))
		for i, e := range in.Employees {
			amount := amounts[i]
			plan.details = append(plan.details, domain.MapsDistributionDetail{
				DetailID:           uuid.NewString(),
				ItemID:             item.ItemID,
				MapsDistributionID: headerID,
				Participant:        domain.ParticipantEmployee,
				EmployeeID:         e.EmployeeID,
				Percentage:         e.Percentage,
				Amount:             amount,
			})
			if _, ok := perEmployee[e.EmployeeID]; !ok {
				order = append(order, e.EmployeeID)
			}
			perEmployee[e.EmployeeID] = perEmployee[e.EmployeeID].Add(amount)
		}
		companyAmount := amounts[len(in.Employees)]
		plan.details = append(plan.details, domain.MapsDistributionDetail{
			DetailID:           uuid.NewString(),
			ItemID:             item.ItemID,
			MapsDistributionID: headerID,
			Participant:        domain.ParticipantCompany,
			Percentage:         in.CompanyPercentage,
			Amount:             companyAmount,
		})
		companyTotal = companyTotal.Add(companyAmount)
	}

	plan.expense = domain.ProjectExpense{
		ExpenseID:    uuid.NewString(),
		ProjectID:    project.ProjectID,
		Currency:     currency,
		Category:     domain.ExpenseCategoryMaps,
		Description:  fmt.Sprintf("Maps distribution (%d maps)", len(inputs)),
		Amount:       grandTotal,
		SerialNumber: project.ExpenseCounter + 1,
		ExpenseDate:  now,
		CreatedAt:    now,
		CreatedBy:    actor.ID,
	}
	plan.payment = domain.ExpensePayment{
		PaymentID: uuid.NewString(),
		ExpenseID: plan.expense.ExpenseID,
		ProjectID: project.ProjectID,
		Currency:  currency,
		Amount:    grandTotal,
		Method:    method,
		PaidAt:    now,
		CreatedBy: actor.ID,
	}
	plan.header = domain.MapsDistribution{
		MapsDistributionID: headerID,
		ProjectID:          project.ProjectID,
		RunID:              runID,
		ExpenseID:          plan.expense.ExpenseID,
		Currency:           currency,
		Method:             method,
		TotalAmount:        grandTotal,
		MapCount:           len(inputs),
		Note:               opts.Note,
		CreatedAt:          now,
		CreatedBy:          actor.ID,
	}

	payDate := opts.PayDate
	if payDate.IsZero() {
		payDate = now
	}
	for _, id := range order {
		amount := perEmployee[id]
		if !amount.IsPositive() {
			continue
		}
		plan.employeeUpdates = append(plan.employeeUpdates, accountUpdate{
			accountID: accounts.employees[id].AccountID,
			label:     "employee " + id,
			delta:     methodDelta(method, amount),
		})
		plan.payroll = append(plan.payroll, domain.PayrollEntry{
			PayrollID:        uuid.NewString(),
			EmployeeID:       id,
			ProjectID:        project.ProjectID,
			Currency:         currency,
			PayDate:          payDate,
			TotalSalary:      amount,
			BasicSalary:      decimal.Zero,
			PercentageSalary: amount,
			PaymentMethod:    method,
			Status:           domain.PayrollPending,
			Source:           domain.PayrollFromMaps,
			SourceID:         headerID,
			Note:             opts.Note,
			CreatedAt:        now,
			CreatedBy:        actor.ID,
		})
	}
	plan.companyUpdate = accountUpdate{
		accountID: accounts.company[domain.CompanyMain].AccountID,
		label:     "company main",
		delta:     methodDelta(method, companyTotal),
	}
	return plan
}

func methodDelta(method domain.FundType, amount decimal.Decimal) domain.AccountDelta {
	if method == domain.FundBank {
		return domain.AccountDelta{BankBalance: amount}
	}
	return domain.AccountDelta{CashBalance: amount}
}

func applyMapsPlan(store portsrepo.LedgerStore, tracker *stepTracker, plan *mapsPlan) error {
	if err := tracker.do(domain.StepCreateExpense, func(ctx context.Context) error {
		if err := store.SaveExpense(ctx, plan.expense); err != nil {
			return err
		}
		return store.SaveExpensePayment(ctx, plan.payment)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepDecrementProjectBalance, func(ctx context.Context) error {
		return store.AdjustProjectBalance(ctx, plan.projectID, plan.currency, plan.expense.Amount.Neg(), plan.actorID, plan.now)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepCreateMapsDistribution, func(ctx context.Context) error {
		return store.SaveMapsDistribution(ctx, plan.header)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepInsertMapsItems, func(ctx context.Context) error {
		return store.SaveMapsItems(ctx, plan.items)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepInsertMapsDetails, func(ctx context.Context) error {
		return store.SaveMapsDetails(ctx, plan.details)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepUpdateEmployeeAccounts, func(ctx context.Context) error {
		return applyAccountUpdates(ctx, store, plan.employeeUpdates, plan.actorID, plan.now)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepUpdateCompanyAccounts, func(ctx context.Context) error {
		if plan.companyUpdate.delta.IsZero() {
			return nil
		}
		return applyAccountUpdates(ctx, store, []accountUpdate{plan.companyUpdate}, plan.actorID, plan.now)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepInsertPayrollEntries, func(ctx context.Context) error {
		if len(plan.payroll) == 0 {
			return nil
		}
		return store.SavePayrollEntries(ctx, plan.payroll)
	}); err != nil {
		return err
	}

	return tracker.do(domain.StepIncrementCounters, func(ctx context.Context) error {
		return store.IncrementProjectCounters(ctx, plan.projectID, 1, plan.mapCount, plan.actorID, plan.now)
	})
}
