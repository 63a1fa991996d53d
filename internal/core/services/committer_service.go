package services

import (
	"context"
	"errors"
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

// committerService implements the CommitterSvc interface
type committerService struct {
	runSupport
	selector portssvc.SelectionSvc
}

// NewCommitterService creates the percentage distribution committer.
func NewCommitterService(store portsrepo.LedgerStore, options ...DistributionOption) portssvc.CommitterSvc {
	return newCommitterService(store, options...)
}

func newCommitterService(store portsrepo.LedgerStore, options ...DistributionOption) *committerService {
	return &committerService{
		runSupport: newRunSupport(store, options...),
		selector:   NewSelectionService(store, store),
	}
}

var _ portssvc.CommitterSvc = (*committerService)(nil)

func (s *committerService) Commit(ctx context.Context, projectID string, selection domain.Selection, shares domain.ShareSet, actor domain.Actor, opts domain.CommitOptions) (*domain.DistributionResult, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: actor is required", apperrors.ErrValidation)
	}
	if projectID == "" || selection.ProjectID != projectID {
		return nil, fmt.Errorf("%w: selection does not belong to project %s", apperrors.ErrValidation, projectID)
	}
	if len(selection.Logs) == 0 {
		return nil, fmt.Errorf("%w: selection is empty", apperrors.ErrValidation)
	}

	unlock, err := s.locker.Lock(ctx, projectID)
	if err != nil {
		s.LogWarn(ctx, "Could not acquire project lock", slog.String("project_id", projectID), slog.String("error", err.Error()))
		return nil, err
	}
	defer unlock()

	replayed, err := s.ReplayRun(ctx, projectID, opts.IdempotencyKey)
	if err != nil || replayed != nil {
		return replayed, err
	}

	// Everything below this point re-reads the ledger under the lock; nothing
	// the caller computed earlier is trusted.
	fresh, err := s.selector.SelectLogs(ctx, projectID, selection.Currency, selection.LogIDs())
	if err != nil {
		return nil, err
	}
	if !fresh.Pools().Cash.Equal(selection.CashPool) || !fresh.Pools().Bank.Equal(selection.BankPool) {
		return nil, &apperrors.SelectionStaleError{Problems: map[string]string{"pools": "pool balances changed since the selection was made"}}
	}

	computed, err := distribution.ComputeShares(fresh.Amounts(), shares.Inputs(), shares.Company.ShareInput)
	if err != nil {
		return nil, err
	}

	accounts, err := s.loadAccounts(ctx, fresh.Currency, computed)
	if err != nil {
		return nil, err
	}

	run, err := s.beginRun(ctx, projectID, domain.RunPercentage, opts.IdempotencyKey, actor)
	if err != nil {
		return nil, err
	}

	plan := buildPercentagePlan(run.RunID, *fresh, computed, accounts, actor, opts, s.Now())
	tracker := newStepTracker(ctx)
	tracker.partial[domain.StepMarkLogsDistributed] = fmt.Sprintf(
		"periods %s and their line items were written but logs %s were not marked as distributed; do not retry, reconcile manually",
		strings.Join(plan.periodIDs(), ", "), strings.Join(fresh.LogIDs(), ", "))

	result := &domain.DistributionResult{
		RunID:             run.RunID,
		ProjectID:         projectID,
		Currency:          fresh.Currency,
		Periods:           plan.periods,
		DistributedLogIDs: fresh.LogIDs(),
		HeldRecords:       plan.held,
		DiscountRecords:   plan.allDiscounts(),
		PayrollEntries:    plan.payroll,
		PoolBalances:      fresh.Pools(),
		NegativeShares:    computed.NegativeTotals(),
	}
	for _, items := range plan.lineItems {
		result.LineItems = append(result.LineItems, items...)
	}

	s.LogInfo(ctx, "Committing percentage distribution",
		slog.String("run_id", run.RunID),
		slog.String("project_id", projectID),
		slog.Int("log_count", len(fresh.Logs)),
		slog.String("selected_total", fresh.SelectedTotal.String()))

	runErr := s.execute(ctx, tracker, func(store portsrepo.LedgerStore) error {
		return s.applyPlan(store, tracker, plan, result)
	})
	result.CompletedSteps = tracker.completed
	var snapshot any
	if runErr == nil {
		snapshot = result
	}
	s.finish(ctx, run, tracker, runErr, plan.periodIDs(), snapshot, actor)

	if runErr != nil {
		s.LogError(ctx, runErr, "Percentage distribution failed", slog.String("run_id", run.RunID))
		return nil, runErr
	}
	s.LogInfo(ctx, "Percentage distribution committed", slog.String("run_id", run.RunID))
	return result, nil
}

func (s *committerService) ReplayRun(ctx context.Context, projectID, idempotencyKey string) (*domain.DistributionResult, error) {
	previous, err := s.existingRun(ctx, idempotencyKey)
	if err != nil || previous == nil {
		return nil, err
	}
	if previous.Status != domain.RunSucceeded || previous.ProjectID != projectID {
		return nil, refuseAttempted(previous)
	}
	s.LogInfo(ctx, "Replaying successful distribution run", slog.String("run_id", previous.RunID))
	return replayResult(previous), nil
}

// loadAccounts resolves every account the run will credit and fails with
// AccountMissing listing all gaps at once.
func (s *committerService) loadAccounts(ctx context.Context, currency string, set *domain.ShareSet) (*runAccounts, error) {
	employeeIDs := set.EmployeeIDs()
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

	needed := []domain.CompanyAccountKind{domain.CompanyMain}
	if set.TotalDiscount().IsPositive() {
		needed = append(needed, domain.CompanyDiscount)
	}
	if set.EmployeeHeld().Total().IsPositive() {
		needed = append(needed, domain.CompanyHeld)
	}
	company, err := findCompanyAccounts(ctx, s.store, currency, needed, missing)
	if err != nil {
		return nil, err
	}

	if len(missing.EmployeeIDs) > 0 || len(missing.CompanyKinds) > 0 {
		s.LogWarn(ctx, "Distribution blocked by missing accounts", slog.String("error", missing.Error()))
		return nil, missing
	}
	return &runAccounts{employees: employees, company: company}, nil
}

// findCompanyAccounts loads the requested company accounts, recording absent kinds in missing.
func findCompanyAccounts(ctx context.Context, store portsrepo.AccountReader, currency string, kinds []domain.CompanyAccountKind, missing *apperrors.AccountMissingError) (map[domain.CompanyAccountKind]domain.Account, error) {
	company := make(map[domain.CompanyAccountKind]domain.Account, len(kinds))
	for _, kind := range kinds {
		acc, err := store.FindCompanyAccount(ctx, kind, currency)
		if errors.Is(err, apperrors.ErrNotFound) {
			missing.CompanyKinds = append(missing.CompanyKinds, string(kind))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load company %s account: %w", kind, err)
		}
		company[kind] = *acc
	}
	return company, nil
}

func replayResult(run *domain.DistributionRun) *domain.DistributionResult {
	var stored domain.DistributionResult
	if restoreSnapshot(run, &stored) {
		stored.Replayed = true
		return &stored
	}
	result := &domain.DistributionResult{
		RunID:     run.RunID,
		ProjectID: run.ProjectID,
		Replayed:  true,
	}
	for _, id := range run.ResultIDs {
		result.Periods = append(result.Periods, domain.DistributionPeriod{PeriodID: id, ProjectID: run.ProjectID, RunID: run.RunID})
	}
	return result
}

type runAccounts struct {
	employees map[string]domain.Account
	company   map[domain.CompanyAccountKind]domain.Account
}

type accountUpdate struct {
	accountID string
	label     string
	delta     domain.AccountDelta
}

type poolReduction struct {
	fund   domain.FundType
	amount decimal.Decimal
}

// percentagePlan is every row a run will write, computed before the first write.
type percentagePlan struct {
	projectID       string
	currency        string
	actorID         string
	now             time.Time
	logIDs          []string
	periods         []domain.DistributionPeriod
	lineItems       [][]domain.PeriodLineItem
	held            []domain.HeldRecord
	discounts       []domain.DiscountRecord
	employeeUpdates []accountUpdate
	payroll         []domain.PayrollEntry
	companyUpdates  []accountUpdate
	companyDiscount *domain.DiscountRecord
	pools           []poolReduction
}

func (p *percentagePlan) periodIDs() []string {
	ids := make([]string, 0, len(p.periods))
	for _, period := range p.periods {
		ids = append(ids, period.PeriodID)
	}
	return ids
}

func (p *percentagePlan) allDiscounts() []domain.DiscountRecord {
	all := append([]domain.DiscountRecord(nil), p.discounts...)
	if p.companyDiscount != nil {
		all = append(all, *p.companyDiscount)
	}
	return all
}

// buildPercentagePlan derives all ledger rows for a validated selection and share set.
func buildPercentagePlan(runID string, sel domain.Selection, set *domain.ShareSet, accounts *runAccounts, actor domain.Actor, opts domain.CommitOptions, now time.Time) *percentagePlan {
	plan := &percentagePlan{
		projectID: sel.ProjectID,
		currency:  sel.Currency,
		actorID:   actor.ID,
		now:       now,
		logIDs:    sel.LogIDs(),
	}
	payDate := opts.PayDate
	if payDate.IsZero() {
		payDate = now
	}

	// 1. one period per leg with a positive amount, bank first
	periodByFund := make(map[domain.FundType]string, 2)
	for _, fund := range []domain.FundType{domain.FundBank, domain.FundCash} {
		leg := sel.Amounts().Leg(fund)
		if !leg.IsPositive() {
			continue
		}
		period := domain.DistributionPeriod{
			PeriodID:    uuid.NewString(),
			ProjectID:   sel.ProjectID,
			RunID:       runID,
			Currency:    sel.Currency,
			Type:        fund,
			DateFrom:    sel.DateFrom,
			DateTo:      sel.DateTo,
			TotalAmount: leg,
			Note:        opts.Note,
			CreatedAt:   now,
			CreatedBy:   actor.ID,
		}
		plan.periods = append(plan.periods, period)
		periodByFund[fund] = period.PeriodID
	}
	periodFor := func(fund domain.FundType) string {
		if id, ok := periodByFund[fund]; ok {
			return id
		}
		return plan.periods[0].PeriodID
	}

	// 2. line items: split per leg when both periods exist
	everyone := append([]domain.ComputedShare{set.Company}, set.Employees...)
	for _, period := range plan.periods {
		items := make([]domain.PeriodLineItem, 0, len(everyone))
		for _, share := range everyone {
			if len(plan.periods) == 1 {
				items = append(items, bothLegsItem(period.PeriodID, share, now))
			} else {
				items = append(items, singleLegItem(period.PeriodID, period.Type, share, now))
			}
		}
		plan.lineItems = append(plan.lineItems, items)
	}

	for _, share := range set.Employees {
		// 4. held evidence per nonzero leg
		for _, leg := range []struct {
			fund   domain.FundType
			amount decimal.Decimal
		}{{domain.FundBank, share.BankHeld}, {domain.FundCash, share.CashHeld}} {
			if !leg.amount.IsPositive() {
				continue
			}
			plan.held = append(plan.held, domain.HeldRecord{
				HeldID:     uuid.NewString(),
				EmployeeID: share.EmployeeID,
				ProjectID:  sel.ProjectID,
				PeriodID:   periodFor(leg.fund),
				Currency:   sel.Currency,
				Type:       leg.fund,
				Amount:     leg.amount,
				Note:       share.Note,
				CreatedAt:  now,
				CreatedBy:  actor.ID,
			})
		}

		// 5. discount evidence
		if share.Discount.IsPositive() {
			plan.discounts = append(plan.discounts, domain.DiscountRecord{
				DiscountID: uuid.NewString(),
				EmployeeID: share.EmployeeID,
				ProjectID:  sel.ProjectID,
				PeriodID:   plan.periods[0].PeriodID,
				Currency:   sel.Currency,
				Amount:     share.Discount,
				Note:       share.Note,
				CreatedAt:  now,
				CreatedBy:  actor.ID,
			})
		}

		// 6. account credit, negatives floored, holds uncapped
		net := distribution.Net(share)
		delta := domain.AccountDelta{
			BankBalance: distribution.FloorZero(net.Bank),
			CashBalance: distribution.FloorZero(net.Cash),
			BankHeld:    share.BankHeld,
			CashHeld:    share.CashHeld,
		}
		if !delta.IsZero() {
			plan.employeeUpdates = append(plan.employeeUpdates, accountUpdate{
				accountID: accounts.employees[share.EmployeeID].AccountID,
				label:     "employee " + share.EmployeeID,
				delta:     delta,
			})
		}

		// 7. payroll per positive net leg
		for _, leg := range []struct {
			fund domain.FundType
			net  decimal.Decimal
		}{{domain.FundBank, net.Bank}, {domain.FundCash, net.Cash}} {
			if !leg.net.IsPositive() {
				continue
			}
			plan.payroll = append(plan.payroll, domain.PayrollEntry{
				PayrollID:        uuid.NewString(),
				EmployeeID:       share.EmployeeID,
				ProjectID:        sel.ProjectID,
				Currency:         sel.Currency,
				PayDate:          payDate,
				TotalSalary:      leg.net,
				BasicSalary:      decimal.Zero,
				PercentageSalary: leg.net,
				PaymentMethod:    leg.fund,
				Status:           domain.PayrollPending,
				Source:           domain.PayrollFromPercentage,
				SourceID:         periodFor(leg.fund),
				Note:             share.Note,
				CreatedAt:        now,
				CreatedBy:        actor.ID,
			})
		}
	}

	// 8. company accounts
	plan.companyUpdates = append(plan.companyUpdates, accountUpdate{
		accountID: accounts.company[domain.CompanyMain].AccountID,
		label:     "company main",
		delta:     domain.AccountDelta{BankBalance: set.Company.BankAmount, CashBalance: set.Company.CashAmount},
	})
	if totalDiscount := set.TotalDiscount(); totalDiscount.IsPositive() {
		cash, bank, ok := distribution.SplitProportional(totalDiscount, sel.SelectedCash, sel.SelectedBank)
		if !ok {
			cash, bank = distribution.SplitEvenly(totalDiscount)
		}
		plan.companyUpdates = append(plan.companyUpdates, accountUpdate{
			accountID: accounts.company[domain.CompanyDiscount].AccountID,
			label:     "company discount",
			delta:     domain.AccountDelta{BankBalance: bank, CashBalance: cash},
		})
		if !set.Company.Discount.IsZero() {
			plan.companyDiscount = &domain.DiscountRecord{
				DiscountID: uuid.NewString(),
				ProjectID:  sel.ProjectID,
				PeriodID:   plan.periods[0].PeriodID,
				Currency:   sel.Currency,
				Amount:     set.Company.Discount,
				Note:       set.Company.Note,
				CreatedAt:  now,
				CreatedBy:  actor.ID,
			}
		}
	}
	if held := set.EmployeeHeld(); held.Total().IsPositive() {
		plan.companyUpdates = append(plan.companyUpdates, accountUpdate{
			accountID: accounts.company[domain.CompanyHeld].AccountID,
			label:     "company held",
			delta:     domain.AccountDelta{BankHeld: held.Bank, CashHeld: held.Cash},
		})
	}

	// 9. pool reductions
	for _, fund := range []domain.FundType{domain.FundBank, domain.FundCash} {
		if leg := sel.Amounts().Leg(fund); leg.IsPositive() {
			plan.pools = append(plan.pools, poolReduction{fund: fund, amount: leg})
		}
	}
	return plan
}

func bothLegsItem(periodID string, share domain.ComputedShare, now time.Time) domain.PeriodLineItem {
	return domain.PeriodLineItem{
		LineItemID:  uuid.NewString(),
		PeriodID:    periodID,
		Participant: share.Participant,
		EmployeeID:  share.EmployeeID,
		BankAmount:  share.BankAmount,
		CashAmount:  share.CashAmount,
		BankHeld:    share.BankHeld,
		CashHeld:    share.CashHeld,
		Discount:    share.Discount,
		Total:       share.Total,
		Percentage:  share.Percentage,
		Note:        share.Note,
		CreatedAt:   now,
	}
}

// singleLegItem zeroes the other leg's figures and carries the matching part of the discount.
func singleLegItem(periodID string, fund domain.FundType, share domain.ComputedShare, now time.Time) domain.PeriodLineItem {
	net := distribution.Net(share)
	item := domain.PeriodLineItem{
		LineItemID:  uuid.NewString(),
		PeriodID:    periodID,
		Participant: share.Participant,
		EmployeeID:  share.EmployeeID,
		BankAmount:  decimal.Zero,
		CashAmount:  decimal.Zero,
		BankHeld:    decimal.Zero,
		CashHeld:    decimal.Zero,
		Percentage:  share.Percentage,
		Note:        share.Note,
		CreatedAt:   now,
	}
	if fund == domain.FundBank {
		item.BankAmount = share.BankAmount
		item.BankHeld = share.BankHeld
		item.Discount = net.BankDiscount
		item.Total = net.Bank
	} else {
		item.CashAmount = share.CashAmount
		item.CashHeld = share.CashHeld
		item.Discount = net.CashDiscount
		item.Total = net.Cash
	}
	return item
}

// applyPlan performs the nine write steps in order against store.
func (s *committerService) applyPlan(store portsrepo.LedgerStore, tracker *stepTracker, plan *percentagePlan, result *domain.DistributionResult) error {
	if err := tracker.do(domain.StepCreatePeriods, func(ctx context.Context) error {
		for _, period := range plan.periods {
			if err := store.SavePeriod(ctx, period); err != nil {
				return fmt.Errorf("period %s (%s): %w", period.PeriodID, period.Type, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepInsertLineItems, func(ctx context.Context) error {
		for _, items := range plan.lineItems {
			if err := store.SaveLineItems(ctx, items); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepMarkLogsDistributed, func(ctx context.Context) error {
		marked, err := store.MarkLogsDistributed(ctx, plan.projectID, plan.logIDs, plan.periods[0].PeriodID, plan.now)
		if err != nil {
			return err
		}
		if marked != int64(len(plan.logIDs)) {
			return fmt.Errorf("marked %d of %d logs as distributed", marked, len(plan.logIDs))
		}
		return nil
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepInsertHeldRecords, func(ctx context.Context) error {
		if len(plan.held) == 0 {
			return nil
		}
		return store.SaveHeldRecords(ctx, plan.held)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepInsertDiscountRecords, func(ctx context.Context) error {
		if len(plan.discounts) == 0 {
			return nil
		}
		return store.SaveEmployeeDiscounts(ctx, plan.discounts)
	}); err != nil {
		return err
	}

	if err := tracker.do(domain.StepUpdateEmployeeAccounts, func(ctx context.Context) error {
		return applyAccountUpdates(ctx, store, plan.employeeUpdates, plan.actorID, plan.now)
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

	if err := tracker.do(domain.StepUpdateCompanyAccounts, func(ctx context.Context) error {
		if err := applyAccountUpdates(ctx, store, plan.companyUpdates, plan.actorID, plan.now); err != nil {
			return err
		}
		if plan.companyDiscount != nil {
			return store.SaveCompanyDiscount(ctx, *plan.companyDiscount)
		}
		return nil
	}); err != nil {
		return err
	}

	return tracker.do(domain.StepReducePools, func(ctx context.Context) error {
		for _, reduction := range plan.pools {
			balance, err := store.ReducePoolBalance(ctx, plan.projectID, plan.currency, reduction.fund, reduction.amount, plan.now)
			if err != nil {
				return fmt.Errorf("%s pool: %w", reduction.fund, err)
			}
			if reduction.fund == domain.FundBank {
				result.PoolBalances.Bank = balance
			} else {
				result.PoolBalances.Cash = balance
			}
		}
		return nil
	})
}

func applyAccountUpdates(ctx context.Context, store portsrepo.AccountWriter, updates []accountUpdate, actorID string, now time.Time) error {
	for _, u := range updates {
		if err := store.ApplyAccountDelta(ctx, u.accountID, u.delta, actorID, now); err != nil {
			return fmt.Errorf("%s account %s: %w", u.label, u.accountID, err)
		}
	}
	return nil
}
