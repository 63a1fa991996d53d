package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/core/services"
	"github.com/SscSPs/construction_ledger/internal/platform/locking"
	"github.com/SscSPs/construction_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Mock EventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.DistributionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e domain.DistributionEvent) bool { return e.Type == eventType })
}

// --- Suite ---
type CommitterServiceTestSuite struct {
	suite.Suite
	store     *memory.Store
	publisher *MockEventPublisher
	svc       portssvc.DistributionSvcFacade
	actor     domain.Actor
	ctx       context.Context
}

func TestCommitterServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommitterServiceTestSuite))
}

func (s *CommitterServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.actor = domain.Actor{ID: "user-1"}
	s.store = memory.NewStore()
	s.publisher = new(MockEventPublisher)

	s.store.SeedProject(domain.Project{ProjectID: "p1", Name: "Tower A", Currency: "USD"})
	s.store.SeedPool(domain.PercentagePool{PoolID: "pool-cash", ProjectID: "p1", Currency: "USD", Type: domain.FundCash, Balance: dec("600")})
	s.store.SeedPool(domain.PercentagePool{PoolID: "pool-bank", ProjectID: "p1", Currency: "USD", Type: domain.FundBank, Balance: dec("400")})
	s.store.SeedLogs(
		domain.PercentageLog{LogID: "log-1", ProjectID: "p1", Currency: "USD", Amount: dec("300"), CreatedAt: fixedNow.Add(-48 * time.Hour)},
		domain.PercentageLog{LogID: "log-2", ProjectID: "p1", Currency: "USD", Amount: dec("200"), CreatedAt: fixedNow.Add(-24 * time.Hour)},
	)
	s.store.SeedAccounts(
		domain.Account{AccountID: "acc-e1", Owner: domain.OwnerEmployee, EmployeeID: "e1", Currency: "USD"},
		domain.Account{AccountID: "acc-e2", Owner: domain.OwnerEmployee, EmployeeID: "e2", Currency: "USD"},
		domain.Account{AccountID: "acc-main", Owner: domain.OwnerCompany, Kind: domain.CompanyMain, Currency: "USD"},
		domain.Account{AccountID: "acc-discount", Owner: domain.OwnerCompany, Kind: domain.CompanyDiscount, Currency: "USD"},
		domain.Account{AccountID: "acc-held", Owner: domain.OwnerCompany, Kind: domain.CompanyHeld, Currency: "USD"},
	)
	s.svc = s.newService()
}

func (s *CommitterServiceTestSuite) newService(extra ...services.DistributionOption) portssvc.DistributionSvcFacade {
	opts := []services.DistributionOption{
		services.WithRunJournal(s.store),
		services.WithEventPublisher(s.publisher),
		services.WithClock(func() time.Time { return fixedNow }),
	}
	return services.NewDistributionFacade(s.store, append(opts, extra...)...)
}

// prepare runs selection and share computation the way a caller would.
func (s *CommitterServiceTestSuite) prepare(employees []domain.ShareInput, company domain.ShareInput) (*domain.Selection, *domain.ShareSet) {
	sel, err := s.svc.SelectLogs(s.ctx, "p1", "usd", []string{"log-1", "log-2"})
	s.Require().NoError(err)
	shares, err := s.svc.ComputeShares(s.ctx, sel.Amounts(), employees, company)
	s.Require().NoError(err)
	return sel, shares
}

func (s *CommitterServiceTestSuite) assertDecimal(expected string, actual decimal.Decimal, msg string) {
	s.True(dec(expected).Equal(actual), "%s: expected %s, got %s", msg, expected, actual.String())
}

func (s *CommitterServiceTestSuite) TestCommit_EndToEnd() {
	s.publisher.On("Publish", mock.Anything, eventOfType(domain.EventDistributionCommitted)).Return(nil).Once()
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)
	s.assertDecimal("300", sel.SelectedCash, "selected cash")
	s.assertDecimal("200", sel.SelectedBank, "selected bank")

	result, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-1"})
	s.Require().NoError(err)

	s.Equal(domain.PercentageSteps, result.CompletedSteps)
	s.Require().Len(result.Periods, 2)
	s.Equal(domain.FundBank, result.Periods[0].Type)
	s.assertDecimal("200", result.Periods[0].TotalAmount, "bank period")
	s.Equal(domain.FundCash, result.Periods[1].Type)
	s.assertDecimal("300", result.Periods[1].TotalAmount, "cash period")
	s.Len(result.LineItems, 4)
	s.Len(result.PayrollEntries, 2)
	s.Empty(result.NegativeShares)

	e1, _ := s.store.Account("acc-e1")
	s.assertDecimal("120", e1.BankBalance, "employee bank")
	s.assertDecimal("180", e1.CashBalance, "employee cash")
	main, _ := s.store.Account("acc-main")
	s.assertDecimal("80", main.BankBalance, "company bank")
	s.assertDecimal("120", main.CashBalance, "company cash")

	// pool conservation: 1000 before, 500 distributed
	cash, _ := s.store.Pool("p1", "USD", domain.FundCash)
	bank, _ := s.store.Pool("p1", "USD", domain.FundBank)
	s.assertDecimal("300", cash.Balance, "cash pool")
	s.assertDecimal("200", bank.Balance, "bank pool")
	s.assertDecimal("300", result.PoolBalances.Cash, "reported cash pool")
	s.assertDecimal("200", result.PoolBalances.Bank, "reported bank pool")

	for _, id := range []string{"log-1", "log-2"} {
		l, _ := s.store.Log(id)
		s.True(l.Distributed, id)
	}

	run, ok := s.store.Run(result.RunID)
	s.Require().True(ok)
	s.Equal(domain.RunSucceeded, run.Status)
	s.Equal(domain.StepReducePools, run.LastStep)
	s.publisher.AssertExpectations(s.T())
}

func (s *CommitterServiceTestSuite) TestCommit_DiscountAndHeld() {
	s.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	// cash 300 / bank 200 selected; e1 gets 180 cash / 120 bank
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60"), CashHeld: dec("5"), Discount: dec("10")}},
		domain.ShareInput{Percentage: dec("40")},
	)

	result, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.Require().NoError(err)

	// discount 10 over bank 120 / cash 180 -> 4 / 6
	e1, _ := s.store.Account("acc-e1")
	s.assertDecimal("116", e1.BankBalance, "employee bank net")
	s.assertDecimal("169", e1.CashBalance, "employee cash net")
	s.assertDecimal("5", e1.CashHeld, "employee cash held")

	held, _ := s.store.Account("acc-held")
	s.assertDecimal("5", held.CashHeld, "company held cash")
	discount, _ := s.store.Account("acc-discount")
	s.assertDecimal("6", discount.CashBalance, "discount cash")
	s.assertDecimal("4", discount.BankBalance, "discount bank")

	s.Len(result.HeldRecords, 1)
	s.Equal(result.Periods[1].PeriodID, result.HeldRecords[0].PeriodID, "cash hold links to the cash period")
	s.Require().Len(result.DiscountRecords, 1)
	s.Equal(result.Periods[0].PeriodID, result.DiscountRecords[0].PeriodID)

	var bankItem, cashItem domain.PeriodLineItem
	for _, item := range result.LineItems {
		if item.EmployeeID != "e1" {
			continue
		}
		if item.PeriodID == result.Periods[0].PeriodID {
			bankItem = item
		} else {
			cashItem = item
		}
	}
	s.assertDecimal("116", bankItem.Total, "bank line item")
	s.assertDecimal("4", bankItem.Discount, "bank line discount")
	s.True(bankItem.CashAmount.IsZero())
	s.assertDecimal("169", cashItem.Total, "cash line item")
}

func (s *CommitterServiceTestSuite) TestCommit_NegativeShareFlooredAndSurfaced() {
	s.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	// e2 gets 10%: 30 cash / 20 bank, but 60 is held back from bank
	sel, shares := s.prepare(
		[]domain.ShareInput{
			{EmployeeID: "e1", Percentage: dec("50")},
			{EmployeeID: "e2", Percentage: dec("10"), BankHeld: dec("60")},
		},
		domain.ShareInput{Percentage: dec("40")},
	)

	result, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.Require().NoError(err)

	s.Require().Len(result.NegativeShares, 1)
	s.Equal("e2", result.NegativeShares[0].EmployeeID)
	e2, _ := s.store.Account("acc-e2")
	s.True(e2.BankBalance.IsZero(), "negative leg never debits the account")
	s.assertDecimal("30", e2.CashBalance, "cash leg still paid")
	s.assertDecimal("60", e2.BankHeld, "full hold recorded")

	for _, p := range result.PayrollEntries {
		if p.EmployeeID == "e2" {
			s.Equal(domain.FundCash, p.PaymentMethod, "no payroll for a non-positive leg")
		}
	}
}

func (s *CommitterServiceTestSuite) TestCommit_SecondCommitIsStale() {
	s.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)
	_, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.Require().NoError(err)

	_, err = s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.ErrorIs(err, apperrors.ErrSelectionStale)
	var staleErr *apperrors.SelectionStaleError
	s.Require().ErrorAs(err, &staleErr)
	s.Equal([]string{"log-1", "log-2"}, staleErr.IDs())
	s.Equal(2, s.store.PeriodCount(), "no further periods written")
}

func (s *CommitterServiceTestSuite) TestCommit_PoolsChangedSinceSelection() {
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)
	s.store.SeedPool(domain.PercentagePool{PoolID: "pool-cash", ProjectID: "p1", Currency: "USD", Type: domain.FundCash, Balance: dec("700")})

	_, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.ErrorIs(err, apperrors.ErrSelectionStale)
	s.Equal(0, s.store.PeriodCount())
}

func (s *CommitterServiceTestSuite) TestSelectLogs_ExceedsPool() {
	s.store.SeedLogs(domain.PercentageLog{LogID: "log-big", ProjectID: "p1", Currency: "USD", Amount: dec("800"), CreatedAt: fixedNow})

	_, err := s.svc.SelectLogs(s.ctx, "p1", "USD", []string{"log-1", "log-big"})
	s.ErrorIs(err, apperrors.ErrSelectionExceedsPool)
	var exceeds *apperrors.SelectionExceedsPoolError
	s.Require().ErrorAs(err, &exceeds)
	s.assertDecimal("1100", exceeds.Selected, "selected")
	s.assertDecimal("1000", exceeds.Available, "available")
}

func (s *CommitterServiceTestSuite) TestCommit_AccountMissing() {
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("30")}, {EmployeeID: "ghost", Percentage: dec("30")}},
		domain.ShareInput{Percentage: dec("40")},
	)

	_, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.ErrorIs(err, apperrors.ErrAccountMissing)
	var missing *apperrors.AccountMissingError
	s.Require().ErrorAs(err, &missing)
	s.Equal([]string{"ghost"}, missing.EmployeeIDs)
	s.Equal(0, s.store.PeriodCount())
}

func (s *CommitterServiceTestSuite) TestCommit_FailureBeforeAnyWrite() {
	s.store.FailOn("SavePeriod", errors.New("disk full"))
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)

	_, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-fail"})
	s.ErrorIs(err, apperrors.ErrStepWrite)
	var stepErr *apperrors.StepError
	s.Require().ErrorAs(err, &stepErr)
	s.Equal(string(domain.StepCreatePeriods), stepErr.Step)
	s.Equal(apperrors.SeverityError, stepErr.Severity)
	s.False(stepErr.RolledBack)
	s.Contains(stepErr.Message, "before anything was written")
	s.publisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything)

	// the key is burnt even though nothing was written
	_, err = s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-fail"})
	s.ErrorIs(err, apperrors.ErrRunAlreadyAttempted)
}

func (s *CommitterServiceTestSuite) TestCommit_MarkLogsFailureIsPartial() {
	s.store.FailOn("MarkLogsDistributed", errors.New("connection reset"))
	s.publisher.On("Publish", mock.Anything, eventOfType(domain.EventReconciliationRequired)).Return(nil).Once()
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)

	_, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-partial"})
	s.ErrorIs(err, apperrors.ErrPartialSuccess)
	s.NotErrorIs(err, apperrors.ErrStepWrite)
	var stepErr *apperrors.StepError
	s.Require().ErrorAs(err, &stepErr)
	s.Equal(apperrors.SeverityPartial, stepErr.Severity)
	s.Equal(string(domain.StepMarkLogsDistributed), stepErr.Step)
	s.Contains(stepErr.Message, "log-1")
	s.Contains(stepErr.Message, "do not retry")

	s.Equal(2, s.store.PeriodCount(), "periods stay behind")
	l1, _ := s.store.Log("log-1")
	s.False(l1.Distributed)

	run, err := s.store.FindRunByKey(s.ctx, "key-partial")
	s.Require().NoError(err)
	s.Equal(domain.RunPartial, run.Status)
	s.Equal(domain.StepInsertLineItems, run.LastStep)
	s.NotNil(run.ReconciliationRequested)

	_, err = s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-partial"})
	s.ErrorIs(err, apperrors.ErrRunAlreadyAttempted)
	s.ErrorContains(err, string(domain.StepMarkLogsDistributed))
	s.publisher.AssertExpectations(s.T())
}

func (s *CommitterServiceTestSuite) TestCommit_LaterStepFailureStopsWithoutCompensation() {
	s.store.FailOn("SavePayrollEntries", errors.New("constraint violation"))
	s.publisher.On("Publish", mock.Anything, eventOfType(domain.EventReconciliationRequired)).Return(nil).Once()
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)

	_, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.ErrorIs(err, apperrors.ErrStepWrite)
	var stepErr *apperrors.StepError
	s.Require().ErrorAs(err, &stepErr)
	s.Equal(string(domain.StepInsertPayrollEntries), stepErr.Step)
	s.Contains(stepErr.Message, string(domain.StepUpdateEmployeeAccounts))

	e1, _ := s.store.Account("acc-e1")
	s.assertDecimal("180", e1.CashBalance, "employee credit not undone")
	main, _ := s.store.Account("acc-main")
	s.True(main.CashBalance.IsZero(), "later steps never ran")
	s.publisher.AssertExpectations(s.T())
}

func (s *CommitterServiceTestSuite) TestCommit_AtomicModeRollsBack() {
	s.store.FailOn("SavePayrollEntries", errors.New("constraint violation"))
	svc := s.newService(services.WithAtomicCommits(true))
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)

	_, err := svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-atomic"})
	s.ErrorIs(err, apperrors.ErrStepWrite)
	var stepErr *apperrors.StepError
	s.Require().ErrorAs(err, &stepErr)
	s.True(stepErr.RolledBack)
	s.Equal(string(domain.StepInsertPayrollEntries), stepErr.Step)

	s.Equal(0, s.store.PeriodCount())
	e1, _ := s.store.Account("acc-e1")
	s.True(e1.CashBalance.IsZero())
	l1, _ := s.store.Log("log-1")
	s.False(l1.Distributed)

	run, err := s.store.FindRunByKey(s.ctx, "key-atomic")
	s.Require().NoError(err)
	s.Equal(domain.RunFailed, run.Status)
	s.Nil(run.ReconciliationRequested)
	s.publisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything)
}

func (s *CommitterServiceTestSuite) TestCommit_IdempotentReplay() {
	s.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)
	first, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-replay"})
	s.Require().NoError(err)

	again, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{IdempotencyKey: "key-replay"})
	s.Require().NoError(err)
	s.True(again.Replayed)
	s.False(first.Replayed)
	s.Equal(first.RunID, again.RunID)
	s.Require().Len(again.Periods, 2)
	s.Equal(first.Periods[0].PeriodID, again.Periods[0].PeriodID)
	s.assertDecimal("200", again.Periods[0].TotalAmount, "replayed period total")

	// the full body comes back from the journal snapshot
	s.Equal("USD", again.Currency)
	s.Equal(first.DistributedLogIDs, again.DistributedLogIDs)
	s.Equal(first.CompletedSteps, again.CompletedSteps)
	s.Require().Len(again.LineItems, len(first.LineItems))
	for i := range first.LineItems {
		s.Equal(first.LineItems[i].EmployeeID, again.LineItems[i].EmployeeID)
		s.assertDecimal(first.LineItems[i].CashAmount.String(), again.LineItems[i].CashAmount, "line item cash")
	}
	s.Require().Len(again.PayrollEntries, len(first.PayrollEntries))
	for i := range first.PayrollEntries {
		s.Equal(first.PayrollEntries[i].EmployeeID, again.PayrollEntries[i].EmployeeID)
		s.assertDecimal(first.PayrollEntries[i].TotalSalary.String(), again.PayrollEntries[i].TotalSalary, "payroll")
	}
	s.assertDecimal("300", again.PoolBalances.Cash, "replayed pool balance")

	looked, err := s.svc.ReplayRun(s.ctx, "p1", "key-replay")
	s.Require().NoError(err)
	s.Require().NotNil(looked)
	s.True(looked.Replayed)
	s.Len(looked.LineItems, len(first.LineItems))

	e1, _ := s.store.Account("acc-e1")
	s.assertDecimal("180", e1.CashBalance, "credited once")
	s.publisher.AssertExpectations(s.T())
}

func (s *CommitterServiceTestSuite) TestCommit_ProjectLockHeld() {
	locker := locking.NewLocalProjectLocker()
	svc := s.newService(services.WithProjectLocker(locker))
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)

	unlock, err := locker.Lock(s.ctx, "p1")
	s.Require().NoError(err)
	defer unlock()

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Millisecond)
	defer cancel()
	_, err = svc.Commit(ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
	s.ErrorIs(err, apperrors.ErrDistributionInProgress)
	s.Equal(0, s.store.PeriodCount())
}

func (s *CommitterServiceTestSuite) TestCommit_RejectsForeignSelection() {
	sel, shares := s.prepare(
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
		domain.ShareInput{Percentage: dec("40")},
	)
	_, err := s.svc.Commit(s.ctx, "p2", *sel, *shares, s.actor, domain.CommitOptions{})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Commit(s.ctx, "p1", *sel, *shares, domain.Actor{}, domain.CommitOptions{})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *CommitterServiceTestSuite) TestComputeShares_PartitionMustBeExact() {
	pool := domain.PoolAmounts{Cash: dec("300"), Bank: dec("200")}
	_, err := s.svc.ComputeShares(s.ctx, pool,
		[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("59.99")}},
		domain.ShareInput{Percentage: dec("40")})
	s.ErrorIs(err, apperrors.ErrPartitionIncomplete)
	var partitionErr *apperrors.PartitionError
	s.Require().ErrorAs(err, &partitionErr)
	s.assertDecimal("-0.01", partitionErr.Deviation, "deviation")
}

func (s *CommitterServiceTestSuite) TestCommit_RechecksPartitionOfSubmittedShares() {
	for _, pct := range []string{"59.99", "60.01"} {
		sel, shares := s.prepare(
			[]domain.ShareInput{{EmployeeID: "e1", Percentage: dec("60")}},
			domain.ShareInput{Percentage: dec("40")},
		)
		shares.Employees[0].Percentage = dec(pct)

		_, err := s.svc.Commit(s.ctx, "p1", *sel, *shares, s.actor, domain.CommitOptions{})
		s.ErrorIs(err, apperrors.ErrPartitionIncomplete, pct)
	}

	s.Equal(0, s.store.PeriodCount())
	e1, _ := s.store.Account("acc-e1")
	s.True(e1.CashBalance.IsZero(), "no credit")
	s.publisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything)
}
