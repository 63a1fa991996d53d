package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func seeded() *Store {
	s := NewStore()
	s.SeedPool(domain.PercentagePool{PoolID: "cash", ProjectID: "p1", Currency: "USD", Type: domain.FundCash, Balance: decimal.NewFromInt(100)})
	s.SeedPool(domain.PercentagePool{PoolID: "bank", ProjectID: "p1", Currency: "USD", Type: domain.FundBank, Balance: decimal.NewFromInt(50)})
	s.SeedAccounts(domain.Account{AccountID: "acc-main", Owner: domain.OwnerCompany, Kind: domain.CompanyMain, Currency: "USD"})
	s.SeedLogs(
		domain.PercentageLog{LogID: "l1", ProjectID: "p1", Currency: "USD", Amount: decimal.NewFromInt(10), CreatedAt: t0},
		domain.PercentageLog{LogID: "l2", ProjectID: "p1", Currency: "USD", Amount: decimal.NewFromInt(20), CreatedAt: t0.Add(time.Hour), Distributed: true},
		domain.PercentageLog{LogID: "l3", ProjectID: "p2", Currency: "USD", Amount: decimal.NewFromInt(30), CreatedAt: t0},
	)
	return s
}

func TestReducePoolBalanceFloorsAtZero(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	balance, err := s.ReducePoolBalance(ctx, "p1", "usd", domain.FundBank, decimal.NewFromInt(80), t0)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "got %s", balance)

	_, err = s.ReducePoolBalance(ctx, "p9", "USD", domain.FundBank, decimal.NewFromInt(1), t0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMarkLogsDistributedSkipsForeignAndConsumed(t *testing.T) {
	s := seeded()

	marked, err := s.MarkLogsDistributed(context.Background(), "p1", []string{"l1", "l2", "l3", "missing"}, "period-1", t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	l1, _ := s.Log("l1")
	assert.True(t, l1.Distributed)
	assert.Equal(t, "period-1", l1.PeriodID)
	l3, _ := s.Log("l3")
	assert.False(t, l3.Distributed)
}

func TestListUndistributedLogs(t *testing.T) {
	s := seeded()
	logs, err := s.ListUndistributedLogs(context.Background(), "p1", "USD")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "l1", logs[0].LogID)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(store portsrepo.LedgerStore) error {
		require.NoError(t, store.ApplyAccountDelta(ctx, "acc-main", domain.AccountDelta{CashBalance: decimal.NewFromInt(5)}, "u1", t0))
		require.NoError(t, store.SavePeriod(ctx, domain.DistributionPeriod{PeriodID: "period-1", ProjectID: "p1"}))
		_, err := store.ReducePoolBalance(ctx, "p1", "USD", domain.FundCash, decimal.NewFromInt(40), t0)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acc, _ := s.Account("acc-main")
	assert.True(t, acc.CashBalance.IsZero())
	assert.Equal(t, 0, s.PeriodCount())
	pool, _ := s.Pool("p1", "USD", domain.FundCash)
	assert.True(t, pool.Balance.Equal(decimal.NewFromInt(100)))
}

func TestWithinTxCommits(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(store portsrepo.LedgerStore) error {
		return store.ApplyAccountDelta(ctx, "acc-main", domain.AccountDelta{BankBalance: decimal.NewFromInt(7)}, "u1", t0)
	})
	require.NoError(t, err)

	acc, _ := s.Account("acc-main")
	assert.True(t, acc.BankBalance.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, int64(1), acc.Version)
}

func TestWithinTxCommitFault(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	s.FailOn("CommitTx", errors.New("commit lost"))

	err := s.WithinTx(ctx, func(store portsrepo.LedgerStore) error {
		return store.SavePeriod(ctx, domain.DistributionPeriod{PeriodID: "period-1", ProjectID: "p1"})
	})
	assert.EqualError(t, err, "commit lost")
	assert.Equal(t, 0, s.PeriodCount())
}

func TestListPeriodsNewestFirstWithCursor(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SavePeriod(ctx, domain.DistributionPeriod{PeriodID: id, ProjectID: "p1", CreatedAt: t0.Add(time.Duration(i) * time.Minute)}))
	}
	// same timestamp as "c", ordered by id descending
	require.NoError(t, s.SavePeriod(ctx, domain.DistributionPeriod{PeriodID: "d", ProjectID: "p1", CreatedAt: t0.Add(2 * time.Minute)}))
	require.NoError(t, s.SavePeriod(ctx, domain.DistributionPeriod{PeriodID: "x", ProjectID: "p2", CreatedAt: t0}))

	page, err := s.ListPeriods(ctx, "p1", 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].PeriodID)
	assert.Equal(t, "c", page[1].PeriodID)

	rest, err := s.ListPeriods(ctx, "p1", 10, &domain.PeriodCursor{CreatedAt: page[1].CreatedAt, PeriodID: page[1].PeriodID})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].PeriodID)
	assert.Equal(t, "a", rest[1].PeriodID)

	err = s.SavePeriod(ctx, domain.DistributionPeriod{PeriodID: "a", ProjectID: "p1"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestRunJournal(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	run := domain.DistributionRun{RunID: "r1", IdempotencyKey: "k1", ProjectID: "p1", Status: domain.RunStarted, StartedAt: t0}
	_, created, err := s.BeginRun(ctx, run)
	require.NoError(t, err)
	assert.True(t, created)

	stored, created, err := s.BeginRun(ctx, domain.DistributionRun{RunID: "r2", IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "r1", stored.RunID)

	_, err = s.FindRunByKey(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// still STARTED long after the threshold
	due, err := s.ListRunsNeedingReconciliation(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, s.FinishRun(ctx, "r1", domain.RunOutcome{Status: domain.RunSucceeded, LastStep: domain.StepReducePools, ResultIDs: []string{"period-1"}}, t0))
	due, err = s.ListRunsNeedingReconciliation(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, _, err = s.BeginRun(ctx, domain.DistributionRun{RunID: "r3", IdempotencyKey: "k3", Status: domain.RunStarted, StartedAt: t0})
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, "r3", domain.RunOutcome{Status: domain.RunPartial, LastStep: domain.StepInsertLineItems, FailedStep: domain.StepMarkLogsDistributed}, t0))
	due, err = s.ListRunsNeedingReconciliation(ctx, t0, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "r3", due[0].RunID)

	require.NoError(t, s.MarkReconciliationRequested(ctx, "r3", t0))
	due, err = s.ListRunsNeedingReconciliation(ctx, t0, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}
