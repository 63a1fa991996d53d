// Package memory provides an in-process LedgerStore for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/construction_ledger/internal/utils/distribution"
	"github.com/shopspring/decimal"
)

type poolKey struct {
	projectID string
	currency  string
	fund      domain.FundType
}

// ledgerData is everything WithinTx snapshots and restores.
type ledgerData struct {
	projects    map[string]domain.Project
	logs        map[string]domain.PercentageLog
	pools       map[poolKey]domain.PercentagePool
	periods     map[string]domain.DistributionPeriod
	lineItems   map[string][]domain.PeriodLineItem
	accounts    map[string]domain.Account
	held        []domain.HeldRecord
	discounts   []domain.DiscountRecord
	payroll     []domain.PayrollEntry
	expenses    []domain.ProjectExpense
	payments    []domain.ExpensePayment
	mapsHeaders []domain.MapsDistribution
	mapsItems   []domain.MapsDistributionItem
	mapsDetails []domain.MapsDistributionDetail
}

func newLedgerData() *ledgerData {
	return &ledgerData{
		projects:  make(map[string]domain.Project),
		logs:      make(map[string]domain.PercentageLog),
		pools:     make(map[poolKey]domain.PercentagePool),
		periods:   make(map[string]domain.DistributionPeriod),
		lineItems: make(map[string][]domain.PeriodLineItem),
		accounts:  make(map[string]domain.Account),
	}
}

func (d *ledgerData) clone() *ledgerData {
	c := newLedgerData()
	for k, v := range d.projects {
		balances := make(map[string]decimal.Decimal, len(v.Balances))
		for cur, b := range v.Balances {
			balances[cur] = b
		}
		v.Balances = balances
		c.projects[k] = v
	}
	for k, v := range d.logs {
		c.logs[k] = v
	}
	for k, v := range d.pools {
		c.pools[k] = v
	}
	for k, v := range d.periods {
		c.periods[k] = v
	}
	for k, v := range d.lineItems {
		c.lineItems[k] = append([]domain.PeriodLineItem(nil), v...)
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	c.held = append(c.held, d.held...)
	c.discounts = append(c.discounts, d.discounts...)
	c.payroll = append(c.payroll, d.payroll...)
	c.expenses = append(c.expenses, d.expenses...)
	c.payments = append(c.payments, d.payments...)
	c.mapsHeaders = append(c.mapsHeaders, d.mapsHeaders...)
	c.mapsItems = append(c.mapsItems, d.mapsItems...)
	c.mapsDetails = append(c.mapsDetails, d.mapsDetails...)
	return c
}

// faultSet injects errors into named store operations.
type faultSet struct {
	mu     sync.Mutex
	errors map[string]error
}

func (f *faultSet) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[op]
}

// Store is a map-backed LedgerStore with snapshot transactions.
// A Store returned to a WithinTx callback shares the parent's lock, which is
// already held for the duration of the callback.
type Store struct {
	mu     *sync.RWMutex
	held   bool
	data   *ledgerData
	runs   *runJournal
	faults *faultSet
}

// NewStore creates an empty in-memory ledger store.
func NewStore() *Store {
	return &Store{
		mu:     &sync.RWMutex{},
		data:   newLedgerData(),
		runs:   newRunJournal(),
		faults: &faultSet{errors: make(map[string]error)},
	}
}

var (
	_ portsrepo.TxLedgerStore             = (*Store)(nil)
	_ portsrepo.DistributionRunRepository = (*Store)(nil)
)

func (s *Store) lock() func() {
	if s.held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock() func() {
	if s.held {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// FailOn makes every later call of the named operation (e.g. "SaveLineItems")
// return err. A nil err clears the fault.
func (s *Store) FailOn(op string, err error) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	if err == nil {
		delete(s.faults.errors, op)
		return
	}
	s.faults.errors[op] = err
}

// WithinTx runs fn against a view of the store and restores the previous
// state when fn returns an error.
func (s *Store) WithinTx(ctx context.Context, fn func(store portsrepo.LedgerStore) error) error {
	unlock := s.lock()
	defer unlock()

	snapshot := s.data.clone()
	view := &Store{mu: s.mu, held: true, data: s.data, runs: s.runs, faults: s.faults}
	if err := fn(view); err != nil {
		*s.data = *snapshot
		return err
	}
	if err := s.faults.check("CommitTx"); err != nil {
		*s.data = *snapshot
		return err
	}
	return ctx.Err()
}

// --- seeding ---

// SeedProject inserts or replaces a project.
func (s *Store) SeedProject(p domain.Project) {
	defer s.lock()()
	if p.Balances == nil {
		p.Balances = make(map[string]decimal.Decimal)
	}
	s.data.projects[p.ProjectID] = p
}

// SeedLogs inserts or replaces percentage logs.
func (s *Store) SeedLogs(logs ...domain.PercentageLog) {
	defer s.lock()()
	for _, l := range logs {
		s.data.logs[l.LogID] = l
	}
}

// SeedPool inserts or replaces a pool row.
func (s *Store) SeedPool(pool domain.PercentagePool) {
	defer s.lock()()
	s.data.pools[poolKey{pool.ProjectID, strings.ToUpper(pool.Currency), pool.Type}] = pool
}

// SeedAccounts inserts or replaces accounts.
func (s *Store) SeedAccounts(accounts ...domain.Account) {
	defer s.lock()()
	for _, a := range accounts {
		s.data.accounts[a.AccountID] = a
	}
}

// --- inspection ---

// Account returns the stored account, or false.
func (s *Store) Account(accountID string) (domain.Account, bool) {
	defer s.rlock()()
	a, ok := s.data.accounts[accountID]
	return a, ok
}

// Pool returns the stored pool row, or false.
func (s *Store) Pool(projectID, currency string, fund domain.FundType) (domain.PercentagePool, bool) {
	defer s.rlock()()
	p, ok := s.data.pools[poolKey{projectID, strings.ToUpper(currency), fund}]
	return p, ok
}

// Log returns the stored log, or false.
func (s *Store) Log(logID string) (domain.PercentageLog, bool) {
	defer s.rlock()()
	l, ok := s.data.logs[logID]
	return l, ok
}

// Project returns the stored project, or false.
func (s *Store) Project(projectID string) (domain.Project, bool) {
	defer s.rlock()()
	p, ok := s.data.projects[projectID]
	return p, ok
}

// Records returns copies of the append-only evidence rows.
func (s *Store) Records() (held []domain.HeldRecord, discounts []domain.DiscountRecord, payroll []domain.PayrollEntry) {
	defer s.rlock()()
	return append(held, s.data.held...), append(discounts, s.data.discounts...), append(payroll, s.data.payroll...)
}

// MapsRows returns copies of the stored maps artifacts.
func (s *Store) MapsRows() (expenses []domain.ProjectExpense, headers []domain.MapsDistribution, items []domain.MapsDistributionItem, details []domain.MapsDistributionDetail) {
	defer s.rlock()()
	return append(expenses, s.data.expenses...), append(headers, s.data.mapsHeaders...),
		append(items, s.data.mapsItems...), append(details, s.data.mapsDetails...)
}

// PeriodCount returns the number of stored periods.
func (s *Store) PeriodCount() int {
	defer s.rlock()()
	return len(s.data.periods)
}

// --- projects ---

func (s *Store) FindProjectByID(ctx context.Context, projectID string) (*domain.Project, error) {
	defer s.rlock()()
	p, ok := s.data.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", apperrors.ErrNotFound, projectID)
	}
	return &p, nil
}

func (s *Store) AdjustProjectBalance(ctx context.Context, projectID, currency string, delta decimal.Decimal, userID string, now time.Time) error {
	defer s.lock()()
	if err := s.faults.check("AdjustProjectBalance"); err != nil {
		return err
	}
	p, ok := s.data.projects[projectID]
	if !ok {
		return fmt.Errorf("%w: project %s", apperrors.ErrNotFound, projectID)
	}
	p.Balances[currency] = p.Balances[currency].Add(delta)
	touch(&p.AuditFields, userID, now)
	s.data.projects[projectID] = p
	return nil
}

func (s *Store) IncrementProjectCounters(ctx context.Context, projectID string, expenseDelta, mapDelta int, userID string, now time.Time) error {
	defer s.lock()()
	if err := s.faults.check("IncrementProjectCounters"); err != nil {
		return err
	}
	p, ok := s.data.projects[projectID]
	if !ok {
		return fmt.Errorf("%w: project %s", apperrors.ErrNotFound, projectID)
	}
	p.ExpenseCounter += expenseDelta
	p.MapCounter += mapDelta
	touch(&p.AuditFields, userID, now)
	s.data.projects[projectID] = p
	return nil
}

func touch(a *domain.AuditFields, userID string, now time.Time) {
	a.LastUpdatedAt = now
	a.LastUpdatedBy = userID
	a.Version++
}

// --- logs and pools ---

func (s *Store) FindPercentageLogsByIDs(ctx context.Context, logIDs []string) (map[string]domain.PercentageLog, error) {
	defer s.rlock()()
	found := make(map[string]domain.PercentageLog, len(logIDs))
	for _, id := range logIDs {
		if l, ok := s.data.logs[id]; ok {
			found[id] = l
		}
	}
	return found, nil
}

func (s *Store) ListUndistributedLogs(ctx context.Context, projectID, currency string) ([]domain.PercentageLog, error) {
	defer s.rlock()()
	var out []domain.PercentageLog
	for _, l := range s.data.logs {
		if l.ProjectID == projectID && strings.EqualFold(l.Currency, currency) && !l.Distributed {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].LogID < out[j].LogID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) MarkLogsDistributed(ctx context.Context, projectID string, logIDs []string, periodID string, now time.Time) (int64, error) {
	defer s.lock()()
	if err := s.faults.check("MarkLogsDistributed"); err != nil {
		return 0, err
	}
	var marked int64
	for _, id := range logIDs {
		l, ok := s.data.logs[id]
		if !ok || l.ProjectID != projectID || l.Distributed {
			continue
		}
		l.Distributed = true
		l.PeriodID = periodID
		at := now
		l.DistributedAt = &at
		s.data.logs[id] = l
		marked++
	}
	return marked, nil
}

func (s *Store) FindPools(ctx context.Context, projectID, currency string) ([]domain.PercentagePool, error) {
	defer s.rlock()()
	var out []domain.PercentagePool
	for _, fund := range []domain.FundType{domain.FundCash, domain.FundBank} {
		if p, ok := s.data.pools[poolKey{projectID, strings.ToUpper(currency), fund}]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ReducePoolBalance(ctx context.Context, projectID, currency string, fund domain.FundType, amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	defer s.lock()()
	if err := s.faults.check("ReducePoolBalance"); err != nil {
		return decimal.Zero, err
	}
	key := poolKey{projectID, strings.ToUpper(currency), fund}
	p, ok := s.data.pools[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s pool for project %s in %s", apperrors.ErrNotFound, fund, projectID, currency)
	}
	p.Balance = distribution.ReducePool(p.Balance, amount)
	p.LastUpdatedAt = now
	s.data.pools[key] = p
	return p.Balance, nil
}

// --- periods ---

func (s *Store) FindPeriodByID(ctx context.Context, periodID string) (*domain.DistributionPeriod, error) {
	defer s.rlock()()
	p, ok := s.data.periods[periodID]
	if !ok {
		return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, periodID)
	}
	return &p, nil
}

func (s *Store) ListPeriods(ctx context.Context, projectID string, limit int, after *domain.PeriodCursor) ([]domain.DistributionPeriod, error) {
	defer s.rlock()()
	var out []domain.DistributionPeriod
	for _, p := range s.data.periods {
		if p.ProjectID != projectID {
			continue
		}
		if after != nil && !before(p, *after) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[j], domain.PeriodCursor{CreatedAt: out[i].CreatedAt, PeriodID: out[i].PeriodID})
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// before reports whether p sorts after c in newest-first order.
func before(p domain.DistributionPeriod, c domain.PeriodCursor) bool {
	if p.CreatedAt.Equal(c.CreatedAt) {
		return p.PeriodID < c.PeriodID
	}
	return p.CreatedAt.Before(c.CreatedAt)
}

func (s *Store) ListLineItems(ctx context.Context, periodID string) ([]domain.PeriodLineItem, error) {
	defer s.rlock()()
	return append([]domain.PeriodLineItem(nil), s.data.lineItems[periodID]...), nil
}

func (s *Store) SavePeriod(ctx context.Context, period domain.DistributionPeriod) error {
	defer s.lock()()
	if err := s.faults.check("SavePeriod"); err != nil {
		return err
	}
	if _, exists := s.data.periods[period.PeriodID]; exists {
		return fmt.Errorf("%w: period %s", apperrors.ErrDuplicate, period.PeriodID)
	}
	s.data.periods[period.PeriodID] = period
	return nil
}

func (s *Store) SaveLineItems(ctx context.Context, items []domain.PeriodLineItem) error {
	defer s.lock()()
	if err := s.faults.check("SaveLineItems"); err != nil {
		return err
	}
	for _, item := range items {
		if _, ok := s.data.periods[item.PeriodID]; !ok {
			return fmt.Errorf("%w: period %s for line item %s", apperrors.ErrNotFound, item.PeriodID, item.LineItemID)
		}
	}
	for _, item := range items {
		s.data.lineItems[item.PeriodID] = append(s.data.lineItems[item.PeriodID], item)
	}
	return nil
}

// --- accounts ---

func (s *Store) FindEmployeeAccounts(ctx context.Context, employeeIDs []string, currency string) (map[string]domain.Account, error) {
	defer s.rlock()()
	wanted := make(map[string]struct{}, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = struct{}{}
	}
	found := make(map[string]domain.Account, len(employeeIDs))
	for _, a := range s.data.accounts {
		if a.Owner != domain.OwnerEmployee || !strings.EqualFold(a.Currency, currency) {
			continue
		}
		if _, ok := wanted[a.EmployeeID]; ok {
			found[a.EmployeeID] = a
		}
	}
	return found, nil
}

func (s *Store) FindCompanyAccount(ctx context.Context, kind domain.CompanyAccountKind, currency string) (*domain.Account, error) {
	defer s.rlock()()
	for _, a := range s.data.accounts {
		if a.Owner == domain.OwnerCompany && a.Kind == kind && strings.EqualFold(a.Currency, currency) {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: company %s account in %s", apperrors.ErrNotFound, kind, currency)
}

func (s *Store) ApplyAccountDelta(ctx context.Context, accountID string, delta domain.AccountDelta, userID string, now time.Time) error {
	defer s.lock()()
	if err := s.faults.check("ApplyAccountDelta"); err != nil {
		return err
	}
	a, ok := s.data.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	a = a.Apply(delta)
	touch(&a.AuditFields, userID, now)
	s.data.accounts[accountID] = a
	return nil
}

// --- evidence rows ---

func (s *Store) SaveHeldRecords(ctx context.Context, records []domain.HeldRecord) error {
	defer s.lock()()
	if err := s.faults.check("SaveHeldRecords"); err != nil {
		return err
	}
	s.data.held = append(s.data.held, records...)
	return nil
}

func (s *Store) SaveEmployeeDiscounts(ctx context.Context, records []domain.DiscountRecord) error {
	defer s.lock()()
	if err := s.faults.check("SaveEmployeeDiscounts"); err != nil {
		return err
	}
	s.data.discounts = append(s.data.discounts, records...)
	return nil
}

func (s *Store) SaveCompanyDiscount(ctx context.Context, record domain.DiscountRecord) error {
	defer s.lock()()
	if err := s.faults.check("SaveCompanyDiscount"); err != nil {
		return err
	}
	s.data.discounts = append(s.data.discounts, record)
	return nil
}

func (s *Store) SavePayrollEntries(ctx context.Context, entries []domain.PayrollEntry) error {
	defer s.lock()()
	if err := s.faults.check("SavePayrollEntries"); err != nil {
		return err
	}
	s.data.payroll = append(s.data.payroll, entries...)
	return nil
}

// --- maps ---

func (s *Store) SaveExpense(ctx context.Context, expense domain.ProjectExpense) error {
	defer s.lock()()
	if err := s.faults.check("SaveExpense"); err != nil {
		return err
	}
	s.data.expenses = append(s.data.expenses, expense)
	return nil
}

func (s *Store) SaveExpensePayment(ctx context.Context, payment domain.ExpensePayment) error {
	defer s.lock()()
	if err := s.faults.check("SaveExpensePayment"); err != nil {
		return err
	}
	s.data.payments = append(s.data.payments, payment)
	return nil
}

func (s *Store) SaveMapsDistribution(ctx context.Context, header domain.MapsDistribution) error {
	defer s.lock()()
	if err := s.faults.check("SaveMapsDistribution"); err != nil {
		return err
	}
	s.data.mapsHeaders = append(s.data.mapsHeaders, header)
	return nil
}

func (s *Store) SaveMapsItems(ctx context.Context, items []domain.MapsDistributionItem) error {
	defer s.lock()()
	if err := s.faults.check("SaveMapsItems"); err != nil {
		return err
	}
	s.data.mapsItems = append(s.data.mapsItems, items...)
	return nil
}

func (s *Store) SaveMapsDetails(ctx context.Context, details []domain.MapsDistributionDetail) error {
	defer s.lock()()
	if err := s.faults.check("SaveMapsDetails"); err != nil {
		return err
	}
	s.data.mapsDetails = append(s.data.mapsDetails, details...)
	return nil
}
