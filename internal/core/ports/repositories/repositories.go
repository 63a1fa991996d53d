package repositories

import "context"

// LedgerStore is every table the distribution engine reads or writes.
type LedgerStore interface {
	ProjectRepositoryFacade
	PercentageLogRepositoryFacade
	PercentagePoolRepositoryFacade
	PeriodRepositoryFacade
	AccountRepositoryFacade
	LedgerRecordWriter
	ExpenseWriter
	MapsDistributionWriter
}

// TxLedgerStore is a LedgerStore that can run a group of writes atomically.
// fn receives a store bound to the transaction; returning an error rolls back.
type TxLedgerStore interface {
	LedgerStore
	WithinTx(ctx context.Context, fn func(store LedgerStore) error) error
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Store LedgerStore
	Runs  DistributionRunRepository
}
