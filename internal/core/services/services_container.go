package services

import (
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/platform/config"
	"github.com/SscSPs/construction_ledger/internal/platform/locking"
)

// distributionFacade stitches the three percentage distribution services together.
type distributionFacade struct {
	portssvc.SelectionSvc
	portssvc.CalculatorSvc
	portssvc.CommitterSvc
}

// NewDistributionFacade creates the percentage distribution facade over store.
func NewDistributionFacade(store portsrepo.LedgerStore, options ...DistributionOption) portssvc.DistributionSvcFacade {
	return &distributionFacade{
		SelectionSvc:  NewSelectionService(store, store),
		CalculatorSvc: NewCalculatorService(),
		CommitterSvc:  NewCommitterService(store, options...),
	}
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, options ...DistributionOption) *portssvc.ServiceContainer {
	// one locker so percentage and maps runs on a project exclude each other
	opts := make([]DistributionOption, 0, len(options)+3)
	opts = append(opts, WithProjectLocker(locking.NewLocalProjectLocker()), WithAtomicCommits(cfg.DistributionAtomic))
	if repos.Runs != nil {
		opts = append(opts, WithRunJournal(repos.Runs))
	}
	// caller options win over config
	opts = append(opts, options...)

	return &portssvc.ServiceContainer{
		Distribution: NewDistributionFacade(repos.Store, opts...),
		Maps:         NewMapsDistributionService(repos.Store, opts...),
		Period:       NewPeriodService(repos.Store),
	}
}

var _ portssvc.DistributionSvcFacade = (*distributionFacade)(nil)
