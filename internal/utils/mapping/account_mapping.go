package mapping

import (
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/SscSPs/construction_ledger/internal/models"
)

// ToModelAccount converts a domain account to its row.
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:   d.AccountID,
		Owner:       string(d.Owner),
		EmployeeID:  NullString(d.EmployeeID),
		Kind:        NullString(string(d.Kind)),
		Currency:    d.Currency,
		BankBalance: d.BankBalance,
		CashBalance: d.CashBalance,
		BankHeld:    d.BankHeld,
		CashHeld:    d.CashHeld,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts an accounts row to the domain type.
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:   m.AccountID,
		Owner:       domain.AccountOwner(m.Owner),
		EmployeeID:  m.EmployeeID.String,
		Kind:        domain.CompanyAccountKind(m.Kind.String),
		Currency:    m.Currency,
		BankBalance: m.BankBalance,
		CashBalance: m.CashBalance,
		BankHeld:    m.BankHeld,
		CashHeld:    m.CashHeld,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
