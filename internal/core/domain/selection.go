package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Selection is a validated set of undistributed logs together with their
// proportional cash/bank split against the project pools at selection time.
type Selection struct {
	ProjectID     string          `json:"projectID"`
	Currency      string          `json:"currency"`
	Logs          []PercentageLog `json:"logs"`
	SelectedTotal decimal.Decimal `json:"selectedTotal"`
	SelectedCash  decimal.Decimal `json:"selectedCash"`
	SelectedBank  decimal.Decimal `json:"selectedBank"`
	CashPool      decimal.Decimal `json:"cashPool"`
	BankPool      decimal.Decimal `json:"bankPool"`
	DateFrom      time.Time       `json:"dateFrom"`
	DateTo        time.Time       `json:"dateTo"`
}

// LogIDs returns the ids of the selected logs in selection order.
func (s Selection) LogIDs() []string {
	ids := make([]string, 0, len(s.Logs))
	for _, l := range s.Logs {
		ids = append(ids, l.LogID)
	}
	return ids
}

// Amounts returns the selected legs as a pool pair for the calculator.
func (s Selection) Amounts() PoolAmounts {
	return PoolAmounts{Cash: s.SelectedCash, Bank: s.SelectedBank}
}

// Pools returns the pool balances observed when the selection was made.
func (s Selection) Pools() PoolAmounts {
	return PoolAmounts{Cash: s.CashPool, Bank: s.BankPool}
}
