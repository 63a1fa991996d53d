// Package distribution holds the pure arithmetic behind percentage distributions.
// Nothing here touches storage; callers own validation order and persistence.
package distribution

import (
	"fmt"
	"sort"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Hundred is the exact partition target.
var Hundred = decimal.NewFromInt(100)

var half = decimal.NewFromFloat(0.5)

// Round rounds an amount to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FloorZero clamps negative amounts to zero.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ShareOf returns pct percent of amount, rounded to cents.
func ShareOf(amount, pct decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(pct).Div(Hundred))
}

var cent = decimal.New(1, -2)

// AllocateCents splits a cent-denominated total across pcts, which must sum to
// one hundred. Each part is its exact share floored to cents and the leftover
// cents go to the largest fractional remainders, earlier parts winning ties.
// Parts are never negative and always sum to total.
func AllocateCents(total decimal.Decimal, pcts []decimal.Decimal) []decimal.Decimal {
	parts := make([]decimal.Decimal, len(pcts))
	fracs := make([]decimal.Decimal, len(pcts))
	order := make([]int, len(pcts))
	left := total
	for i, pct := range pcts {
		exact := total.Mul(pct).Div(Hundred)
		parts[i] = exact.RoundFloor(2)
		fracs[i] = exact.Sub(parts[i])
		left = left.Sub(parts[i])
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]].GreaterThan(fracs[order[b]])
	})
	for _, i := range order {
		if left.LessThan(cent) {
			break
		}
		parts[i] = parts[i].Add(cent)
		left = left.Sub(cent)
	}
	return parts
}

// SplitProportional splits total in the ratio cashWeight:bankWeight.
// The cash leg is multiplied and rounded; the bank leg is the remainder so
// cash+bank always equals total. ok is false when both weights are zero.
func SplitProportional(total, cashWeight, bankWeight decimal.Decimal) (cash, bank decimal.Decimal, ok bool) {
	weight := cashWeight.Add(bankWeight)
	if weight.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}
	cash = Round(total.Mul(cashWeight).Div(weight))
	return cash, total.Sub(cash), true
}

// SplitEvenly halves total, giving any odd cent to the bank leg.
func SplitEvenly(total decimal.Decimal) (cash, bank decimal.Decimal) {
	cash = Round(total.Mul(half))
	return cash, total.Sub(cash)
}

// SplitDiscount spreads a participant's discount over its gross legs:
// bank = discount*bank/(bank+cash), cash by subtraction. Both are zero when
// the participant has no gross amount.
func SplitDiscount(discount, bankAmount, cashAmount decimal.Decimal) (bankDiscount, cashDiscount decimal.Decimal) {
	denominator := bankAmount.Add(cashAmount)
	if denominator.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	bankDiscount = Round(discount.Mul(bankAmount).Div(denominator))
	return bankDiscount, discount.Sub(bankDiscount)
}

// NetLegs is a share's payable amount per leg after holds and discount.
type NetLegs struct {
	Bank         decimal.Decimal
	Cash         decimal.Decimal
	BankDiscount decimal.Decimal
	CashDiscount decimal.Decimal
}

// Net resolves a computed share into per-leg net amounts. The legs are raw and
// may be negative; apply FloorZero before crediting an account.
func Net(share domain.ComputedShare) NetLegs {
	bankDiscount, cashDiscount := SplitDiscount(share.Discount, share.BankAmount, share.CashAmount)
	return NetLegs{
		Bank:         share.BankAmount.Sub(share.BankHeld).Sub(bankDiscount),
		Cash:         share.CashAmount.Sub(share.CashHeld).Sub(cashDiscount),
		BankDiscount: bankDiscount,
		CashDiscount: cashDiscount,
	}
}

// ReducePool returns balance-amount floored at zero.
func ReducePool(balance, amount decimal.Decimal) decimal.Decimal {
	return FloorZero(balance.Sub(amount))
}

// CheckPartition verifies that pcts sum to exactly 100.
func CheckPartition(scope string, pcts ...decimal.Decimal) error {
	total := decimal.Zero
	for _, p := range pcts {
		total = total.Add(p)
	}
	if !total.Equal(Hundred) {
		return &apperrors.PartitionError{Scope: scope, Total: total, Deviation: total.Sub(Hundred)}
	}
	return nil
}

// ValidateShareInput rejects out-of-range percentages and negative holds or discounts.
func ValidateShareInput(label string, in domain.ShareInput) error {
	if in.Percentage.IsNegative() || in.Percentage.GreaterThan(Hundred) {
		return fmt.Errorf("%w: %s percentage %s must be between 0 and 100", apperrors.ErrValidation, label, in.Percentage.String())
	}
	if in.CashHeld.IsNegative() || in.BankHeld.IsNegative() {
		return fmt.Errorf("%w: %s held amounts cannot be negative", apperrors.ErrValidation, label)
	}
	if in.Discount.IsNegative() {
		return fmt.Errorf("%w: %s discount cannot be negative", apperrors.ErrValidation, label)
	}
	return nil
}

// ComputeShare derives the gross legs and net total for one participant.
func ComputeShare(pool domain.PoolAmounts, in domain.ShareInput, participant domain.ParticipantType) domain.ComputedShare {
	cashAmount := ShareOf(pool.Cash, in.Percentage)
	bankAmount := ShareOf(pool.Bank, in.Percentage)
	total := cashAmount.Sub(in.CashHeld).Add(bankAmount.Sub(in.BankHeld)).Sub(in.Discount)
	return domain.ComputedShare{
		ShareInput:  in,
		Participant: participant,
		CashAmount:  cashAmount,
		BankAmount:  bankAmount,
		Total:       total,
	}
}

// ComputeShares computes every participant's share of pool and enforces the
// 100% partition across employees and the company. Negative totals are
// returned as-is for the caller to surface.
func ComputeShares(pool domain.PoolAmounts, participants []domain.ShareInput, company domain.ShareInput) (*domain.ShareSet, error) {
	if err := ValidateShareInput("company", company); err != nil {
		return nil, err
	}
	if company.EmployeeID != "" {
		return nil, fmt.Errorf("%w: company share cannot carry an employee id", apperrors.ErrValidation)
	}

	seen := make(map[string]struct{}, len(participants))
	pcts := make([]decimal.Decimal, 0, len(participants)+1)
	for i, p := range participants {
		if p.EmployeeID == "" {
			return nil, fmt.Errorf("%w: participant %d has no employee id", apperrors.ErrValidation, i)
		}
		if _, dup := seen[p.EmployeeID]; dup {
			return nil, fmt.Errorf("%w: employee %s listed more than once", apperrors.ErrValidation, p.EmployeeID)
		}
		seen[p.EmployeeID] = struct{}{}
		if err := ValidateShareInput("employee "+p.EmployeeID, p); err != nil {
			return nil, err
		}
		pcts = append(pcts, p.Percentage)
	}
	pcts = append(pcts, company.Percentage)

	if err := CheckPartition("", pcts...); err != nil {
		return nil, err
	}

	set := &domain.ShareSet{
		Pool:            pool,
		Employees:       make([]domain.ComputedShare, 0, len(participants)),
		PercentageTotal: Hundred,
	}
	for _, p := range participants {
		set.Employees = append(set.Employees, ComputeShare(pool, p, domain.ParticipantEmployee))
	}
	set.Company = ComputeShare(pool, company, domain.ParticipantCompany)
	return set, nil
}
