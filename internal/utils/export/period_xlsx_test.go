package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWritePeriodXLSX(t *testing.T) {
	period := domain.DistributionPeriod{
		PeriodID:    "per-1",
		ProjectID:   "p1",
		Currency:    "USD",
		Type:        domain.FundBank,
		DateFrom:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DateTo:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(200),
	}
	items := []domain.PeriodLineItem{
		{Participant: domain.ParticipantCompany, Percentage: decimal.NewFromInt(40), BankAmount: decimal.NewFromInt(80), Total: decimal.NewFromInt(80)},
		{Participant: domain.ParticipantEmployee, EmployeeID: "e1", Percentage: decimal.NewFromInt(60), BankAmount: decimal.NewFromInt(120), Total: decimal.NewFromInt(120), Note: "June"},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePeriodXLSX(&buf, period, items))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, lineItemsSheet}, f.GetSheetList())

	v, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "per-1", v)
	v, _ = f.GetCellValue(summarySheet, "B6")
	assert.Equal(t, "2024-06-01", v)

	rows, err := f.GetRows(lineItemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Participant", rows[0][0])
	assert.Equal(t, "company", rows[1][0])
	assert.Equal(t, "e1", rows[2][1])
	assert.Equal(t, "120", rows[2][3])
	assert.Equal(t, "June", rows[2][9])
}

func TestPeriodFileName(t *testing.T) {
	assert.Equal(t, "period-cash-x9.xlsx", PeriodFileName(domain.DistributionPeriod{PeriodID: "x9", Type: domain.FundCash}))
}
