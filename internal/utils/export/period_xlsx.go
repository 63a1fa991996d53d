// Package export renders distribution history as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of the workbook written by WritePeriodXLSX.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet   = "Period"
	lineItemsSheet = "Line items"
)

var lineItemHeadings = []string{
	"Participant", "Employee", "Percentage", "Bank", "Cash", "Bank held", "Cash held", "Discount", "Total", "Note",
}

// PeriodFileName is the attachment name used for a period export.
func PeriodFileName(period domain.DistributionPeriod) string {
	return fmt.Sprintf("period-%s-%s.xlsx", period.Type, period.PeriodID)
}

// WritePeriodXLSX writes a workbook with a summary sheet and one row per line item.
func WritePeriodXLSX(w io.Writer, period domain.DistributionPeriod, items []domain.PeriodLineItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	summary := [][]any{
		{"Period", period.PeriodID},
		{"Project", period.ProjectID},
		{"Run", period.RunID},
		{"Fund", string(period.Type)},
		{"Currency", period.Currency},
		{"From", period.DateFrom.Format("2006-01-02")},
		{"To", period.DateTo.Format("2006-01-02")},
		{"Total", period.TotalAmount.InexactFloat64()},
		{"Note", period.Note},
		{"Created by", period.CreatedBy},
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	headings := make([]any, len(lineItemHeadings))
	for i, h := range lineItemHeadings {
		headings[i] = h
	}
	if err := setRow(f, lineItemsSheet, 1, headings); err != nil {
		return err
	}
	for i, item := range items {
		row := []any{
			string(item.Participant),
			item.EmployeeID,
			item.Percentage.InexactFloat64(),
			item.BankAmount.InexactFloat64(),
			item.CashAmount.InexactFloat64(),
			item.BankHeld.InexactFloat64(),
			item.CashHeld.InexactFloat64(),
			item.Discount.InexactFloat64(),
			item.Total.InexactFloat64(),
			item.Note,
		}
		if err := setRow(f, lineItemsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set %s row %d: %w", sheet, rowNo, err)
	}
	return nil
}
