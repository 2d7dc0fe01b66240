// Package report exports the reconciliation result as an xlsx workbook with a
// Matched sheet and a Pending sheet.
package report

import (
	"fmt"
	"io"

	"BankRecon/internal/logger"
	"BankRecon/internal/model"
	"BankRecon/internal/reconcile"

	"github.com/xuri/excelize/v2"
)

const (
	SheetMatched = "Matched"
	SheetPending = "Pending"
)

var (
	matchedHeader = []interface{}{
		"Bank ID", "Bank Date", "Bank Description", "Bank Amount",
		"Accounting ID", "Accounting Date", "Accounting Document", "Accounting Description", "Accounting Amount",
		"Difference", "Days Apart",
	}
	pendingHeader = []interface{}{"Side", "ID", "Date", "Document", "Description", "Amount"}
)

// WriteWorkbook writes one Matched row per pair and one Pending row per record
// not referenced by any pair. Days Apart is blank when either date is unknown.
func WriteWorkbook(w io.Writer, bank, accounting []model.Transaction, pairs []model.MatchedPair) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetMatched); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetPending); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	bankByID, accByID := byID(bank), byID(accounting)
	rows := make([][]interface{}, 0, len(pairs))
	for _, p := range pairs {
		b, okB := bankByID[p.BankID]
		a, okA := accByID[p.AccountingID]
		if !okB || !okA {
			logger.Warnf("report: pair %s/%s references an unknown record, skipped", p.BankID, p.AccountingID)
			continue
		}
		var daysApart interface{} = ""
		if d := model.DaysBetween(b.Date, a.Date); d >= 0 {
			daysApart = d
		}
		rows = append(rows, []interface{}{
			b.ID, b.Date.String(), b.Description, b.RoundedAmount().InexactFloat64(),
			a.ID, a.Date.String(), a.DocumentRef, a.Description, a.RoundedAmount().InexactFloat64(),
			b.RoundedAmount().Sub(a.RoundedAmount()).InexactFloat64(), daysApart,
		})
	}
	if err := writeSheet(f, SheetMatched, matchedHeader, rows, bold); err != nil {
		return err
	}

	rows = rows[:0]
	for _, t := range append(reconcile.UnmatchedView(bank, pairs), reconcile.UnmatchedView(accounting, pairs)...) {
		rows = append(rows, []interface{}{
			string(t.Side), t.ID, t.Date.String(), t.DocumentRef, t.Description, t.RoundedAmount().InexactFloat64(),
		})
	}
	if err := writeSheet(f, SheetPending, pendingHeader, rows, bold); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	for i := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func byID(records []model.Transaction) map[string]model.Transaction {
	m := make(map[string]model.Transaction, len(records))
	for _, t := range records {
		m[t.ID] = t
	}
	return m
}
