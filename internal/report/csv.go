package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/vansh-20/school-finance-app/internal/core"
)

// ErrNoData means a report resolved to zero rows. Callers surface a
// notice instead of producing a zero-byte export.
var ErrNoData = errors.New("no data to export")

// TransactionsHeader is the column order of a transaction export.
var TransactionsHeader = []string{"Date", "Type", "Head", "Description", "Amount", "ReceiptURL"}

// SummaryHeader is the column order of a P&L summary export.
var SummaryHeader = []string{"Head", "Type", "Income", "Expense", "Net"}

// WriteTransactionsCSV writes a transaction listing sorted ascending by
// date. Head references are resolved against the head list; dangling
// ones are labeled Uncategorized. encoding/csv handles RFC 4180
// quoting, so commas, quotes and newlines in fields round-trip.
func WriteTransactionsCSV(w io.Writer, txs []core.Transaction, heads []core.Head) error {
	if len(txs) == 0 {
		return ErrNoData
	}

	byID := make(map[string]core.Head, len(heads))
	for _, h := range heads {
		byID[h.ID] = h
	}

	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionsHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range sorted {
		name := Uncategorized
		if h, ok := byID[tx.HeadID]; ok {
			name = h.Name
		}
		row := []string{
			tx.Date.String(),
			string(tx.Type),
			name,
			tx.Description,
			tx.Amount.StringFixed(2),
			tx.ReceiptURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes a P&L summary with an appended TOTALS row.
func WriteSummaryCSV(w io.Writer, rows []SummaryRow) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range rows {
		rec := []string{
			r.Head,
			string(r.Type),
			r.Income.StringFixed(2),
			r.Expense.StringFixed(2),
			r.Net.StringFixed(2),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	income, expense, net := Totals(rows)
	totals := []string{"TOTALS", "", income.StringFixed(2), expense.StringFixed(2), net.StringFixed(2)}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("writing totals row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names an export file, embedding the report period.
func ExportFilename(kind string, from, to core.Date) string {
	return fmt.Sprintf("%s_%s_to_%s.csv", kind, from.String(), to.String())
}
