package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/report"
)

// parseRange reads the from/to query or form parameters. Missing or
// malformed values default to the current calendar month.
func parseRange(values url.Values) (core.Date, core.Date) {
	now := time.Now()
	f := core.NewDate(now.Year(), int(now.Month()), 1)
	t := core.Date{Time: f.Time.AddDate(0, 1, -1)}

	if v := strings.TrimSpace(values.Get("from")); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			f = d
		}
	}
	if v := strings.TrimSpace(values.Get("to")); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			t = d
		}
	}

	if t.Time.Before(f.Time) {
		f, t = t, f
	}
	return f, t
}

// sanitizeInput trims whitespace and strips control characters from
// user-provided text fields.
func sanitizeInput(input string) string {
	sanitized := strings.TrimSpace(input)
	sanitized = strings.ReplaceAll(sanitized, "\x00", "")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")
	return sanitized
}

// summaryRowView is the template-facing shape of a P&L summary row.
type summaryRowView struct {
	Head    string
	Type    string
	Income  string
	Expense string
	Net     string
}

type summaryView struct {
	From         string
	To           string
	Rows         []summaryRowView
	TotalIncome  string
	TotalExpense string
	TotalNet     string
	Empty        bool
}

func buildSummaryView(snap core.Snapshot, from, to core.Date) summaryView {
	txs := report.FilterRange(snap.Transactions, from, to)
	rows := report.Aggregate(txs, snap.Heads)
	income, expense, net := report.Totals(rows)

	view := summaryView{
		From:         from.String(),
		To:           to.String(),
		TotalIncome:  formatAmount(income),
		TotalExpense: formatAmount(expense),
		TotalNet:     formatAmount(net),
		Empty:        len(rows) == 0,
	}
	for _, r := range rows {
		view.Rows = append(view.Rows, summaryRowView{
			Head:    r.Head,
			Type:    string(r.Type),
			Income:  formatAmount(r.Income),
			Expense: formatAmount(r.Expense),
			Net:     formatAmount(r.Net),
		})
	}
	return view
}

type transactionRowView struct {
	ID          string
	Date        string
	Type        string
	Head        string
	Description string
	Amount      string
	ReceiptURL  string
}

type transactionListView struct {
	From  string
	To    string
	Rows  []transactionRowView
	Empty bool
}

func buildTransactionListView(snap core.Snapshot, from, to core.Date) transactionListView {
	txs := report.FilterRange(snap.Transactions, from, to)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[j].Date.Time.Before(txs[i].Date.Time)
	})

	view := transactionListView{
		From:  from.String(),
		To:    to.String(),
		Empty: len(txs) == 0,
	}
	for _, tx := range txs {
		head := report.Uncategorized
		if h, ok := snap.HeadByID(tx.HeadID); ok {
			head = h.Name
		}
		view.Rows = append(view.Rows, transactionRowView{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			Type:        string(tx.Type),
			Head:        head,
			Description: tx.Description,
			Amount:      formatAmount(tx.Amount),
			ReceiptURL:  tx.ReceiptURL,
		})
	}
	return view
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// renderNotice writes a small htmx-friendly notice fragment.
func (s *Server) renderNotice(w http.ResponseWriter, r *http.Request, message string) {
	s.renderTemplate(w, r, "notice.html", map[string]string{"Message": message})
}
