package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/report"
)

// handleExportTransactions downloads the transaction listing for a date
// range as CSV.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := s.getSnapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	from, to := parseRange(r.URL.Query())
	txs := report.FilterRange(snap.Transactions, from, to)

	var buf bytes.Buffer
	if err := report.WriteTransactionsCSV(&buf, txs, snap.Heads); err != nil {
		if errors.Is(err, report.ErrNoData) {
			s.renderNotice(w, r, "No transactions in the selected period; nothing to export.")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to build transaction export", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	serveCSV(w, report.ExportFilename("transactions", from, to), buf.Bytes())
	slog.InfoContext(r.Context(), "Transaction export served",
		"from", from.String(), "to", to.String(), "rows", len(txs))
}

// handleExportSummary downloads the P&L summary for a date range as CSV.
func (s *Server) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := s.getSnapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	from, to := parseRange(r.URL.Query())
	rows := report.Aggregate(report.FilterRange(snap.Transactions, from, to), snap.Heads)

	var buf bytes.Buffer
	if err := report.WriteSummaryCSV(&buf, rows); err != nil {
		if errors.Is(err, report.ErrNoData) {
			s.renderNotice(w, r, "No activity in the selected period; nothing to export.")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to build summary export", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	serveCSV(w, report.ExportFilename("pnl-summary", from, to), buf.Bytes())
	slog.InfoContext(r.Context(), "Summary export served",
		"from", from.String(), "to", to.String(), "rows", len(rows))
}

// handleExportSummaryAllTime downloads the unfiltered P&L summary. The
// filename period spans the earliest to the latest dated transaction.
func (s *Server) handleExportSummaryAllTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := s.getSnapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows := report.Aggregate(snap.Transactions, snap.Heads)

	var buf bytes.Buffer
	if err := report.WriteSummaryCSV(&buf, rows); err != nil {
		if errors.Is(err, report.ErrNoData) {
			s.renderNotice(w, r, "No recorded activity yet; nothing to export.")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to build all-time summary export", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	from, to, ok := report.DateBounds(snap.Transactions)
	if !ok {
		// Only undated transactions exist; label the period as today.
		now := time.Now()
		today := core.NewDate(now.Year(), int(now.Month()), now.Day())
		from, to = today, today
	}

	serveCSV(w, report.ExportFilename("pnl-summary", from, to), buf.Bytes())
	slog.InfoContext(r.Context(), "All-time summary export served", "rows", len(rows))
}

func serveCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
