package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/store"
)

// handleIndex renders the main page: head form, transaction form, and
// the dashboard partials wired up via htmx.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
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
	data := map[string]any{
		"Heads":        snap.Heads,
		"Summary":      buildSummaryView(snap, from, to),
		"Transactions": buildTransactionListView(snap, from, to),
	}
	s.renderTemplate(w, r, "index.html", data)
}

// handleSummary serves the P&L summary partial for a date range.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
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
	s.renderTemplate(w, r, "summary.html", buildSummaryView(snap, from, to))
}

// handleTransactionList serves the transaction list partial for a date
// range, newest first.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
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
	s.renderTemplate(w, r, "transactions.html", buildTransactionListView(snap, from, to))
}

func (s *Server) handleCreateHead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	headType, err := core.ParseEntryType(r.FormValue("head_type"))
	if err != nil {
		http.Error(w, "Type must be income or expense", http.StatusUnprocessableEntity)
		return
	}

	head := core.Head{
		Name:      sanitizeInput(r.FormValue("name")),
		Type:      headType,
		CreatedAt: time.Now(),
	}
	if err := head.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	id, err := s.store.CreateHead(r.Context(), head)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create head", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Head created", "id", id, "name", head.Name, "type", head.Type)
	s.invalidateSnapshot()
	s.refreshDashboard(w, r)
}

func (s *Server) handleDeleteHead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		http.Error(w, "Missing head id", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteHead(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Head not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete head", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Head deleted", "id", id)
	s.invalidateSnapshot()
	s.refreshDashboard(w, r)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	amount, err := core.ParseAmount(r.FormValue("amount"))
	if err != nil {
		http.Error(w, "Amount must be a positive number", http.StatusUnprocessableEntity)
		return
	}
	txType, err := core.ParseEntryType(r.FormValue("type"))
	if err != nil {
		http.Error(w, "Type must be income or expense", http.StatusUnprocessableEntity)
		return
	}
	date, err := core.ParseDate(r.FormValue("date"))
	if err != nil {
		http.Error(w, "Date must be YYYY-MM-DD", http.StatusUnprocessableEntity)
		return
	}

	tx := core.Transaction{
		Amount:      amount,
		Type:        txType,
		HeadID:      sanitizeInput(r.FormValue("head_id")),
		Date:        date,
		Description: sanitizeInput(r.FormValue("description")),
		ReceiptURL:  sanitizeInput(r.FormValue("receipt_url")),
		CreatedAt:   time.Now(),
	}
	if err := tx.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	id, err := s.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Transaction created",
		"id", id, "amount", amount.String(), "type", txType, "head_id", tx.HeadID)
	s.invalidateSnapshot()
	s.refreshDashboard(w, r)
}

// handleUpdateTransaction edits a transaction's amount and/or
// description. Absent fields are left untouched.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		http.Error(w, "Missing transaction id", http.StatusBadRequest)
		return
	}

	var upd store.TransactionUpdate
	if r.Form.Has("amount") && sanitizeInput(r.FormValue("amount")) != "" {
		amount, err := core.ParseAmount(r.FormValue("amount"))
		if err != nil {
			http.Error(w, "Amount must be a positive number", http.StatusUnprocessableEntity)
			return
		}
		upd.Amount = &amount
	}
	if r.Form.Has("description") {
		desc := sanitizeInput(r.FormValue("description"))
		if len(desc) > 200 {
			http.Error(w, core.ErrDescriptionLong.Error(), http.StatusUnprocessableEntity)
			return
		}
		upd.Description = &desc
	}
	if upd.Amount == nil && upd.Description == nil {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateTransaction(r.Context(), id, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update transaction", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Transaction updated", "id", id)
	s.invalidateSnapshot()
	s.refreshDashboard(w, r)
}

// handleDeleteTransaction removes a transaction. The confirm field is
// mandatory; without it the request is rejected and nothing changes.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		http.Error(w, "Missing transaction id", http.StatusBadRequest)
		return
	}
	if r.FormValue("confirm") != "true" {
		http.Error(w, "Deletion requires confirmation", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Transaction deleted", "id", id)
	s.invalidateSnapshot()
	s.refreshDashboard(w, r)
}

// refreshDashboard responds to a successful mutation. htmx requests get
// the refreshed summary partial plus an HX-Trigger so sibling partials
// reload; plain form posts get a redirect back to the index.
func (s *Server) refreshDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("HX-Trigger", "records-changed")

	snap, err := s.getSnapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to reload snapshot", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	from, to := parseRange(r.Form)
	s.renderTemplate(w, r, "summary.html", buildSummaryView(snap, from, to))
}
