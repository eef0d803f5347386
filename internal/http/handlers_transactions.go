package http

import (
	"fmt"
	"net/http"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

type transactionRequest struct {
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Description   string `json:"description,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Date          string `json:"date,omitempty"`
}

type transactionView struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Description   string `json:"description,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Date          string `json:"date"`
}

func viewTransaction(t core.Transaction) transactionView {
	return transactionView{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        core.FormatAmount(t.Amount),
		Category:      t.Category,
		Description:   t.Description,
		PaymentMethod: string(t.PaymentMethod),
		Date:          t.Date.String(),
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txType, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "type must be income or expense")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	method, err := core.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid payment method")
		return
	}

	date := core.Today()
	if req.Date != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
			return
		}
	}

	category := sanitizeInput(req.Category)
	if category == "" {
		writeError(w, http.StatusUnprocessableEntity, "category is required")
		return
	}

	saved, err := s.transactions.Create(r.Context(), core.Transaction{
		UserID:        userID(r.Context()),
		Type:          txType,
		Amount:        amount,
		Category:      category,
		Description:   sanitizeInput(req.Description),
		PaymentMethod: method,
		Date:          date,
	})
	if err != nil {
		status, msg := statusFromError(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "Failed to create transaction", log.FieldError, err)
		}
		writeError(w, status, msg)
		return
	}

	s.invalidateAggregates(saved.UserID)
	writeJSON(w, http.StatusCreated, viewTransaction(saved))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter storage.TransactionFilter

	if v := r.URL.Query().Get("type"); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "type must be income or expense")
			return
		}
		filter.Type = t
	}

	var err error
	if filter.From, err = parseOptionalDate(r.URL.Query().Get("from")); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "from must be YYYY-MM-DD")
		return
	}
	if filter.To, err = parseOptionalDate(r.URL.Query().Get("to")); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "to must be YYYY-MM-DD")
		return
	}

	list, err := s.transactions.List(r.Context(), userID(r.Context()), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list transactions", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]transactionView, 0, len(list))
	for _, t := range list {
		views = append(views, viewTransaction(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": views})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	if err := s.transactions.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		status, msg := statusFromError(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "Failed to delete transaction", log.FieldError, err)
		}
		writeError(w, status, msg)
		return
	}

	s.invalidateAggregates(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	key := uid + ":balance"

	summary, ok := s.balanceCache.Get(key)
	if !ok {
		var err error
		summary, err = s.transactions.Balance(r.Context(), uid)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to load balance", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.balanceCache.Set(key, summary)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"balance":       core.FormatAmount(summary.Balance()),
		"total_income":  core.FormatAmount(summary.TotalIncome),
		"total_expense": core.FormatAmount(summary.TotalExpense),
	})
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("%s:summary:%04d-%02d", uid, year, month)

	summary, ok := s.summaryCache.Get(key)
	if !ok {
		var err error
		summary, err = s.transactions.MonthSummary(r.Context(), uid, year, month)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to load month summary", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.summaryCache.Set(key, summary)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":    summary.Year,
		"month":   summary.Month,
		"income":  core.FormatAmount(summary.Income),
		"expense": core.FormatAmount(summary.Expense),
		"net":     core.FormatAmount(summary.Net()),
	})
}

func (s *Server) invalidateAggregates(uid string) {
	s.balanceCache.Invalidate(uid + ":")
	s.summaryCache.Invalidate(uid + ":")
}
