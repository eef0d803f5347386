package http

import (
	"net/http"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

type billRequest struct {
	Amount        string `json:"amount"`
	DueDate       string `json:"due_date"`
	Description   string `json:"description,omitempty"`
	PartyName     string `json:"party_name,omitempty"`
	PaymentMethod string `json:"payment_method"`

	IsRecurring     bool   `json:"is_recurring,omitempty"`
	Interval        string `json:"interval,omitempty"`
	RecurrenceCount int    `json:"recurrence_count,omitempty"`
	RecurrenceEnd   string `json:"recurrence_end,omitempty"`
}

type billView struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	DueDate       string `json:"due_date"`
	Description   string `json:"description,omitempty"`
	PartyName     string `json:"party_name,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
}

func viewBill(b core.Bill) billView {
	return billView{
		ID:            b.ID,
		Kind:          string(b.Kind),
		Amount:        core.FormatAmount(b.Amount),
		DueDate:       b.DueDate.String(),
		Description:   b.Description,
		PartyName:     b.PartyName,
		PaymentMethod: string(b.PaymentMethod),
		Status:        string(b.Status),
	}
}

func billKind(r *http.Request) (core.BillKind, bool) {
	kind, err := core.ParseBillKind(r.PathValue("kind"))
	return kind, err == nil
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	kind, ok := billKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown bill kind")
		return
	}

	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	dueDate, err := core.ParseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "due_date must be YYYY-MM-DD")
		return
	}
	method, err := core.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid payment method")
		return
	}

	var recurrence core.RecurrencePolicy
	if req.IsRecurring {
		endDate, err := parseOptionalDate(req.RecurrenceEnd)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "recurrence_end must be YYYY-MM-DD")
			return
		}
		recurrence = core.RecurrencePolicy{
			IsRecurring: true,
			Interval:    core.ParseInterval(req.Interval),
			Count:       req.RecurrenceCount,
			EndDate:     endDate,
		}
	}

	instances, err := s.bills.Create(r.Context(), core.Bill{
		UserID:        userID(r.Context()),
		Kind:          kind,
		Amount:        amount,
		DueDate:       dueDate,
		Description:   sanitizeInput(req.Description),
		PartyName:     sanitizeInput(req.PartyName),
		PaymentMethod: method,
		Recurrence:    recurrence,
	})
	if err != nil {
		status, msg := statusFromError(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "Failed to create bills", log.FieldError, err)
		}
		writeError(w, status, msg)
		return
	}

	views := make([]billView, 0, len(instances))
	for _, b := range instances {
		views = append(views, viewBill(b))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"bills": views})
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	kind, ok := billKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown bill kind")
		return
	}

	var filter storage.BillFilter
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := core.ParseBillStatus(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid status")
			return
		}
		filter.Status = status
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

	list, err := s.bills.List(r.Context(), userID(r.Context()), kind, filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list bills", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]billView, 0, len(list))
	for _, b := range list {
		views = append(views, viewBill(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bills": views})
}

type billStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateBillStatus(w http.ResponseWriter, r *http.Request) {
	kind, ok := billKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown bill kind")
		return
	}

	var req billStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := core.ParseBillStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "status must be pending, paid or overdue")
		return
	}

	if err := s.bills.UpdateStatus(r.Context(), userID(r.Context()), kind, r.PathValue("id"), status); err != nil {
		code, msg := statusFromError(err)
		if code == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "Failed to update bill", log.FieldError, err)
		}
		writeError(w, code, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	kind, ok := billKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown bill kind")
		return
	}

	if err := s.bills.Delete(r.Context(), userID(r.Context()), kind, r.PathValue("id")); err != nil {
		code, msg := statusFromError(err)
		if code == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "Failed to delete bill", log.FieldError, err)
		}
		writeError(w, code, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
