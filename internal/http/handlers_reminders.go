package http

import (
	"net/http"
	"time"

	"financas/internal/core"
	"financas/internal/log"
)

type reminderRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	DueDate          string `json:"due_date"`
	DueTime          string `json:"due_time,omitempty"`
	SendNotification bool   `json:"send_notification"`
}

type reminderView struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	DueDate          string `json:"due_date"`
	DueTime          string `json:"due_time,omitempty"`
	Status           string `json:"status"`
	SendNotification bool   `json:"send_notification"`
	NotifiedAt       string `json:"notified_at,omitempty"`
}

func viewReminder(rem core.Reminder) reminderView {
	v := reminderView{
		ID:               rem.ID,
		Title:            rem.Title,
		Description:      rem.Description,
		DueDate:          rem.DueDate.String(),
		DueTime:          rem.DueTime,
		Status:           rem.Status,
		SendNotification: rem.SendNotification,
	}
	if rem.NotificationSentAt != nil {
		v.NotifiedAt = rem.NotificationSentAt.Format(time.RFC3339)
	}
	return v
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dueDate, err := core.ParseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "due_date must be YYYY-MM-DD")
		return
	}

	saved, err := s.reminders.Create(r.Context(), core.Reminder{
		UserID:           userID(r.Context()),
		Title:            sanitizeInput(req.Title),
		Description:      sanitizeInput(req.Description),
		DueDate:          dueDate,
		DueTime:          sanitizeInput(req.DueTime),
		SendNotification: req.SendNotification,
	})
	if err != nil {
		status, msg := statusFromError(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "Failed to create reminder", log.FieldError, err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusCreated, viewReminder(saved))
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	list, err := s.reminders.List(r.Context(), userID(r.Context()))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list reminders", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]reminderView, 0, len(list))
	for _, rem := range list {
		views = append(views, viewReminder(rem))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": views})
}

// handleDispatchReminders is invoked by an external scheduler to push due
// reminder notifications. Guarded by requireCron.
func (s *Server) handleDispatchReminders(w http.ResponseWriter, r *http.Request) {
	sent, err := s.reminders.DispatchDue(r.Context(), core.Today())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Reminder dispatch failed",
			log.FieldOperation, log.OpDispatch,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
