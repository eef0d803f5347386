package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

// ReminderStore is the persistence surface the reminder service needs.
type ReminderStore interface {
	CreateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]core.Reminder, error)
	DueReminders(ctx context.Context, date core.Date) ([]storage.DueReminder, error)
	MarkReminderNotified(ctx context.Context, id string, at time.Time) error
}

// ReminderService manages reminders and dispatches WhatsApp notifications
// for the ones due today.
type ReminderService struct {
	storage   ReminderStore
	messenger Messenger
	logger    *log.Logger
}

func NewReminderService(storage ReminderStore, messenger Messenger, logger *log.Logger) *ReminderService {
	return &ReminderService{
		storage:   storage,
		messenger: messenger,
		logger:    logger.WithComponent(log.ComponentReminder),
	}
}

func (s *ReminderService) Create(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	if rem.ID == "" {
		rem.ID = uuid.NewString()
	}
	if rem.Status == "" {
		rem.Status = "pending"
	}
	if err := rem.Validate(); err != nil {
		return core.Reminder{}, err
	}

	saved, err := s.storage.CreateReminder(ctx, rem)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	return saved, nil
}

func (s *ReminderService) List(ctx context.Context, userID string) ([]core.Reminder, error) {
	return s.storage.ListReminders(ctx, userID)
}

// DispatchDue sends a notification for every reminder due on the given
// date that has not been notified yet, and stamps each one as sent. It
// returns how many notifications went out. A failed send skips the stamp
// so the reminder is retried on the next run.
func (s *ReminderService) DispatchDue(ctx context.Context, date core.Date) (int, error) {
	due, err := s.storage.DueReminders(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	sent := 0
	for _, rem := range due {
		if rem.WhatsAppNumber == "" {
			s.logger.WarnContext(ctx, "Reminder user has no WhatsApp number",
				log.FieldReminderID, rem.ID,
				log.FieldUserID, rem.UserID)
			continue
		}

		body := reminderMessage(rem)
		if err := s.messenger.SendText(ctx, rem.WhatsAppNumber, body); err != nil {
			s.logger.ErrorContext(ctx, "Failed to send reminder notification",
				log.FieldReminderID, rem.ID,
				log.FieldRecipient, rem.WhatsAppNumber,
				log.FieldError, err)
			continue
		}

		if err := s.storage.MarkReminderNotified(ctx, rem.ID, time.Now().UTC()); err != nil {
			s.logger.ErrorContext(ctx, "Failed to mark reminder as notified",
				log.FieldReminderID, rem.ID,
				log.FieldError, err)
			continue
		}
		sent++
	}

	s.logger.InfoContext(ctx, "Reminder dispatch finished",
		log.FieldOperation, log.OpDispatch,
		log.FieldDueDate, date.String(),
		"due", len(due),
		"sent", sent)

	return sent, nil
}

func reminderMessage(rem storage.DueReminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 Olá, %s! Você tem um lembrete para hoje:\n\n", rem.UserName)
	fmt.Fprintf(&b, "📌 %s", rem.Title)
	if rem.DueTime != "" {
		fmt.Fprintf(&b, "\n⏰ Horário: %s", rem.DueTime)
	}
	if rem.Description != "" {
		fmt.Fprintf(&b, "\n📝 %s", rem.Description)
	}
	return b.String()
}
