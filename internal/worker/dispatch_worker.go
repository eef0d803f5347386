package worker

import (
	"context"
	"fmt"

	"financas/internal/amqp"
	"financas/internal/log"
)

// TextSender delivers a message to a WhatsApp number. Satisfied by
// whatsapp.Client.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// DispatchWorker consumes queued outbound messages and delivers them
// through the WhatsApp gateway.
type DispatchWorker struct {
	sender TextSender
	logger *log.Logger
}

func NewDispatchWorker(sender TextSender, logger *log.Logger) *DispatchWorker {
	return &DispatchWorker{
		sender: sender,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleOutbound delivers one queued message. Returning an error requeues
// the message, so gateway failures get retried.
func (w *DispatchWorker) HandleOutbound(ctx context.Context, msg *amqp.OutboundMessage) error {
	if msg.To == "" {
		w.logger.WarnContext(ctx, "Dropping outbound message without recipient")
		return nil
	}

	if err := w.sender.SendText(ctx, msg.To, msg.Body); err != nil {
		return fmt.Errorf("send outbound message: %w", err)
	}

	w.logger.InfoContext(ctx, "Outbound message delivered",
		log.FieldRecipient, msg.To,
		log.FieldOperation, log.OpSend)

	return nil
}
