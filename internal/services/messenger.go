package services

import (
	"context"
	"errors"

	"financas/internal/amqp"
	"financas/internal/log"
	"financas/internal/whatsapp"
)

// ErrNoTransport is returned when neither the message queue nor the
// WhatsApp gateway is configured.
var ErrNoTransport = errors.New("no outbound message transport configured")

// Messenger delivers a text message to a WhatsApp number.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
}

// QueueMessenger publishes outbound messages to AMQP so a worker delivers
// them. When no queue is configured it falls back to sending directly
// through the WhatsApp gateway.
type QueueMessenger struct {
	queue  *amqp.Client
	direct *whatsapp.Client
	logger *log.Logger
}

func NewQueueMessenger(queue *amqp.Client, direct *whatsapp.Client, logger *log.Logger) *QueueMessenger {
	return &QueueMessenger{
		queue:  queue,
		direct: direct,
		logger: logger.WithComponent(log.ComponentWhatsApp),
	}
}

func (m *QueueMessenger) SendText(ctx context.Context, to, body string) error {
	if m.queue != nil {
		err := m.queue.PublishOutbound(ctx, to, body)
		if err == nil {
			return nil
		}
		m.logger.WarnContext(ctx, "Failed to publish outbound message, falling back to direct send",
			"error", err)
	}

	if m.direct != nil && m.direct.Configured() {
		return m.direct.SendText(ctx, to, body)
	}

	return ErrNoTransport
}
