package worker

import (
	"context"
	"errors"
	"testing"

	"financas/internal/amqp"
	"financas/internal/log"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+": "+body)
	return nil
}

func TestHandleOutboundDelivers(t *testing.T) {
	sender := &fakeSender{}
	w := NewDispatchWorker(sender, log.New(log.DefaultConfig()))

	msg := amqp.NewOutboundMessage("5511999999999", "olá")
	if err := w.HandleOutbound(context.Background(), msg); err != nil {
		t.Fatalf("HandleOutbound: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0] != "5511999999999: olá" {
		t.Errorf("unexpected deliveries: %v", sender.sent)
	}
}

func TestHandleOutboundGatewayErrorPropagates(t *testing.T) {
	sender := &fakeSender{err: errors.New("gateway 500")}
	w := NewDispatchWorker(sender, log.New(log.DefaultConfig()))

	msg := amqp.NewOutboundMessage("5511999999999", "olá")
	if err := w.HandleOutbound(context.Background(), msg); err == nil {
		t.Fatal("expected error so the message gets requeued")
	}
}

func TestHandleOutboundDropsEmptyRecipient(t *testing.T) {
	sender := &fakeSender{}
	w := NewDispatchWorker(sender, log.New(log.DefaultConfig()))

	msg := amqp.NewOutboundMessage("", "olá")
	if err := w.HandleOutbound(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error for empty recipient, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("message should not be sent: %v", sender.sent)
	}
}
