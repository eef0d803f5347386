package amqp

import (
	"encoding/json"
	"time"
)

// OutboundMessage is a queued WhatsApp text message awaiting delivery by the
// worker. The full body travels in the message so the worker needs no
// database access to deliver it.
type OutboundMessage struct {
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOutboundMessage creates a delivery message for a recipient.
func NewOutboundMessage(to, body string) *OutboundMessage {
	return &OutboundMessage{
		To:        to,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *OutboundMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OutboundMessageFromJSON creates a message from JSON bytes.
func OutboundMessageFromJSON(data []byte) (*OutboundMessage, error) {
	var msg OutboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
