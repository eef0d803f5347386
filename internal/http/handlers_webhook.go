package http

import (
	"context"
	"net/http"
	"time"

	"financas/internal/log"
	"financas/internal/services"
)

// webhookPayload mirrors the slice of the Meta webhook event structure the
// pipeline cares about.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text *struct {
						Body string `json:"body"`
					} `json:"text"`
					Audio *struct {
						ID string `json:"id"`
					} `json:"audio"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// handleWebhookVerify answers the Meta subscription handshake.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && s.verifyToken != "" && token == s.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	s.logger.WarnContext(r.Context(), "Webhook verification rejected",
		log.FieldClientIP, s.extractor.ClientIP(r))
	writeError(w, http.StatusForbidden, "verification failed")
}

// handleWebhookEvent receives Meta webhook events. It always acknowledges
// with 200 so the gateway does not retry; processing failures are logged.
func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := decodeWebhook(w, r, &payload); err != nil {
		// malformed events are acknowledged too
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, msg := range extractMessages(payload) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 60*time.Second)
		err := s.pipeline.Handle(ctx, msg)
		cancel()
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to process inbound message",
				log.FieldSender, msg.From,
				log.FieldError, err)
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))
}

func extractMessages(payload webhookPayload) []services.IncomingMessage {
	var out []services.IncomingMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				msg := services.IncomingMessage{From: m.From}
				switch {
				case m.Type == "audio" && m.Audio != nil:
					msg.AudioID = m.Audio.ID
				case m.Text != nil:
					msg.Text = m.Text.Body
				}
				out = append(out, msg)
			}
		}
	}
	return out
}

func decodeWebhook(w http.ResponseWriter, r *http.Request, v any) error {
	// webhook events carry fields we do not model, so no unknown-field check
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return jsonDecode(r, v)
}
