// Package handlers contains the HTTP handlers of the bot's endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/hackathonweekly/checkin-hub/internal/interface/feishu"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT ENVELOPE
// Feishu event subscription v2 wire format.
// ══════════════════════════════════════════════════════════════════════════════

// eventEnvelope is the outer event document. URL-verification requests carry
// Challenge/Type at the top level instead of a header.
type eventEnvelope struct {
	Challenge string `json:"challenge"`
	Type      string `json:"type"`
	Token     string `json:"token"`

	Header struct {
		EventID   string `json:"event_id"`
		EventType string `json:"event_type"`
		Token     string `json:"token"`
	} `json:"header"`

	Event struct {
		Message struct {
			MessageID   string `json:"message_id"`
			ChatID      string `json:"chat_id"`
			MessageType string `json:"message_type"`
			Content     string `json:"content"`
			Mentions    []struct {
				Key  string `json:"key"`
				Name string `json:"name"`
			} `json:"mentions"`
		} `json:"message"`
	} `json:"event"`
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// WebhookHandler receives platform events and forwards them to the router.
// Event processing is asynchronous: the platform redelivers on slow
// responses, so the handler acknowledges first and processes in background.
type WebhookHandler struct {
	router            *feishu.Router
	verificationToken string
	botName           string
	logger            *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. An empty verificationToken
// disables the token check; an empty botName treats any mention as a bot
// mention.
func NewWebhookHandler(router *feishu.Router, verificationToken, botName string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		router:            router,
		verificationToken: verificationToken,
		botName:           botName,
		logger:            logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Malformed payloads are acknowledged; the platform must not retry.
		h.logger.Warn("malformed webhook payload", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusOK)
		return
	}

	// URL verification handshake.
	if envelope.Type == "url_verification" {
		if h.verificationToken != "" && envelope.Token != h.verificationToken {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"challenge": envelope.Challenge})
		return
	}

	if h.verificationToken != "" && envelope.Header.Token != h.verificationToken {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if envelope.Header.EventType == "im.message.receive_v1" {
		ev := h.toEvent(envelope)
		go h.router.HandleEvent(context.WithoutCancel(r.Context()), ev)
	}

	w.WriteHeader(http.StatusOK)
}

// toEvent converts the envelope into the router's normalized event.
func (h *WebhookHandler) toEvent(envelope eventEnvelope) feishu.Event {
	msg := envelope.Event.Message

	mentioned := false
	for _, m := range msg.Mentions {
		if h.botName == "" || m.Name == h.botName {
			mentioned = true
			break
		}
	}

	return feishu.Event{
		EventID:      envelope.Header.EventID,
		MessageID:    msg.MessageID,
		ChatID:       msg.ChatID,
		MessageType:  msg.MessageType,
		Content:      []byte(msg.Content),
		BotMentioned: mentioned,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
