package handler

import (
	"log"
	"net/http"

	"motorreach/internal/queue"
	"motorreach/internal/service"
)

// WebhookHandler handles provider callbacks: inbound replies and
// delivery-status reports. Providers POST form-encoded payloads in the
// Twilio shape (From/Body, MessageSid/MessageStatus).
type WebhookHandler struct {
	webhookService *service.WebhookService
	publisher      *queue.Publisher
}

// NewWebhookHandler creates a new webhook handler. publisher may be nil, in
// which case status callbacks are applied synchronously.
func NewWebhookHandler(webhookService *service.WebhookService, publisher *queue.Publisher) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		publisher:      publisher,
	}
}

// Inbound handles POST /webhook/inbound
func (h *WebhookHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteValidationError(w, "invalid form payload")
		return
	}

	phone := r.FormValue("From")
	body := r.FormValue("Body")
	if phone == "" {
		WriteValidationError(w, "From is required")
		return
	}

	result, err := h.webhookService.ProcessInbound(r.Context(), phone, body)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// Status handles POST /webhook/status. The event is queued for the
// dispatcher's consumer so a slow database never blocks the provider's
// callback, falling back to synchronous handling without a broker.
func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteValidationError(w, "invalid form payload")
		return
	}

	event := &queue.StatusEvent{
		ProviderID: r.FormValue("MessageSid"),
		Phone:      r.FormValue("To"),
		Status:     r.FormValue("MessageStatus"),
	}
	if event.ProviderID == "" {
		WriteValidationError(w, "MessageSid is required")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishStatus(event); err != nil {
			log.Printf("Warning: failed to publish status event, applying inline: %v", err)
			if err := h.webhookService.ApplyStatusEvent(r.Context(), event); err != nil {
				HandleServiceError(w, err)
				return
			}
		}
	} else {
		if err := h.webhookService.ApplyStatusEvent(r.Context(), event); err != nil {
			HandleServiceError(w, err)
			return
		}
	}

	WriteOK(w, map[string]string{"status": "accepted"})
}
