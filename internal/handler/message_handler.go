package handler

import (
	"net/http"

	"motorreach/internal/models"
	"motorreach/internal/repository"
)

// MessageHandler handles HTTP requests for the message log
type MessageHandler struct {
	messageRepo repository.MessageLogRepository
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageRepo repository.MessageLogRepository) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo}
}

// List handles GET /messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)

	var direction *models.MessageDirection
	if directionStr := r.URL.Query().Get("direction"); directionStr != "" {
		switch models.MessageDirection(directionStr) {
		case models.DirectionInbound, models.DirectionOutbound:
			d := models.MessageDirection(directionStr)
			direction = &d
		default:
			WriteValidationError(w, "direction must be 'inbound' or 'outbound'")
			return
		}
	}

	messages, err := h.messageRepo.List(r.Context(), direction, limit, offset)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{"messages": messages})
}
