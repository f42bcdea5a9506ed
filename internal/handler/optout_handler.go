package handler

import (
	"net/http"

	"motorreach/internal/service"

	"github.com/gorilla/mux"
)

// OptOutHandler handles HTTP requests for the opt-out registry
type OptOutHandler struct {
	optOutService *service.OptOutService
}

// NewOptOutHandler creates a new opt-out handler
func NewOptOutHandler(optOutService *service.OptOutService) *OptOutHandler {
	return &OptOutHandler{optOutService: optOutService}
}

// RecordOptOutRequest represents a request to record an opt-out
type RecordOptOutRequest struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason,omitempty"`
}

// Record handles POST /optouts
func (h *OptOutHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordOptOutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Phone == "" {
		WriteValidationError(w, "phone is required")
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "admin"
	}

	if err := h.optOutService.Record(r.Context(), req.Phone, reason); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, map[string]string{"phone": req.Phone, "status": "opted_out"})
}

// List handles GET /optouts
func (h *OptOutHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)

	optOuts, err := h.optOutService.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{"opt_outs": optOuts})
}

// Remove handles DELETE /optouts/{phone}
func (h *OptOutHandler) Remove(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]
	if phone == "" {
		WriteValidationError(w, "phone is required")
		return
	}

	if err := h.optOutService.Remove(r.Context(), phone); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}
