package handler

import (
	"net/http"
	"strconv"

	"motorreach/internal/service"

	"github.com/gorilla/mux"
)

// ContactHandler handles HTTP requests for contact operations
type ContactHandler struct {
	contactService *service.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func contactID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]

	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		WriteValidationError(w, "invalid contact ID")
		return 0, false
	}

	return id, true
}

// Create handles POST /contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.contactService.CreateContact(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, contact)
}

// List handles GET /contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)

	contacts, err := h.contactService.ListContacts(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{"contacts": contacts})
}

// GetByID handles GET /contacts/{id}
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	contact, err := h.contactService.GetContact(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, contact)
}

// Update handles PUT /contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	var req service.UpdateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.contactService.UpdateContact(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, contact)
}

// Delete handles DELETE /contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	if err := h.contactService.DeleteContact(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}
