package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"motorreach/internal/service"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
		return err
	}

	return nil
}

// WriteOK writes a 200 OK JSON response
func WriteOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 Created JSON response
func WriteCreated(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error response with the given status, code and message
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// WriteValidationError writes a 400 validation error response
func WriteValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// HandleServiceError maps service-layer errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error) {
	var notFound *service.NotFoundError
	var validation *service.ValidationError
	var businessLogic *service.BusinessLogicError
	var notApplicable *service.NotApplicableError

	switch {
	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", notFound.Error())
	case errors.As(err, &validation):
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", validation.Error())
	case errors.As(err, &businessLogic):
		WriteError(w, http.StatusUnprocessableEntity, "BUSINESS_LOGIC_ERROR", businessLogic.Error())
	case errors.As(err, &notApplicable):
		WriteError(w, http.StatusConflict, "NOT_APPLICABLE", notApplicable.Error())
	default:
		log.Printf("Internal error: %v", err)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
