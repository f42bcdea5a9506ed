package handler

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"motorreach/internal/service"
)

// TestHandleServiceError maps each service error family to its HTTP status
func TestHandleServiceError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        &service.NotFoundError{Resource: "campaign", ID: 9},
			wantStatus: 404,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "validation",
			err:        &service.ValidationError{Message: "name is required"},
			wantStatus: 400,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "business logic",
			err:        &service.BusinessLogicError{Message: "campaign cannot be edited"},
			wantStatus: 422,
			wantCode:   "BUSINESS_LOGIC_ERROR",
		},
		{
			name:       "not applicable transition",
			err:        &service.NotApplicableError{Resource: "campaign", ID: 9, Action: "pause"},
			wantStatus: 409,
			wantCode:   "NOT_APPLICABLE",
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("database exploded"),
			wantStatus: 500,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("loading campaign: %w", &service.NotFoundError{Resource: "campaign", ID: 9}),
			wantStatus: 404,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			HandleServiceError(recorder, tc.err)

			if recorder.Code != tc.wantStatus {
				t.Errorf("Status = %d, want %d", recorder.Code, tc.wantStatus)
			}

			var response ErrorResponse
			if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Error.Code != tc.wantCode {
				t.Errorf("Code = %q, want %q", response.Error.Code, tc.wantCode)
			}
		})
	}
}

// TestWriteJSON sets the content type and encodes the payload
func TestWriteJSON(t *testing.T) {
	recorder := httptest.NewRecorder()
	WriteOK(recorder, map[string]string{"status": "healthy"})

	if recorder.Code != 200 {
		t.Errorf("Status = %d, want 200", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}
}
