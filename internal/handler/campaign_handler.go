package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"motorreach/internal/models"
	"motorreach/internal/repository"
	"motorreach/internal/service"

	"github.com/gorilla/mux"
)

// CampaignHandler handles HTTP requests for campaign operations
type CampaignHandler struct {
	campaignService   *service.CampaignService
	assignmentService *service.AssignmentService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService *service.CampaignService, assignmentService *service.AssignmentService) *CampaignHandler {
	return &CampaignHandler{
		campaignService:   campaignService,
		assignmentService: assignmentService,
	}
}

// campaignID extracts and validates the {id} path variable
func campaignID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]

	id, err := strconv.Atoi(idStr)
	if err != nil {
		WriteValidationError(w, "invalid campaign ID format")
		return 0, false
	}
	if id <= 0 {
		WriteValidationError(w, "campaign ID must be greater than 0")
		return 0, false
	}

	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return false
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return false
	}
	return true
}

// Create handles POST /campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	campaign, err := h.campaignService.CreateCampaign(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, campaign)
}

// List handles GET /campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	perPage := 20
	if perPageStr := query.Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 {
			perPage = pp
		}
	}
	if perPage > 100 {
		perPage = 100
	}

	filters := repository.CampaignFilters{
		Page:     page,
		PageSize: perPage,
	}

	if statusStr := query.Get("status"); statusStr != "" {
		validStatuses := map[string]models.CampaignStatus{
			"draft":     models.CampaignStatusDraft,
			"scheduled": models.CampaignStatusScheduled,
			"sending":   models.CampaignStatusSending,
			"paused":    models.CampaignStatusPaused,
			"completed": models.CampaignStatusCompleted,
			"cancelled": models.CampaignStatusCancelled,
			"failed":    models.CampaignStatusFailed,
		}
		if status, ok := validStatuses[statusStr]; ok {
			filters.Status = &status
		} else {
			WriteValidationError(w, "invalid status filter")
			return
		}
	}

	campaigns, pagination, err := h.campaignService.ListCampaigns(r.Context(), filters)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, ListCampaignsResponse{
		Campaigns:  campaigns,
		Pagination: pagination,
	})
}

// GetByID handles GET /campaigns/{id}
func (h *CampaignHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetCampaignWithProgress(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Update handles PUT /campaigns/{id}
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req service.UpdateCampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	campaign, err := h.campaignService.UpdateCampaign(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Delete handles DELETE /campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	if err := h.campaignService.DeleteCampaign(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Assign handles POST /campaigns/{id}/assign
func (h *CampaignHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var filter models.Filter
	if !decodeJSON(w, r, &filter) {
		return
	}

	result, err := h.assignmentService.Assign(r.Context(), id, &filter)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// Start handles POST /campaigns/{id}/start
func (h *CampaignHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.campaignService.StartCampaign)
}

// Pause handles POST /campaigns/{id}/pause
func (h *CampaignHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.campaignService.PauseCampaign)
}

// Resume handles POST /campaigns/{id}/resume
func (h *CampaignHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.campaignService.ResumeCampaign)
}

// Cancel handles POST /campaigns/{id}/cancel
func (h *CampaignHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.campaignService.CancelCampaign)
}

func (h *CampaignHandler) applyTransition(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int) (*models.Campaign, error)) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	campaign, err := action(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Schedule handles POST /campaigns/{id}/schedule
func (h *CampaignHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	campaign, err := h.campaignService.ScheduleCampaign(r.Context(), id, req.ScheduledAt)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Progress handles GET /campaigns/{id}/progress
func (h *CampaignHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	progress, err := h.campaignService.GetProgress(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, progress)
}

// Recipients handles GET /campaigns/{id}/recipients
func (h *CampaignHandler) Recipients(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	limit, offset := parsePagination(r, 50)

	recipients, err := h.campaignService.ListRecipients(r.Context(), id, limit, offset)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{"recipients": recipients})
}

// Preview handles POST /campaigns/{id}/preview
func (h *CampaignHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req service.PreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.campaignService.Preview(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// SendManual handles POST /campaigns/{id}/send
func (h *CampaignHandler) SendManual(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req SendManualRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if len(req.ContactIDs) == 0 {
		WriteValidationError(w, "contact_ids cannot be empty")
		return
	}

	result, err := h.campaignService.SendManual(r.Context(), id, req.ContactIDs)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// parsePagination extracts limit/offset query parameters
func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}

// Request/Response types

// ListCampaignsResponse represents the response for listing campaigns
type ListCampaignsResponse struct {
	Campaigns  []*models.Campaign      `json:"campaigns"`
	Pagination *service.PaginationInfo `json:"pagination"`
}

// ScheduleRequest represents the request to schedule a campaign
type ScheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// SendManualRequest represents the request for an ad-hoc send
type SendManualRequest struct {
	ContactIDs []int `json:"contact_ids"`
}
