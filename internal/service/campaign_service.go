package service

import (
	"context"
	"fmt"
	"time"

	"motorreach/internal/models"
	"motorreach/internal/repository"
)

// CampaignService handles campaign lifecycle: creation, field updates, the
// explicit state machine actions and on-demand progress.
type CampaignService struct {
	campaignRepo  repository.CampaignRepository
	contactRepo   repository.ContactRepository
	recipientRepo repository.RecipientRepository
	assignmentSvc *AssignmentService
	pipeline      *PipelineService
	templateSvc   *TemplateService
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	recipientRepo repository.RecipientRepository,
	assignmentSvc *AssignmentService,
	pipeline *PipelineService,
	templateSvc *TemplateService,
) *CampaignService {
	return &CampaignService{
		campaignRepo:  campaignRepo,
		contactRepo:   contactRepo,
		recipientRepo: recipientRepo,
		assignmentSvc: assignmentSvc,
		pipeline:      pipeline,
		templateSvc:   templateSvc,
	}
}

// CreateCampaignRequest represents a request to create a campaign
type CreateCampaignRequest struct {
	Name        string         `json:"name"`
	Template    string         `json:"template"`
	ContentRef  *string        `json:"content_ref,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	Filter      *models.Filter `json:"filter,omitempty"`
}

// Validate validates the create campaign request
func (r *CreateCampaignRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Template == "" && (r.ContentRef == nil || *r.ContentRef == "") {
		return fmt.Errorf("either template or content_ref is required")
	}
	if r.Filter != nil {
		if err := r.Filter.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CreateCampaign creates a new campaign. A future scheduled time puts it in
// scheduled; otherwise it starts as a draft.
func (s *CampaignService) CreateCampaign(ctx context.Context, req *CreateCampaignRequest) (*models.Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if req.Template != "" {
		if err := s.templateSvc.ValidateTemplate(req.Template); err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid template: %v", err)}
		}
	}

	campaign := &models.Campaign{
		Name:        req.Name,
		Template:    req.Template,
		ContentRef:  req.ContentRef,
		Status:      models.CampaignStatusDraft,
		ScheduledAt: req.ScheduledAt,
		Filter:      req.Filter,
	}

	if req.ScheduledAt != nil && req.ScheduledAt.After(time.Now()) {
		campaign.Status = models.CampaignStatusScheduled
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return campaign, nil
}

// GetCampaign retrieves a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	return campaign, nil
}

// GetCampaignWithProgress retrieves a campaign with its recipient counts
func (s *CampaignService) GetCampaignWithProgress(ctx context.Context, id int) (*models.CampaignWithProgress, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	progress, err := s.campaignRepo.GetProgress(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	return &models.CampaignWithProgress{Campaign: *campaign, Progress: *progress}, nil
}

// GetProgress computes recipient counts for a campaign on demand
func (s *CampaignService) GetProgress(ctx context.Context, id int) (*models.Progress, error) {
	if _, err := s.campaignRepo.GetByID(ctx, id); err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	return s.campaignRepo.GetProgress(ctx, id)
}

// ListCampaigns lists campaigns with filters
func (s *CampaignService) ListCampaigns(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, *PaginationInfo, error) {
	campaigns, total, err := s.campaignRepo.List(ctx, filters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &PaginationInfo{
		Page:       filters.Page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	return campaigns, pagination, nil
}

// UpdateCampaignRequest represents a request to update campaign fields
type UpdateCampaignRequest struct {
	Name        string         `json:"name"`
	Template    string         `json:"template"`
	ContentRef  *string        `json:"content_ref,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	Filter      *models.Filter `json:"filter,omitempty"`
}

// UpdateCampaign updates campaign fields. Only campaigns that have not
// reached sending or a terminal status are editable.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, req *UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	if !campaign.Status.Editable() {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("campaign cannot be edited: status is %s", campaign.Status),
		}
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.Template != "" {
		if err := s.templateSvc.ValidateTemplate(req.Template); err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid template: %v", err)}
		}
		campaign.Template = req.Template
	}
	if req.ContentRef != nil {
		campaign.ContentRef = req.ContentRef
	}
	if req.ScheduledAt != nil {
		campaign.ScheduledAt = req.ScheduledAt
	}
	if req.Filter != nil {
		if err := req.Filter.Validate(); err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		campaign.Filter = req.Filter
	}

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	return campaign, nil
}

// DeleteCampaign deletes a campaign
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return &NotFoundError{Resource: "campaign", ID: id}
	}
	return nil
}

// transition applies one compare-and-set state machine action. A failed
// precondition surfaces as NotApplicableError with the stored state intact.
func (s *CampaignService) transition(ctx context.Context, id int, action string, to models.CampaignStatus) (*models.Campaign, error) {
	if _, err := s.campaignRepo.GetByID(ctx, id); err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	applied, err := s.campaignRepo.UpdateStatus(ctx, id, to, models.AllowedFrom(to)...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s campaign: %w", action, err)
	}
	if !applied {
		return nil, &NotApplicableError{Resource: "campaign", ID: id, Action: action}
	}

	return s.campaignRepo.GetByID(ctx, id)
}

// StartCampaign starts sending now, from draft, scheduled or paused
func (s *CampaignService) StartCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	return s.transition(ctx, id, "start", models.CampaignStatusSending)
}

// PauseCampaign pauses a sending campaign. A batch already in flight
// completes; pausing takes effect between batches.
func (s *CampaignService) PauseCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	return s.transition(ctx, id, "pause", models.CampaignStatusPaused)
}

// ResumeCampaign resumes a paused campaign
func (s *CampaignService) ResumeCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	if campaign.Status != models.CampaignStatusPaused {
		return nil, &NotApplicableError{Resource: "campaign", ID: id, Action: "resume"}
	}

	applied, err := s.campaignRepo.UpdateStatus(ctx, id, models.CampaignStatusSending, models.CampaignStatusPaused)
	if err != nil {
		return nil, fmt.Errorf("failed to resume campaign: %w", err)
	}
	if !applied {
		return nil, &NotApplicableError{Resource: "campaign", ID: id, Action: "resume"}
	}

	return s.campaignRepo.GetByID(ctx, id)
}

// CancelCampaign cancels a campaign that has not started sending. Cancelling
// from sending is illegal; pause first.
func (s *CampaignService) CancelCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	return s.transition(ctx, id, "cancel", models.CampaignStatusCancelled)
}

// ScheduleCampaign sets a future scheduled time on a draft campaign and moves
// it to scheduled. The timestamp and the transition are one compare-and-set
// write, so a request against a non-draft campaign changes nothing.
func (s *CampaignService) ScheduleCampaign(ctx context.Context, id int, at time.Time) (*models.Campaign, error) {
	if !at.After(time.Now()) {
		return nil, &ValidationError{Message: "scheduled time must be in the future"}
	}

	if _, err := s.campaignRepo.GetByID(ctx, id); err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	applied, err := s.campaignRepo.Schedule(ctx, id, at)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule campaign: %w", err)
	}
	if !applied {
		return nil, &NotApplicableError{Resource: "campaign", ID: id, Action: "schedule"}
	}

	return s.campaignRepo.GetByID(ctx, id)
}

// ListRecipients lists a campaign's recipients with pagination
func (s *CampaignService) ListRecipients(ctx context.Context, campaignID, limit, offset int) ([]*models.CampaignRecipient, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: campaignID}
	}
	return s.recipientRepo.ListByCampaign(ctx, campaignID, limit, offset)
}

// SendManualResult reports an ad-hoc send run
type SendManualResult struct {
	CampaignID int `json:"campaign_id"`
	Assigned   int `json:"assigned"`
	Processed  int `json:"processed"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	Remaining  int `json:"remaining_pending"`
}

// SendManual dispatches a campaign to an explicit contact list immediately,
// bypassing the scheduler but running the full send pipeline for each
// requested recipient. Only the requested contacts' rows are processed: the
// campaign's status and any other pending recipients are left alone, except
// that draining the last pending rows of a sending campaign completes it.
func (s *CampaignService) SendManual(ctx context.Context, campaignID int, contactIDs []int) (*SendManualResult, error) {
	if len(contactIDs) == 0 {
		return nil, &ValidationError{Message: "at least one contact ID required"}
	}

	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: campaignID}
	}

	if campaign.Status.IsTerminal() {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("campaign cannot be sent: status is %s", campaign.Status),
		}
	}

	assignment, err := s.assignmentSvc.Assign(ctx, campaignID, &models.Filter{
		Kind:       models.FilterByIDs,
		ContactIDs: contactIDs,
	})
	if err != nil {
		return nil, err
	}

	pending, err := s.recipientRepo.ListPendingByContacts(ctx, campaignID, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending recipients: %w", err)
	}

	batch := s.pipeline.ProcessBatch(ctx, campaign, pending)
	if batch.Failed > 0 && batch.LastError != "" {
		if err := s.campaignRepo.SetLastError(ctx, campaignID, batch.LastError); err != nil {
			return nil, fmt.Errorf("failed to record last error: %w", err)
		}
	}

	remaining, err := s.recipientRepo.CountPending(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending recipients: %w", err)
	}
	if remaining == 0 && campaign.Status == models.CampaignStatusSending {
		if _, err := s.campaignRepo.UpdateStatus(ctx, campaignID, models.CampaignStatusCompleted, models.CampaignStatusSending); err != nil {
			return nil, fmt.Errorf("failed to complete campaign: %w", err)
		}
	}

	return &SendManualResult{
		CampaignID: campaignID,
		Assigned:   assignment.NewlyAssigned,
		Processed:  batch.Processed,
		Sent:       batch.Sent,
		Failed:     batch.Failed,
		Skipped:    batch.Skipped,
		Remaining:  remaining,
	}, nil
}

// PreviewRequest represents a template preview request: either a contact's
// real attributes or ad-hoc sample variables
type PreviewRequest struct {
	ContactID *int              `json:"contact_id,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
	Template  *string           `json:"template,omitempty"`
}

// PreviewResult represents the rendered preview
type PreviewResult struct {
	Rendered     string   `json:"rendered"`
	UsedTemplate string   `json:"used_template"`
	Placeholders []string `json:"placeholders"`
}

// Preview renders a campaign template against sample data without saving or
// sending anything
func (s *CampaignService) Preview(ctx context.Context, campaignID int, req *PreviewRequest) (*PreviewResult, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: campaignID}
	}

	template := campaign.Template
	if req.Template != nil && *req.Template != "" {
		template = *req.Template
	}
	if template == "" {
		return nil, &ValidationError{Message: "campaign has no template body to preview"}
	}

	variables := req.Variables
	if req.ContactID != nil {
		contact, err := s.contactRepo.GetWithVehicle(ctx, *req.ContactID)
		if err != nil {
			return nil, &NotFoundError{Resource: "contact", ID: *req.ContactID}
		}
		variables = map[string]string{
			"phone":  contact.Phone,
			"name":   contact.DisplayName(),
			"nombre": contact.DisplayName(),
		}
		if contact.Vehicle != nil {
			variables["make"] = contact.Vehicle.Make
			variables["marca"] = contact.Vehicle.Make
			variables["model"] = contact.Vehicle.Model
			variables["modelo"] = contact.Vehicle.Model
			variables["year"] = fmt.Sprintf("%d", contact.Vehicle.Year)
			variables["anio"] = fmt.Sprintf("%d", contact.Vehicle.Year)
		}
	}

	return &PreviewResult{
		Rendered:     s.templateSvc.Render(template, variables),
		UsedTemplate: template,
		Placeholders: s.templateSvc.Placeholders(template),
	}, nil
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
