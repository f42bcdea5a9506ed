package service

import (
	"context"
	"fmt"

	"motorreach/internal/models"
	"motorreach/internal/repository"
)

// candidateLimit bounds how many contacts a single filter may resolve
const candidateLimit = 1000

// AssignmentService builds the recipient set of a campaign from a filter.
// Assignment is idempotent: re-running with an overlapping
// candidate set neither duplicates pairs nor resets recipient statuses.
type AssignmentService struct {
	campaignRepo  repository.CampaignRepository
	contactRepo   repository.ContactRepository
	recipientRepo repository.RecipientRepository
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	recipientRepo repository.RecipientRepository,
) *AssignmentService {
	return &AssignmentService{
		campaignRepo:  campaignRepo,
		contactRepo:   contactRepo,
		recipientRepo: recipientRepo,
	}
}

// AssignmentResult reports the outcome of one assignment run. Candidates is
// informational (how many contacts the filter resolved); TotalRecipients is
// the authoritative deduplicated row count persisted on the campaign.
type AssignmentResult struct {
	Candidates      int `json:"candidates"`
	NewlyAssigned   int `json:"newly_assigned"`
	TotalRecipients int `json:"total_recipients"`
}

// Assign resolves the filter to active, non-opted-out contacts and inserts a
// recipient row per (campaign, contact) pair that does not already exist.
// The recipient's phone is denormalized at this moment and stays fixed for
// the campaign's lifetime. total_recipients is recomputed from storage after
// the insert.
func (s *AssignmentService) Assign(ctx context.Context, campaignID int, filter *models.Filter) (*AssignmentResult, error) {
	if filter == nil {
		return nil, &ValidationError{Message: "filter is required"}
	}
	if err := filter.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: campaignID}
	}

	if campaign.Status.IsTerminal() {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("cannot assign recipients: campaign is %s", campaign.Status),
		}
	}

	candidates, err := s.contactRepo.FindCandidates(ctx, filter, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve filter: %w", err)
	}

	inserted, err := s.recipientRepo.AssignBatch(ctx, campaignID, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to assign recipients: %w", err)
	}

	total, err := s.recipientRepo.CountByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipients: %w", err)
	}

	if err := s.campaignRepo.SetTotalRecipients(ctx, campaignID, total); err != nil {
		return nil, fmt.Errorf("failed to update total recipients: %w", err)
	}

	return &AssignmentResult{
		Candidates:      len(candidates),
		NewlyAssigned:   inserted,
		TotalRecipients: total,
	}, nil
}
