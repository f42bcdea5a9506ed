package service

import (
	"context"
	"log"
	"strconv"
	"sync"

	"motorreach/internal/models"
	"motorreach/internal/provider"
	"motorreach/internal/repository"
)

// Terminal failure reasons recorded on recipients
const (
	reasonInvalidPhone    = "invalid_phone"
	reasonMissingTemplate = "missing_template"
)

// PipelineService executes the per-recipient send pipeline: resolve
// variables, render the template, enforce opt-outs, dispatch through the
// provider and record the result. A recipient leaves pending exactly once;
// re-running the pipeline over a terminal recipient is a no-op.
type PipelineService struct {
	campaignRepo  repository.CampaignRepository
	contactRepo   repository.ContactRepository
	recipientRepo repository.RecipientRepository
	messageRepo   repository.MessageLogRepository
	optOutSvc     *OptOutService
	templateSvc   *TemplateService
	provider      provider.Client
}

// NewPipelineService creates a new send pipeline service
func NewPipelineService(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	recipientRepo repository.RecipientRepository,
	messageRepo repository.MessageLogRepository,
	optOutSvc *OptOutService,
	templateSvc *TemplateService,
	providerClient provider.Client,
) *PipelineService {
	return &PipelineService{
		campaignRepo:  campaignRepo,
		contactRepo:   contactRepo,
		recipientRepo: recipientRepo,
		messageRepo:   messageRepo,
		optOutSvc:     optOutSvc,
		templateSvc:   templateSvc,
		provider:      providerClient,
	}
}

// BatchResult aggregates the outcomes of one batch pass. LastError carries
// the failure reason of the last failed recipient, for the campaign-level
// last_error note.
type BatchResult struct {
	Processed int
	Sent      int
	Failed    int
	Skipped   int
	LastError string
}

// ProcessBatch runs the pipeline over a slice of recipients. Sends within the
// batch are issued concurrently; one recipient's failure never blocks the
// rest of the batch.
func (s *PipelineService) ProcessBatch(ctx context.Context, campaign *models.Campaign, recipients []*models.CampaignRecipient) *BatchResult {
	result := &BatchResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, recipient := range recipients {
		wg.Add(1)
		go func(recipient *models.CampaignRecipient) {
			defer wg.Done()

			status, err := s.ProcessRecipient(ctx, campaign, recipient)
			if err != nil {
				log.Printf("Error processing recipient %d: %v", recipient.ID, err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			result.Processed++
			switch status {
			case models.RecipientStatusSent, models.RecipientStatusDelivered:
				result.Sent++
			case models.RecipientStatusFailed:
				result.Failed++
				if recipient.ErrorMessage != nil {
					result.LastError = *recipient.ErrorMessage
				}
			case models.RecipientStatusSkippedOptOut:
				result.Skipped++
			}
		}(recipient)
	}

	wg.Wait()
	return result
}

// ProcessRecipient runs the pipeline for one pending recipient and returns
// the terminal status it reached. Already-terminal recipients are returned
// unchanged. Data-access errors abort the recipient, leaving it pending for
// a later pass.
func (s *PipelineService) ProcessRecipient(ctx context.Context, campaign *models.Campaign, recipient *models.CampaignRecipient) (models.RecipientStatus, error) {
	if recipient.Status != models.RecipientStatusPending {
		return recipient.Status, nil
	}

	// The denormalized recipient phone is the target for this send, not the
	// contact's current phone.
	phone, err := models.NormalizePhone(recipient.Phone)
	if err != nil {
		return s.fail(ctx, campaign, recipient, reasonInvalidPhone, false)
	}

	// Re-check the registry at send time: the contact may have opted out
	// after assignment.
	optedOut, err := s.optOutSvc.IsOptedOut(ctx, phone)
	if err != nil {
		return recipient.Status, err
	}
	if optedOut {
		if err := s.contactRepo.UpdateStatusByPhone(ctx, phone, models.ContactStatusOptedOut); err != nil {
			log.Printf("Warning: failed to sync opted-out contact %s: %v", phone, err)
		}
		marked, err := s.recipientRepo.MarkTerminal(ctx, recipient.ID, models.RecipientStatusSkippedOptOut, nil, nil)
		if err != nil {
			return recipient.Status, err
		}
		if !marked {
			return recipient.Status, nil
		}
		recipient.Status = models.RecipientStatusSkippedOptOut
		return recipient.Status, nil
	}

	variables := s.resolveVariables(ctx, recipient)

	body := s.templateSvc.Render(campaign.Template, variables)
	templateRef := ""
	if campaign.Template == "" && campaign.ContentRef != nil {
		templateRef = *campaign.ContentRef
	}
	if body == "" && templateRef == "" {
		return s.fail(ctx, campaign, recipient, reasonMissingTemplate, false)
	}

	sendResult, err := s.provider.Send(ctx, &provider.SendRequest{
		To:          phone,
		Body:        body,
		TemplateRef: templateRef,
		Variables:   variables,
	})
	if err != nil {
		// Provider failures are terminal for the recipient: no retry.
		return s.fail(ctx, campaign, recipient, err.Error(), true)
	}

	status := models.RecipientStatusSent
	if sendResult.Delivered() {
		status = models.RecipientStatusDelivered
	}

	marked, err := s.recipientRepo.MarkTerminal(ctx, recipient.ID, status, &sendResult.ProviderID, nil)
	if err != nil {
		return recipient.Status, err
	}
	if !marked {
		// Lost the race to another pass; that pass owns the side effects.
		return recipient.Status, nil
	}
	recipient.Status = status

	if err := s.campaignRepo.IncrementSentCount(ctx, campaign.ID); err != nil {
		log.Printf("Warning: failed to increment sent count for campaign %d: %v", campaign.ID, err)
	}

	s.appendLog(ctx, campaign, recipient, phone, body, &sendResult.ProviderID, string(status))

	return recipient.Status, nil
}

// fail marks a recipient failed with the given reason. attempted controls
// whether a message log entry is appended (a provider call was made).
func (s *PipelineService) fail(ctx context.Context, campaign *models.Campaign, recipient *models.CampaignRecipient, reason string, attempted bool) (models.RecipientStatus, error) {
	marked, err := s.recipientRepo.MarkTerminal(ctx, recipient.ID, models.RecipientStatusFailed, nil, &reason)
	if err != nil {
		return recipient.Status, err
	}
	if !marked {
		return recipient.Status, nil
	}
	recipient.Status = models.RecipientStatusFailed
	recipient.ErrorMessage = &reason

	if attempted {
		s.appendLog(ctx, campaign, recipient, recipient.Phone, "", nil, "failed")
	}

	return recipient.Status, nil
}

// resolveVariables builds the template variable set from the contact and its
// vehicle. A missing contact is not fatal: the recipient's stored phone still
// identifies the target, so rendering proceeds with fallbacks.
func (s *PipelineService) resolveVariables(ctx context.Context, recipient *models.CampaignRecipient) map[string]string {
	variables := map[string]string{
		"phone": recipient.Phone,
	}

	contact, err := s.contactRepo.GetWithVehicle(ctx, recipient.ContactID)
	if err != nil {
		log.Printf("Warning: failed to resolve contact %d for recipient %d: %v", recipient.ContactID, recipient.ID, err)
		return variables
	}

	variables["name"] = contact.DisplayName()
	variables["nombre"] = contact.DisplayName()

	if contact.Vehicle != nil {
		variables["make"] = contact.Vehicle.Make
		variables["marca"] = contact.Vehicle.Make
		variables["model"] = contact.Vehicle.Model
		variables["modelo"] = contact.Vehicle.Model
		variables["year"] = strconv.Itoa(contact.Vehicle.Year)
		variables["anio"] = strconv.Itoa(contact.Vehicle.Year)
	}

	return variables
}

func (s *PipelineService) appendLog(ctx context.Context, campaign *models.Campaign, recipient *models.CampaignRecipient, phone, body string, providerID *string, status string) {
	var bodyPtr *string
	if body != "" {
		bodyPtr = &body
	}

	entry := &models.MessageLogEntry{
		ContactID:  &recipient.ContactID,
		CampaignID: &campaign.ID,
		Direction:  models.DirectionOutbound,
		Phone:      phone,
		Body:       bodyPtr,
		ProviderID: providerID,
		Status:     &status,
	}

	if err := s.messageRepo.Insert(ctx, entry); err != nil {
		log.Printf("Warning: failed to append message log for recipient %d: %v", recipient.ID, err)
	}
}
