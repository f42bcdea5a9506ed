package service

import (
	"context"
	"fmt"
	"log"

	"motorreach/internal/models"
	"motorreach/internal/queue"
	"motorreach/internal/repository"
)

// WebhookService processes provider callbacks: inbound replies and
// delivery-status reports.
type WebhookService struct {
	contactRepo   repository.ContactRepository
	recipientRepo repository.RecipientRepository
	messageRepo   repository.MessageLogRepository
	optOutSvc     *OptOutService
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	contactRepo repository.ContactRepository,
	recipientRepo repository.RecipientRepository,
	messageRepo repository.MessageLogRepository,
	optOutSvc *OptOutService,
) *WebhookService {
	return &WebhookService{
		contactRepo:   contactRepo,
		recipientRepo: recipientRepo,
		messageRepo:   messageRepo,
		optOutSvc:     optOutSvc,
	}
}

// InboundResult reports how an inbound message was handled
type InboundResult struct {
	ContactID int  `json:"contact_id"`
	OptedOut  bool `json:"opted_out"`
}

// ProcessInbound handles one inbound message: the contact is created on first
// contact, the message is appended to the log, and opt-out keywords trigger
// the registry.
func (s *WebhookService) ProcessInbound(ctx context.Context, phone, body string) (*InboundResult, error) {
	normalized, err := models.NormalizePhone(phone)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	contact, err := s.contactRepo.Upsert(ctx, normalized, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert contact: %w", err)
	}

	var bodyPtr *string
	if body != "" {
		bodyPtr = &body
	}
	entry := &models.MessageLogEntry{
		ContactID: &contact.ID,
		Direction: models.DirectionInbound,
		Phone:     normalized,
		Body:      bodyPtr,
	}
	if err := s.messageRepo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to log inbound message: %w", err)
	}

	result := &InboundResult{ContactID: contact.ID}

	if ContainsOptOutKeyword(body) {
		if err := s.optOutSvc.Record(ctx, normalized, "inbound_keyword"); err != nil {
			return nil, fmt.Errorf("failed to record opt-out: %w", err)
		}
		result.OptedOut = true
		log.Printf("Opt-out recorded for %s via inbound keyword", normalized)
	}

	return result, nil
}

// ApplyStatusEvent applies one provider delivery-status event consumed from
// the queue: a "delivered"/"read" report promotes the matching sent
// recipient to delivered.
func (s *WebhookService) ApplyStatusEvent(ctx context.Context, event *queue.StatusEvent) error {
	if event.ProviderID == "" {
		return fmt.Errorf("status event has no provider id")
	}

	if event.Status != "delivered" && event.Status != "read" {
		// In-transit statuses carry no new information for the recipient row
		return nil
	}

	promoted, err := s.recipientRepo.MarkDelivered(ctx, event.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to apply delivery report: %w", err)
	}
	if promoted {
		log.Printf("Recipient with provider id %s marked delivered", event.ProviderID)
	}

	return nil
}
