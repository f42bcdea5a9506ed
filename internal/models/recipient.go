package models

import "time"

// RecipientStatus represents valid campaign recipient statuses
type RecipientStatus string

const (
	RecipientStatusPending       RecipientStatus = "pending"
	RecipientStatusSent          RecipientStatus = "sent"
	RecipientStatusDelivered     RecipientStatus = "delivered"
	RecipientStatusFailed        RecipientStatus = "failed"
	RecipientStatusSkippedOptOut RecipientStatus = "skipped_optout"
)

// IsTerminal reports whether the status admits no further pipeline work.
// Sent is terminal for the pipeline but may still be promoted to delivered
// by a provider status callback.
func (s RecipientStatus) IsTerminal() bool {
	return s != RecipientStatusPending
}

// CampaignRecipient is the pairing of a campaign and a contact. Phone is
// denormalized at assignment time and is the source of truth for that send:
// editing the contact mid-campaign does not change where the message goes.
type CampaignRecipient struct {
	ID           int             `json:"id" db:"id"`
	CampaignID   int             `json:"campaign_id" db:"campaign_id"`
	ContactID    int             `json:"contact_id" db:"contact_id"`
	Phone        string          `json:"phone" db:"phone"`
	Status       RecipientStatus `json:"status" db:"status"`
	ProviderID   *string         `json:"provider_id,omitempty" db:"provider_id"`
	SentAt       *time.Time      `json:"sent_at,omitempty" db:"sent_at"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
