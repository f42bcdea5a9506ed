package models

import "time"

// MessageDirection represents the direction of a logged message
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// MessageLogEntry is an immutable record of one inbound or outbound message.
// The log is append-only; entries are never updated or deleted.
type MessageLogEntry struct {
	ID         int              `json:"id" db:"id"`
	ContactID  *int             `json:"contact_id,omitempty" db:"contact_id"`
	CampaignID *int             `json:"campaign_id,omitempty" db:"campaign_id"`
	Direction  MessageDirection `json:"direction" db:"direction"`
	Phone      string           `json:"phone" db:"phone"`
	Body       *string          `json:"body,omitempty" db:"body"`
	ProviderID *string          `json:"provider_id,omitempty" db:"provider_id"`
	Status     *string          `json:"status,omitempty" db:"status"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// OptOut is a standing do-not-contact directive for a phone number. The
// existence of a row is authoritative regardless of the contact's status.
type OptOut struct {
	Phone     string    `json:"phone" db:"phone"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
