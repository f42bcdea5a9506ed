package models

import (
	"fmt"
	"time"
)

// CampaignStatus represents valid campaign statuses
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// transitionTable maps a target status to the statuses it may be entered from.
// Updates are applied compare-and-set against this table, so a stale request
// is a no-op rather than a corrupting write.
var transitionTable = map[CampaignStatus][]CampaignStatus{
	CampaignStatusScheduled: {CampaignStatusDraft},
	CampaignStatusSending:   {CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusPaused},
	CampaignStatusPaused:    {CampaignStatusSending},
	CampaignStatusCompleted: {CampaignStatusSending},
	CampaignStatusCancelled: {CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusPaused},
}

// AllowedFrom returns the legal predecessor statuses for entering target.
func AllowedFrom(target CampaignStatus) []CampaignStatus {
	return transitionTable[target]
}

// CanTransition reports whether a campaign in from may enter to.
func CanTransition(from, to CampaignStatus) bool {
	for _, s := range transitionTable[to] {
		if s == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether status admits no further transitions.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStatusCompleted || s == CampaignStatusCancelled
}

// Editable reports whether campaign fields may still be updated.
func (s CampaignStatus) Editable() bool {
	return s == CampaignStatusDraft || s == CampaignStatusScheduled || s == CampaignStatusPaused
}

// Campaign represents an outbound messaging campaign. Template holds the
// message body with {{var}} placeholders; ContentRef is an opaque
// provider-side template id used when Template is empty.
type Campaign struct {
	ID              int            `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	Template        string         `json:"template" db:"template"`
	ContentRef      *string        `json:"content_ref,omitempty" db:"content_ref"`
	Status          CampaignStatus `json:"status" db:"status"`
	ScheduledAt     *time.Time     `json:"scheduled_at,omitempty" db:"scheduled_at"`
	Filter          *Filter        `json:"filter,omitempty" db:"filter"`
	TotalRecipients int            `json:"total_recipients" db:"total_recipients"`
	SentCount       int            `json:"sent_count" db:"sent_count"`
	LastError       *string        `json:"last_error,omitempty" db:"last_error"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty" db:"started_at"`
	PausedAt        *time.Time     `json:"paused_at,omitempty" db:"paused_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// Validate checks if the campaign fields are valid
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if c.Template == "" && (c.ContentRef == nil || *c.ContentRef == "") {
		return fmt.Errorf("either template or content_ref is required")
	}
	return nil
}

// IsDue reports whether a scheduled campaign should start now
func (c *Campaign) IsDue(now time.Time) bool {
	return c.Status == CampaignStatusScheduled &&
		c.ScheduledAt != nil && !c.ScheduledAt.After(now)
}

// Progress represents aggregate recipient counts for a campaign, computed on
// demand from recipient rows. Sent includes delivered.
type Progress struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// CampaignWithProgress represents a campaign with its recipient counts
type CampaignWithProgress struct {
	Campaign
	Progress Progress `json:"progress"`
}
