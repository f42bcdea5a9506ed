package repository

import (
	"context"
	"time"

	"motorreach/internal/models"
)

// ContactRepository defines contact data access operations
type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id int) (*models.Contact, error)
	GetByPhone(ctx context.Context, phone string) (*models.Contact, error)
	GetWithVehicle(ctx context.Context, id int) (*models.ContactWithVehicle, error)
	List(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	UpdateStatusByPhone(ctx context.Context, phone string, status models.ContactStatus) error
	Delete(ctx context.Context, id int) error
	Upsert(ctx context.Context, phone string, name *string) (*models.Contact, error)
	FindCandidates(ctx context.Context, filter *models.Filter, limit int) ([]*models.Contact, error)
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
}

// OptOutRepository defines opt-out registry data access operations
type OptOutRepository interface {
	// Insert is insert-or-ignore: recording the same phone twice is a no-op.
	Insert(ctx context.Context, phone string, reason *string) error
	Exists(ctx context.Context, phone string) (bool, error)
	Delete(ctx context.Context, phone string) error
	List(ctx context.Context, limit, offset int) ([]*models.OptOut, error)
}

// CampaignRepository defines campaign data access operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int) (*models.Campaign, error)
	List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, int, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id int) error

	// UpdateStatus applies a compare-and-set transition: the row is written
	// only when its current status is one of from. Returns false when the
	// precondition did not hold. Transition timestamps are stamped in the
	// same statement (started_at on first entry to sending, paused_at on
	// paused, completed_at on completed/cancelled).
	UpdateStatus(ctx context.Context, id int, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error)

	// Schedule stamps scheduled_at and moves a draft campaign to scheduled
	// in one compare-and-set statement. A campaign in any other status is
	// left entirely untouched and false is returned.
	Schedule(ctx context.Context, id int, at time.Time) (bool, error)

	SetTotalRecipients(ctx context.Context, id int, total int) error
	IncrementSentCount(ctx context.Context, id int) error
	SetLastError(ctx context.Context, id int, message string) error
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error)
	ListByStatus(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error)
	GetProgress(ctx context.Context, id int) (*models.Progress, error)
}

// CampaignFilters defines filters for listing campaigns
type CampaignFilters struct {
	Page     int
	PageSize int
	Status   *models.CampaignStatus
}

// RecipientRepository defines campaign recipient data access operations
type RecipientRepository interface {
	// AssignBatch inserts (campaign, contact) pairs with insert-or-ignore
	// semantics and returns the number of rows actually inserted. Existing
	// pairs keep their status and denormalized phone.
	AssignBatch(ctx context.Context, campaignID int, contacts []*models.Contact) (int, error)
	CountByCampaign(ctx context.Context, campaignID int) (int, error)
	CountPending(ctx context.Context, campaignID int) (int, error)
	ListPending(ctx context.Context, campaignID int, limit int) ([]*models.CampaignRecipient, error)
	ListPendingByContacts(ctx context.Context, campaignID int, contactIDs []int) ([]*models.CampaignRecipient, error)
	ListByCampaign(ctx context.Context, campaignID int, limit, offset int) ([]*models.CampaignRecipient, error)

	// MarkTerminal moves a recipient out of pending exactly once
	// (compare-and-set on status = pending). Returns false when the
	// recipient was already terminal.
	MarkTerminal(ctx context.Context, id int, status models.RecipientStatus, providerID *string, errorMessage *string) (bool, error)

	// MarkDelivered promotes a sent recipient to delivered, keyed by the
	// provider message id from a delivery-status callback.
	MarkDelivered(ctx context.Context, providerID string) (bool, error)
}

// MessageLogRepository defines append-only message log operations
type MessageLogRepository interface {
	Insert(ctx context.Context, entry *models.MessageLogEntry) error
	List(ctx context.Context, direction *models.MessageDirection, limit, offset int) ([]*models.MessageLogEntry, error)
}

// StatsRepository provides aggregate entity counts for the admin dashboard
type StatsRepository interface {
	Counts(ctx context.Context) (map[string]int, error)
}
