package repository

import (
	"context"
	"database/sql"
	"fmt"

	"motorreach/internal/models"

	"github.com/lib/pq"
)

type recipientRepository struct {
	db *sql.DB
}

// NewRecipientRepository creates a new campaign recipient repository
func NewRecipientRepository(db *sql.DB) RecipientRepository {
	return &recipientRepository{db: db}
}

const recipientColumns = "id, campaign_id, contact_id, phone, status, provider_id, sent_at, error_message, created_at"

func scanRecipient(row interface{ Scan(...interface{}) error }) (*models.CampaignRecipient, error) {
	recipient := &models.CampaignRecipient{}
	err := row.Scan(
		&recipient.ID,
		&recipient.CampaignID,
		&recipient.ContactID,
		&recipient.Phone,
		&recipient.Status,
		&recipient.ProviderID,
		&recipient.SentAt,
		&recipient.ErrorMessage,
		&recipient.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return recipient, nil
}

// AssignBatch inserts (campaign, contact) pairs in one transaction. ON
// CONFLICT DO NOTHING makes re-assignment with an overlapping candidate set
// safe: existing pairs are neither duplicated nor reset.
func (r *recipientRepository) AssignBatch(ctx context.Context, campaignID int, contacts []*models.Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaign_recipients (campaign_id, contact_id, phone, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (campaign_id, contact_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, contact := range contacts {
		result, err := stmt.ExecContext(ctx, campaignID, contact.ID, contact.Phone)
		if err != nil {
			return 0, fmt.Errorf("failed to assign recipient: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// CountByCampaign returns the deduplicated recipient row count
func (r *recipientRepository) CountByCampaign(ctx context.Context, campaignID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = $1`,
		campaignID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipients: %w", err)
	}

	return count, nil
}

// CountPending returns the number of recipients still awaiting a send
func (r *recipientRepository) CountPending(ctx context.Context, campaignID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = $1 AND status = 'pending'`,
		campaignID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending recipients: %w", err)
	}

	return count, nil
}

// ListPending retrieves one slice of pending recipients in insertion order so
// repeated partial runs make monotonic progress
func (r *recipientRepository) ListPending(ctx context.Context, campaignID int, limit int) ([]*models.CampaignRecipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE campaign_id = $1 AND status = 'pending'
		ORDER BY id ASC
		LIMIT $2
	`

	return r.queryRecipients(ctx, query, campaignID, limit)
}

// ListPendingByContacts retrieves the pending rows for an explicit contact
// list. Manual sends use this so pending recipients outside the requested
// list stay untouched.
func (r *recipientRepository) ListPendingByContacts(ctx context.Context, campaignID int, contactIDs []int) ([]*models.CampaignRecipient, error) {
	if len(contactIDs) == 0 {
		return []*models.CampaignRecipient{}, nil
	}

	query := `
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE campaign_id = $1 AND status = 'pending' AND contact_id = ANY($2)
		ORDER BY id ASC
	`

	return r.queryRecipients(ctx, query, campaignID, pq.Array(contactIDs))
}

// ListByCampaign retrieves recipients for a campaign with pagination
func (r *recipientRepository) ListByCampaign(ctx context.Context, campaignID int, limit, offset int) ([]*models.CampaignRecipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE campaign_id = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`

	return r.queryRecipients(ctx, query, campaignID, limit, offset)
}

func (r *recipientRepository) queryRecipients(ctx context.Context, query string, args ...interface{}) ([]*models.CampaignRecipient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipients: %w", err)
	}
	defer rows.Close()

	recipients := []*models.CampaignRecipient{}
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}

	return recipients, rows.Err()
}

// MarkTerminal transitions a recipient out of pending exactly once. The
// status = 'pending' guard makes a second invocation over the same row a
// no-op, which is what lets the dispatch loop re-scan safely.
func (r *recipientRepository) MarkTerminal(ctx context.Context, id int, status models.RecipientStatus, providerID *string, errorMessage *string) (bool, error) {
	query := `
		UPDATE campaign_recipients
		SET status = $1,
		    provider_id = $2,
		    error_message = $3,
		    sent_at = CASE WHEN $1 IN ('sent', 'delivered') THEN CURRENT_TIMESTAMP ELSE sent_at END
		WHERE id = $4 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, status, providerID, errorMessage, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark recipient terminal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// MarkDelivered promotes a sent recipient to delivered from a provider
// delivery-status callback, keyed by the provider message id
func (r *recipientRepository) MarkDelivered(ctx context.Context, providerID string) (bool, error) {
	query := `
		UPDATE campaign_recipients
		SET status = 'delivered'
		WHERE provider_id = $1 AND status = 'sent'
	`

	result, err := r.db.ExecContext(ctx, query, providerID)
	if err != nil {
		return false, fmt.Errorf("failed to mark recipient delivered: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}
