package repository

import (
	"context"
	"database/sql"
	"fmt"

	"motorreach/internal/models"
)

type messageLogRepository struct {
	db *sql.DB
}

// NewMessageLogRepository creates a new message log repository
func NewMessageLogRepository(db *sql.DB) MessageLogRepository {
	return &messageLogRepository{db: db}
}

// Insert appends one message log entry. The log is append-only.
func (r *messageLogRepository) Insert(ctx context.Context, entry *models.MessageLogEntry) error {
	query := `
		INSERT INTO messages (contact_id, campaign_id, direction, phone, body, provider_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		entry.ContactID,
		entry.CampaignID,
		entry.Direction,
		entry.Phone,
		entry.Body,
		entry.ProviderID,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// List retrieves message log entries, newest first, optionally by direction
func (r *messageLogRepository) List(ctx context.Context, direction *models.MessageDirection, limit, offset int) ([]*models.MessageLogEntry, error) {
	query := `
		SELECT id, contact_id, campaign_id, direction, phone, body, provider_id, status, created_at
		FROM messages
		WHERE ($1::text IS NULL OR direction = $1)
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	var directionArg interface{}
	if direction != nil {
		directionArg = string(*direction)
	}

	rows, err := r.db.QueryContext(ctx, query, directionArg, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	entries := []*models.MessageLogEntry{}
	for rows.Next() {
		entry := &models.MessageLogEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.ContactID,
			&entry.CampaignID,
			&entry.Direction,
			&entry.Phone,
			&entry.Body,
			&entry.ProviderID,
			&entry.Status,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Counts returns entity counts for the admin dashboard
func (r *statsRepository) Counts(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM contacts) AS contacts,
			(SELECT COUNT(*) FROM campaigns) AS campaigns,
			(SELECT COUNT(*) FROM campaign_recipients) AS recipients,
			(SELECT COUNT(*) FROM opt_outs) AS opt_outs,
			(SELECT COUNT(*) FROM messages) AS messages
	`

	var contacts, campaigns, recipients, optOuts, messages int
	err := r.db.QueryRowContext(ctx, query).Scan(&contacts, &campaigns, &recipients, &optOuts, &messages)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return map[string]int{
		"contacts":   contacts,
		"campaigns":  campaigns,
		"recipients": recipients,
		"opt_outs":   optOuts,
		"messages":   messages,
	}, nil
}
