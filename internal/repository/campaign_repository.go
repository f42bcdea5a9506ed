package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"motorreach/internal/models"

	"github.com/lib/pq"
)

type campaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, name, template, content_ref, status, scheduled_at, filter,
	total_recipients, sent_count, last_error, created_at, updated_at,
	started_at, paused_at, completed_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	var filter models.Filter
	var hasFilter sql.NullString

	err := row.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Template,
		&campaign.ContentRef,
		&campaign.Status,
		&campaign.ScheduledAt,
		&hasFilter,
		&campaign.TotalRecipients,
		&campaign.SentCount,
		&campaign.LastError,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
		&campaign.StartedAt,
		&campaign.PausedAt,
		&campaign.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if hasFilter.Valid && hasFilter.String != "" {
		if err := filter.Scan(hasFilter.String); err != nil {
			return nil, fmt.Errorf("failed to decode campaign filter: %w", err)
		}
		campaign.Filter = &filter
	}

	return campaign, nil
}

// Create creates a new campaign
func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (name, template, content_ref, status, scheduled_at, filter)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.Name,
		campaign.Template,
		campaign.ContentRef,
		campaign.Status,
		campaign.ScheduledAt,
		campaign.Filter,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID
func (r *campaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("campaign not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

// List retrieves campaigns with filters and pagination
func (r *campaignRepository) List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, int, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`)

	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	// Order by ID DESC for stable pagination
	queryBuilder.WriteString(" ORDER BY id DESC")

	limit := filters.PageSize
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := (filters.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM campaigns WHERE 1=1"
	countArgs := []interface{}{}
	if filters.Status != nil {
		countQuery += " AND status = $1"
		countArgs = append(countArgs, *filters.Status)
	}

	var totalCount int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	return campaigns, totalCount, nil
}

// Update updates campaign fields that are editable while the campaign has not
// started sending
func (r *campaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1, template = $2, content_ref = $3, scheduled_at = $4, filter = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		campaign.Name,
		campaign.Template,
		campaign.ContentRef,
		campaign.ScheduledAt,
		campaign.Filter,
		campaign.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("campaign not found")
	}

	return nil
}

// Delete deletes a campaign
func (r *campaignRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("campaign not found")
	}

	return nil
}

// UpdateStatus applies a compare-and-set status transition. The WHERE clause
// carries the legal predecessor statuses, so a request racing a concurrent
// transition simply affects zero rows.
func (r *campaignRepository) UpdateStatus(ctx context.Context, id int, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("at least one predecessor status is required")
	}

	fromValues := make([]string, len(from))
	for i, s := range from {
		fromValues[i] = string(s)
	}

	query := `
		UPDATE campaigns
		SET status = $1,
		    updated_at = CURRENT_TIMESTAMP,
		    started_at = CASE WHEN $1 = 'sending' THEN COALESCE(started_at, CURRENT_TIMESTAMP) ELSE started_at END,
		    paused_at = CASE WHEN $1 = 'paused' THEN CURRENT_TIMESTAMP ELSE paused_at END,
		    completed_at = CASE WHEN $1 IN ('completed', 'cancelled') THEN CURRENT_TIMESTAMP ELSE completed_at END
		WHERE id = $2 AND status = ANY($3)
	`

	result, err := r.db.ExecContext(ctx, query, to, id, pq.Array(fromValues))
	if err != nil {
		return false, fmt.Errorf("failed to update campaign status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Schedule stamps scheduled_at and transitions draft -> scheduled in one
// statement. A request against a campaign in any other status affects zero
// rows, so no partial write can leak.
func (r *campaignRepository) Schedule(ctx context.Context, id int, at time.Time) (bool, error) {
	query := `
		UPDATE campaigns
		SET status = 'scheduled', scheduled_at = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = 'draft'
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to schedule campaign: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// SetTotalRecipients persists the deduplicated recipient row count
func (r *campaignRepository) SetTotalRecipients(ctx context.Context, id int, total int) error {
	query := `
		UPDATE campaigns
		SET total_recipients = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	if _, err := r.db.ExecContext(ctx, query, total, id); err != nil {
		return fmt.Errorf("failed to set total recipients: %w", err)
	}

	return nil
}

// IncrementSentCount bumps sent_count atomically in SQL rather than
// read-modify-write from application memory
func (r *campaignRepository) IncrementSentCount(ctx context.Context, id int) error {
	query := `
		UPDATE campaigns
		SET sent_count = sent_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to increment sent count: %w", err)
	}

	return nil
}

// SetLastError records the most recent campaign-level error text
func (r *campaignRepository) SetLastError(ctx context.Context, id int, message string) error {
	query := `
		UPDATE campaigns
		SET last_error = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	if _, err := r.db.ExecContext(ctx, query, message, id); err != nil {
		return fmt.Errorf("failed to set last error: %w", err)
	}

	return nil
}

// ListDueScheduled retrieves scheduled campaigns whose scheduled time is due
func (r *campaignRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = 'scheduled'
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
		LIMIT $2
	`

	return r.queryCampaigns(ctx, query, now, limit)
}

// ListByStatus retrieves campaigns in the given status, oldest first
func (r *campaignRepository) ListByStatus(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2
	`

	return r.queryCampaigns(ctx, query, status, limit)
}

func (r *campaignRepository) queryCampaigns(ctx context.Context, query string, args ...interface{}) ([]*models.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, rows.Err()
}

// GetProgress computes recipient counts for a campaign directly from
// recipient rows. The campaign's sent_count is a convenience value; these
// counts are the authoritative view.
func (r *campaignRepository) GetProgress(ctx context.Context, id int) (*models.Progress, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status IN ('sent', 'delivered')) AS sent,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status LIKE 'skipped%') AS skipped
		FROM campaign_recipients
		WHERE campaign_id = $1
	`

	progress := &models.Progress{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&progress.Total,
		&progress.Pending,
		&progress.Sent,
		&progress.Failed,
		&progress.Skipped,
	)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get campaign progress: %w", err)
	}

	return progress, nil
}
