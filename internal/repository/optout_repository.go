package repository

import (
	"context"
	"database/sql"
	"fmt"

	"motorreach/internal/models"
)

type optOutRepository struct {
	db *sql.DB
}

// NewOptOutRepository creates a new opt-out repository
func NewOptOutRepository(db *sql.DB) OptOutRepository {
	return &optOutRepository{db: db}
}

// Insert records an opt-out with insert-or-ignore semantics
func (r *optOutRepository) Insert(ctx context.Context, phone string, reason *string) error {
	query := `
		INSERT INTO opt_outs (phone, reason)
		VALUES ($1, $2)
		ON CONFLICT (phone) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, phone, reason); err != nil {
		return fmt.Errorf("failed to insert opt-out: %w", err)
	}

	return nil
}

// Exists reports whether an opt-out row exists for the phone
func (r *optOutRepository) Exists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM opt_outs WHERE phone = $1)`,
		phone,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check opt-out: %w", err)
	}

	return exists, nil
}

// Delete removes an opt-out (administrative reversal)
func (r *optOutRepository) Delete(ctx context.Context, phone string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM opt_outs WHERE phone = $1`, phone)
	if err != nil {
		return fmt.Errorf("failed to delete opt-out: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("opt-out not found")
	}

	return nil
}

// List retrieves opt-outs with pagination
func (r *optOutRepository) List(ctx context.Context, limit, offset int) ([]*models.OptOut, error) {
	query := `
		SELECT phone, reason, created_at
		FROM opt_outs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list opt-outs: %w", err)
	}
	defer rows.Close()

	optOuts := []*models.OptOut{}
	for rows.Next() {
		optOut := &models.OptOut{}
		if err := rows.Scan(&optOut.Phone, &optOut.Reason, &optOut.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan opt-out: %w", err)
		}
		optOuts = append(optOuts, optOut)
	}

	return optOuts, rows.Err()
}
