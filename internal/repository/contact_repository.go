package repository

import (
	"context"
	"database/sql"
	"fmt"

	"motorreach/internal/models"

	"github.com/lib/pq"
)

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

const contactColumns = "id, phone, name, status, created_at, updated_at"

func scanContact(row interface{ Scan(...interface{}) error }) (*models.Contact, error) {
	contact := &models.Contact{}
	err := row.Scan(
		&contact.ID,
		&contact.Phone,
		&contact.Name,
		&contact.Status,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// Create creates a new contact
func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (phone, name, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	if contact.Status == "" {
		contact.Status = models.ContactStatusActive
	}

	err := r.db.QueryRowContext(ctx, query, contact.Phone, contact.Name, contact.Status).
		Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact by ID
func (r *contactRepository) GetByID(ctx context.Context, id int) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// GetByPhone retrieves a contact by its canonical phone number
func (r *contactRepository) GetByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE phone = $1`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, phone))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by phone: %w", err)
	}

	return contact, nil
}

// GetWithVehicle retrieves a contact joined with its most recent vehicle
func (r *contactRepository) GetWithVehicle(ctx context.Context, id int) (*models.ContactWithVehicle, error) {
	query := `
		SELECT c.id, c.phone, c.name, c.status, c.created_at, c.updated_at,
		       v.id, v.contact_id, v.make, v.model, v.year, v.price, v.link, v.created_at
		FROM contacts c
		LEFT JOIN vehicles v ON v.contact_id = c.id
		WHERE c.id = $1
		ORDER BY v.id DESC
		LIMIT 1
	`

	result := &models.ContactWithVehicle{}
	var (
		vehicleID        sql.NullInt64
		vehicleContactID sql.NullInt64
		vehicleMake      sql.NullString
		vehicleModel     sql.NullString
		vehicleYear      sql.NullInt64
		vehiclePrice     sql.NullFloat64
		vehicleLink      sql.NullString
		vehicleCreatedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&result.ID,
		&result.Phone,
		&result.Name,
		&result.Status,
		&result.CreatedAt,
		&result.UpdatedAt,
		&vehicleID,
		&vehicleContactID,
		&vehicleMake,
		&vehicleModel,
		&vehicleYear,
		&vehiclePrice,
		&vehicleLink,
		&vehicleCreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact with vehicle: %w", err)
	}

	if vehicleID.Valid {
		vehicle := &models.Vehicle{
			ID:        int(vehicleID.Int64),
			ContactID: int(vehicleContactID.Int64),
			Make:      vehicleMake.String,
			Model:     vehicleModel.String,
			Year:      int(vehicleYear.Int64),
			CreatedAt: vehicleCreatedAt.Time,
		}
		if vehiclePrice.Valid {
			vehicle.Price = &vehiclePrice.Float64
		}
		if vehicleLink.Valid {
			vehicle.Link = &vehicleLink.String
		}
		result.Vehicle = vehicle
	}

	return result, nil
}

// List retrieves contacts with pagination
func (r *contactRepository) List(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

// Update updates a contact's phone, name and status
func (r *contactRepository) Update(ctx context.Context, contact *models.Contact) error {
	query := `
		UPDATE contacts
		SET phone = $1, name = $2, status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, contact.Phone, contact.Name, contact.Status, contact.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("contact not found")
	}

	return nil
}

// UpdateStatusByPhone updates a contact's status keyed by phone. Missing
// contacts are not an error: opt-outs can arrive for unknown numbers.
func (r *contactRepository) UpdateStatusByPhone(ctx context.Context, phone string, status models.ContactStatus) error {
	query := `
		UPDATE contacts
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE phone = $2
	`

	if _, err := r.db.ExecContext(ctx, query, status, phone); err != nil {
		return fmt.Errorf("failed to update contact status: %w", err)
	}

	return nil
}

// Delete deletes a contact
func (r *contactRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("contact not found")
	}

	return nil
}

// Upsert inserts a contact or returns the existing one for the phone. Used by
// the inbound webhook, where the same number may write many times.
func (r *contactRepository) Upsert(ctx context.Context, phone string, name *string) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (phone, name, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (phone) DO UPDATE SET name = COALESCE(contacts.name, EXCLUDED.name)
		RETURNING ` + contactColumns

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, phone, name))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert contact: %w", err)
	}

	return contact, nil
}

// FindCandidates resolves a recipient filter to active, non-opted-out
// contacts. Opt-out exclusion here is an optimization only; the send pipeline
// re-checks at send time.
func (r *contactRepository) FindCandidates(ctx context.Context, filter *models.Filter, limit int) ([]*models.Contact, error) {
	var (
		query string
		args  []interface{}
	)

	switch filter.Kind {
	case models.FilterByQuery:
		query = `
			SELECT ` + prefixedContactColumns("c") + `
			FROM contacts c
			WHERE c.status = 'active'
			  AND (c.name ILIKE '%' || $1 || '%' OR c.phone LIKE '%' || $1 || '%')
			  AND c.phone NOT IN (SELECT phone FROM opt_outs)
			ORDER BY c.updated_at DESC
			LIMIT $2
		`
		args = []interface{}{filter.Query, limit}

	case models.FilterByVehicle:
		query = `
			SELECT DISTINCT ` + prefixedContactColumns("c") + `
			FROM contacts c
			INNER JOIN vehicles v ON v.contact_id = c.id
			WHERE c.status = 'active'
			  AND ($1::text IS NULL OR v.make = $1)
			  AND ($2::text IS NULL OR v.model = $2)
			  AND ($3::int IS NULL OR v.year >= $3)
			  AND ($4::int IS NULL OR v.year <= $4)
			  AND c.phone NOT IN (SELECT phone FROM opt_outs)
			ORDER BY c.id
			LIMIT $5
		`
		args = []interface{}{filter.Make, filter.Model, filter.YearMin, filter.YearMax, limit}

	case models.FilterByIDs:
		query = `
			SELECT ` + prefixedContactColumns("c") + `
			FROM contacts c
			WHERE c.id = ANY($1)
			  AND c.status = 'active'
			  AND c.phone NOT IN (SELECT phone FROM opt_outs)
			ORDER BY c.id
			LIMIT $2
		`
		args = []interface{}{pq.Array(filter.ContactIDs), limit}

	default:
		return nil, fmt.Errorf("invalid filter kind: %q", filter.Kind)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

// CreateVehicle attaches a vehicle record to a contact
func (r *contactRepository) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (contact_id, make, model, year, price, link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		vehicle.ContactID,
		vehicle.Make,
		vehicle.Model,
		vehicle.Year,
		vehicle.Price,
		vehicle.Link,
	).Scan(&vehicle.ID, &vehicle.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

func prefixedContactColumns(alias string) string {
	return alias + ".id, " + alias + ".phone, " + alias + ".name, " + alias + ".status, " +
		alias + ".created_at, " + alias + ".updated_at"
}
