package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ContactStatus represents valid contact statuses
type ContactStatus string

const (
	ContactStatusActive   ContactStatus = "active"
	ContactStatusOptedOut ContactStatus = "opted_out"
	ContactStatusInvalid  ContactStatus = "invalid"
)

// Contact represents a person we can message. Phone is unique and stored in
// canonical international format (+ followed by digits).
type Contact struct {
	ID        int           `json:"id" db:"id"`
	Phone     string        `json:"phone" db:"phone"`
	Name      *string       `json:"name,omitempty" db:"name"`
	Status    ContactStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the contact's name or a generic fallback
func (c *Contact) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return "Cliente"
}

// Vehicle represents the vehicle a contact inquired about. Its attributes
// drive campaign filters and template variables.
type Vehicle struct {
	ID        int       `json:"id" db:"id"`
	ContactID int       `json:"contact_id" db:"contact_id"`
	Make      string    `json:"make" db:"make"`
	Model     string    `json:"model" db:"model"`
	Year      int       `json:"year" db:"year"`
	Price     *float64  `json:"price,omitempty" db:"price"`
	Link      *string   `json:"link,omitempty" db:"link"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ContactWithVehicle is a contact joined with its most recent vehicle, used to
// resolve send-time template variables.
type ContactWithVehicle struct {
	Contact
	Vehicle *Vehicle `json:"vehicle,omitempty"`
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// NormalizePhone converts a raw phone value into canonical international
// format: a leading + followed by digits. A "whatsapp:" channel prefix is
// stripped. Returns an error when nothing dialable remains.
func NormalizePhone(value string) (string, error) {
	raw := strings.TrimSpace(value)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "whatsapp:"), "WhatsApp:")
	cleaned := nonPhoneChars.ReplaceAllString(raw, "")
	cleaned = strings.TrimLeft(cleaned, "+")
	if cleaned == "" {
		return "", fmt.Errorf("phone %q has no digits", value)
	}
	if len(cleaned) < 7 {
		return "", fmt.Errorf("phone %q is too short", value)
	}
	return "+" + cleaned, nil
}
