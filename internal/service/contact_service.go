package service

import (
	"context"
	"fmt"

	"motorreach/internal/models"
	"motorreach/internal/repository"
)

// ContactService handles contact management
type ContactService struct {
	contactRepo repository.ContactRepository
}

// NewContactService creates a new contact service
func NewContactService(contactRepo repository.ContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

// CreateContactRequest represents a request to create a contact, optionally
// with the vehicle it inquired about
type CreateContactRequest struct {
	Phone   string          `json:"phone"`
	Name    *string         `json:"name,omitempty"`
	Vehicle *models.Vehicle `json:"vehicle,omitempty"`
}

// CreateContact creates a contact with a canonical phone and an optional
// vehicle record
func (s *ContactService) CreateContact(ctx context.Context, req *CreateContactRequest) (*models.Contact, error) {
	normalized, err := models.NormalizePhone(req.Phone)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if req.Vehicle != nil {
		if req.Vehicle.Make == "" || req.Vehicle.Model == "" {
			return nil, &ValidationError{Message: "vehicle make and model are required"}
		}
		if req.Vehicle.Year < 1950 || req.Vehicle.Year > 2100 {
			return nil, &ValidationError{Message: "invalid vehicle year"}
		}
	}

	contact := &models.Contact{
		Phone:  normalized,
		Name:   req.Name,
		Status: models.ContactStatusActive,
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	if req.Vehicle != nil {
		req.Vehicle.ContactID = contact.ID
		if err := s.contactRepo.CreateVehicle(ctx, req.Vehicle); err != nil {
			return nil, fmt.Errorf("failed to create vehicle: %w", err)
		}
	}

	return contact, nil
}

// GetContact retrieves a contact with its vehicle
func (s *ContactService) GetContact(ctx context.Context, id int) (*models.ContactWithVehicle, error) {
	contact, err := s.contactRepo.GetWithVehicle(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "contact", ID: id}
	}
	return contact, nil
}

// ListContacts lists contacts with pagination
func (s *ContactService) ListContacts(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	return s.contactRepo.List(ctx, limit, offset)
}

// UpdateContactRequest represents a request to update a contact
type UpdateContactRequest struct {
	Phone  string               `json:"phone"`
	Name   *string              `json:"name,omitempty"`
	Status models.ContactStatus `json:"status"`
}

// UpdateContact updates a contact's phone, name and status
func (s *ContactService) UpdateContact(ctx context.Context, id int, req *UpdateContactRequest) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "contact", ID: id}
	}

	if req.Phone != "" {
		normalized, err := models.NormalizePhone(req.Phone)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		contact.Phone = normalized
	}
	if req.Name != nil {
		contact.Name = req.Name
	}
	if req.Status != "" {
		switch req.Status {
		case models.ContactStatusActive, models.ContactStatusOptedOut, models.ContactStatusInvalid:
			contact.Status = req.Status
		default:
			return nil, &ValidationError{Message: fmt.Sprintf("invalid contact status: %q", req.Status)}
		}
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	return contact, nil
}

// DeleteContact deletes a contact
func (s *ContactService) DeleteContact(ctx context.Context, id int) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return &NotFoundError{Resource: "contact", ID: id}
	}
	return nil
}
