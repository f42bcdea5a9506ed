package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"motorreach/internal/models"
	"motorreach/internal/provider"
	"motorreach/internal/repository"
)

// AssertNoError checks that no error occurred
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Expected no error but got: %v", err)
	}
}

// AssertEqual checks if two values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("Expected %v but got %v", want, got)
	}
}

// AssertContains checks if string contains substring
func AssertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected %q to contain %q", haystack, needle)
	}
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// fakeContactRepo is a func-field test double for ContactRepository
type fakeContactRepo struct {
	CreateFunc              func(ctx context.Context, contact *models.Contact) error
	GetByIDFunc             func(ctx context.Context, id int) (*models.Contact, error)
	GetByPhoneFunc          func(ctx context.Context, phone string) (*models.Contact, error)
	GetWithVehicleFunc      func(ctx context.Context, id int) (*models.ContactWithVehicle, error)
	ListFunc                func(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	UpdateFunc              func(ctx context.Context, contact *models.Contact) error
	UpdateStatusByPhoneFunc func(ctx context.Context, phone string, status models.ContactStatus) error
	DeleteFunc              func(ctx context.Context, id int) error
	UpsertFunc              func(ctx context.Context, phone string, name *string) (*models.Contact, error)
	FindCandidatesFunc      func(ctx context.Context, filter *models.Filter, limit int) ([]*models.Contact, error)
	CreateVehicleFunc       func(ctx context.Context, vehicle *models.Vehicle) error
}

func (f *fakeContactRepo) Create(ctx context.Context, contact *models.Contact) error {
	if f.CreateFunc == nil {
		return nil
	}
	return f.CreateFunc(ctx, contact)
}

func (f *fakeContactRepo) GetByID(ctx context.Context, id int) (*models.Contact, error) {
	if f.GetByIDFunc == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeContactRepo) GetByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	if f.GetByPhoneFunc == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.GetByPhoneFunc(ctx, phone)
}

func (f *fakeContactRepo) GetWithVehicle(ctx context.Context, id int) (*models.ContactWithVehicle, error) {
	if f.GetWithVehicleFunc == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.GetWithVehicleFunc(ctx, id)
}

func (f *fakeContactRepo) List(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	if f.ListFunc == nil {
		return nil, nil
	}
	return f.ListFunc(ctx, limit, offset)
}

func (f *fakeContactRepo) Update(ctx context.Context, contact *models.Contact) error {
	if f.UpdateFunc == nil {
		return nil
	}
	return f.UpdateFunc(ctx, contact)
}

func (f *fakeContactRepo) UpdateStatusByPhone(ctx context.Context, phone string, status models.ContactStatus) error {
	if f.UpdateStatusByPhoneFunc == nil {
		return nil
	}
	return f.UpdateStatusByPhoneFunc(ctx, phone, status)
}

func (f *fakeContactRepo) Delete(ctx context.Context, id int) error {
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, id)
}

func (f *fakeContactRepo) Upsert(ctx context.Context, phone string, name *string) (*models.Contact, error) {
	if f.UpsertFunc == nil {
		return &models.Contact{ID: 1, Phone: phone, Name: name, Status: models.ContactStatusActive}, nil
	}
	return f.UpsertFunc(ctx, phone, name)
}

func (f *fakeContactRepo) FindCandidates(ctx context.Context, filter *models.Filter, limit int) ([]*models.Contact, error) {
	if f.FindCandidatesFunc == nil {
		return nil, nil
	}
	return f.FindCandidatesFunc(ctx, filter, limit)
}

func (f *fakeContactRepo) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if f.CreateVehicleFunc == nil {
		return nil
	}
	return f.CreateVehicleFunc(ctx, vehicle)
}

// fakeOptOutRepo is an in-memory OptOutRepository
type fakeOptOutRepo struct {
	mu     sync.Mutex
	phones map[string]*string
	fail   error
}

func newFakeOptOutRepo() *fakeOptOutRepo {
	return &fakeOptOutRepo{phones: map[string]*string{}}
}

func (f *fakeOptOutRepo) Insert(ctx context.Context, phone string, reason *string) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.phones[phone]; !exists {
		f.phones[phone] = reason
	}
	return nil
}

func (f *fakeOptOutRepo) Exists(ctx context.Context, phone string) (bool, error) {
	if f.fail != nil {
		return false, f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.phones[phone]
	return exists, nil
}

func (f *fakeOptOutRepo) Delete(ctx context.Context, phone string) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.phones, phone)
	return nil
}

func (f *fakeOptOutRepo) List(ctx context.Context, limit, offset int) ([]*models.OptOut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.OptOut
	for phone, reason := range f.phones {
		result = append(result, &models.OptOut{Phone: phone, Reason: reason})
	}
	return result, nil
}

// fakeCampaignRepo is a func-field test double for CampaignRepository
type fakeCampaignRepo struct {
	CreateFunc             func(ctx context.Context, campaign *models.Campaign) error
	GetByIDFunc            func(ctx context.Context, id int) (*models.Campaign, error)
	ListFunc               func(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, int, error)
	UpdateFunc             func(ctx context.Context, campaign *models.Campaign) error
	DeleteFunc             func(ctx context.Context, id int) error
	UpdateStatusFunc       func(ctx context.Context, id int, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error)
	ScheduleFunc           func(ctx context.Context, id int, at time.Time) (bool, error)
	SetTotalRecipientsFunc func(ctx context.Context, id int, total int) error
	IncrementSentCountFunc func(ctx context.Context, id int) error
	SetLastErrorFunc       func(ctx context.Context, id int, message string) error
	ListDueScheduledFunc   func(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error)
	ListByStatusFunc       func(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error)
	GetProgressFunc        func(ctx context.Context, id int) (*models.Progress, error)
}

func (f *fakeCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	if f.CreateFunc == nil {
		campaign.ID = 1
		return nil
	}
	return f.CreateFunc(ctx, campaign)
}

func (f *fakeCampaignRepo) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	if f.GetByIDFunc == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeCampaignRepo) List(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, int, error) {
	if f.ListFunc == nil {
		return nil, 0, nil
	}
	return f.ListFunc(ctx, filters)
}

func (f *fakeCampaignRepo) Update(ctx context.Context, campaign *models.Campaign) error {
	if f.UpdateFunc == nil {
		return nil
	}
	return f.UpdateFunc(ctx, campaign)
}

func (f *fakeCampaignRepo) Delete(ctx context.Context, id int) error {
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, id)
}

func (f *fakeCampaignRepo) UpdateStatus(ctx context.Context, id int, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error) {
	if f.UpdateStatusFunc == nil {
		return true, nil
	}
	return f.UpdateStatusFunc(ctx, id, to, from...)
}

func (f *fakeCampaignRepo) Schedule(ctx context.Context, id int, at time.Time) (bool, error) {
	if f.ScheduleFunc == nil {
		return true, nil
	}
	return f.ScheduleFunc(ctx, id, at)
}

func (f *fakeCampaignRepo) SetTotalRecipients(ctx context.Context, id int, total int) error {
	if f.SetTotalRecipientsFunc == nil {
		return nil
	}
	return f.SetTotalRecipientsFunc(ctx, id, total)
}

func (f *fakeCampaignRepo) IncrementSentCount(ctx context.Context, id int) error {
	if f.IncrementSentCountFunc == nil {
		return nil
	}
	return f.IncrementSentCountFunc(ctx, id)
}

func (f *fakeCampaignRepo) SetLastError(ctx context.Context, id int, message string) error {
	if f.SetLastErrorFunc == nil {
		return nil
	}
	return f.SetLastErrorFunc(ctx, id, message)
}

func (f *fakeCampaignRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	if f.ListDueScheduledFunc == nil {
		return nil, nil
	}
	return f.ListDueScheduledFunc(ctx, now, limit)
}

func (f *fakeCampaignRepo) ListByStatus(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error) {
	if f.ListByStatusFunc == nil {
		return nil, nil
	}
	return f.ListByStatusFunc(ctx, status, limit)
}

func (f *fakeCampaignRepo) GetProgress(ctx context.Context, id int) (*models.Progress, error) {
	if f.GetProgressFunc == nil {
		return &models.Progress{}, nil
	}
	return f.GetProgressFunc(ctx, id)
}

// fakeRecipientRepo is a func-field test double for RecipientRepository
type fakeRecipientRepo struct {
	AssignBatchFunc           func(ctx context.Context, campaignID int, contacts []*models.Contact) (int, error)
	CountByCampaignFunc       func(ctx context.Context, campaignID int) (int, error)
	CountPendingFunc          func(ctx context.Context, campaignID int) (int, error)
	ListPendingFunc           func(ctx context.Context, campaignID int, limit int) ([]*models.CampaignRecipient, error)
	ListPendingByContactsFunc func(ctx context.Context, campaignID int, contactIDs []int) ([]*models.CampaignRecipient, error)
	ListByCampaignFunc        func(ctx context.Context, campaignID int, limit, offset int) ([]*models.CampaignRecipient, error)
	MarkTerminalFunc          func(ctx context.Context, id int, status models.RecipientStatus, providerID *string, errorMessage *string) (bool, error)
	MarkDeliveredFunc         func(ctx context.Context, providerID string) (bool, error)
}

func (f *fakeRecipientRepo) AssignBatch(ctx context.Context, campaignID int, contacts []*models.Contact) (int, error) {
	if f.AssignBatchFunc == nil {
		return len(contacts), nil
	}
	return f.AssignBatchFunc(ctx, campaignID, contacts)
}

func (f *fakeRecipientRepo) CountByCampaign(ctx context.Context, campaignID int) (int, error) {
	if f.CountByCampaignFunc == nil {
		return 0, nil
	}
	return f.CountByCampaignFunc(ctx, campaignID)
}

func (f *fakeRecipientRepo) CountPending(ctx context.Context, campaignID int) (int, error) {
	if f.CountPendingFunc == nil {
		return 0, nil
	}
	return f.CountPendingFunc(ctx, campaignID)
}

func (f *fakeRecipientRepo) ListPending(ctx context.Context, campaignID int, limit int) ([]*models.CampaignRecipient, error) {
	if f.ListPendingFunc == nil {
		return nil, nil
	}
	return f.ListPendingFunc(ctx, campaignID, limit)
}

func (f *fakeRecipientRepo) ListPendingByContacts(ctx context.Context, campaignID int, contactIDs []int) ([]*models.CampaignRecipient, error) {
	if f.ListPendingByContactsFunc == nil {
		return nil, nil
	}
	return f.ListPendingByContactsFunc(ctx, campaignID, contactIDs)
}

func (f *fakeRecipientRepo) ListByCampaign(ctx context.Context, campaignID int, limit, offset int) ([]*models.CampaignRecipient, error) {
	if f.ListByCampaignFunc == nil {
		return nil, nil
	}
	return f.ListByCampaignFunc(ctx, campaignID, limit, offset)
}

func (f *fakeRecipientRepo) MarkTerminal(ctx context.Context, id int, status models.RecipientStatus, providerID *string, errorMessage *string) (bool, error) {
	if f.MarkTerminalFunc == nil {
		return true, nil
	}
	return f.MarkTerminalFunc(ctx, id, status, providerID, errorMessage)
}

func (f *fakeRecipientRepo) MarkDelivered(ctx context.Context, providerID string) (bool, error) {
	if f.MarkDeliveredFunc == nil {
		return true, nil
	}
	return f.MarkDeliveredFunc(ctx, providerID)
}

// fakeMessageLog records appended entries in memory
type fakeMessageLog struct {
	mu      sync.Mutex
	entries []*models.MessageLogEntry
}

func (f *fakeMessageLog) Insert(ctx context.Context, entry *models.MessageLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeMessageLog) List(ctx context.Context, direction *models.MessageDirection, limit, offset int) ([]*models.MessageLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
}

func (f *fakeMessageLog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// fakeProvider is a func-field test double for provider.Client
type fakeProvider struct {
	mu    sync.Mutex
	sends []*provider.SendRequest

	SendFunc func(ctx context.Context, req *provider.SendRequest) (*provider.SendResult, error)
}

func (f *fakeProvider) Send(ctx context.Context, req *provider.SendRequest) (*provider.SendResult, error) {
	f.mu.Lock()
	f.sends = append(f.sends, req)
	f.mu.Unlock()

	if f.SendFunc == nil {
		return &provider.SendResult{ProviderID: "MM001", Status: "sent"}, nil
	}
	return f.SendFunc(ctx, req)
}

func (f *fakeProvider) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}
