package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"motorreach/internal/models"
)

// setupCampaignService builds a campaign service whose fake repo stores one
// campaign and applies transitions through the real transition table
func setupCampaignService(stored *models.Campaign) (*CampaignService, *fakeCampaignRepo) {
	campaignRepo := &fakeCampaignRepo{
		GetByIDFunc: func(ctx context.Context, id int) (*models.Campaign, error) {
			if stored == nil || stored.ID != id {
				return nil, errors.New("not found")
			}
			copied := *stored
			return &copied, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error) {
			for _, f := range from {
				if stored.Status == f {
					stored.Status = to
					return true, nil
				}
			}
			return false, nil
		},
		ScheduleFunc: func(ctx context.Context, id int, at time.Time) (bool, error) {
			// Timestamp and transition land together or not at all
			if stored.Status != models.CampaignStatusDraft {
				return false, nil
			}
			stored.Status = models.CampaignStatusScheduled
			stored.ScheduledAt = &at
			return true, nil
		},
	}
	contactRepo := &fakeContactRepo{}
	recipientRepo := &fakeRecipientRepo{}
	optOutSvc := NewOptOutService(newFakeOptOutRepo(), contactRepo, nil)
	pipeline := NewPipelineService(
		campaignRepo, contactRepo, recipientRepo, &fakeMessageLog{},
		optOutSvc, NewTemplateService(), &fakeProvider{},
	)
	assignmentSvc := NewAssignmentService(campaignRepo, contactRepo, recipientRepo)

	svc := NewCampaignService(campaignRepo, contactRepo, recipientRepo, assignmentSvc, pipeline, NewTemplateService())
	return svc, campaignRepo
}

// TestCreateCampaign_Draft tests that a campaign without a future schedule
// starts as a draft
func TestCreateCampaign_Draft(t *testing.T) {
	svc, _ := setupCampaignService(nil)

	campaign, err := svc.CreateCampaign(context.Background(), &CreateCampaignRequest{
		Name:     "Promo enero",
		Template: "Hola {{nombre}}",
	})

	AssertNoError(t, err)
	AssertEqual(t, campaign.Status, models.CampaignStatusDraft)
}

// TestCreateCampaign_FutureScheduleIsScheduled tests that a future
// scheduled_at creates the campaign directly in scheduled
func TestCreateCampaign_FutureScheduleIsScheduled(t *testing.T) {
	svc, _ := setupCampaignService(nil)

	future := time.Now().Add(2 * time.Hour)
	campaign, err := svc.CreateCampaign(context.Background(), &CreateCampaignRequest{
		Name:        "Promo febrero",
		Template:    "Hola {{nombre}}",
		ScheduledAt: &future,
	})

	AssertNoError(t, err)
	AssertEqual(t, campaign.Status, models.CampaignStatusScheduled)
}

// TestCreateCampaign_RequiresTemplateOrContentRef tests body validation
func TestCreateCampaign_RequiresTemplateOrContentRef(t *testing.T) {
	svc, _ := setupCampaignService(nil)

	_, err := svc.CreateCampaign(context.Background(), &CreateCampaignRequest{Name: "Sin cuerpo"})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError, got %T (%v)", err, err)
	}

	// A provider-side template id alone is enough
	_, err = svc.CreateCampaign(context.Background(), &CreateCampaignRequest{
		Name:       "Con content ref",
		ContentRef: StringPtr("HX123"),
	})
	AssertNoError(t, err)
}

// TestCampaignTransitions walks the legal state machine edges
func TestCampaignTransitions(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: models.CampaignStatusDraft}
	svc, _ := setupCampaignService(stored)
	ctx := context.Background()

	// draft -> sending
	campaign, err := svc.StartCampaign(ctx, 1)
	AssertNoError(t, err)
	AssertEqual(t, campaign.Status, models.CampaignStatusSending)

	// sending -> paused
	campaign, err = svc.PauseCampaign(ctx, 1)
	AssertNoError(t, err)
	AssertEqual(t, campaign.Status, models.CampaignStatusPaused)

	// paused -> sending
	campaign, err = svc.ResumeCampaign(ctx, 1)
	AssertNoError(t, err)
	AssertEqual(t, campaign.Status, models.CampaignStatusSending)
}

// TestCampaignTransitions_Illegal tests that illegal edges surface as
// conflicts without touching the stored status
func TestCampaignTransitions_Illegal(t *testing.T) {
	cases := []struct {
		name   string
		status models.CampaignStatus
		action func(svc *CampaignService) error
	}{
		{
			name:   "pause a draft",
			status: models.CampaignStatusDraft,
			action: func(svc *CampaignService) error {
				_, err := svc.PauseCampaign(context.Background(), 1)
				return err
			},
		},
		{
			name:   "resume a sending campaign",
			status: models.CampaignStatusSending,
			action: func(svc *CampaignService) error {
				_, err := svc.ResumeCampaign(context.Background(), 1)
				return err
			},
		},
		{
			name:   "cancel a sending campaign",
			status: models.CampaignStatusSending,
			action: func(svc *CampaignService) error {
				_, err := svc.CancelCampaign(context.Background(), 1)
				return err
			},
		},
		{
			name:   "start a completed campaign",
			status: models.CampaignStatusCompleted,
			action: func(svc *CampaignService) error {
				_, err := svc.StartCampaign(context.Background(), 1)
				return err
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: tc.status}
			svc, _ := setupCampaignService(stored)

			err := tc.action(svc)
			var notApplicable *NotApplicableError
			if !errors.As(err, &notApplicable) {
				t.Errorf("Expected NotApplicableError, got %T (%v)", err, err)
			}
			AssertEqual(t, stored.Status, tc.status)
		})
	}
}

// TestCancelCampaign_FromPaused tests the legal cancel path
func TestCancelCampaign_FromPaused(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: models.CampaignStatusPaused}
	svc, _ := setupCampaignService(stored)

	campaign, err := svc.CancelCampaign(context.Background(), 1)
	AssertNoError(t, err)
	AssertEqual(t, campaign.Status, models.CampaignStatusCancelled)
}

// TestScheduleCampaign tests scheduling validation and the draft precondition
func TestScheduleCampaign(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: models.CampaignStatusDraft}
	svc, _ := setupCampaignService(stored)
	ctx := context.Background()

	_, err := svc.ScheduleCampaign(ctx, 1, time.Now().Add(-time.Minute))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for past time, got %T", err)
	}

	campaign, err := svc.ScheduleCampaign(ctx, 1, time.Now().Add(time.Hour))
	AssertNoError(t, err)
	AssertEqual(t, campaign.Status, models.CampaignStatusScheduled)
}

// TestScheduleCampaign_SendingLeavesStateUntouched tests that a schedule
// request against a sending campaign is rejected without writing anything:
// neither the status nor scheduled_at may change
func TestScheduleCampaign_SendingLeavesStateUntouched(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: models.CampaignStatusSending}
	svc, repo := setupCampaignService(stored)

	updated := false
	repo.UpdateFunc = func(ctx context.Context, campaign *models.Campaign) error {
		updated = true
		return nil
	}

	_, err := svc.ScheduleCampaign(context.Background(), 1, time.Now().Add(time.Hour))

	var notApplicable *NotApplicableError
	if !errors.As(err, &notApplicable) {
		t.Errorf("Expected NotApplicableError, got %T (%v)", err, err)
	}
	AssertEqual(t, stored.Status, models.CampaignStatusSending)
	if stored.ScheduledAt != nil {
		t.Errorf("scheduled_at persisted on a sending campaign: %v", stored.ScheduledAt)
	}
	AssertEqual(t, updated, false)
}

// TestSendManual_DispatchesOnlyRequestedContacts tests that a manual send
// touches only the requested contacts' rows: an older pending recipient for
// another contact is not dispatched and the campaign's lifecycle state is
// left alone
func TestSendManual_DispatchesOnlyRequestedContacts(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola {{nombre}}", Status: models.CampaignStatusDraft}

	requested := &models.CampaignRecipient{
		ID: 11, CampaignID: 1, ContactID: 5,
		Phone: "+5215512340005", Status: models.RecipientStatusPending,
	}

	statusWrites := 0
	campaignRepo := &fakeCampaignRepo{
		GetByIDFunc: func(ctx context.Context, id int) (*models.Campaign, error) {
			copied := *stored
			return &copied, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error) {
			statusWrites++
			return true, nil
		},
	}
	contactRepo := &fakeContactRepo{
		FindCandidatesFunc: func(ctx context.Context, filter *models.Filter, limit int) ([]*models.Contact, error) {
			AssertEqual(t, filter.Kind, models.FilterByIDs)
			return []*models.Contact{{ID: 5, Phone: "+5215512340005", Status: models.ContactStatusActive}}, nil
		},
		GetWithVehicleFunc: func(ctx context.Context, id int) (*models.ContactWithVehicle, error) {
			return &models.ContactWithVehicle{
				Contact: models.Contact{ID: 5, Phone: "+5215512340005", Name: StringPtr("Ana")},
			}, nil
		},
	}
	recipientRepo := &fakeRecipientRepo{
		ListPendingByContactsFunc: func(ctx context.Context, campaignID int, contactIDs []int) ([]*models.CampaignRecipient, error) {
			AssertEqual(t, len(contactIDs), 1)
			AssertEqual(t, contactIDs[0], 5)
			return []*models.CampaignRecipient{requested}, nil
		},
		ListPendingFunc: func(ctx context.Context, campaignID int, limit int) ([]*models.CampaignRecipient, error) {
			t.Error("Pending rows must be fetched by the requested contact ids")
			return nil, nil
		},
		CountPendingFunc: func(ctx context.Context, campaignID int) (int, error) {
			// The older recipient for another contact is still pending
			return 1, nil
		},
	}
	providerClient := &fakeProvider{}
	optOutSvc := NewOptOutService(newFakeOptOutRepo(), contactRepo, nil)
	pipeline := NewPipelineService(
		campaignRepo, contactRepo, recipientRepo, &fakeMessageLog{},
		optOutSvc, NewTemplateService(), providerClient,
	)
	assignmentSvc := NewAssignmentService(campaignRepo, contactRepo, recipientRepo)
	svc := NewCampaignService(campaignRepo, contactRepo, recipientRepo, assignmentSvc, pipeline, NewTemplateService())

	result, err := svc.SendManual(context.Background(), 1, []int{5})

	AssertNoError(t, err)
	AssertEqual(t, result.Sent, 1)
	AssertEqual(t, result.Remaining, 1)
	AssertEqual(t, providerClient.sendCount(), 1)
	AssertEqual(t, providerClient.sends[0].To, "+5215512340005")
	// A draft campaign stays a draft: no transition of any kind
	AssertEqual(t, statusWrites, 0)
}

// TestSendManual_TerminalCampaignRejected tests that a completed campaign
// cannot be sent to
func TestSendManual_TerminalCampaignRejected(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: models.CampaignStatusCompleted}
	svc, _ := setupCampaignService(stored)

	_, err := svc.SendManual(context.Background(), 1, []int{5})

	var bizErr *BusinessLogicError
	if !errors.As(err, &bizErr) {
		t.Errorf("Expected BusinessLogicError, got %T (%v)", err, err)
	}
	AssertEqual(t, stored.Status, models.CampaignStatusCompleted)
}

// TestSendManual_DrainedSendingCampaignCompleted tests that a manual send
// draining the last pending rows of an actively sending campaign completes it
func TestSendManual_DrainedSendingCampaignCompleted(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: models.CampaignStatusSending}
	svc, _ := setupCampaignService(stored)

	_, err := svc.SendManual(context.Background(), 1, []int{5})

	AssertNoError(t, err)
	AssertEqual(t, stored.Status, models.CampaignStatusCompleted)
}

// TestUpdateCampaign_NotEditableWhileSending tests that field updates are
// rejected once sending has begun
func TestUpdateCampaign_NotEditableWhileSending(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola", Status: models.CampaignStatusSending}
	svc, _ := setupCampaignService(stored)

	_, err := svc.UpdateCampaign(context.Background(), 1, &UpdateCampaignRequest{Name: "Nuevo nombre"})
	var bizErr *BusinessLogicError
	if !errors.As(err, &bizErr) {
		t.Errorf("Expected BusinessLogicError, got %T (%v)", err, err)
	}
}

// TestPreview_AdHocVariables tests previewing with sample variables
func TestPreview_AdHocVariables(t *testing.T) {
	stored := &models.Campaign{ID: 1, Name: "Promo", Template: "Hola {{nombre}}, mira tu {{marca}}", Status: models.CampaignStatusDraft}
	svc, _ := setupCampaignService(stored)

	result, err := svc.Preview(context.Background(), 1, &PreviewRequest{
		Variables: map[string]string{"nombre": "Ana", "marca": "Mazda"},
	})

	AssertNoError(t, err)
	AssertEqual(t, result.Rendered, "Hola Ana, mira tu Mazda")
	AssertEqual(t, len(result.Placeholders), 2)
}
