package service

import (
	"context"
	"errors"
	"testing"

	"motorreach/internal/models"
)

// TestOptOutRecord tests that recording an opt-out stores the normalized
// phone and syncs the contact status
func TestOptOutRecord(t *testing.T) {
	optOutRepo := newFakeOptOutRepo()

	var syncedPhone string
	var syncedStatus models.ContactStatus
	contactRepo := &fakeContactRepo{
		UpdateStatusByPhoneFunc: func(ctx context.Context, phone string, status models.ContactStatus) error {
			syncedPhone = phone
			syncedStatus = status
			return nil
		},
	}

	svc := NewOptOutService(optOutRepo, contactRepo, nil)

	err := svc.Record(context.Background(), "whatsapp:+52 155 1234 0001", "inbound_keyword")
	AssertNoError(t, err)

	optedOut, err := svc.IsOptedOut(context.Background(), "+5215512340001")
	AssertNoError(t, err)
	AssertEqual(t, optedOut, true)
	AssertEqual(t, syncedPhone, "+5215512340001")
	AssertEqual(t, syncedStatus, models.ContactStatusOptedOut)
}

// TestOptOutRecord_Idempotent tests that recording the same phone twice is
// a no-op
func TestOptOutRecord_Idempotent(t *testing.T) {
	optOutRepo := newFakeOptOutRepo()
	svc := NewOptOutService(optOutRepo, &fakeContactRepo{}, nil)

	AssertNoError(t, svc.Record(context.Background(), "+5215512340001", "manual"))
	AssertNoError(t, svc.Record(context.Background(), "+5215512340001", "manual"))

	optOuts, err := svc.List(context.Background(), 50, 0)
	AssertNoError(t, err)
	AssertEqual(t, len(optOuts), 1)
}

// TestOptOutRecord_InvalidPhone tests that an undialable phone is rejected
func TestOptOutRecord_InvalidPhone(t *testing.T) {
	svc := NewOptOutService(newFakeOptOutRepo(), &fakeContactRepo{}, nil)

	err := svc.Record(context.Background(), "abc", "manual")
	if err == nil {
		t.Fatal("Expected error for invalid phone")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError, got %T", err)
	}
}

// TestOptOutRemove tests that removing an opt-out reactivates the contact
func TestOptOutRemove(t *testing.T) {
	optOutRepo := newFakeOptOutRepo()

	var syncedStatus models.ContactStatus
	contactRepo := &fakeContactRepo{
		UpdateStatusByPhoneFunc: func(ctx context.Context, phone string, status models.ContactStatus) error {
			syncedStatus = status
			return nil
		},
	}

	svc := NewOptOutService(optOutRepo, contactRepo, nil)

	AssertNoError(t, svc.Record(context.Background(), "+5215512340001", ""))
	AssertNoError(t, svc.Remove(context.Background(), "+5215512340001"))

	optedOut, err := svc.IsOptedOut(context.Background(), "+5215512340001")
	AssertNoError(t, err)
	AssertEqual(t, optedOut, false)
	AssertEqual(t, syncedStatus, models.ContactStatusActive)
}

// TestOptOutRemove_NotRecorded tests that removing an unknown phone is a
// business logic error, not a crash
func TestOptOutRemove_NotRecorded(t *testing.T) {
	svc := NewOptOutService(newFakeOptOutRepo(), &fakeContactRepo{}, nil)

	err := svc.Remove(context.Background(), "+5215512340099")
	var bizErr *BusinessLogicError
	if !errors.As(err, &bizErr) {
		t.Errorf("Expected BusinessLogicError, got %T (%v)", err, err)
	}
}

// TestContainsOptOutKeyword tests inbound keyword detection
func TestContainsOptOutKeyword(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{"STOP", true},
		{"stop", true},
		{"Por favor BAJA de la lista", true},
		{"quiero cancelar mi suscripción", true},
		{"unsubscribe me", true},
		{"remover por favor", true},
		{"3", true},
		{" 3 ", true},
		{"Hola, me interesa el auto", false},
		{"El precio es 300000", false},
		{"Llámame al 5512343333", false},
	}

	for _, tc := range cases {
		if got := ContainsOptOutKeyword(tc.body); got != tc.want {
			t.Errorf("ContainsOptOutKeyword(%q) = %v, want %v", tc.body, got, tc.want)
		}
	}
}
