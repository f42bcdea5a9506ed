package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"motorreach/internal/models"
)

func newMockDB(t *testing.T) (*sqlmock.Sqlmock, CampaignRepository, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	repo := NewCampaignRepository(db)
	return &mock, repo, func() { db.Close() }
}

// TestUpdateStatus_AppliesGuardedTransition tests that the compare-and-set
// write reports success when the precondition row was updated
func TestUpdateStatus_AppliesGuardedTransition(t *testing.T) {
	mockPtr, repo, cleanup := newMockDB(t)
	defer cleanup()
	mock := *mockPtr

	mock.ExpectExec("UPDATE campaigns").
		WithArgs("sending", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.UpdateStatus(context.Background(), 1, models.CampaignStatusSending, models.CampaignStatusScheduled)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if !applied {
		t.Error("Expected transition to apply")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// TestUpdateStatus_PreconditionFailed tests that zero affected rows surfaces
// as applied=false, not an error
func TestUpdateStatus_PreconditionFailed(t *testing.T) {
	mockPtr, repo, cleanup := newMockDB(t)
	defer cleanup()
	mock := *mockPtr

	mock.ExpectExec("UPDATE campaigns").
		WithArgs("paused", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.UpdateStatus(context.Background(), 1, models.CampaignStatusPaused, models.CampaignStatusSending)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if applied {
		t.Error("Expected transition to be rejected")
	}
}

// TestUpdateStatus_RequiresPredecessors tests the empty-from guard
func TestUpdateStatus_RequiresPredecessors(t *testing.T) {
	_, repo, cleanup := newMockDB(t)
	defer cleanup()

	if _, err := repo.UpdateStatus(context.Background(), 1, models.CampaignStatusSending); err == nil {
		t.Error("Expected error when no predecessor statuses are given")
	}
}

// TestSchedule_AppliedOnDraft tests that the schedule write carries both the
// timestamp and the transition
func TestSchedule_AppliedOnDraft(t *testing.T) {
	mockPtr, repo, cleanup := newMockDB(t)
	defer cleanup()
	mock := *mockPtr

	at := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE campaigns").
		WithArgs(at, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.Schedule(context.Background(), 1, at)
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if !applied {
		t.Error("Expected schedule to apply")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// TestSchedule_NonDraftUnchanged tests that a non-draft campaign reports
// applied=false with nothing written
func TestSchedule_NonDraftUnchanged(t *testing.T) {
	mockPtr, repo, cleanup := newMockDB(t)
	defer cleanup()
	mock := *mockPtr

	at := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE campaigns").
		WithArgs(at, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.Schedule(context.Background(), 1, at)
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if applied {
		t.Error("Expected schedule to be rejected")
	}
}

// TestGetProgress tests the aggregate recipient count query
func TestGetProgress(t *testing.T) {
	mockPtr, repo, cleanup := newMockDB(t)
	defer cleanup()
	mock := *mockPtr

	rows := sqlmock.NewRows([]string{"total", "pending", "sent", "failed", "skipped"}).
		AddRow(10, 4, 3, 2, 1)
	mock.ExpectQuery("SELECT").WithArgs(7).WillReturnRows(rows)

	progress, err := repo.GetProgress(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetProgress error: %v", err)
	}

	if progress.Total != 10 || progress.Pending != 4 || progress.Sent != 3 || progress.Failed != 2 || progress.Skipped != 1 {
		t.Errorf("Unexpected progress: %+v", progress)
	}
}

// TestIncrementSentCount tests the atomic SQL increment
func TestIncrementSentCount(t *testing.T) {
	mockPtr, repo, cleanup := newMockDB(t)
	defer cleanup()
	mock := *mockPtr

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.IncrementSentCount(context.Background(), 3); err != nil {
		t.Fatalf("IncrementSentCount error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
