package service

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"motorreach/internal/models"
	"motorreach/internal/repository"
)

// DispatchService is the scheduler: a single logical process that wakes on a
// fixed interval, promotes due scheduled campaigns and advances every
// actively-sending campaign by one recipient batch.
type DispatchService struct {
	campaignRepo   repository.CampaignRepository
	recipientRepo  repository.RecipientRepository
	pipeline       *PipelineService
	interval       time.Duration
	campaignBatch  int
	recipientBatch int

	// running guards against overlapping passes: a wake-up while a pass is
	// still active is skipped, not queued.
	running int32
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.RecipientRepository,
	pipeline *PipelineService,
	interval time.Duration,
	campaignBatch int,
	recipientBatch int,
) *DispatchService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if campaignBatch <= 0 {
		campaignBatch = 5
	}
	if recipientBatch <= 0 {
		recipientBatch = 20
	}

	return &DispatchService{
		campaignRepo:   campaignRepo,
		recipientRepo:  recipientRepo,
		pipeline:       pipeline,
		interval:       interval,
		campaignBatch:  campaignBatch,
		recipientBatch: recipientBatch,
	}
}

// Run executes dispatch passes until ctx is cancelled. The first pass runs
// immediately so due work is not delayed by a full interval after a restart.
func (s *DispatchService) Run(ctx context.Context) {
	log.Printf("Dispatch loop started (interval %s)", s.interval)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Dispatch loop stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single dispatch pass. Returns false when a pass was
// already in flight and this wake-up was skipped.
func (s *DispatchService) RunOnce(ctx context.Context) bool {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		log.Println("Dispatch pass already running, skipping wake-up")
		return false
	}
	defer atomic.StoreInt32(&s.running, 0)

	s.promoteDueCampaigns(ctx)
	s.advanceSendingCampaigns(ctx)
	return true
}

// promoteDueCampaigns transitions scheduled campaigns whose time has come
func (s *DispatchService) promoteDueCampaigns(ctx context.Context) {
	due, err := s.campaignRepo.ListDueScheduled(ctx, time.Now(), s.campaignBatch)
	if err != nil {
		log.Printf("Error listing due campaigns: %v", err)
		return
	}

	for _, campaign := range due {
		promoted, err := s.campaignRepo.UpdateStatus(
			ctx,
			campaign.ID,
			models.CampaignStatusSending,
			models.CampaignStatusScheduled,
		)
		if err != nil {
			log.Printf("Error promoting campaign %d: %v", campaign.ID, err)
			continue
		}
		if promoted {
			log.Printf("Campaign %d (%s) promoted to sending", campaign.ID, campaign.Name)
		}
	}
}

// advanceSendingCampaigns drives one recipient batch per sending campaign,
// completing campaigns that have no pending recipients left
func (s *DispatchService) advanceSendingCampaigns(ctx context.Context) {
	sending, err := s.campaignRepo.ListByStatus(ctx, models.CampaignStatusSending, s.campaignBatch)
	if err != nil {
		log.Printf("Error listing sending campaigns: %v", err)
		return
	}

	for _, campaign := range sending {
		s.advanceCampaign(ctx, campaign)
	}
}

func (s *DispatchService) advanceCampaign(ctx context.Context, campaign *models.Campaign) {
	pending, err := s.recipientRepo.ListPending(ctx, campaign.ID, s.recipientBatch)
	if err != nil {
		log.Printf("Error listing pending recipients for campaign %d: %v", campaign.ID, err)
		s.noteError(ctx, campaign.ID, err.Error())
		return
	}

	if len(pending) > 0 {
		result := s.pipeline.ProcessBatch(ctx, campaign, pending)
		log.Printf("Campaign %d: processed %d recipients (%d sent, %d failed, %d skipped)",
			campaign.ID, result.Processed, result.Sent, result.Failed, result.Skipped)
		if result.Failed > 0 && result.LastError != "" {
			s.noteError(ctx, campaign.ID, result.LastError)
		}
	}

	remaining, err := s.recipientRepo.CountPending(ctx, campaign.ID)
	if err != nil {
		log.Printf("Error counting pending recipients for campaign %d: %v", campaign.ID, err)
		s.noteError(ctx, campaign.ID, err.Error())
		return
	}

	if remaining == 0 {
		completed, err := s.campaignRepo.UpdateStatus(
			ctx,
			campaign.ID,
			models.CampaignStatusCompleted,
			models.CampaignStatusSending,
		)
		if err != nil {
			log.Printf("Error completing campaign %d: %v", campaign.ID, err)
			return
		}
		if completed {
			log.Printf("Campaign %d (%s) completed", campaign.ID, campaign.Name)
		}
	}
}

// noteError records a campaign-level last_error note. Failing to record it
// must not abort the pass.
func (s *DispatchService) noteError(ctx context.Context, campaignID int, message string) {
	if err := s.campaignRepo.SetLastError(ctx, campaignID, message); err != nil {
		log.Printf("Warning: failed to record last error for campaign %d: %v", campaignID, err)
	}
}
