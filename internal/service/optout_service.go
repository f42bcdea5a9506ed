package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"motorreach/internal/models"
	"motorreach/internal/repository"

	"github.com/go-redis/redis/v8"
)

// optOutCacheKey is the Redis set holding opted-out phones
const optOutCacheKey = "optouts"

// optOutKeywords are matched case-insensitively as substrings of inbound
// message bodies
var optOutKeywords = []string{"STOP", "BAJA", "CANCELAR", "UNSUBSCRIBE", "REMOVER"}

// OptOutService is the opt-out registry: a set of phone numbers that must
// never receive outbound messages. The database row is authoritative; the
// Redis set is a fast-path cache consulted first on reads.
type OptOutService struct {
	optOutRepo  repository.OptOutRepository
	contactRepo repository.ContactRepository
	cache       *redis.Client
}

// NewOptOutService creates a new opt-out service. cache may be nil, in which
// case every check goes to the database.
func NewOptOutService(
	optOutRepo repository.OptOutRepository,
	contactRepo repository.ContactRepository,
	cache *redis.Client,
) *OptOutService {
	return &OptOutService{
		optOutRepo:  optOutRepo,
		contactRepo: contactRepo,
		cache:       cache,
	}
}

// Record registers an opt-out for the phone. Idempotent: recording the same
// phone twice is a no-op. The contact's status is synced to opted_out.
func (s *OptOutService) Record(ctx context.Context, phone string, reason string) error {
	normalized, err := models.NormalizePhone(phone)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	if err := s.optOutRepo.Insert(ctx, normalized, reasonPtr); err != nil {
		return err
	}

	if err := s.contactRepo.UpdateStatusByPhone(ctx, normalized, models.ContactStatusOptedOut); err != nil {
		// The opt-out row already protects the phone; log and continue
		log.Printf("Warning: failed to sync contact status for %s: %v", normalized, err)
	}

	if s.cache != nil {
		if err := s.cache.SAdd(ctx, optOutCacheKey, normalized).Err(); err != nil {
			log.Printf("Warning: failed to cache opt-out for %s: %v", normalized, err)
		}
	}

	return nil
}

// IsOptedOut reports whether the phone must not be contacted. The cache is
// consulted first; a cache miss or cache error falls through to the database,
// which is authoritative.
func (s *OptOutService) IsOptedOut(ctx context.Context, phone string) (bool, error) {
	normalized, err := models.NormalizePhone(phone)
	if err != nil {
		return false, &ValidationError{Message: err.Error()}
	}

	if s.cache != nil {
		cached, err := s.cache.SIsMember(ctx, optOutCacheKey, normalized).Result()
		if err == nil && cached {
			return true, nil
		}
		if err != nil {
			log.Printf("Warning: opt-out cache check failed for %s: %v", normalized, err)
		}
	}

	exists, err := s.optOutRepo.Exists(ctx, normalized)
	if err != nil {
		return false, err
	}

	if exists && s.cache != nil {
		if err := s.cache.SAdd(ctx, optOutCacheKey, normalized).Err(); err != nil {
			log.Printf("Warning: failed to backfill opt-out cache for %s: %v", normalized, err)
		}
	}

	return exists, nil
}

// Remove reverses an opt-out (administrative action) and reactivates the
// contact
func (s *OptOutService) Remove(ctx context.Context, phone string) error {
	normalized, err := models.NormalizePhone(phone)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}

	exists, err := s.optOutRepo.Exists(ctx, normalized)
	if err != nil {
		return err
	}
	if !exists {
		return &BusinessLogicError{Message: fmt.Sprintf("no opt-out recorded for %s", normalized)}
	}

	if err := s.optOutRepo.Delete(ctx, normalized); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.SRem(ctx, optOutCacheKey, normalized).Err(); err != nil {
			log.Printf("Warning: failed to evict opt-out cache for %s: %v", normalized, err)
		}
	}

	if err := s.contactRepo.UpdateStatusByPhone(ctx, normalized, models.ContactStatusActive); err != nil {
		log.Printf("Warning: failed to reactivate contact %s: %v", normalized, err)
	}

	return nil
}

// List retrieves opt-outs with pagination
func (s *OptOutService) List(ctx context.Context, limit, offset int) ([]*models.OptOut, error) {
	return s.optOutRepo.List(ctx, limit, offset)
}

// ContainsOptOutKeyword reports whether an inbound message body is an opt-out
// request. Keywords match case-insensitively as substrings; a bare "3" must
// be the whole trimmed message to avoid matching phone digits or prices.
func ContainsOptOutKeyword(body string) bool {
	upper := strings.ToUpper(body)
	for _, keyword := range optOutKeywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}
	return strings.TrimSpace(body) == "3"
}
