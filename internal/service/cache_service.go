package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
)

const slotKeyPrefix = "slots"

// CacheRepository is the key/value store behind the slot cache.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService caches computed slot listings. Keys lead with the provider's person so a change
// to any of that person's commitments drops every listing across all of their roles.
//
// A nil or disabled service behaves as a permanently empty cache.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// SlotCacheKey identifies one listing request.
func SlotCacheKey(personID, providerID string, from, to models.Date, granularity int) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d", slotKeyPrefix, personID, providerID, from, to, granularity)
}

func slotCachePattern(personID string) string {
	return slotKeyPrefix + ":" + personID + ":*"
}

// Slots returns a cached listing. Store failures are logged and reported as a miss.
func (s *CacheService) Slots(ctx context.Context, key string) ([]models.Slot, bool) {
	if !s.Enabled() {
		return nil, false
	}
	var slots []models.Slot
	start := time.Now()
	err := s.repo.Get(ctx, key, &slots)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return slots, true
	case !errors.Is(err, appErrors.ErrCacheMiss):
		s.logger.Warn("slot cache read failed", zap.String("key", key), zap.Error(err))
	}
	return nil, false
}

// StoreSlots caches a listing. A zero ttl uses the default.
func (s *CacheService) StoreSlots(ctx context.Context, key string, slots []models.Slot, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, slots, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	return err
}

// InvalidatePerson drops every cached listing for a person's provider roles.
func (s *CacheService) InvalidatePerson(ctx context.Context, personID string) error {
	if !s.Enabled() || personID == "" {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, slotCachePattern(personID))
}
