package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
)

type slotSources interface {
	ListRules(ctx context.Context, providerID string, activeOnly bool) ([]models.RecurringAvailabilityRule, error)
	ListExceptions(ctx context.Context, providerID string, from, to models.Date) ([]models.AvailabilityException, error)
}

// SlotPolicy bounds availability listings.
type SlotPolicy struct {
	Granularity    int
	HorizonDays    int
	MaxHorizonDays int
	CacheTTL       time.Duration
}

// SlotService lists bookable slots for a provider. Results are read-only and may be served from cache.
type SlotService struct {
	providers providerLookup
	sources   slotSources
	checker   *ConflictChecker
	cache     *CacheService
	metrics   *MetricsService
	policy    SlotPolicy
	logger    *zap.Logger
	clock     Clock
}

// NewSlotService constructs the slot listing service.
func NewSlotService(providers providerLookup, sources slotSources, checker *ConflictChecker, cache *CacheService, metrics *MetricsService, policy SlotPolicy, logger *zap.Logger, clock Clock) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = systemClock
	}
	if policy.Granularity <= 0 {
		policy.Granularity = DefaultSlotGranularity
	}
	if policy.HorizonDays <= 0 {
		policy.HorizonDays = 14
	}
	if policy.MaxHorizonDays < policy.HorizonDays {
		policy.MaxHorizonDays = policy.HorizonDays
	}
	return &SlotService{
		providers: providers,
		sources:   sources,
		checker:   checker,
		cache:     cache,
		metrics:   metrics,
		policy:    policy,
		logger:    logger,
		clock:     clock,
	}
}

// ListAvailableSlots materialises open slots for a provider over [from, to]. Without an end date
// the range spans HorizonDays calendar dates starting at from.
func (s *SlotService) ListAvailableSlots(ctx context.Context, providerID string, query dto.SlotQuery) ([]models.Slot, bool, error) {
	loc := s.checker.Location()
	now := s.clock()
	today := models.DateOf(now.In(loc))

	from := today
	if query.From != nil && !query.From.IsZero() {
		from = *query.From
	}
	to := from.AddDays(s.policy.HorizonDays - 1)
	if query.To != nil && !query.To.IsZero() {
		to = *query.To
	}
	if to.Before(from) {
		return nil, false, validationError("to must not be before from")
	}
	if from.DaysUntil(to) > s.policy.MaxHorizonDays {
		return nil, false, validationError(fmt.Sprintf("range must not exceed %d days", s.policy.MaxHorizonDays))
	}
	granularity := query.Granularity
	if granularity == 0 {
		granularity = s.policy.Granularity
	}
	if granularity < 5 || granularity > models.MinutesPerDay {
		return nil, false, validationError("granularity must be between 5 and 1440 minutes")
	}

	provider, err := s.providers.FindByID(ctx, nil, providerID)
	if err != nil {
		return nil, false, lookupError(err, "provider")
	}
	if !provider.IsActive {
		return []models.Slot{}, false, nil
	}

	key := SlotCacheKey(provider.PersonID, provider.ID, from, to, granularity)
	if cached, hit := s.cache.Slots(ctx, key); hit {
		return dropStarted(cached, now), true, nil
	}

	rules, err := s.sources.ListRules(ctx, provider.ID, true)
	if err != nil {
		return nil, false, lookupError(err, "availability rules")
	}
	exceptions, err := s.sources.ListExceptions(ctx, provider.ID, from, to)
	if err != nil {
		return nil, false, lookupError(err, "availability exceptions")
	}
	commitments, err := s.checker.Commitments(ctx, nil, provider.PersonID, from.At(0, loc), to.AddDays(1).At(0, loc))
	if err != nil {
		return nil, false, lookupError(err, "commitments")
	}

	slots := GenerateSlots(SlotInput{
		Rules:       rules,
		Exceptions:  exceptions,
		Commitments: commitments,
		From:        from,
		To:          to,
		Granularity: granularity,
		Now:         now,
		Location:    loc,
	})
	s.metrics.RecordSlotsGenerated(len(slots))
	if err := s.cache.StoreSlots(ctx, key, slots, s.policy.CacheTTL); err != nil {
		s.logger.Debug("slot cache write skipped", zap.String("key", key), zap.Error(err))
	}
	return slots, false, nil
}

// dropStarted removes cached slots that no longer start strictly after now.
func dropStarted(slots []models.Slot, now time.Time) []models.Slot {
	open := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.StartsAt.After(now) {
			open = append(open, slot)
		}
	}
	return open
}
