package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
	applog "github.com/noah-isme/edu-booking-api/pkg/logger"
)

type availabilityStore interface {
	UpsertRule(ctx context.Context, rule *models.RecurringAvailabilityRule) error
	FindRule(ctx context.Context, id string) (*models.RecurringAvailabilityRule, error)
	ListRules(ctx context.Context, providerID string, activeOnly bool) ([]models.RecurringAvailabilityRule, error)
	DeactivateRule(ctx context.Context, id string) error
	CreateException(ctx context.Context, exception *models.AvailabilityException) error
	FindException(ctx context.Context, id string) (*models.AvailabilityException, error)
	ListExceptions(ctx context.Context, providerID string, from, to models.Date) ([]models.AvailabilityException, error)
	DeleteException(ctx context.Context, id string) error
}

// AvailabilityService manages a provider's weekly calendar and its date exceptions.
type AvailabilityService struct {
	providers providerLookup
	store     availabilityStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	clock     Clock
	loc       *time.Location
}

// NewAvailabilityService constructs the availability service. Dates are judged in loc.
func NewAvailabilityService(providers providerLookup, store availabilityStore, cache *CacheService, loc *time.Location, logger *zap.Logger, clock Clock) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = systemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{
		providers: providers,
		store:     store,
		cache:     cache,
		validator: validator.New(),
		logger:    logger,
		clock:     clock,
		loc:       loc,
	}
}

// UpsertRule declares a weekly window; an identical inactive rule is re-activated.
func (s *AvailabilityService) UpsertRule(ctx context.Context, providerID string, req dto.UpsertRuleRequest, actor *models.JWTClaims) (*models.RecurringAvailabilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability rule payload")
	}
	if !req.StartTime.Valid() || !req.EndTime.Valid() || req.StartTime >= req.EndTime {
		return nil, validationError("start_time must be before end_time")
	}
	provider, err := s.ownedProvider(ctx, providerID, actor)
	if err != nil {
		return nil, err
	}
	rule := &models.RecurringAvailabilityRule{
		ProviderID: provider.ID,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := s.store.UpsertRule(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability rule")
	}
	s.invalidate(ctx, provider.PersonID)
	applog.FromContext(ctx, s.logger).Info("availability rule saved",
		zap.String("rule_id", rule.ID),
		zap.String("provider_id", provider.ID),
		zap.Int("day_of_week", rule.DayOfWeek))
	return rule, nil
}

// ListRules returns a provider's weekly windows.
func (s *AvailabilityService) ListRules(ctx context.Context, providerID string, activeOnly bool) ([]models.RecurringAvailabilityRule, error) {
	if _, err := s.providers.FindByID(ctx, nil, providerID); err != nil {
		return nil, lookupError(err, "provider")
	}
	rules, err := s.store.ListRules(ctx, providerID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability rules")
	}
	return rules, nil
}

// DeactivateRule switches a weekly window off.
func (s *AvailabilityService) DeactivateRule(ctx context.Context, ruleID string, actor *models.JWTClaims) error {
	rule, err := s.store.FindRule(ctx, ruleID)
	if err != nil {
		return lookupError(err, "availability rule")
	}
	provider, err := s.ownedProvider(ctx, rule.ProviderID, actor)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateRule(ctx, ruleID); err != nil {
		return lookupError(err, "availability rule")
	}
	s.invalidate(ctx, provider.PersonID)
	return nil
}

// AddException stores a date override. Both times or neither must be given; custom openings need times.
func (s *AvailabilityService) AddException(ctx context.Context, providerID string, req dto.AddExceptionRequest, actor *models.JWTClaims) (*models.AvailabilityException, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability exception payload")
	}
	if req.Date.IsZero() {
		return nil, validationError("date is required")
	}
	if req.Date.Before(models.DateOf(s.clock().In(s.loc))) {
		return nil, validationError("date must not be in the past")
	}
	if (req.StartTime == nil) != (req.EndTime == nil) {
		return nil, validationError("start_time and end_time must be given together")
	}
	if req.StartTime != nil {
		if !req.StartTime.Valid() || !req.EndTime.Valid() || *req.StartTime >= *req.EndTime {
			return nil, validationError("start_time must be before end_time")
		}
	} else if req.Type == models.ExceptionCustomAvailable {
		return nil, validationError("custom_available exceptions require start_time and end_time")
	}

	provider, err := s.ownedProvider(ctx, providerID, actor)
	if err != nil {
		return nil, err
	}
	exception := &models.AvailabilityException{
		ProviderID: provider.ID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Type:       req.Type,
		Reason:     req.Reason,
	}
	if err := s.store.CreateException(ctx, exception); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability exception")
	}
	s.invalidate(ctx, provider.PersonID)
	applog.FromContext(ctx, s.logger).Info("availability exception added",
		zap.String("exception_id", exception.ID),
		zap.String("provider_id", provider.ID),
		zap.String("date", exception.Date.String()),
		zap.String("type", string(exception.Type)))
	return exception, nil
}

// ListExceptions returns a provider's overrides dated within [from, to].
func (s *AvailabilityService) ListExceptions(ctx context.Context, providerID string, from, to models.Date) ([]models.AvailabilityException, error) {
	if to.Before(from) {
		return nil, validationError("to must not be before from")
	}
	if _, err := s.providers.FindByID(ctx, nil, providerID); err != nil {
		return nil, lookupError(err, "provider")
	}
	exceptions, err := s.store.ListExceptions(ctx, providerID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability exceptions")
	}
	return exceptions, nil
}

// DeleteException removes a date override.
func (s *AvailabilityService) DeleteException(ctx context.Context, id string, actor *models.JWTClaims) error {
	exception, err := s.store.FindException(ctx, id)
	if err != nil {
		return lookupError(err, "availability exception")
	}
	provider, err := s.ownedProvider(ctx, exception.ProviderID, actor)
	if err != nil {
		return err
	}
	if err := s.store.DeleteException(ctx, id); err != nil {
		return lookupError(err, "availability exception")
	}
	s.invalidate(ctx, provider.PersonID)
	return nil
}

func (s *AvailabilityService) ownedProvider(ctx context.Context, providerID string, actor *models.JWTClaims) (*models.Provider, error) {
	provider, err := s.providers.FindByID(ctx, nil, providerID)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	if err := authorizeParty(actor, provider.PersonID); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, personID string) {
	if err := s.cache.InvalidatePerson(ctx, personID); err != nil {
		applog.FromContext(ctx, s.logger).Warn("slot cache invalidation failed", zap.String("person_id", personID), zap.Error(err))
	}
}
