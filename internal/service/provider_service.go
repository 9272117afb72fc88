package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	"github.com/noah-isme/edu-booking-api/internal/repository"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
	applog "github.com/noah-isme/edu-booking-api/pkg/logger"
)

// ProviderDeactivatedReason is recorded on requests declined by a provider deactivation.
const ProviderDeactivatedReason = "provider deactivated"

type providerStore interface {
	Create(ctx context.Context, provider *models.Provider) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Provider, error)
	ListByPerson(ctx context.Context, personID string) ([]models.Provider, error)
	Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type providerRuleDeactivator interface {
	DeactivateProviderRules(ctx context.Context, exec sqlx.ExtContext, providerID string) (int64, error)
}

type providerRequestDecliner interface {
	DeclinePendingByProvider(ctx context.Context, exec sqlx.ExtContext, providerID, reason string) (int64, error)
}

// ProviderService registers provider roles and runs the deactivation cascade.
type ProviderService struct {
	tx        TxRunner
	providers providerStore
	rules     providerRuleDeactivator
	requests  providerRequestDecliner
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProviderService constructs the provider service.
func NewProviderService(tx TxRunner, providers providerStore, rules providerRuleDeactivator, requests providerRequestDecliner, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ProviderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderService{
		tx:        tx,
		providers: providers,
		rules:     rules,
		requests:  requests,
		cache:     cache,
		metrics:   metrics,
		validator: validator.New(),
		logger:    logger,
	}
}

// Create registers a role for a person. Each person holds at most one provider per role.
func (s *ProviderService) Create(ctx context.Context, req dto.CreateProviderRequest, actor *models.JWTClaims) (*models.Provider, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid provider payload")
	}
	if err := authorizeParty(actor, req.PersonID); err != nil {
		return nil, err
	}
	provider := &models.Provider{
		PersonID:    req.PersonID,
		Role:        req.Role,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	if err := s.providers.Create(ctx, provider); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "person already holds this provider role")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create provider")
	}
	applog.FromContext(ctx, s.logger).Info("provider created",
		zap.String("provider_id", provider.ID),
		zap.String("person_id", provider.PersonID),
		zap.String("role", string(provider.Role)))
	return provider, nil
}

// Get loads a provider.
func (s *ProviderService) Get(ctx context.Context, id string) (*models.Provider, error) {
	provider, err := s.providers.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	return provider, nil
}

// ListByPerson returns every role held by a person.
func (s *ProviderService) ListByPerson(ctx context.Context, personID string) ([]models.Provider, error) {
	providers, err := s.providers.ListByPerson(ctx, personID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list providers")
	}
	return providers, nil
}

// Deactivate switches a provider off and, in the same transaction, deactivates its weekly rules and
// declines its pending requests. The returned result reports what the cascade changed.
func (s *ProviderService) Deactivate(ctx context.Context, id string, actor *models.JWTClaims) (*models.ProviderDeactivationResult, error) {
	var result models.ProviderDeactivationResult
	err := s.tx.WithinTx(ctx, nil, func(exec sqlx.ExtContext) error {
		provider, err := s.providers.FindByID(ctx, exec, id)
		if err != nil {
			return lookupError(err, "provider")
		}
		if err := authorizeParty(actor, provider.PersonID); err != nil {
			return err
		}
		if !provider.IsActive {
			return stateError("provider", provider.ID, "inactive", "inactive")
		}
		if err := s.providers.Deactivate(ctx, exec, provider.ID); err != nil {
			return err
		}
		rules, err := s.rules.DeactivateProviderRules(ctx, exec, provider.ID)
		if err != nil {
			return err
		}
		declined, err := s.requests.DeclinePendingByProvider(ctx, exec, provider.ID, ProviderDeactivatedReason)
		if err != nil {
			return err
		}
		provider.IsActive = false
		result = models.ProviderDeactivationResult{Provider: *provider, RulesDeactivated: rules, RequestsDeclined: declined}
		return nil
	})
	if err != nil {
		return nil, txError(err, "provider", "deactivate")
	}

	for i := int64(0); i < result.RequestsDeclined; i++ {
		s.metrics.RecordTransition(entityBookingRequest, string(models.BookingRequestDeclined))
	}
	if err := s.cache.InvalidatePerson(ctx, result.Provider.PersonID); err != nil {
		applog.FromContext(ctx, s.logger).Warn("slot cache invalidation failed", zap.String("person_id", result.Provider.PersonID), zap.Error(err))
	}
	applog.FromContext(ctx, s.logger).Info("provider deactivated",
		zap.String("provider_id", result.Provider.ID),
		zap.Int64("rules_deactivated", result.RulesDeactivated),
		zap.Int64("requests_declined", result.RequestsDeclined))
	return &result, nil
}
