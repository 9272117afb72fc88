package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
	applog "github.com/noah-isme/edu-booking-api/pkg/logger"
)

const (
	entityBookingRequest = "booking_request"
	entitySession        = "scheduled_session"
)

type providerLookup interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Provider, error)
}

type bookingRequestStore interface {
	Create(ctx context.Context, request *models.BookingRequest) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.BookingRequestStatus, declineReason *string) error
	List(ctx context.Context, filter models.BookingRequestFilter) ([]models.BookingRequest, int, error)
}

type sessionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.ScheduledSession) error
	CreateDetail(ctx context.Context, exec sqlx.ExtContext, detail *models.SessionDetail) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSession, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSession, error)
	Cancel(ctx context.Context, exec sqlx.ExtContext, id, reason string) error
	Complete(ctx context.Context, exec sqlx.ExtContext, id string, notes *string) error
	ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.ScheduledSession, error)
}

type personDayLocker interface {
	LockPersonDays(ctx context.Context, exec sqlx.ExtContext, personID string, dates ...models.Date) error
}

// BookingPolicy holds the tunables of the booking lifecycle.
type BookingPolicy struct {
	ExpiryLead        time.Duration
	MaxSessionMinutes int
}

// BookingServiceOption configures the booking service.
type BookingServiceOption func(*BookingService)

// WithBookingClock overrides the time source.
func WithBookingClock(clock Clock) BookingServiceOption {
	return func(s *BookingService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithBookingCache invalidates slot listings after writes.
func WithBookingCache(cache *CacheService) BookingServiceOption {
	return func(s *BookingService) { s.cache = cache }
}

// WithBookingMetrics records transition and conflict counters.
func WithBookingMetrics(metrics *MetricsService) BookingServiceOption {
	return func(s *BookingService) { s.metrics = metrics }
}

// BookingService runs the booking request and session state machine.
type BookingService struct {
	tx        TxRunner
	providers providerLookup
	requests  bookingRequestStore
	sessions  sessionStore
	locker    personDayLocker
	checker   *ConflictChecker
	policy    BookingPolicy
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	clock     Clock
}

// NewBookingService constructs the booking service.
func NewBookingService(
	tx TxRunner,
	providers providerLookup,
	requests bookingRequestStore,
	sessions sessionStore,
	locker personDayLocker,
	checker *ConflictChecker,
	policy BookingPolicy,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.ExpiryLead < 0 {
		policy.ExpiryLead = 0
	}
	if policy.MaxSessionMinutes <= 0 {
		policy.MaxSessionMinutes = 480
	}
	svc := &BookingService{
		tx:        tx,
		providers: providers,
		requests:  requests,
		sessions:  sessions,
		locker:    locker,
		checker:   checker,
		policy:    policy,
		validator: validator.New(),
		logger:    logger,
		clock:     systemClock,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CreateRequest stores a pending booking request. expiry_at is preferred_time minus the configured
// lead, clamped to preferred_time when the lead would put it at or before the request instant.
func (s *BookingService) CreateRequest(ctx context.Context, req dto.CreateBookingRequest, actor *models.JWTClaims) (*models.BookingRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking request payload")
	}
	if actor != nil && !actor.IsAdmin() {
		if req.RequesterID != "" && req.RequesterID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot request bookings on behalf of another person")
		}
		req.RequesterID = actor.UserID
	}
	if strings.TrimSpace(req.RequesterID) == "" {
		return nil, validationError("requester_id is required")
	}

	provider, err := s.providers.FindByID(ctx, nil, req.ProviderID)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	if !provider.IsActive {
		return nil, validationError("provider is not accepting bookings")
	}
	if provider.PersonID == req.RequesterID {
		return nil, validationError("requester cannot book their own provider role")
	}

	now := s.clock()
	if !req.PreferredTime.After(now) {
		return nil, validationError("preferred_time must be in the future")
	}
	expiry := req.PreferredTime.Add(-s.policy.ExpiryLead)
	if !expiry.After(now) {
		expiry = req.PreferredTime
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}

	request := &models.BookingRequest{
		RequesterID:   req.RequesterID,
		ProviderID:    provider.ID,
		Topic:         strings.TrimSpace(req.Topic),
		Description:   req.Description,
		PreferredTime: req.PreferredTime.UTC(),
		SessionType:   req.SessionType,
		Urgency:       urgency,
		Status:        models.BookingRequestPending,
		RequestedAt:   now,
		ExpiryAt:      expiry.UTC(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking request")
	}
	applog.FromContext(ctx, s.logger).Info("booking request created",
		zap.String("booking_request_id", request.ID),
		zap.String("provider_id", request.ProviderID),
		zap.Time("expiry_at", request.ExpiryAt))
	return request, nil
}

// Accept schedules a pending request. The conflict check and the session insert share one
// serializable transaction and hold the provider person's day locks. Recurring bookings lock only
// the dates inside their horizon, so later dates rely on serializable isolation.
func (s *BookingService) Accept(ctx context.Context, requestID string, req dto.AcceptBookingRequest, actor *models.JWTClaims) (*models.AcceptedBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid accept payload")
	}
	if req.DurationMinutes > s.policy.MaxSessionMinutes {
		return nil, validationError("duration_minutes exceeds the maximum session length")
	}
	start := req.ScheduledAt.UTC()
	if !start.After(s.clock()) {
		return nil, validationError("scheduled_at must be in the future")
	}
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	var (
		result   models.AcceptedBooking
		personID string
	)
	err := s.tx.WithinTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(exec sqlx.ExtContext) error {
		request, err := s.requests.LockByID(ctx, exec, requestID)
		if err != nil {
			return lookupError(err, "booking request")
		}
		provider, err := s.providers.FindByID(ctx, exec, request.ProviderID)
		if err != nil {
			return lookupError(err, "provider")
		}
		if err := authorizeParty(actor, provider.PersonID); err != nil {
			return err
		}
		if request.Status != models.BookingRequestPending {
			return stateError(entityBookingRequest, request.ID, string(request.Status), string(models.BookingRequestScheduled))
		}
		// Past its expiry the request is expired even if no sweep has marked it yet.
		if !request.ExpiryAt.After(s.clock()) {
			return stateError(entityBookingRequest, request.ID, string(models.BookingRequestExpired), string(models.BookingRequestScheduled))
		}
		if !provider.IsActive {
			return validationError("provider is inactive")
		}
		personID = provider.PersonID

		if err := s.locker.LockPersonDays(ctx, exec, personID, coveredDates(start, end, s.checker.Location())...); err != nil {
			return err
		}
		conflict, err := s.checker.CheckInterval(ctx, exec, personID, start, end, Exclusion{})
		if err != nil {
			return err
		}
		if conflict != nil {
			s.metrics.RecordConflict(conflict.Kind)
			return conflictError(*conflict, start, end)
		}

		session := models.ScheduledSession{
			ProviderID:      provider.ID,
			RequestID:       stringPtr(request.ID),
			ScheduledAt:     start,
			DurationMinutes: req.DurationMinutes,
			Status:          models.SessionScheduled,
			Location:        req.Location,
			MeetingLink:     req.MeetingLink,
			RequesterID:     stringPtr(request.RequesterID),
		}
		if err := s.sessions.Create(ctx, exec, &session); err != nil {
			return err
		}
		detail := models.SessionDetail{
			SessionID:   session.ID,
			Role:        provider.Role,
			RequesterID: request.RequesterID,
			Topic:       request.Topic,
			Description: request.Description,
			SessionType: request.SessionType,
		}
		if err := s.sessions.CreateDetail(ctx, exec, &detail); err != nil {
			return err
		}
		if err := s.requests.UpdateStatus(ctx, exec, request.ID, models.BookingRequestPending, models.BookingRequestScheduled, nil); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return stateError(entityBookingRequest, request.ID, string(request.Status), string(models.BookingRequestScheduled))
			}
			return err
		}
		request.Status = models.BookingRequestScheduled
		result = models.AcceptedBooking{Request: *request, Session: session, Detail: detail}
		return nil
	})
	if err != nil {
		return nil, txError(err, "booking request", "accept")
	}

	s.metrics.RecordTransition(entityBookingRequest, string(models.BookingRequestScheduled))
	s.metrics.RecordTransition(entitySession, string(models.SessionScheduled))
	s.invalidateSlots(ctx, personID)
	applog.FromContext(ctx, s.logger).Info("booking request accepted",
		zap.String("booking_request_id", result.Request.ID),
		zap.String("session_id", result.Session.ID),
		zap.Time("scheduled_at", result.Session.ScheduledAt))
	return &result, nil
}

// Decline rejects a pending request with a mandatory reason.
func (s *BookingService) Decline(ctx context.Context, requestID string, req dto.DeclineBookingRequest, actor *models.JWTClaims) (*models.BookingRequest, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, validationError("reason is required")
	}

	var declined *models.BookingRequest
	err := s.tx.WithinTx(ctx, nil, func(exec sqlx.ExtContext) error {
		request, err := s.requests.LockByID(ctx, exec, requestID)
		if err != nil {
			return lookupError(err, "booking request")
		}
		provider, err := s.providers.FindByID(ctx, exec, request.ProviderID)
		if err != nil {
			return lookupError(err, "provider")
		}
		if err := authorizeParty(actor, provider.PersonID); err != nil {
			return err
		}
		if request.Status != models.BookingRequestPending {
			return stateError(entityBookingRequest, request.ID, string(request.Status), string(models.BookingRequestDeclined))
		}
		if err := s.requests.UpdateStatus(ctx, exec, request.ID, models.BookingRequestPending, models.BookingRequestDeclined, &reason); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return stateError(entityBookingRequest, request.ID, string(request.Status), string(models.BookingRequestDeclined))
			}
			return err
		}
		request.Status = models.BookingRequestDeclined
		request.DeclineReason = &reason
		declined = request
		return nil
	})
	if err != nil {
		return nil, txError(err, "booking request", "decline")
	}

	s.metrics.RecordTransition(entityBookingRequest, string(models.BookingRequestDeclined))
	applog.FromContext(ctx, s.logger).Info("booking request declined", zap.String("booking_request_id", declined.ID))
	return declined, nil
}

// Cancel cancels a scheduled session and declines its linked request in the same transaction.
func (s *BookingService) Cancel(ctx context.Context, sessionID string, req dto.CancelSessionRequest, actor *models.JWTClaims) (*models.ScheduledSession, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, validationError("reason is required")
	}
	return s.closeSession(ctx, sessionID, actor, models.SessionCancelled, func(exec sqlx.ExtContext, session *models.ScheduledSession) error {
		if err := s.sessions.Cancel(ctx, exec, session.ID, reason); err != nil {
			return err
		}
		session.CancellationReason = &reason
		if session.RequestID == nil {
			return nil
		}
		return s.cascadeRequest(ctx, exec, *session.RequestID, models.BookingRequestDeclined, &reason)
	})
}

// Complete marks a scheduled session completed and completes its linked request.
func (s *BookingService) Complete(ctx context.Context, sessionID string, req dto.CompleteSessionRequest, actor *models.JWTClaims) (*models.ScheduledSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	return s.closeSession(ctx, sessionID, actor, models.SessionCompleted, func(exec sqlx.ExtContext, session *models.ScheduledSession) error {
		if err := s.sessions.Complete(ctx, exec, session.ID, req.Notes); err != nil {
			return err
		}
		session.CompletionNotes = req.Notes
		if session.RequestID == nil {
			return nil
		}
		return s.cascadeRequest(ctx, exec, *session.RequestID, models.BookingRequestCompleted, nil)
	})
}

func (s *BookingService) closeSession(
	ctx context.Context,
	sessionID string,
	actor *models.JWTClaims,
	target models.SessionStatus,
	apply func(exec sqlx.ExtContext, session *models.ScheduledSession) error,
) (*models.ScheduledSession, error) {
	var (
		closed   *models.ScheduledSession
		personID string
	)
	err := s.tx.WithinTx(ctx, nil, func(exec sqlx.ExtContext) error {
		session, err := s.sessions.LockByID(ctx, exec, sessionID)
		if err != nil {
			return lookupError(err, "session")
		}
		provider, err := s.providers.FindByID(ctx, exec, session.ProviderID)
		if err != nil {
			return lookupError(err, "provider")
		}
		requester := ""
		if session.RequesterID != nil {
			requester = *session.RequesterID
		}
		if err := authorizeParty(actor, provider.PersonID, requester); err != nil {
			return err
		}
		if session.Status != models.SessionScheduled {
			return stateError(entitySession, session.ID, string(session.Status), string(target))
		}
		from := session.Status
		if err := apply(exec, session); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return stateError(entitySession, session.ID, string(from), string(target))
			}
			return err
		}
		session.Status = target
		closed = session
		personID = provider.PersonID
		return nil
	})
	if err != nil {
		return nil, txError(err, "session", "update")
	}

	s.metrics.RecordTransition(entitySession, string(target))
	s.invalidateSlots(ctx, personID)
	applog.FromContext(ctx, s.logger).Info("session closed", zap.String("session_id", closed.ID), zap.String("status", string(target)))
	return closed, nil
}

// cascadeRequest mirrors a session transition onto its linked request.
func (s *BookingService) cascadeRequest(ctx context.Context, exec sqlx.ExtContext, requestID string, to models.BookingRequestStatus, reason *string) error {
	err := s.requests.UpdateStatus(ctx, exec, requestID, models.BookingRequestScheduled, to, reason)
	if errors.Is(err, sql.ErrNoRows) {
		current, lookupErr := s.requests.FindByID(ctx, exec, requestID)
		if lookupErr != nil {
			return lookupError(lookupErr, "booking request")
		}
		return stateError(entityBookingRequest, requestID, string(current.Status), string(to))
	}
	if err == nil {
		s.metrics.RecordTransition(entityBookingRequest, string(to))
	}
	return err
}

// GetRequest loads a request visible to the actor.
func (s *BookingService) GetRequest(ctx context.Context, id string, actor *models.JWTClaims) (*models.BookingRequest, error) {
	request, err := s.requests.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, "booking request")
	}
	provider, err := s.providers.FindByID(ctx, nil, request.ProviderID)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	if err := authorizeParty(actor, provider.PersonID, request.RequesterID); err != nil {
		return nil, err
	}
	return request, nil
}

// ListProviderRequests lists requests addressed to a provider.
func (s *BookingService) ListProviderRequests(ctx context.Context, providerID string, query dto.BookingRequestQuery, actor *models.JWTClaims) ([]models.BookingRequest, *models.Pagination, error) {
	provider, err := s.providers.FindByID(ctx, nil, providerID)
	if err != nil {
		return nil, nil, lookupError(err, "provider")
	}
	if err := authorizeParty(actor, provider.PersonID); err != nil {
		return nil, nil, err
	}
	return s.listRequests(ctx, models.BookingRequestFilter{ProviderID: providerID}, query)
}

// ListRequesterRequests lists requests submitted by a requester.
func (s *BookingService) ListRequesterRequests(ctx context.Context, requesterID string, query dto.BookingRequestQuery, actor *models.JWTClaims) ([]models.BookingRequest, *models.Pagination, error) {
	if err := authorizeParty(actor, requesterID); err != nil {
		return nil, nil, err
	}
	return s.listRequests(ctx, models.BookingRequestFilter{RequesterID: requesterID}, query)
}

func (s *BookingService) listRequests(ctx context.Context, filter models.BookingRequestFilter, query dto.BookingRequestQuery) ([]models.BookingRequest, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request filter")
	}
	filter.Status = query.Status
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list booking requests")
	}
	return requests, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetSession loads a session visible to the actor.
func (s *BookingService) GetSession(ctx context.Context, id string, actor *models.JWTClaims) (*models.ScheduledSession, error) {
	session, err := s.sessions.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, "session")
	}
	provider, err := s.providers.FindByID(ctx, nil, session.ProviderID)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	requester := ""
	if session.RequesterID != nil {
		requester = *session.RequesterID
	}
	if err := authorizeParty(actor, provider.PersonID, requester); err != nil {
		return nil, err
	}
	return session, nil
}

// ListProviderSessions lists a provider's sessions starting on dates within [from, to].
func (s *BookingService) ListProviderSessions(ctx context.Context, providerID string, from, to models.Date, actor *models.JWTClaims) ([]models.ScheduledSession, error) {
	if to.Before(from) {
		return nil, validationError("to must not be before from")
	}
	provider, err := s.providers.FindByID(ctx, nil, providerID)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	if err := authorizeParty(actor, provider.PersonID); err != nil {
		return nil, err
	}
	loc := s.checker.Location()
	sessions, err := s.sessions.ListByProvider(ctx, providerID, from.At(0, loc), to.AddDays(1).At(0, loc))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

func (s *BookingService) invalidateSlots(ctx context.Context, personID string) {
	if personID == "" {
		return
	}
	if err := s.cache.InvalidatePerson(ctx, personID); err != nil {
		applog.FromContext(ctx, s.logger).Warn("slot cache invalidation failed", zap.String("person_id", personID), zap.Error(err))
	}
}

// coveredDates lists the local calendar dates touched by [start, end).
func coveredDates(start, end time.Time, loc *time.Location) []models.Date {
	if loc == nil {
		loc = time.UTC
	}
	first := models.DateOf(start.In(loc))
	last := models.DateOf(end.Add(-time.Nanosecond).In(loc))
	dates := []models.Date{first}
	for date := first.AddDays(1); !date.After(last); date = date.AddDays(1) {
		dates = append(dates, date)
	}
	return dates
}
