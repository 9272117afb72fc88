package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
	applog "github.com/noah-isme/edu-booking-api/pkg/logger"
)

const (
	entityRecurringBooking = "recurring_booking"
	entityReschedule       = "reschedule"
)

type recurringBookingStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, booking *models.RecurringBooking) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringBooking, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringBooking, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.RecurringBookingStatus) error
	SetSessionsCompleted(ctx context.Context, exec sqlx.ExtContext, id string, completed int, status models.RecurringBookingStatus) error
	ListByProvider(ctx context.Context, providerID string) ([]models.RecurringBooking, error)
	ListByRequester(ctx context.Context, requesterID string) ([]models.RecurringBooking, error)
	CreateReschedule(ctx context.Context, exec sqlx.ExtContext, reschedule *models.Reschedule) error
	HasOpenReschedule(ctx context.Context, exec sqlx.ExtContext, bookingID string, original models.Date) (bool, error)
	LockReschedule(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Reschedule, error)
	UpdateRescheduleStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.RescheduleStatus) error
	ListReschedules(ctx context.Context, bookingID string) ([]models.Reschedule, error)
}

// recurringTransitions lists the allowed lifecycle moves; cancellation is handled separately.
var recurringTransitions = map[models.RecurringBookingStatus]models.RecurringBookingStatus{
	models.RecurringBookingPending:   models.RecurringBookingConfirmed,
	models.RecurringBookingConfirmed: models.RecurringBookingActive,
	models.RecurringBookingActive:    models.RecurringBookingCompleted,
}

// RecurringPolicy holds the tunables of recurring bookings.
type RecurringPolicy struct {
	AutoApproveReschedules bool
	// HorizonDays bounds how far ahead an open-ended booking is conflict-checked.
	HorizonDays int
}

// RecurringBookingServiceOption configures the recurring booking service.
type RecurringBookingServiceOption func(*RecurringBookingService)

// WithRecurringClock overrides the time source.
func WithRecurringClock(clock Clock) RecurringBookingServiceOption {
	return func(s *RecurringBookingService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRecurringCache invalidates slot listings after writes.
func WithRecurringCache(cache *CacheService) RecurringBookingServiceOption {
	return func(s *RecurringBookingService) { s.cache = cache }
}

// WithRecurringMetrics records transition and conflict counters.
func WithRecurringMetrics(metrics *MetricsService) RecurringBookingServiceOption {
	return func(s *RecurringBookingService) { s.metrics = metrics }
}

// RecurringBookingService manages multi-session bookings and reschedules of single occurrences.
type RecurringBookingService struct {
	tx        TxRunner
	providers providerLookup
	bookings  recurringBookingStore
	locker    personDayLocker
	checker   *ConflictChecker
	policy    RecurringPolicy
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	clock     Clock
}

// NewRecurringBookingService constructs the service.
func NewRecurringBookingService(
	tx TxRunner,
	providers providerLookup,
	bookings recurringBookingStore,
	locker personDayLocker,
	checker *ConflictChecker,
	policy RecurringPolicy,
	logger *zap.Logger,
	opts ...RecurringBookingServiceOption,
) *RecurringBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.HorizonDays <= 0 {
		policy.HorizonDays = 90
	}
	svc := &RecurringBookingService{
		tx:        tx,
		providers: providers,
		bookings:  bookings,
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

func (s *RecurringBookingService) today() models.Date {
	return models.DateOf(s.clock().In(s.checker.Location()))
}

// Create reserves a weekly window after checking every occurrence up to the end date
// (or the horizon for open-ended bookings) against the provider person's commitments.
func (s *RecurringBookingService) Create(ctx context.Context, req dto.CreateRecurringBookingRequest, actor *models.JWTClaims) (*models.RecurringBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring booking payload")
	}
	if actor != nil && !actor.IsAdmin() {
		if req.RequesterID != "" && req.RequesterID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot book on behalf of another person")
		}
		req.RequesterID = actor.UserID
	}
	if req.RequesterID == "" {
		return nil, validationError("requester_id is required")
	}
	if !req.StartTime.Valid() || !req.EndTime.Valid() || req.StartTime >= req.EndTime {
		return nil, validationError("start_time must be before end_time")
	}
	if req.StartDate.IsZero() {
		return nil, validationError("start_date is required")
	}
	if req.StartDate.Before(s.today()) {
		return nil, validationError("start_date must not be in the past")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, validationError("end_date must not be before start_date")
	}
	recurring := true
	if req.Recurring != nil {
		recurring = *req.Recurring
	}
	if !recurring && int(req.StartDate.Weekday()) != req.DayOfWeek {
		return nil, validationError("a single booking must fall on its day_of_week")
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

	booking := &models.RecurringBooking{
		RequesterID:  req.RequesterID,
		ProviderID:   provider.ID,
		Recurring:    recurring,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		SessionsPaid: req.SessionsPaid,
		Status:       models.RecurringBookingPending,
	}

	last := req.StartDate.AddDays(s.policy.HorizonDays)
	if req.EndDate != nil && req.EndDate.Before(last) {
		last = *req.EndDate
	}
	loc := s.checker.Location()
	var occurrences []models.Date
	for date := req.StartDate; !date.After(last); date = date.AddDays(1) {
		if booking.OccursOn(date) {
			occurrences = append(occurrences, date)
		}
	}

	// Occurrences past the horizon are not locked, so the write also runs serialisable.
	err = s.tx.WithinTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(exec sqlx.ExtContext) error {
		if err := s.locker.LockPersonDays(ctx, exec, provider.PersonID, occurrences...); err != nil {
			return err
		}
		commitments, err := s.checker.Commitments(ctx, exec, provider.PersonID, req.StartDate.At(0, loc), last.AddDays(1).At(0, loc))
		if err != nil {
			return err
		}
		for _, date := range occurrences {
			start, end := date.At(booking.StartTime, loc), date.At(booking.EndTime, loc)
			if conflict := FirstOverlap(commitments, start, end, Exclusion{}); conflict != nil {
				s.metrics.RecordConflict(conflict.Kind)
				return conflictError(*conflict, start, end)
			}
		}
		return s.bookings.Create(ctx, exec, booking)
	})
	if err != nil {
		return nil, txError(err, "recurring booking", "create")
	}

	s.metrics.RecordTransition(entityRecurringBooking, string(booking.Status))
	s.invalidateSlots(ctx, provider.PersonID)
	applog.FromContext(ctx, s.logger).Info("recurring booking created",
		zap.String("booking_id", booking.ID),
		zap.String("provider_id", booking.ProviderID),
		zap.Int("day_of_week", booking.DayOfWeek))
	return booking, nil
}

// Transition advances a booking along pending→confirmed→active→completed or cancels it.
func (s *RecurringBookingService) Transition(ctx context.Context, id string, req dto.UpdateRecurringBookingStatusRequest, actor *models.JWTClaims) (*models.RecurringBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	var (
		updated  *models.RecurringBooking
		personID string
	)
	err := s.tx.WithinTx(ctx, nil, func(exec sqlx.ExtContext) error {
		booking, provider, err := s.lockBooking(ctx, exec, id)
		if err != nil {
			return err
		}
		parties := []string{provider.PersonID}
		if req.Status == models.RecurringBookingCancelled {
			parties = append(parties, booking.RequesterID)
		}
		if err := authorizeParty(actor, parties...); err != nil {
			return err
		}
		if !allowedRecurringTransition(booking.Status, req.Status) {
			return stateError(entityRecurringBooking, booking.ID, string(booking.Status), string(req.Status))
		}
		if err := s.bookings.UpdateStatus(ctx, exec, booking.ID, booking.Status, req.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return stateError(entityRecurringBooking, booking.ID, string(booking.Status), string(req.Status))
			}
			return err
		}
		booking.Status = req.Status
		updated = booking
		personID = provider.PersonID
		return nil
	})
	if err != nil {
		return nil, txError(err, "recurring booking", "update")
	}

	s.metrics.RecordTransition(entityRecurringBooking, string(updated.Status))
	if !updated.Status.Holds() {
		s.invalidateSlots(ctx, personID)
	}
	applog.FromContext(ctx, s.logger).Info("recurring booking transitioned", zap.String("booking_id", updated.ID), zap.String("status", string(updated.Status)))
	return updated, nil
}

func allowedRecurringTransition(from, to models.RecurringBookingStatus) bool {
	if to == models.RecurringBookingCancelled {
		return from.Holds()
	}
	next, ok := recurringTransitions[from]
	return ok && next == to
}

// RecordCompletedSession increments the completed counter of an active booking and completes
// the booking once every paid session has been held.
func (s *RecurringBookingService) RecordCompletedSession(ctx context.Context, id string, actor *models.JWTClaims) (*models.RecurringBooking, error) {
	var (
		updated  *models.RecurringBooking
		personID string
	)
	err := s.tx.WithinTx(ctx, nil, func(exec sqlx.ExtContext) error {
		booking, provider, err := s.lockBooking(ctx, exec, id)
		if err != nil {
			return err
		}
		if err := authorizeParty(actor, provider.PersonID); err != nil {
			return err
		}
		if booking.Status != models.RecurringBookingActive {
			return stateError(entityRecurringBooking, booking.ID, string(booking.Status), string(models.RecurringBookingActive))
		}
		completed := booking.SessionsCompleted + 1
		status := booking.Status
		if booking.SessionsPaid > 0 && completed >= booking.SessionsPaid {
			status = models.RecurringBookingCompleted
		}
		if err := s.bookings.SetSessionsCompleted(ctx, exec, booking.ID, completed, status); err != nil {
			return err
		}
		booking.SessionsCompleted = completed
		booking.Status = status
		updated = booking
		personID = provider.PersonID
		return nil
	})
	if err != nil {
		return nil, txError(err, "recurring booking", "update")
	}
	if updated.Status == models.RecurringBookingCompleted {
		s.metrics.RecordTransition(entityRecurringBooking, string(updated.Status))
		s.invalidateSlots(ctx, personID)
	}
	return updated, nil
}

// Reschedule moves one occurrence of a booking. Each occurrence has at most one open move. The new
// interval is conflict-checked against every other commitment of the person, including the booking's
// other occurrences; only the occurrence being moved is excluded.
func (s *RecurringBookingService) Reschedule(ctx context.Context, bookingID string, req dto.RescheduleRequest, actor *models.JWTClaims) (*models.Reschedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	if !req.NewStartTime.Valid() || !req.NewEndTime.Valid() || req.NewStartTime >= req.NewEndTime {
		return nil, validationError("new_start_time must be before new_end_time")
	}
	if req.OriginalDate.IsZero() || req.NewDate.IsZero() {
		return nil, validationError("original_date and new_date are required")
	}
	if req.NewDate.Before(s.today()) {
		return nil, validationError("new_date must not be in the past")
	}

	var (
		created  *models.Reschedule
		personID string
	)
	err := s.tx.WithinTx(ctx, nil, func(exec sqlx.ExtContext) error {
		booking, provider, err := s.lockBooking(ctx, exec, bookingID)
		if err != nil {
			return err
		}
		party := booking.RequesterID
		if req.RequestedBy == models.RescheduleByProvider {
			party = provider.PersonID
		}
		if err := authorizeParty(actor, party); err != nil {
			return err
		}
		if !booking.Status.Holds() {
			return stateError(entityRecurringBooking, booking.ID, string(booking.Status), "rescheduled")
		}
		if !booking.OccursOn(req.OriginalDate) {
			return validationError("original_date is not an occurrence of this booking")
		}
		moved, err := s.bookings.HasOpenReschedule(ctx, exec, booking.ID, req.OriginalDate)
		if err != nil {
			return err
		}
		if moved {
			return appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("occurrence on %s already has a pending or approved reschedule", req.OriginalDate))
		}

		status := models.ReschedulePending
		if s.policy.AutoApproveReschedules {
			status = models.RescheduleApproved
			if err := s.ensureFree(ctx, exec, provider.PersonID, booking.ID, req.OriginalDate, req.NewDate, req.NewStartTime, req.NewEndTime); err != nil {
				return err
			}
		}
		reschedule := &models.Reschedule{
			BookingID:    booking.ID,
			OriginalDate: req.OriginalDate,
			NewDate:      req.NewDate,
			NewStartTime: req.NewStartTime,
			NewEndTime:   req.NewEndTime,
			RequestedBy:  req.RequestedBy,
			Reason:       req.Reason,
			Status:       status,
		}
		if err := s.bookings.CreateReschedule(ctx, exec, reschedule); err != nil {
			return err
		}
		created = reschedule
		personID = provider.PersonID
		return nil
	})
	if err != nil {
		return nil, txError(err, "reschedule", "create")
	}

	s.metrics.RecordTransition(entityReschedule, string(created.Status))
	if created.Status == models.RescheduleApproved {
		s.invalidateSlots(ctx, personID)
	}
	applog.FromContext(ctx, s.logger).Info("reschedule recorded",
		zap.String("reschedule_id", created.ID),
		zap.String("booking_id", created.BookingID),
		zap.String("status", string(created.Status)))
	return created, nil
}

// ApproveReschedule re-runs the conflict check and approves a pending reschedule.
func (s *RecurringBookingService) ApproveReschedule(ctx context.Context, id string, actor *models.JWTClaims) (*models.Reschedule, error) {
	return s.reviewReschedule(ctx, id, models.RescheduleApproved, actor)
}

// RejectReschedule rejects a pending reschedule; the original occurrence stays in place.
func (s *RecurringBookingService) RejectReschedule(ctx context.Context, id string, actor *models.JWTClaims) (*models.Reschedule, error) {
	return s.reviewReschedule(ctx, id, models.RescheduleRejected, actor)
}

func (s *RecurringBookingService) reviewReschedule(ctx context.Context, id string, to models.RescheduleStatus, actor *models.JWTClaims) (*models.Reschedule, error) {
	var (
		reviewed *models.Reschedule
		personID string
	)
	err := s.tx.WithinTx(ctx, nil, func(exec sqlx.ExtContext) error {
		reschedule, err := s.bookings.LockReschedule(ctx, exec, id)
		if err != nil {
			return lookupError(err, "reschedule")
		}
		booking, provider, err := s.lockBooking(ctx, exec, reschedule.BookingID)
		if err != nil {
			return err
		}
		// The counterparty of whoever asked reviews the move.
		reviewer := provider.PersonID
		if reschedule.RequestedBy == models.RescheduleByProvider {
			reviewer = booking.RequesterID
		}
		if err := authorizeParty(actor, reviewer); err != nil {
			return err
		}
		if reschedule.Status != models.ReschedulePending {
			return stateError(entityReschedule, reschedule.ID, string(reschedule.Status), string(to))
		}
		if to == models.RescheduleApproved {
			if !booking.Status.Holds() {
				return stateError(entityRecurringBooking, booking.ID, string(booking.Status), "rescheduled")
			}
			if err := s.ensureFree(ctx, exec, provider.PersonID, booking.ID, reschedule.OriginalDate, reschedule.NewDate, reschedule.NewStartTime, reschedule.NewEndTime); err != nil {
				return err
			}
		}
		if err := s.bookings.UpdateRescheduleStatus(ctx, exec, reschedule.ID, models.ReschedulePending, to); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return stateError(entityReschedule, reschedule.ID, string(reschedule.Status), string(to))
			}
			return err
		}
		reschedule.Status = to
		reviewed = reschedule
		personID = provider.PersonID
		return nil
	})
	if err != nil {
		return nil, txError(err, "reschedule", "review")
	}

	s.metrics.RecordTransition(entityReschedule, string(to))
	if to == models.RescheduleApproved {
		s.invalidateSlots(ctx, personID)
	}
	applog.FromContext(ctx, s.logger).Info("reschedule reviewed", zap.String("reschedule_id", reviewed.ID), zap.String("status", string(to)))
	return reviewed, nil
}

// ensureFree locks the affected person-days and rejects a move onto an occupied interval.
func (s *RecurringBookingService) ensureFree(ctx context.Context, exec sqlx.ExtContext, personID, bookingID string, original, date models.Date, start, end models.MinuteOfDay) error {
	if err := s.locker.LockPersonDays(ctx, exec, personID, original, date); err != nil {
		return err
	}
	conflict, err := s.checker.CheckConflict(ctx, exec, ConflictQuery{
		PersonID: personID,
		Date:     date,
		Start:    start,
		End:      end,
		Exclude:  Exclusion{BookingID: bookingID, Date: original},
	})
	if err != nil {
		return err
	}
	if conflict != nil {
		s.metrics.RecordConflict(conflict.Kind)
		loc := s.checker.Location()
		return conflictError(*conflict, date.At(start, loc), date.At(end, loc))
	}
	return nil
}

func (s *RecurringBookingService) lockBooking(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringBooking, *models.Provider, error) {
	booking, err := s.bookings.LockByID(ctx, exec, id)
	if err != nil {
		return nil, nil, lookupError(err, "recurring booking")
	}
	provider, err := s.providers.FindByID(ctx, exec, booking.ProviderID)
	if err != nil {
		return nil, nil, lookupError(err, "provider")
	}
	return booking, provider, nil
}

// Get loads a booking visible to the actor.
func (s *RecurringBookingService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RecurringBooking, error) {
	booking, err := s.bookings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, "recurring booking")
	}
	provider, err := s.providers.FindByID(ctx, nil, booking.ProviderID)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	if err := authorizeParty(actor, provider.PersonID, booking.RequesterID); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListByProvider lists bookings held with a provider.
func (s *RecurringBookingService) ListByProvider(ctx context.Context, providerID string, actor *models.JWTClaims) ([]models.RecurringBooking, error) {
	provider, err := s.providers.FindByID(ctx, nil, providerID)
	if err != nil {
		return nil, lookupError(err, "provider")
	}
	if err := authorizeParty(actor, provider.PersonID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recurring bookings")
	}
	return bookings, nil
}

// ListByRequester lists bookings made by a requester.
func (s *RecurringBookingService) ListByRequester(ctx context.Context, requesterID string, actor *models.JWTClaims) ([]models.RecurringBooking, error) {
	if err := authorizeParty(actor, requesterID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recurring bookings")
	}
	return bookings, nil
}

// ListReschedules returns the reschedule history of a booking.
func (s *RecurringBookingService) ListReschedules(ctx context.Context, bookingID string, actor *models.JWTClaims) ([]models.Reschedule, error) {
	if _, err := s.Get(ctx, bookingID, actor); err != nil {
		return nil, err
	}
	reschedules, err := s.bookings.ListReschedules(ctx, bookingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reschedules")
	}
	return reschedules, nil
}

func (s *RecurringBookingService) invalidateSlots(ctx context.Context, personID string) {
	if personID == "" {
		return
	}
	if err := s.cache.InvalidatePerson(ctx, personID); err != nil {
		applog.FromContext(ctx, s.logger).Warn("slot cache invalidation failed", zap.String("person_id", personID), zap.Error(err))
	}
}
