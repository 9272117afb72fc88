package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

const (
	recurringBookingColumns = `id, requester_id, provider_id, recurring, day_of_week, start_minute, end_minute, start_date, end_date,
	sessions_paid, sessions_completed, status, created_at, updated_at`
	rescheduleColumns = `id, booking_id, original_date, new_date, new_start_time, new_end_time, requested_by, reason, status,
	created_at, updated_at`
)

// RecurringBookingRepository persists multi-session bookings and their reschedule history.
type RecurringBookingRepository struct {
	db *sqlx.DB
}

// NewRecurringBookingRepository constructs a recurring booking repository.
func NewRecurringBookingRepository(db *sqlx.DB) *RecurringBookingRepository {
	return &RecurringBookingRepository{db: db}
}

func (r *RecurringBookingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a recurring booking.
func (r *RecurringBookingRepository) Create(ctx context.Context, exec sqlx.ExtContext, booking *models.RecurringBooking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Status == "" {
		booking.Status = models.RecurringBookingPending
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	const query = `
INSERT INTO recurring_bookings (id, requester_id, provider_id, recurring, day_of_week, start_minute, end_minute, start_date,
	end_date, sessions_paid, sessions_completed, status, created_at, updated_at)
VALUES (:id, :requester_id, :provider_id, :recurring, :day_of_week, :start_minute, :end_minute, :start_date,
	:end_date, :sessions_paid, :sessions_completed, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, booking); err != nil {
		return fmt.Errorf("insert recurring booking: %w", err)
	}
	return nil
}

// FindByID loads a booking without locking it.
func (r *RecurringBookingRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringBooking, error) {
	query := `SELECT ` + recurringBookingColumns + ` FROM recurring_bookings WHERE id = $1`
	var booking models.RecurringBooking
	if err := sqlx.GetContext(ctx, r.exec(exec), &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// LockByID loads a booking holding its row lock.
func (r *RecurringBookingRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringBooking, error) {
	query := `SELECT ` + recurringBookingColumns + ` FROM recurring_bookings WHERE id = $1 FOR UPDATE`
	var booking models.RecurringBooking
	if err := sqlx.GetContext(ctx, r.exec(exec), &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus moves a booking between statuses. sql.ErrNoRows means the row left the expected status.
func (r *RecurringBookingRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.RecurringBookingStatus) error {
	const query = `UPDATE recurring_bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return affectOne(r.exec(exec).ExecContext(ctx, query, to, time.Now().UTC(), id, from))
}

// SetSessionsCompleted stores the completed counter and the resulting status.
func (r *RecurringBookingRepository) SetSessionsCompleted(ctx context.Context, exec sqlx.ExtContext, id string, completed int, status models.RecurringBookingStatus) error {
	const query = `UPDATE recurring_bookings SET sessions_completed = $1, status = $2, updated_at = $3 WHERE id = $4`
	return affectOne(r.exec(exec).ExecContext(ctx, query, completed, status, time.Now().UTC(), id))
}

// ListByProvider returns bookings held with a provider.
func (r *RecurringBookingRepository) ListByProvider(ctx context.Context, providerID string) ([]models.RecurringBooking, error) {
	query := `SELECT ` + recurringBookingColumns + ` FROM recurring_bookings WHERE provider_id = $1 ORDER BY start_date, day_of_week, start_minute`
	var bookings []models.RecurringBooking
	if err := r.db.SelectContext(ctx, &bookings, query, providerID); err != nil {
		return nil, fmt.Errorf("list recurring bookings by provider: %w", err)
	}
	return bookings, nil
}

// ListByRequester returns bookings made by a requester.
func (r *RecurringBookingRepository) ListByRequester(ctx context.Context, requesterID string) ([]models.RecurringBooking, error) {
	query := `SELECT ` + recurringBookingColumns + ` FROM recurring_bookings WHERE requester_id = $1 ORDER BY start_date, day_of_week, start_minute`
	var bookings []models.RecurringBooking
	if err := r.db.SelectContext(ctx, &bookings, query, requesterID); err != nil {
		return nil, fmt.Errorf("list recurring bookings by requester: %w", err)
	}
	return bookings, nil
}

// CreateReschedule appends a reschedule record to a booking's history.
func (r *RecurringBookingRepository) CreateReschedule(ctx context.Context, exec sqlx.ExtContext, reschedule *models.Reschedule) error {
	if reschedule.ID == "" {
		reschedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reschedule.CreatedAt = now
	reschedule.UpdatedAt = now
	const query = `
INSERT INTO reschedules (id, booking_id, original_date, new_date, new_start_time, new_end_time, requested_by, reason, status,
	created_at, updated_at)
VALUES (:id, :booking_id, :original_date, :new_date, :new_start_time, :new_end_time, :requested_by, :reason, :status,
	:created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, reschedule); err != nil {
		return fmt.Errorf("insert reschedule: %w", err)
	}
	return nil
}

// HasOpenReschedule reports whether the occurrence of bookingID on original already has a pending or
// approved reschedule.
func (r *RecurringBookingRepository) HasOpenReschedule(ctx context.Context, exec sqlx.ExtContext, bookingID string, original models.Date) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM reschedules
	WHERE booking_id = $1 AND original_date = $2 AND status IN ('pending', 'approved')
)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, bookingID, original); err != nil {
		return false, fmt.Errorf("check open reschedule: %w", err)
	}
	return exists, nil
}

// LockReschedule loads a reschedule holding its row lock.
func (r *RecurringBookingRepository) LockReschedule(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Reschedule, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedules WHERE id = $1 FOR UPDATE`
	var reschedule models.Reschedule
	if err := sqlx.GetContext(ctx, r.exec(exec), &reschedule, query, id); err != nil {
		return nil, err
	}
	return &reschedule, nil
}

// UpdateRescheduleStatus reviews a pending reschedule.
func (r *RecurringBookingRepository) UpdateRescheduleStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.RescheduleStatus) error {
	const query = `UPDATE reschedules SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return affectOne(r.exec(exec).ExecContext(ctx, query, to, time.Now().UTC(), id, from))
}

// ListReschedules returns a booking's reschedule history, oldest first.
func (r *RecurringBookingRepository) ListReschedules(ctx context.Context, bookingID string) ([]models.Reschedule, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedules WHERE booking_id = $1 ORDER BY created_at`
	var reschedules []models.Reschedule
	if err := r.db.SelectContext(ctx, &reschedules, query, bookingID); err != nil {
		return nil, fmt.Errorf("list reschedules: %w", err)
	}
	return reschedules, nil
}

func affectOne(result sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
