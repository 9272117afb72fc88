package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

const bookingRequestColumns = `id, requester_id, provider_id, topic, description, preferred_time, session_type, urgency,
status, requested_at, expiry_at, decline_reason, updated_at`

// BookingRequestRepository persists booking requests and their status transitions.
type BookingRequestRepository struct {
	db *sqlx.DB
}

// NewBookingRequestRepository constructs a booking request repository.
func NewBookingRequestRepository(db *sqlx.DB) *BookingRequestRepository {
	return &BookingRequestRepository{db: db}
}

func (r *BookingRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a pending request.
func (r *BookingRequestRepository) Create(ctx context.Context, request *models.BookingRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.BookingRequestPending
	}
	request.UpdatedAt = request.RequestedAt
	const query = `
INSERT INTO booking_requests (id, requester_id, provider_id, topic, description, preferred_time, session_type, urgency,
	status, requested_at, expiry_at, decline_reason, updated_at)
VALUES (:id, :requester_id, :provider_id, :topic, :description, :preferred_time, :session_type, :urgency,
	:status, :requested_at, :expiry_at, :decline_reason, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("insert booking request: %w", err)
	}
	return nil
}

// FindByID loads a request without locking it.
func (r *BookingRequestRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + ` FROM booking_requests WHERE id = $1`
	var request models.BookingRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// LockByID loads a request and holds its row lock until the surrounding transaction ends.
func (r *BookingRequestRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + ` FROM booking_requests WHERE id = $1 FOR UPDATE`
	var request models.BookingRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateStatus moves a request from one status to another. It returns sql.ErrNoRows when the
// row is no longer in the expected status so concurrent writers cannot both win.
func (r *BookingRequestRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.BookingRequestStatus, declineReason *string) error {
	const query = `UPDATE booking_requests
SET status = $1, decline_reason = COALESCE($2, decline_reason), updated_at = $3
WHERE id = $4 AND status = $5`
	result, err := r.exec(exec).ExecContext(ctx, query, to, declineReason, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update booking request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("booking request status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExpirePending bulk-transitions every pending request whose expiry_at is at or before now.
func (r *BookingRequestRepository) ExpirePending(ctx context.Context, now time.Time) ([]string, error) {
	const query = `UPDATE booking_requests SET status = 'expired', updated_at = $1
WHERE status = 'pending' AND expiry_at <= $1
RETURNING id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, now); err != nil {
		return nil, fmt.Errorf("expire pending booking requests: %w", err)
	}
	return ids, nil
}

// DeclinePendingByProvider declines every pending request addressed to a provider.
func (r *BookingRequestRepository) DeclinePendingByProvider(ctx context.Context, exec sqlx.ExtContext, providerID, reason string) (int64, error) {
	const query = `UPDATE booking_requests SET status = 'declined', decline_reason = $1, updated_at = $2
WHERE provider_id = $3 AND status = 'pending'`
	result, err := r.exec(exec).ExecContext(ctx, query, reason, time.Now().UTC(), providerID)
	if err != nil {
		return 0, fmt.Errorf("decline provider booking requests: %w", err)
	}
	return result.RowsAffected()
}

// List returns requests matching the filter plus the total count before pagination.
func (r *BookingRequestRepository) List(ctx context.Context, filter models.BookingRequestFilter) ([]models.BookingRequest, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.ProviderID != "" {
		args = append(args, filter.ProviderID)
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM booking_requests`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count booking requests: %w", err)
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(`SELECT %s FROM booking_requests%s ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`,
		bookingRequestColumns, where, len(args)-1, len(args))
	var requests []models.BookingRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list booking requests: %w", err)
	}
	return requests, total, nil
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
