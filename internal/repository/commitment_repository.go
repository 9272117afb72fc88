package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

// CommitmentRepository reads a person's booked time across every provider role they hold.
type CommitmentRepository struct {
	db *sqlx.DB
}

// NewCommitmentRepository constructs a commitment repository.
func NewCommitmentRepository(db *sqlx.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

func (r *CommitmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockPersonDays takes transaction-scoped advisory locks for each (person, date) pair.
// Keys are acquired in sorted order so overlapping callers cannot deadlock.
func (r *CommitmentRepository) LockPersonDays(ctx context.Context, exec sqlx.ExtContext, personID string, dates ...models.Date) error {
	keys := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		key := fmt.Sprintf("person:%s:%s", personID, date)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	for _, key := range keys {
		if _, err := r.exec(exec).ExecContext(ctx, query, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}
	return nil
}

// SessionsForPerson returns scheduled sessions of any of the person's providers overlapping [from, to).
func (r *CommitmentRepository) SessionsForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to time.Time) ([]models.Commitment, error) {
	const query = `SELECT s.id, s.provider_id, p.role, s.scheduled_at AS starts_at,
	s.scheduled_at + make_interval(mins => s.duration_minutes) AS ends_at
FROM scheduled_sessions s
JOIN providers p ON p.id = s.provider_id
WHERE p.person_id = $1 AND s.status = 'scheduled'
	AND s.scheduled_at < $3 AND s.scheduled_at + make_interval(mins => s.duration_minutes) > $2
ORDER BY s.scheduled_at`
	var commitments []models.Commitment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &commitments, query, personID, from, to); err != nil {
		return nil, fmt.Errorf("select person sessions: %w", err)
	}
	for i := range commitments {
		commitments[i].Kind = models.CommitmentSession
	}
	return commitments, nil
}

// RecurringForPerson returns the person's time-holding recurring bookings whose validity intersects [from, to].
func (r *CommitmentRepository) RecurringForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to models.Date) ([]models.ProviderRecurringBooking, error) {
	const query = `SELECT b.id, b.requester_id, b.provider_id, b.recurring, b.day_of_week, b.start_minute, b.end_minute,
	b.start_date, b.end_date, b.sessions_paid, b.sessions_completed, b.status, b.created_at, b.updated_at, p.role
FROM recurring_bookings b
JOIN providers p ON p.id = b.provider_id
WHERE p.person_id = $1 AND b.status IN ('pending', 'confirmed', 'active')
	AND b.start_date <= $3 AND (b.end_date IS NULL OR b.end_date >= $2)
ORDER BY b.start_date, b.id`
	var bookings []models.ProviderRecurringBooking
	if err := sqlx.SelectContext(ctx, r.exec(exec), &bookings, query, personID, from, to); err != nil {
		return nil, fmt.Errorf("select person recurring bookings: %w", err)
	}
	return bookings, nil
}

// ApprovedReschedulesForPerson returns approved reschedules of the person's live bookings that
// either land on or move away from a date within [from, to].
func (r *CommitmentRepository) ApprovedReschedulesForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to models.Date) ([]models.ProviderReschedule, error) {
	const query = `SELECT rs.id, rs.booking_id, rs.original_date, rs.new_date, rs.new_start_time, rs.new_end_time,
	rs.requested_by, rs.reason, rs.status, rs.created_at, rs.updated_at, b.provider_id, p.role
FROM reschedules rs
JOIN recurring_bookings b ON b.id = rs.booking_id
JOIN providers p ON p.id = b.provider_id
WHERE p.person_id = $1 AND rs.status = 'approved' AND b.status IN ('pending', 'confirmed', 'active')
	AND ((rs.new_date BETWEEN $2 AND $3) OR (rs.original_date BETWEEN $2 AND $3))
ORDER BY rs.created_at, rs.id`
	var reschedules []models.ProviderReschedule
	if err := sqlx.SelectContext(ctx, r.exec(exec), &reschedules, query, personID, from, to); err != nil {
		return nil, fmt.Errorf("select person reschedules: %w", err)
	}
	return reschedules, nil
}
