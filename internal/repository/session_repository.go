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

const sessionSelect = `SELECT s.id, s.provider_id, s.request_id, s.scheduled_at, s.duration_minutes, s.status, s.location,
	s.meeting_link, s.cancellation_reason, s.completion_notes, d.requester_id, s.created_at, s.updated_at
FROM scheduled_sessions s
LEFT JOIN session_details d ON d.session_id = s.id`

// SessionRepository persists scheduled sessions and their detail records.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ScheduledSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `
INSERT INTO scheduled_sessions (id, provider_id, request_id, scheduled_at, duration_minutes, status, location,
	meeting_link, cancellation_reason, completion_notes, created_at, updated_at)
VALUES (:id, :provider_id, :request_id, :scheduled_at, :duration_minutes, :status, :location,
	:meeting_link, :cancellation_reason, :completion_notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("insert scheduled session: %w", err)
	}
	return nil
}

// CreateDetail inserts the role-specific detail row of a session.
func (r *SessionRepository) CreateDetail(ctx context.Context, exec sqlx.ExtContext, detail *models.SessionDetail) error {
	detail.CreatedAt = time.Now().UTC()
	const query = `
INSERT INTO session_details (session_id, role, requester_id, topic, description, session_type, created_at)
VALUES (:session_id, :role, :requester_id, :topic, :description, :session_type, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, detail); err != nil {
		return fmt.Errorf("insert session detail: %w", err)
	}
	return nil
}

// FindByID loads a session without locking it.
func (r *SessionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSession, error) {
	query := sessionSelect + ` WHERE s.id = $1`
	var session models.ScheduledSession
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// LockByID loads a session and holds its row lock for the surrounding transaction.
func (r *SessionRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSession, error) {
	query := sessionSelect + ` WHERE s.id = $1 FOR UPDATE OF s`
	var session models.ScheduledSession
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Cancel moves a scheduled session to cancelled. sql.ErrNoRows means it was no longer scheduled.
func (r *SessionRepository) Cancel(ctx context.Context, exec sqlx.ExtContext, id, reason string) error {
	const query = `UPDATE scheduled_sessions SET status = 'cancelled', cancellation_reason = $1, updated_at = $2
WHERE id = $3 AND status = 'scheduled'`
	return r.transition(ctx, exec, query, reason, time.Now().UTC(), id)
}

// Complete moves a scheduled session to completed. sql.ErrNoRows means it was no longer scheduled.
func (r *SessionRepository) Complete(ctx context.Context, exec sqlx.ExtContext, id string, notes *string) error {
	const query = `UPDATE scheduled_sessions SET status = 'completed', completion_notes = $1, updated_at = $2
WHERE id = $3 AND status = 'scheduled'`
	return r.transition(ctx, exec, query, notes, time.Now().UTC(), id)
}

func (r *SessionRepository) transition(ctx context.Context, exec sqlx.ExtContext, query string, args ...interface{}) error {
	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update scheduled session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("scheduled session rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByProvider returns a provider's sessions starting within [from, to).
func (r *SessionRepository) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.ScheduledSession, error) {
	query := sessionSelect + ` WHERE s.provider_id = $1 AND s.scheduled_at >= $2 AND s.scheduled_at < $3 ORDER BY s.scheduled_at`
	var sessions []models.ScheduledSession
	if err := r.db.SelectContext(ctx, &sessions, query, providerID, from, to); err != nil {
		return nil, fmt.Errorf("list provider sessions: %w", err)
	}
	return sessions, nil
}
