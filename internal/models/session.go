package models

import "time"

// SessionStatus captures scheduled session lifecycle phases.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionExpired   SessionStatus = "expired"
)

// ScheduledSession is a confirmed meeting between a requester and a provider.
type ScheduledSession struct {
	ID                 string        `db:"id" json:"id"`
	ProviderID         string        `db:"provider_id" json:"provider_id"`
	RequestID          *string       `db:"request_id" json:"request_id,omitempty"`
	ScheduledAt        time.Time     `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes    int           `db:"duration_minutes" json:"duration_minutes"`
	Status             SessionStatus `db:"status" json:"status"`
	Location           *string       `db:"location" json:"location,omitempty"`
	MeetingLink        *string       `db:"meeting_link" json:"meeting_link,omitempty"`
	CancellationReason *string       `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CompletionNotes    *string       `db:"completion_notes" json:"completion_notes,omitempty"`
	RequesterID        *string       `db:"requester_id" json:"requester_id,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// EndsAt returns the end of the session interval.
func (s ScheduledSession) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// SessionDetail carries role-specific context captured when a request is accepted.
type SessionDetail struct {
	SessionID   string       `db:"session_id" json:"session_id"`
	Role        ProviderRole `db:"role" json:"role"`
	RequesterID string       `db:"requester_id" json:"requester_id"`
	Topic       string       `db:"topic" json:"topic"`
	Description string       `db:"description" json:"description"`
	SessionType SessionType  `db:"session_type" json:"session_type"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// AcceptedBooking bundles the rows written by an accept transition.
type AcceptedBooking struct {
	Request BookingRequest   `json:"request"`
	Session ScheduledSession `json:"session"`
	Detail  SessionDetail    `json:"detail"`
}
