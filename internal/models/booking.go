package models

import "time"

// BookingRequestStatus captures request lifecycle phases.
type BookingRequestStatus string

const (
	BookingRequestPending   BookingRequestStatus = "pending"
	BookingRequestScheduled BookingRequestStatus = "scheduled"
	BookingRequestCompleted BookingRequestStatus = "completed"
	BookingRequestDeclined  BookingRequestStatus = "declined"
	BookingRequestExpired   BookingRequestStatus = "expired"
)

// SessionType describes where a session takes place.
type SessionType string

const (
	SessionTypeOnline   SessionType = "online"
	SessionTypePhysical SessionType = "physical"
)

// Urgency ranks how soon the requester needs a session.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// BookingRequest is a requester's ask for time with a provider.
type BookingRequest struct {
	ID            string               `db:"id" json:"id"`
	RequesterID   string               `db:"requester_id" json:"requester_id"`
	ProviderID    string               `db:"provider_id" json:"provider_id"`
	Topic         string               `db:"topic" json:"topic"`
	Description   string               `db:"description" json:"description"`
	PreferredTime time.Time            `db:"preferred_time" json:"preferred_time"`
	SessionType   SessionType          `db:"session_type" json:"session_type"`
	Urgency       Urgency              `db:"urgency" json:"urgency"`
	Status        BookingRequestStatus `db:"status" json:"status"`
	RequestedAt   time.Time            `db:"requested_at" json:"requested_at"`
	ExpiryAt      time.Time            `db:"expiry_at" json:"expiry_at"`
	DeclineReason *string              `db:"decline_reason" json:"decline_reason,omitempty"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}

// BookingRequestFilter narrows request listings.
type BookingRequestFilter struct {
	ProviderID  string
	RequesterID string
	Status      BookingRequestStatus
	Page        int
	PageSize    int
}
