package models

import "time"

// RecurringBookingStatus captures multi-session booking lifecycle phases.
type RecurringBookingStatus string

const (
	RecurringBookingPending   RecurringBookingStatus = "pending"
	RecurringBookingConfirmed RecurringBookingStatus = "confirmed"
	RecurringBookingActive    RecurringBookingStatus = "active"
	RecurringBookingCancelled RecurringBookingStatus = "cancelled"
	RecurringBookingCompleted RecurringBookingStatus = "completed"
)

// Holds reports whether a booking in this status reserves provider time.
func (s RecurringBookingStatus) Holds() bool {
	switch s {
	case RecurringBookingPending, RecurringBookingConfirmed, RecurringBookingActive:
		return true
	}
	return false
}

// RecurringBooking reserves the same weekly window for a requester across many sessions.
type RecurringBooking struct {
	ID                string                 `db:"id" json:"id"`
	RequesterID       string                 `db:"requester_id" json:"requester_id"`
	ProviderID        string                 `db:"provider_id" json:"provider_id"`
	Recurring         bool                   `db:"recurring" json:"recurring"`
	DayOfWeek         int                    `db:"day_of_week" json:"day_of_week"`
	StartTime         MinuteOfDay            `db:"start_minute" json:"start_time"`
	EndTime           MinuteOfDay            `db:"end_minute" json:"end_time"`
	StartDate         Date                   `db:"start_date" json:"start_date"`
	EndDate           *Date                  `db:"end_date" json:"end_date,omitempty"`
	SessionsPaid      int                    `db:"sessions_paid" json:"sessions_paid"`
	SessionsCompleted int                    `db:"sessions_completed" json:"sessions_completed"`
	Status            RecurringBookingStatus `db:"status" json:"status"`
	CreatedAt         time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time              `db:"updated_at" json:"updated_at"`
}

// OccursOn reports whether the booking has a regular occurrence on date.
func (b RecurringBooking) OccursOn(date Date) bool {
	if int(date.Weekday()) != b.DayOfWeek || date.Before(b.StartDate) {
		return false
	}
	if b.EndDate != nil && date.After(*b.EndDate) {
		return false
	}
	if !b.Recurring && !date.Equal(b.StartDate) {
		return false
	}
	return true
}

// RescheduleStatus captures reschedule review phases.
type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleApproved RescheduleStatus = "approved"
	RescheduleRejected RescheduleStatus = "rejected"
)

// RescheduleParty identifies who asked to move an occurrence.
type RescheduleParty string

const (
	RescheduleByProvider  RescheduleParty = "provider"
	RescheduleByRequester RescheduleParty = "requester"
)

// Reschedule moves a single occurrence of a recurring booking. Rows are append-only history.
type Reschedule struct {
	ID           string           `db:"id" json:"id"`
	BookingID    string           `db:"booking_id" json:"booking_id"`
	OriginalDate Date             `db:"original_date" json:"original_date"`
	NewDate      Date             `db:"new_date" json:"new_date"`
	NewStartTime MinuteOfDay      `db:"new_start_time" json:"new_start_time"`
	NewEndTime   MinuteOfDay      `db:"new_end_time" json:"new_end_time"`
	RequestedBy  RescheduleParty  `db:"requested_by" json:"requested_by"`
	Reason       *string          `db:"reason" json:"reason,omitempty"`
	Status       RescheduleStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// ProviderRecurringBooking is a recurring booking annotated with its provider's role.
type ProviderRecurringBooking struct {
	RecurringBooking
	Role ProviderRole `db:"role" json:"role"`
}

// ProviderReschedule is an approved reschedule annotated with the booking's provider.
type ProviderReschedule struct {
	Reschedule
	ProviderID string       `db:"provider_id" json:"provider_id"`
	Role       ProviderRole `db:"role" json:"role"`
}
