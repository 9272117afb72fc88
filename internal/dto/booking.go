package dto

import (
	"time"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

// CreateProviderRequest registers a bookable role for a person.
type CreateProviderRequest struct {
	PersonID    string              `json:"person_id" validate:"required"`
	Role        models.ProviderRole `json:"role" validate:"required,oneof=mentor counsellor tutor"`
	DisplayName string              `json:"display_name" validate:"required,max=120"`
}

// UpsertRuleRequest declares a weekly availability window.
type UpsertRuleRequest struct {
	DayOfWeek int                `json:"day_of_week" validate:"min=0,max=6"`
	StartTime models.MinuteOfDay `json:"start_time"`
	EndTime   models.MinuteOfDay `json:"end_time"`
}

// AddExceptionRequest declares a date override. Start and end are given together or not at all.
type AddExceptionRequest struct {
	Date      models.Date          `json:"date"`
	StartTime *models.MinuteOfDay  `json:"start_time,omitempty"`
	EndTime   *models.MinuteOfDay  `json:"end_time,omitempty"`
	Type      models.ExceptionType `json:"type" validate:"required,oneof=unavailable custom_available"`
	Reason    *string              `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// SlotQuery narrows an availability listing. Zero values fall back to configured defaults.
type SlotQuery struct {
	From        *models.Date
	To          *models.Date
	Granularity int
}

// CreateBookingRequest is submitted by a requester asking for provider time.
type CreateBookingRequest struct {
	RequesterID   string             `json:"requester_id"`
	ProviderID    string             `json:"provider_id" validate:"required"`
	Topic         string             `json:"topic" validate:"required,max=200"`
	Description   string             `json:"description" validate:"max=4000"`
	PreferredTime time.Time          `json:"preferred_time" validate:"required"`
	SessionType   models.SessionType `json:"session_type" validate:"required,oneof=online physical"`
	Urgency       models.Urgency     `json:"urgency" validate:"omitempty,oneof=low medium high"`
}

// AcceptBookingRequest schedules a pending request.
type AcceptBookingRequest struct {
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1"`
	Location        *string   `json:"location,omitempty" validate:"omitempty,max=255"`
	MeetingLink     *string   `json:"meeting_link,omitempty" validate:"omitempty,url"`
}

// DeclineBookingRequest rejects a pending request.
type DeclineBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// CancelSessionRequest cancels a scheduled session.
type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// CompleteSessionRequest closes a scheduled session.
type CompleteSessionRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// BookingRequestQuery filters request listings.
type BookingRequestQuery struct {
	Status   models.BookingRequestStatus `form:"status" validate:"omitempty,oneof=pending scheduled completed declined expired"`
	Page     int                         `form:"page"`
	PageSize int                         `form:"page_size"`
}

// CreateRecurringBookingRequest reserves a weekly window.
type CreateRecurringBookingRequest struct {
	RequesterID  string             `json:"requester_id"`
	ProviderID   string             `json:"provider_id" validate:"required"`
	Recurring    *bool              `json:"recurring,omitempty"`
	DayOfWeek    int                `json:"day_of_week" validate:"min=0,max=6"`
	StartTime    models.MinuteOfDay `json:"start_time"`
	EndTime      models.MinuteOfDay `json:"end_time"`
	StartDate    models.Date        `json:"start_date"`
	EndDate      *models.Date       `json:"end_date,omitempty"`
	SessionsPaid int                `json:"sessions_paid" validate:"min=0"`
}

// UpdateRecurringBookingStatusRequest moves a booking along its lifecycle.
type UpdateRecurringBookingStatusRequest struct {
	Status models.RecurringBookingStatus `json:"status" validate:"required,oneof=confirmed active completed cancelled"`
}

// RescheduleRequest moves one occurrence of a recurring booking.
type RescheduleRequest struct {
	OriginalDate models.Date            `json:"original_date"`
	NewDate      models.Date            `json:"new_date"`
	NewStartTime models.MinuteOfDay     `json:"new_start_time"`
	NewEndTime   models.MinuteOfDay     `json:"new_end_time"`
	RequestedBy  models.RescheduleParty `json:"requested_by" validate:"required,oneof=provider requester"`
	Reason       *string                `json:"reason,omitempty" validate:"omitempty,max=1000"`
}
