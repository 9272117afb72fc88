package models

import "time"

// RecurringAvailabilityRule is a weekly open-time window for a provider.
type RecurringAvailabilityRule struct {
	ID         string      `db:"id" json:"id"`
	ProviderID string      `db:"provider_id" json:"provider_id"`
	DayOfWeek  int         `db:"day_of_week" json:"day_of_week"`
	StartTime  MinuteOfDay `db:"start_minute" json:"start_time"`
	EndTime    MinuteOfDay `db:"end_minute" json:"end_time"`
	IsActive   bool        `db:"is_active" json:"is_active"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// ExceptionType distinguishes blackouts from one-off openings.
type ExceptionType string

const (
	ExceptionUnavailable     ExceptionType = "unavailable"
	ExceptionCustomAvailable ExceptionType = "custom_available"
)

// Valid reports whether the exception type is supported.
func (t ExceptionType) Valid() bool {
	return t == ExceptionUnavailable || t == ExceptionCustomAvailable
}

// AvailabilityException overrides the weekly calendar on a single date.
// Absent start/end times cover the whole day.
type AvailabilityException struct {
	ID         string        `db:"id" json:"id"`
	ProviderID string        `db:"provider_id" json:"provider_id"`
	Date       Date          `db:"exception_date" json:"date"`
	StartTime  *MinuteOfDay  `db:"start_minute" json:"start_time,omitempty"`
	EndTime    *MinuteOfDay  `db:"end_minute" json:"end_time,omitempty"`
	Type       ExceptionType `db:"type" json:"type"`
	Reason     *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// WholeDay reports whether the exception spans the entire date.
func (e AvailabilityException) WholeDay() bool {
	return e.StartTime == nil || e.EndTime == nil
}

// Slot is a derived, bookable window. It is never persisted.
type Slot struct {
	Date      Date        `json:"date"`
	StartTime MinuteOfDay `json:"start_time"`
	EndTime   MinuteOfDay `json:"end_time"`
	StartsAt  time.Time   `json:"starts_at"`
	EndsAt    time.Time   `json:"ends_at"`
}
