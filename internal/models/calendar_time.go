package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// MinutesPerDay bounds MinuteOfDay; 24:00 is accepted as an end-of-day marker.
	MinutesPerDay = 24 * 60
)

// MinuteOfDay is a wall-clock time expressed as minutes after midnight.
// It is stored as an integer column and serialised as "HH:MM".
type MinuteOfDay int

// ParseMinuteOfDay parses "HH:MM" (or "HH:MM:SS" with zero seconds).
func ParseMinuteOfDay(raw string) (MinuteOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("seconds are not supported in %q", raw)
	}
	value := MinuteOfDay(hour*60 + minute)
	if hour < 0 || value > MinutesPerDay {
		return 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return value, nil
}

// Valid reports whether the value lies within a single day.
func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m <= MinutesPerDay
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Duration converts the offset from midnight into a time.Duration.
func (m MinuteOfDay) Duration() time.Duration {
	return time.Duration(m) * time.Minute
}

// MarshalJSON renders the value as "HH:MM".
func (m MinuteOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts "HH:MM" strings.
func (m *MinuteOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseMinuteOfDay(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Date is a calendar day without a time component.
type Date struct {
	t time.Time
}

// NewDate constructs a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Weekday returns the day of week (Sunday = 0).
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether both values denote the same day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// At resolves the wall-clock minute on this date in loc. Minute 1440 is the next midnight.
// A time skipped by a DST jump resolves to the first instant after the gap.
func (d Date) At(minute MinuteOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, day := d.t.Date()
	at := time.Date(y, m, day, int(minute)/60, int(minute)%60, 0, 0, loc)
	want := int(minute) % MinutesPerDay
	if got := at.Hour()*60 + at.Minute(); got < want {
		at = at.Add(time.Duration(want-got) * time.Minute)
	}
	return at
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(raw string) error {
	if len(raw) > len(dateLayout) {
		raw = raw[:len(dateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.t.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD strings.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
