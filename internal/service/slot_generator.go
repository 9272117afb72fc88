package service

import (
	"sort"
	"time"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

// DefaultSlotGranularity is the slot length used when callers pass none.
const DefaultSlotGranularity = 60

// SlotInput carries everything slot materialisation depends on.
type SlotInput struct {
	Rules       []models.RecurringAvailabilityRule
	Exceptions  []models.AvailabilityException
	Commitments []models.Commitment
	From        models.Date
	To          models.Date
	Granularity int
	Now         time.Time
	Location    *time.Location
}

type minuteWindow struct {
	start models.MinuteOfDay
	end   models.MinuteOfDay
}

func (w minuteWindow) overlaps(other minuteWindow) bool {
	return !(w.end <= other.start || w.start >= other.end)
}

func (w minuteWindow) contains(other minuteWindow) bool {
	return w.start <= other.start && w.end >= other.end
}

// GenerateSlots materialises bookable slots for every date in [From, To].
// It has no side effects; equal inputs always produce equal output ordered by date then start time.
func GenerateSlots(in SlotInput) []models.Slot {
	granularity := in.Granularity
	if granularity <= 0 {
		granularity = DefaultSlotGranularity
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	if in.From.IsZero() || in.To.IsZero() || in.To.Before(in.From) {
		return []models.Slot{}
	}

	exceptionsByDate := make(map[string][]models.AvailabilityException)
	for _, exception := range in.Exceptions {
		key := exception.Date.String()
		exceptionsByDate[key] = append(exceptionsByDate[key], exception)
	}

	slots := make([]models.Slot, 0)
	for date := in.From; !date.After(in.To); date = date.AddDays(1) {
		exceptions := exceptionsByDate[date.String()]
		if blockedAllDay(exceptions) {
			continue
		}
		blackouts, openings := partialExceptions(exceptions)

		windows := make([]minuteWindow, 0, len(in.Rules)+len(openings))
		for _, rule := range in.Rules {
			if !rule.IsActive || rule.DayOfWeek != int(date.Weekday()) || rule.StartTime >= rule.EndTime {
				continue
			}
			window := minuteWindow{start: rule.StartTime, end: rule.EndTime}
			if suppressedBy(window, blackouts) {
				continue
			}
			windows = append(windows, window)
		}
		windows = append(windows, openings...)

		for _, window := range mergeWindows(windows) {
			for start := window.start; start+models.MinuteOfDay(granularity) <= window.end; start += models.MinuteOfDay(granularity) {
				increment := minuteWindow{start: start, end: start + models.MinuteOfDay(granularity)}
				startsAt := date.At(increment.start, loc)
				endsAt := date.At(increment.end, loc)
				// An increment inside a spring-forward gap has no real duration.
				if !startsAt.After(in.Now) || !endsAt.After(startsAt) {
					continue
				}
				if overlapsAny(increment, blackouts) || collides(startsAt, endsAt, in.Commitments) {
					continue
				}
				slots = append(slots, models.Slot{
					Date:      date,
					StartTime: increment.start,
					EndTime:   increment.end,
					StartsAt:  startsAt,
					EndsAt:    endsAt,
				})
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots
}

func blockedAllDay(exceptions []models.AvailabilityException) bool {
	for _, exception := range exceptions {
		if exception.Type == models.ExceptionUnavailable && exception.WholeDay() {
			return true
		}
	}
	return false
}

func partialExceptions(exceptions []models.AvailabilityException) (blackouts, openings []minuteWindow) {
	for _, exception := range exceptions {
		if exception.WholeDay() || *exception.StartTime >= *exception.EndTime {
			continue
		}
		window := minuteWindow{start: *exception.StartTime, end: *exception.EndTime}
		switch exception.Type {
		case models.ExceptionUnavailable:
			blackouts = append(blackouts, window)
		case models.ExceptionCustomAvailable:
			openings = append(openings, window)
		}
	}
	return blackouts, openings
}

// suppressedBy drops a rule for the day only when a blackout wholly contains it.
func suppressedBy(rule minuteWindow, blackouts []minuteWindow) bool {
	for _, blackout := range blackouts {
		if blackout.contains(rule) {
			return true
		}
	}
	return false
}

func overlapsAny(increment minuteWindow, windows []minuteWindow) bool {
	for _, window := range windows {
		if increment.overlaps(window) {
			return true
		}
	}
	return false
}

func collides(start, end time.Time, commitments []models.Commitment) bool {
	for _, commitment := range commitments {
		if commitment.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// mergeWindows folds overlapping windows so no two increments of a day can overlap.
func mergeWindows(windows []minuteWindow) []minuteWindow {
	if len(windows) == 0 {
		return nil
	}
	sorted := append([]minuteWindow(nil), windows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end < sorted[j].end
	})
	merged := []minuteWindow{sorted[0]}
	for _, window := range sorted[1:] {
		last := &merged[len(merged)-1]
		if window.start < last.end {
			if window.end > last.end {
				last.end = window.end
			}
			continue
		}
		merged = append(merged, window)
	}
	return merged
}
