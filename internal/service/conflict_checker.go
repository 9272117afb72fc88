package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

// CommitmentReader loads a person's booked time across every role table.
type CommitmentReader interface {
	SessionsForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to time.Time) ([]models.Commitment, error)
	RecurringForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to models.Date) ([]models.ProviderRecurringBooking, error)
	ApprovedReschedulesForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to models.Date) ([]models.ProviderReschedule, error)
}

// ConflictQuery describes a candidate wall-clock interval on one date.
type ConflictQuery struct {
	PersonID string
	Date     models.Date
	Start    models.MinuteOfDay
	End      models.MinuteOfDay
	Exclude  Exclusion
}

// Exclusion names the single recurring occurrence a check ignores: the one being moved.
// Other occurrences and reschedules of the same booking still count.
type Exclusion struct {
	BookingID string
	Date      models.Date
}

func (e Exclusion) matches(c models.Commitment) bool {
	return e.BookingID != "" &&
		c.Kind == models.CommitmentRecurringBooking &&
		c.BookingID == e.BookingID &&
		c.Occurrence.Equal(e.Date)
}

// ConflictChecker detects overlaps against the union of a person's commitments in every provider role.
type ConflictChecker struct {
	reader   CommitmentReader
	location *time.Location
	logger   *zap.Logger
}

// NewConflictChecker constructs a conflict checker evaluating wall-clock times in loc.
func NewConflictChecker(reader CommitmentReader, loc *time.Location, logger *zap.Logger) *ConflictChecker {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictChecker{reader: reader, location: loc, logger: logger}
}

// Location returns the zone used to resolve wall-clock times.
func (c *ConflictChecker) Location() *time.Location {
	return c.location
}

// CheckConflict resolves the query to absolute time and returns the first overlapping commitment, or nil.
func (c *ConflictChecker) CheckConflict(ctx context.Context, exec sqlx.ExtContext, q ConflictQuery) (*models.Commitment, error) {
	if q.End <= q.Start {
		return nil, fmt.Errorf("candidate end %s must be after start %s", q.End, q.Start)
	}
	return c.CheckInterval(ctx, exec, q.PersonID, q.Date.At(q.Start, c.location), q.Date.At(q.End, c.location), q.Exclude)
}

// CheckInterval returns the first commitment of personID overlapping [start, end).
// Sources are scanned recurring bookings first, then approved reschedules, then sessions.
// The occurrence named by exclude is ignored.
func (c *ConflictChecker) CheckInterval(ctx context.Context, exec sqlx.ExtContext, personID string, start, end time.Time, exclude Exclusion) (*models.Commitment, error) {
	commitments, err := c.Commitments(ctx, exec, personID, start, end)
	if err != nil {
		return nil, err
	}
	found := FirstOverlap(commitments, start, end, exclude)
	if found != nil {
		c.logger.Debug("commitment conflict",
			zap.String("person_id", personID),
			zap.String("kind", string(found.Kind)),
			zap.String("commitment_id", found.ID))
	}
	return found, nil
}

// FirstOverlap scans commitments in order and returns the first one overlapping [start, end)
// that exclude does not match.
func FirstOverlap(commitments []models.Commitment, start, end time.Time, exclude Exclusion) *models.Commitment {
	for _, commitment := range commitments {
		if exclude.matches(commitment) {
			continue
		}
		if commitment.Overlaps(start, end) {
			found := commitment
			return &found
		}
	}
	return nil
}

// Commitments returns every commitment of personID overlapping [from, to), in source order.
func (c *ConflictChecker) Commitments(ctx context.Context, exec sqlx.ExtContext, personID string, from, to time.Time) ([]models.Commitment, error) {
	fromDate := models.DateOf(from.In(c.location))
	toDate := models.DateOf(to.In(c.location))

	bookings, err := c.reader.RecurringForPerson(ctx, exec, personID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("load recurring bookings: %w", err)
	}
	reschedules, err := c.reader.ApprovedReschedulesForPerson(ctx, exec, personID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("load reschedules: %w", err)
	}
	sessions, err := c.reader.SessionsForPerson(ctx, exec, personID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	moved := make(map[string]struct{}, len(reschedules))
	for _, reschedule := range reschedules {
		moved[reschedule.BookingID+"|"+reschedule.OriginalDate.String()] = struct{}{}
	}

	result := make([]models.Commitment, 0, len(bookings)+len(reschedules)+len(sessions))
	for _, booking := range bookings {
		for date := fromDate; !date.After(toDate); date = date.AddDays(1) {
			if !booking.OccursOn(date) {
				continue
			}
			if _, ok := moved[booking.ID+"|"+date.String()]; ok {
				continue
			}
			commitment := models.Commitment{
				Kind:       models.CommitmentRecurringBooking,
				ID:         booking.ID,
				BookingID:  booking.ID,
				ProviderID: booking.ProviderID,
				Role:       booking.Role,
				Start:      date.At(booking.StartTime, c.location),
				End:        date.At(booking.EndTime, c.location),
				Occurrence: date,
			}
			commitment.Description = fmt.Sprintf("%s recurring booking %s on %s %s-%s",
				booking.Role, booking.ID, date, booking.StartTime, booking.EndTime)
			if commitment.Overlaps(from, to) {
				result = append(result, commitment)
			}
		}
	}
	for _, reschedule := range reschedules {
		commitment := models.Commitment{
			Kind:       models.CommitmentReschedule,
			ID:         reschedule.ID,
			BookingID:  reschedule.BookingID,
			ProviderID: reschedule.ProviderID,
			Role:       reschedule.Role,
			Start:      reschedule.NewDate.At(reschedule.NewStartTime, c.location),
			End:        reschedule.NewDate.At(reschedule.NewEndTime, c.location),
		}
		commitment.Description = fmt.Sprintf("%s booking %s rescheduled to %s %s-%s",
			reschedule.Role, reschedule.BookingID, reschedule.NewDate, reschedule.NewStartTime, reschedule.NewEndTime)
		if commitment.Overlaps(from, to) {
			result = append(result, commitment)
		}
	}
	for _, session := range sessions {
		session.Kind = models.CommitmentSession
		session.Description = fmt.Sprintf("%s session %s at %s-%s",
			session.Role, session.ID,
			session.Start.In(c.location).Format("2006-01-02 15:04"), session.End.In(c.location).Format("15:04"))
		result = append(result, session)
	}
	return result, nil
}
