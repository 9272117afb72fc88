package models

import (
	"fmt"
	"time"
)

// CommitmentKind names the table a commitment was derived from.
type CommitmentKind string

const (
	CommitmentSession          CommitmentKind = "session"
	CommitmentRecurringBooking CommitmentKind = "recurring_booking"
	CommitmentReschedule       CommitmentKind = "reschedule"
)

// Commitment is a concrete block of a person's time held under any provider role.
type Commitment struct {
	Kind        CommitmentKind `db:"-" json:"kind"`
	ID          string         `db:"id" json:"id"`
	BookingID   string         `db:"booking_id" json:"booking_id,omitempty"`
	ProviderID  string         `db:"provider_id" json:"provider_id"`
	Role        ProviderRole   `db:"role" json:"role"`
	Start       time.Time      `db:"starts_at" json:"start"`
	End         time.Time      `db:"ends_at" json:"end"`
	Description string         `db:"-" json:"description"`
	// Occurrence is the date of a recurring booking occurrence; zero for other kinds.
	Occurrence  Date           `db:"-" json:"-"`
}

// Overlaps applies NOT(end1<=start2 OR start1>=end2).
func (c Commitment) Overlaps(start, end time.Time) bool {
	return IntervalsOverlap(c.Start, c.End, start, end)
}

// IntervalsOverlap reports whether two half-open intervals intersect.
func IntervalsOverlap(start1, end1, start2, end2 time.Time) bool {
	return !(!end1.After(start2) || !start1.Before(end2))
}

// CommitmentConflictError names the commitment a candidate interval collided with.
type CommitmentConflictError struct {
	Commitment Commitment `json:"commitment"`
	Start      time.Time  `json:"candidate_start"`
	End        time.Time  `json:"candidate_end"`
}

func (e *CommitmentConflictError) Error() string {
	return fmt.Sprintf("candidate %s-%s overlaps %s %s (%s)",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339),
		e.Commitment.Kind, e.Commitment.ID, e.Commitment.Description)
}

// StateTransitionError reports an operation attempted from the wrong status.
type StateTransitionError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot transition from %s to %s", e.Entity, e.ID, e.From, e.To)
}
