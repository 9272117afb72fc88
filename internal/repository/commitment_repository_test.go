package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

func TestCommitmentRepositoryLockPersonDaysSortedAndDeduplicated(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCommitmentRepository(db)
	lock := regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")
	mock.ExpectExec(lock).WithArgs("person:p-1:2026-10-19").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(lock).WithArgs("person:p-1:2026-10-20").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.LockPersonDays(context.Background(), nil, "p-1",
		models.NewDate(2026, time.October, 20),
		models.NewDate(2026, time.October, 19),
		models.NewDate(2026, time.October, 20),
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitmentRepositorySessionsForPersonAcrossRoles(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCommitmentRepository(db)
	from := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.person_id = $1 AND s.status = 'scheduled'")).
		WithArgs("p-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "role", "starts_at", "ends_at"}).
			AddRow("sess-tutor", "prov-tutor", "tutor", from.Add(9*time.Hour), from.Add(10*time.Hour)).
			AddRow("sess-mentor", "prov-mentor", "mentor", from.Add(14*time.Hour), from.Add(15*time.Hour)))

	commitments, err := repo.SessionsForPerson(context.Background(), nil, "p-1", from, to)
	require.NoError(t, err)
	require.Len(t, commitments, 2)
	for _, c := range commitments {
		assert.Equal(t, models.CommitmentSession, c.Kind)
	}
	assert.Equal(t, models.ProviderRoleMentor, commitments[1].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitmentRepositoryRecurringAndReschedules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCommitmentRepository(db)
	from := models.NewDate(2026, time.October, 19)
	to := from.AddDays(13)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("b.status IN ('pending', 'confirmed', 'active')")).
		WithArgs("p-1", "2026-10-19", "2026-11-01").
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, recurringRowColumns...), "role")).
			AddRow("rb-1", "student-1", "prov-1", true, 2, 900, 960, "2026-10-01", nil, 0, 0, "active", now, now, "tutor"))

	bookings, err := repo.RecurringForPerson(context.Background(), nil, "p-1", from, to)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.ProviderRoleTutor, bookings[0].Role)
	assert.Equal(t, "rb-1", bookings[0].ID)

	mock.ExpectQuery(regexp.QuoteMeta("rs.status = 'approved'")).
		WithArgs("p-1", "2026-10-19", "2026-11-01").
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, rescheduleRowColumns...), "provider_id", "role")).
			AddRow("rs-1", "rb-1", "2026-10-20", "2026-10-22", 600, 660, "provider", nil, "approved", now, now, "prov-1", "tutor"))

	reschedules, err := repo.ApprovedReschedulesForPerson(context.Background(), nil, "p-1", from, to)
	require.NoError(t, err)
	require.Len(t, reschedules, 1)
	assert.Equal(t, "prov-1", reschedules[0].ProviderID)
	assert.Equal(t, "2026-10-22", reschedules[0].NewDate.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
