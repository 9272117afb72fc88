package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

var sessionRowColumns = []string{"id", "provider_id", "request_id", "scheduled_at", "duration_minutes", "status", "location",
	"meeting_link", "cancellation_reason", "completion_notes", "requester_id", "created_at", "updated_at"}

func TestSessionRepositoryCreateWithDetail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_details")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.ScheduledSession{ProviderID: "prov-1", ScheduledAt: time.Now().Add(time.Hour), DurationMinutes: 60, Status: models.SessionScheduled}
	require.NoError(t, repo.Create(context.Background(), nil, session))
	require.NotEmpty(t, session.ID)
	require.NoError(t, repo.CreateDetail(context.Background(), nil, &models.SessionDetail{
		SessionID:   session.ID,
		Role:        models.ProviderRoleTutor,
		RequesterID: "student-1",
		Topic:       "Algebra",
		SessionType: models.SessionTypeOnline,
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryLockByIDJoinsRequester(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.id = $1 FOR UPDATE OF s")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("sess-1", "prov-1", "req-1", now, 45, "scheduled", nil, nil, nil, nil, "student-1", now, now))

	session, err := repo.LockByID(context.Background(), nil, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, session.RequesterID)
	assert.Equal(t, "student-1", *session.RequesterID)
	assert.Equal(t, now.Add(45*time.Minute), session.EndsAt())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCancelOnlyFromScheduled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'cancelled'")).
		WithArgs("sick", sqlmock.AnyArg(), "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Cancel(context.Background(), nil, "sess-1", "sick"))

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'completed'")).
		WithArgs(nil, sqlmock.AnyArg(), "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Complete(context.Background(), nil, "sess-1", nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListByProvider(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	from := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.provider_id = $1 AND s.scheduled_at >= $2 AND s.scheduled_at < $3")).
		WithArgs("prov-1", from, to).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("sess-1", "prov-1", nil, from.Add(9*time.Hour), 60, "completed", nil, nil, nil, "done", nil, from, from))

	sessions, err := repo.ListByProvider(context.Background(), "prov-1", from, to)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.SessionCompleted, sessions[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
