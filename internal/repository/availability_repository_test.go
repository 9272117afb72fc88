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

var (
	ruleRowColumns      = []string{"id", "provider_id", "day_of_week", "start_minute", "end_minute", "is_active", "created_at", "updated_at"}
	exceptionRowColumns = []string{"id", "provider_id", "exception_date", "start_minute", "end_minute", "type", "reason", "created_at"}
)

func TestAvailabilityRepositoryUpsertRuleReactivates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (provider_id, day_of_week, start_minute, end_minute)")).
		WithArgs(sqlmock.AnyArg(), "prov-1", 1, 540, 720, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(ruleRowColumns).AddRow("rule-existing", "prov-1", 1, 540, 720, true, now, now))

	rule := &models.RecurringAvailabilityRule{ProviderID: "prov-1", DayOfWeek: 1, StartTime: 540, EndTime: 720}
	require.NoError(t, repo.UpsertRule(context.Background(), rule))
	assert.Equal(t, "rule-existing", rule.ID)
	assert.True(t, rule.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListRulesActiveOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_id = $1 AND is_active = TRUE ORDER BY day_of_week, start_minute")).
		WithArgs("prov-1").
		WillReturnRows(sqlmock.NewRows(ruleRowColumns).AddRow("rule-1", "prov-1", 1, 540, 720, true, now, now))

	rules, err := repo.ListRules(context.Background(), "prov-1", true)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, models.MinuteOfDay(540), rules[0].StartTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeactivateProviderRules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("WHERE provider_id = $2 AND is_active = TRUE")).
		WithArgs(sqlmock.AnyArg(), "prov-1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := repo.DeactivateProviderRules(context.Background(), nil, "prov-1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryExceptions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability_exceptions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	start, end := models.MinuteOfDay(600), models.MinuteOfDay(660)
	exception := &models.AvailabilityException{
		ProviderID: "prov-1",
		Date:       models.NewDate(2026, time.October, 19),
		StartTime:  &start,
		EndTime:    &end,
		Type:       models.ExceptionUnavailable,
	}
	require.NoError(t, repo.CreateException(context.Background(), exception))
	require.NotEmpty(t, exception.ID)

	from := models.NewDate(2026, time.October, 19)
	to := from.AddDays(6)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_id = $1 AND exception_date BETWEEN $2 AND $3")).
		WithArgs("prov-1", "2026-10-19", "2026-10-25").
		WillReturnRows(sqlmock.NewRows(exceptionRowColumns).
			AddRow("exc-1", "prov-1", time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC), nil, nil, "unavailable", "holiday", time.Now()).
			AddRow(exception.ID, "prov-1", "2026-10-19", 600, 660, "unavailable", nil, time.Now()))

	exceptions, err := repo.ListExceptions(context.Background(), "prov-1", from, to)
	require.NoError(t, err)
	require.Len(t, exceptions, 2)
	assert.True(t, exceptions[0].WholeDay())
	assert.Equal(t, "2026-10-20", exceptions[0].Date.String())
	assert.False(t, exceptions[1].WholeDay())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeleteMissingException(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_exceptions WHERE id = $1")).
		WithArgs("exc-x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.DeleteException(context.Background(), "exc-x"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
