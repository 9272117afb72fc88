package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

var providerRowColumns = []string{"id", "person_id", "role", "display_name", "is_active", "created_at", "updated_at"}

func TestProviderRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProviderRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO providers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	provider := &models.Provider{PersonID: "person-1", Role: models.ProviderRoleTutor, DisplayName: "Ms. Rahma"}
	require.NoError(t, repo.Create(context.Background(), provider))
	assert.NotEmpty(t, provider.ID)
	assert.True(t, provider.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProviderRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO providers")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Provider{PersonID: "person-1", Role: models.ProviderRoleMentor})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestProviderRepositoryFindAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProviderRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM providers WHERE id = $1")).
		WithArgs("prov-1").
		WillReturnRows(sqlmock.NewRows(providerRowColumns).AddRow("prov-1", "person-1", "tutor", "Tutor", true, now, now))

	provider, err := repo.FindByID(context.Background(), nil, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderRoleTutor, provider.Role)

	mock.ExpectQuery(regexp.QuoteMeta("FROM providers WHERE person_id = $1")).
		WithArgs("person-1").
		WillReturnRows(sqlmock.NewRows(providerRowColumns).
			AddRow("prov-2", "person-1", "mentor", "Mentor", true, now, now).
			AddRow("prov-1", "person-1", "tutor", "Tutor", true, now, now))

	providers, err := repo.ListByPerson(context.Background(), "person-1")
	require.NoError(t, err)
	require.Len(t, providers, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderRepositoryDeactivateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProviderRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE providers SET is_active = FALSE")).
		WithArgs(sqlmock.AnyArg(), "prov-x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), nil, "prov-x")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
