package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
)

func newProviderFixture() (*schedulingFixture, *ProviderService, *fakeSlotCache) {
	fx := newSchedulingFixture(beforeWeek)
	repo := newFakeSlotCache()
	cache := NewCacheService(repo, nil, 0, nil, true)
	svc := NewProviderService(fx.tx, fakeProviders{fx.store}, fakeAvailability{fx.store}, fakeRequests{fx.store}, cache, NewMetricsService(), nil)
	return fx, svc, repo
}

func TestProviderServiceCreate(t *testing.T) {
	fx, svc, _ := newProviderFixture()

	provider, err := svc.Create(context.Background(), dto.CreateProviderRequest{
		PersonID:    "person-1",
		Role:        models.ProviderRoleTutor,
		DisplayName: " Ms. Rahma ",
	}, personActor("person-1"))
	require.NoError(t, err)
	assert.Equal(t, "Ms. Rahma", provider.DisplayName)
	assert.True(t, provider.IsActive)

	_, err = svc.Create(context.Background(), dto.CreateProviderRequest{
		PersonID:    "person-1",
		Role:        models.ProviderRoleMentor,
		DisplayName: "Rahma",
	}, personActor("person-1"))
	require.NoError(t, err)

	roles, err := svc.ListByPerson(context.Background(), "person-1")
	require.NoError(t, err)
	assert.Len(t, roles, 2)
	assert.Len(t, fx.store.providers, 2)
}

func TestProviderServiceCreateRejections(t *testing.T) {
	_, svc, _ := newProviderFixture()
	req := dto.CreateProviderRequest{PersonID: "person-1", Role: models.ProviderRoleTutor, DisplayName: "Rahma"}

	_, err := svc.Create(context.Background(), req, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), req, personActor("person-2"))
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	invalid := req
	invalid.Role = "coach"
	_, err = svc.Create(context.Background(), invalid, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestProviderServiceDeactivateCascade(t *testing.T) {
	fx, svc, cache := newProviderFixture()
	fx.store.addProvider("mentor-1", "person-1", models.ProviderRoleMentor)
	fx.store.addProvider("tutor-1", "person-1", models.ProviderRoleTutor)
	store := fakeAvailability{fx.store}
	for _, day := range []int{1, 3} {
		require.NoError(t, store.UpsertRule(context.Background(), &models.RecurringAvailabilityRule{
			ProviderID: "mentor-1", DayOfWeek: day, StartTime: minute("09:00"), EndTime: minute("12:00"),
		}))
	}
	require.NoError(t, store.UpsertRule(context.Background(), &models.RecurringAvailabilityRule{
		ProviderID: "tutor-1", DayOfWeek: 1, StartTime: minute("13:00"), EndTime: minute("15:00"),
	}))
	first := fx.store.addRequest(models.BookingRequest{ProviderID: "mentor-1", RequesterID: "student-1"})
	fx.store.addRequest(models.BookingRequest{ProviderID: "mentor-1", RequesterID: "student-2"})
	scheduled := fx.store.addRequest(models.BookingRequest{ProviderID: "mentor-1", RequesterID: "student-3", Status: models.BookingRequestScheduled})
	other := fx.store.addRequest(models.BookingRequest{ProviderID: "tutor-1", RequesterID: "student-1"})

	result, err := svc.Deactivate(context.Background(), "mentor-1", personActor("person-1"))
	require.NoError(t, err)
	assert.False(t, result.Provider.IsActive)
	assert.Equal(t, int64(2), result.RulesDeactivated)
	assert.Equal(t, int64(2), result.RequestsDeclined)

	declined := fx.store.request(first.ID)
	assert.Equal(t, models.BookingRequestDeclined, declined.Status)
	require.NotNil(t, declined.DeclineReason)
	assert.Equal(t, ProviderDeactivatedReason, *declined.DeclineReason)
	assert.Equal(t, models.BookingRequestScheduled, fx.store.request(scheduled.ID).Status)
	assert.Equal(t, models.BookingRequestPending, fx.store.request(other.ID).Status)

	tutorRules, err := store.ListRules(context.Background(), "tutor-1", true)
	require.NoError(t, err)
	assert.Len(t, tutorRules, 1)
	assert.Equal(t, []string{"slots:person-1:*"}, cache.deleted)

	_, err = svc.Deactivate(context.Background(), "mentor-1", nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestProviderServiceDeactivateChecksOwnership(t *testing.T) {
	fx, svc, _ := newProviderFixture()
	fx.store.addProvider("mentor-1", "person-1", models.ProviderRoleMentor)

	_, err := svc.Deactivate(context.Background(), "mentor-1", personActor("person-2"))
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Deactivate(context.Background(), "missing", adminActor())
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	provider, err := svc.Get(context.Background(), "mentor-1")
	require.NoError(t, err)
	assert.True(t, provider.IsActive)
}
