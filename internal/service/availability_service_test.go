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

func newAvailabilityFixture() (*schedulingFixture, *AvailabilityService, *fakeSlotCache) {
	fx := newSchedulingFixture(beforeWeek)
	fx.store.addProvider("mentor-1", "person-1", models.ProviderRoleMentor)
	repo := newFakeSlotCache()
	cache := NewCacheService(repo, nil, 0, nil, true)
	svc := NewAvailabilityService(fakeProviders{fx.store}, fakeAvailability{fx.store}, cache, wib, nil, fx.clock)
	return fx, svc, repo
}

func TestAvailabilityServiceUpsertRule(t *testing.T) {
	_, svc, cache := newAvailabilityFixture()
	req := dto.UpsertRuleRequest{DayOfWeek: 1, StartTime: minute("09:00"), EndTime: minute("12:00")}

	rule, err := svc.UpsertRule(context.Background(), "mentor-1", req, personActor("person-1"))
	require.NoError(t, err)
	assert.True(t, rule.IsActive)

	require.NoError(t, svc.DeactivateRule(context.Background(), rule.ID, personActor("person-1")))
	inactive, err := svc.ListRules(context.Background(), "mentor-1", true)
	require.NoError(t, err)
	assert.Empty(t, inactive)

	again, err := svc.UpsertRule(context.Background(), "mentor-1", req, personActor("person-1"))
	require.NoError(t, err)
	assert.Equal(t, rule.ID, again.ID)
	assert.True(t, again.IsActive)

	all, err := svc.ListRules(context.Background(), "mentor-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Len(t, cache.deleted, 3)
}

func TestAvailabilityServiceUpsertRuleValidation(t *testing.T) {
	_, svc, _ := newAvailabilityFixture()

	tests := []struct {
		name   string
		req    dto.UpsertRuleRequest
		actor  *models.JWTClaims
		target *appErrors.Error
	}{
		{name: "inverted window", req: dto.UpsertRuleRequest{DayOfWeek: 1, StartTime: minute("12:00"), EndTime: minute("09:00")}, actor: nil, target: appErrors.ErrValidation},
		{name: "empty window", req: dto.UpsertRuleRequest{DayOfWeek: 1, StartTime: minute("09:00"), EndTime: minute("09:00")}, actor: nil, target: appErrors.ErrValidation},
		{name: "bad weekday", req: dto.UpsertRuleRequest{DayOfWeek: 9, StartTime: minute("09:00"), EndTime: minute("10:00")}, actor: nil, target: appErrors.ErrValidation},
		{name: "other person", req: dto.UpsertRuleRequest{DayOfWeek: 1, StartTime: minute("09:00"), EndTime: minute("10:00")}, actor: personActor("person-2"), target: appErrors.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertRule(context.Background(), "mentor-1", tc.req, tc.actor)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, tc.target), "got %v", err)
		})
	}
}

func TestAvailabilityServiceExceptions(t *testing.T) {
	_, svc, _ := newAvailabilityFixture()
	reason := "conference"

	wholeDay, err := svc.AddException(context.Background(), "mentor-1", dto.AddExceptionRequest{
		Date:   monday,
		Type:   models.ExceptionUnavailable,
		Reason: &reason,
	}, personActor("person-1"))
	require.NoError(t, err)
	assert.True(t, wholeDay.WholeDay())

	opening, err := svc.AddException(context.Background(), "mentor-1", dto.AddExceptionRequest{
		Date:      monday.AddDays(1),
		StartTime: minutePtr("14:00"),
		EndTime:   minutePtr("16:00"),
		Type:      models.ExceptionCustomAvailable,
	}, nil)
	require.NoError(t, err)
	assert.False(t, opening.WholeDay())

	listed, err := svc.ListExceptions(context.Background(), "mentor-1", monday, monday)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, wholeDay.ID, listed[0].ID)

	require.NoError(t, svc.DeleteException(context.Background(), wholeDay.ID, personActor("person-1")))
	err = svc.DeleteException(context.Background(), wholeDay.ID, personActor("person-1"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAvailabilityServiceExceptionValidation(t *testing.T) {
	_, svc, _ := newAvailabilityFixture()

	tests := []struct {
		name string
		req  dto.AddExceptionRequest
	}{
		{name: "missing date", req: dto.AddExceptionRequest{Type: models.ExceptionUnavailable}},
		{name: "past date", req: dto.AddExceptionRequest{Date: monday.AddDays(-7), Type: models.ExceptionUnavailable}},
		{name: "half a window", req: dto.AddExceptionRequest{Date: monday, StartTime: minutePtr("10:00"), Type: models.ExceptionUnavailable}},
		{name: "inverted window", req: dto.AddExceptionRequest{Date: monday, StartTime: minutePtr("11:00"), EndTime: minutePtr("10:00"), Type: models.ExceptionUnavailable}},
		{name: "whole-day opening", req: dto.AddExceptionRequest{Date: monday, Type: models.ExceptionCustomAvailable}},
		{name: "unknown type", req: dto.AddExceptionRequest{Date: monday, Type: "holiday"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddException(context.Background(), "mentor-1", tc.req, nil)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "got %v", err)
		})
	}

	_, err := svc.ListExceptions(context.Background(), "mentor-1", monday, monday.AddDays(-1))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
