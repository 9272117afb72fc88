package errors

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorFindsTypedErrorInChain(t *testing.T) {
	conflict := Clone(ErrScheduleConflict, "mentor already booked")
	wrapped := fmt.Errorf("accept request: %w", conflict)

	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, "SCHEDULE_CONFLICT", got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
	assert.True(t, Is(wrapped, ErrScheduleConflict))
	assert.False(t, Is(wrapped, ErrInvalidState))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, sql.ErrConnDone)
	assert.Nil(t, FromError(nil))
}

func TestCloneAndDetailsDoNotMutatePredefined(t *testing.T) {
	clone := Clone(ErrValidation, "end_time must be after start_time")
	detailed := WithDetails(clone, map[string]string{"field": "end_time"})

	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Nil(t, ErrValidation.Details)
	assert.Nil(t, clone.Details)

	body, err := json.Marshal(detailed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"VALIDATION_ERROR","message":"end_time must be after start_time","status":400,"details":{"field":"end_time"}}`, string(body))
}

func TestWrapMessageIncludesCause(t *testing.T) {
	err := Wrap(sql.ErrNoRows, ErrNotFound.Code, ErrNotFound.Status, "session not found")
	assert.Equal(t, "session not found: sql: no rows in result set", err.Error())
	assert.Equal(t, "<nil>", (*Error)(nil).Error())
}
