package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
)

type providerServiceMock struct {
	createReq     dto.CreateProviderRequest
	createErr     error
	deactivatedID string
	actor         *models.JWTClaims
}

func (m *providerServiceMock) Create(ctx context.Context, req dto.CreateProviderRequest, actor *models.JWTClaims) (*models.Provider, error) {
	m.createReq = req
	m.actor = actor
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Provider{ID: "tutor-1", PersonID: req.PersonID, Role: req.Role, DisplayName: req.DisplayName, IsActive: true}, nil
}

func (m *providerServiceMock) Get(ctx context.Context, id string) (*models.Provider, error) {
	return &models.Provider{ID: id, IsActive: true}, nil
}

func (m *providerServiceMock) ListByPerson(ctx context.Context, personID string) ([]models.Provider, error) {
	return []models.Provider{{ID: "tutor-1", PersonID: personID}, {ID: "mentor-1", PersonID: personID}}, nil
}

func (m *providerServiceMock) Deactivate(ctx context.Context, id string, actor *models.JWTClaims) (*models.ProviderDeactivationResult, error) {
	m.deactivatedID = id
	return &models.ProviderDeactivationResult{
		Provider:         models.Provider{ID: id},
		RulesDeactivated: 2,
		RequestsDeclined: 1,
	}, nil
}

func TestProviderHandlerCreate(t *testing.T) {
	mockSvc := &providerServiceMock{}
	handler := NewProviderHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/providers", `{"person_id":"person-1","role":"tutor","display_name":"Rahma"}`)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.ProviderRoleTutor, mockSvc.createReq.Role)
	assert.Equal(t, "person-1", mockSvc.actor.UserID)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "tutor-1", data["id"])
}

func TestProviderHandlerCreateDuplicate(t *testing.T) {
	mockSvc := &providerServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "person already holds the tutor role")}
	handler := NewProviderHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/providers", `{"person_id":"person-1","role":"tutor","display_name":"Rahma"}`)
	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestProviderHandlerListByPerson(t *testing.T) {
	handler := NewProviderHandler(&providerServiceMock{})

	c, w := newTestContext(http.MethodGet, "/persons/person-1/providers", "", gin.Param{Key: "id", Value: "person-1"})
	handler.ListByPerson(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestProviderHandlerDeactivate(t *testing.T) {
	mockSvc := &providerServiceMock{}
	handler := NewProviderHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/providers/mentor-1/deactivate", "", gin.Param{Key: "id", Value: "mentor-1"})
	handler.Deactivate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mentor-1", mockSvc.deactivatedID)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["rules_deactivated"])
	assert.Equal(t, float64(1), data["requests_declined"])
}
