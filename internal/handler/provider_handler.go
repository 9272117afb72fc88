package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	"github.com/noah-isme/edu-booking-api/pkg/response"
)

type providerService interface {
	Create(ctx context.Context, req dto.CreateProviderRequest, actor *models.JWTClaims) (*models.Provider, error)
	Get(ctx context.Context, id string) (*models.Provider, error)
	ListByPerson(ctx context.Context, personID string) ([]models.Provider, error)
	Deactivate(ctx context.Context, id string, actor *models.JWTClaims) (*models.ProviderDeactivationResult, error)
}

// ProviderHandler exposes the provider registry.
type ProviderHandler struct {
	service providerService
}

// NewProviderHandler builds a provider handler.
func NewProviderHandler(service providerService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// Create godoc
// @Summary Register a provider role for a person
// @Tags Providers
// @Accept json
// @Produce json
// @Param payload body dto.CreateProviderRequest true "Provider payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /providers [post]
func (h *ProviderHandler) Create(c *gin.Context) {
	var req dto.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid provider payload"))
		return
	}
	provider, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, provider)
}

// Get godoc
// @Summary Get a provider
// @Tags Providers
// @Produce json
// @Param id path string true "Provider ID"
// @Success 200 {object} response.Envelope
// @Router /providers/{id} [get]
func (h *ProviderHandler) Get(c *gin.Context) {
	provider, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, provider, nil)
}

// ListByPerson godoc
// @Summary List the provider roles a person holds
// @Tags Providers
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /persons/{id}/providers [get]
func (h *ProviderHandler) ListByPerson(c *gin.Context) {
	providers, err := h.service.ListByPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, providers, nil)
}

// Deactivate godoc
// @Summary Deactivate a provider, its rules and its pending requests
// @Tags Providers
// @Produce json
// @Param id path string true "Provider ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /providers/{id}/deactivate [post]
func (h *ProviderHandler) Deactivate(c *gin.Context) {
	result, err := h.service.Deactivate(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
