package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/middleware"
	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
	"github.com/noah-isme/edu-booking-api/pkg/response"
)

type availabilityService interface {
	UpsertRule(ctx context.Context, providerID string, req dto.UpsertRuleRequest, actor *models.JWTClaims) (*models.RecurringAvailabilityRule, error)
	ListRules(ctx context.Context, providerID string, activeOnly bool) ([]models.RecurringAvailabilityRule, error)
	DeactivateRule(ctx context.Context, ruleID string, actor *models.JWTClaims) error
	AddException(ctx context.Context, providerID string, req dto.AddExceptionRequest, actor *models.JWTClaims) (*models.AvailabilityException, error)
	ListExceptions(ctx context.Context, providerID string, from, to models.Date) ([]models.AvailabilityException, error)
	DeleteException(ctx context.Context, id string, actor *models.JWTClaims) error
}

type slotService interface {
	ListAvailableSlots(ctx context.Context, providerID string, query dto.SlotQuery) ([]models.Slot, bool, error)
}

// AvailabilityHandler exposes weekly rules, date exceptions and the slot listing.
type AvailabilityHandler struct {
	availability availabilityService
	slots        slotService
}

// NewAvailabilityHandler builds an availability handler.
func NewAvailabilityHandler(availability availabilityService, slots slotService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, slots: slots}
}

// UpsertRule godoc
// @Summary Declare or re-activate a weekly availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Provider ID"
// @Param payload body dto.UpsertRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/rules [put]
func (h *AvailabilityHandler) UpsertRule(c *gin.Context) {
	var req dto.UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid availability rule payload"))
		return
	}
	rule, err := h.availability.UpsertRule(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// ListRules godoc
// @Summary List a provider's weekly availability windows
// @Tags Availability
// @Produce json
// @Param id path string true "Provider ID"
// @Param active query bool false "Only active rules"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/rules [get]
func (h *AvailabilityHandler) ListRules(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	rules, err := h.availability.ListRules(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// DeactivateRule godoc
// @Summary Deactivate a weekly availability window
// @Tags Availability
// @Param id path string true "Rule ID"
// @Success 204
// @Router /rules/{id} [delete]
func (h *AvailabilityHandler) DeactivateRule(c *gin.Context) {
	if err := h.availability.DeactivateRule(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddException godoc
// @Summary Add a date-specific availability override
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Provider ID"
// @Param payload body dto.AddExceptionRequest true "Exception payload"
// @Success 201 {object} response.Envelope
// @Router /providers/{id}/exceptions [post]
func (h *AvailabilityHandler) AddException(c *gin.Context) {
	var req dto.AddExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid availability exception payload"))
		return
	}
	exception, err := h.availability.AddException(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exception)
}

// ListExceptions godoc
// @Summary List a provider's date overrides
// @Tags Availability
// @Produce json
// @Param id path string true "Provider ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/exceptions [get]
func (h *AvailabilityHandler) ListExceptions(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	exceptions, err := h.availability.ListExceptions(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exceptions, nil)
}

// DeleteException godoc
// @Summary Remove a date override
// @Tags Availability
// @Param id path string true "Exception ID"
// @Success 204
// @Router /exceptions/{id} [delete]
func (h *AvailabilityHandler) DeleteException(c *gin.Context) {
	if err := h.availability.DeleteException(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Slots godoc
// @Summary List bookable slots for a provider
// @Tags Availability
// @Produce json
// @Param id path string true "Provider ID"
// @Param from query string false "First date (YYYY-MM-DD), defaults to today"
// @Param to query string false "Last date (YYYY-MM-DD), defaults to the configured horizon"
// @Param granularity query int false "Slot length in minutes"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/slots [get]
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	if h.slots == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.SlotQuery
	var err error
	if query.From, err = optionalDate(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if query.To, err = optionalDate(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	if query.Granularity, err = optionalInt(c, "granularity"); err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	slots, cacheHit, err := h.slots.ListAvailableSlots(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "slot_count", len(slots))
	middleware.SetProcessingTime(c, start)
	meta := middleware.ExtractMeta(c)
	response.JSON(c, http.StatusOK, slots, nil, meta)
}
