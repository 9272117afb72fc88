package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	"github.com/noah-isme/edu-booking-api/pkg/response"
)

type recurringBookingService interface {
	Create(ctx context.Context, req dto.CreateRecurringBookingRequest, actor *models.JWTClaims) (*models.RecurringBooking, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RecurringBooking, error)
	Transition(ctx context.Context, id string, req dto.UpdateRecurringBookingStatusRequest, actor *models.JWTClaims) (*models.RecurringBooking, error)
	RecordCompletedSession(ctx context.Context, id string, actor *models.JWTClaims) (*models.RecurringBooking, error)
	ListByProvider(ctx context.Context, providerID string, actor *models.JWTClaims) ([]models.RecurringBooking, error)
	ListByRequester(ctx context.Context, requesterID string, actor *models.JWTClaims) ([]models.RecurringBooking, error)
	Reschedule(ctx context.Context, bookingID string, req dto.RescheduleRequest, actor *models.JWTClaims) (*models.Reschedule, error)
	ListReschedules(ctx context.Context, bookingID string, actor *models.JWTClaims) ([]models.Reschedule, error)
	ApproveReschedule(ctx context.Context, id string, actor *models.JWTClaims) (*models.Reschedule, error)
	RejectReschedule(ctx context.Context, id string, actor *models.JWTClaims) (*models.Reschedule, error)
}

// RecurringBookingHandler exposes weekly bookings and their reschedules.
type RecurringBookingHandler struct {
	service recurringBookingService
}

// NewRecurringBookingHandler builds a recurring booking handler.
func NewRecurringBookingHandler(service recurringBookingService) *RecurringBookingHandler {
	return &RecurringBookingHandler{service: service}
}

// Create godoc
// @Summary Reserve a weekly window with a provider
// @Tags RecurringBookings
// @Accept json
// @Produce json
// @Param payload body dto.CreateRecurringBookingRequest true "Recurring booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /recurring-bookings [post]
func (h *RecurringBookingHandler) Create(c *gin.Context) {
	var req dto.CreateRecurringBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid recurring booking payload"))
		return
	}
	booking, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Get godoc
// @Summary Get a recurring booking
// @Tags RecurringBookings
// @Produce json
// @Param id path string true "Recurring booking ID"
// @Success 200 {object} response.Envelope
// @Router /recurring-bookings/{id} [get]
func (h *RecurringBookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// UpdateStatus godoc
// @Summary Move a recurring booking along its lifecycle
// @Tags RecurringBookings
// @Accept json
// @Produce json
// @Param id path string true "Recurring booking ID"
// @Param payload body dto.UpdateRecurringBookingStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /recurring-bookings/{id}/status [patch]
func (h *RecurringBookingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateRecurringBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid status payload"))
		return
	}
	booking, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// RecordCompletedSession godoc
// @Summary Count one delivered session against an active booking
// @Tags RecurringBookings
// @Produce json
// @Param id path string true "Recurring booking ID"
// @Success 200 {object} response.Envelope
// @Router /recurring-bookings/{id}/completed-sessions [post]
func (h *RecurringBookingHandler) RecordCompletedSession(c *gin.Context) {
	booking, err := h.service.RecordCompletedSession(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// ListByProvider godoc
// @Summary List a provider's recurring bookings
// @Tags RecurringBookings
// @Produce json
// @Param id path string true "Provider ID"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/recurring-bookings [get]
func (h *RecurringBookingHandler) ListByProvider(c *gin.Context) {
	bookings, err := h.service.ListByProvider(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// ListByRequester godoc
// @Summary List the recurring bookings a person holds
// @Tags RecurringBookings
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /persons/{id}/recurring-bookings [get]
func (h *RecurringBookingHandler) ListByRequester(c *gin.Context) {
	bookings, err := h.service.ListByRequester(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Reschedule godoc
// @Summary Move one occurrence of a recurring booking
// @Tags RecurringBookings
// @Accept json
// @Produce json
// @Param id path string true "Recurring booking ID"
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /recurring-bookings/{id}/reschedules [post]
func (h *RecurringBookingHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid reschedule payload"))
		return
	}
	reschedule, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reschedule)
}

// ListReschedules godoc
// @Summary List the reschedule history of a recurring booking
// @Tags RecurringBookings
// @Produce json
// @Param id path string true "Recurring booking ID"
// @Success 200 {object} response.Envelope
// @Router /recurring-bookings/{id}/reschedules [get]
func (h *RecurringBookingHandler) ListReschedules(c *gin.Context) {
	reschedules, err := h.service.ListReschedules(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reschedules, nil)
}

// ApproveReschedule godoc
// @Summary Approve a pending reschedule
// @Tags RecurringBookings
// @Produce json
// @Param id path string true "Reschedule ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reschedules/{id}/approve [post]
func (h *RecurringBookingHandler) ApproveReschedule(c *gin.Context) {
	reschedule, err := h.service.ApproveReschedule(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reschedule, nil)
}

// RejectReschedule godoc
// @Summary Reject a pending reschedule
// @Tags RecurringBookings
// @Produce json
// @Param id path string true "Reschedule ID"
// @Success 200 {object} response.Envelope
// @Router /reschedules/{id}/reject [post]
func (h *RecurringBookingHandler) RejectReschedule(c *gin.Context) {
	reschedule, err := h.service.RejectReschedule(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reschedule, nil)
}
