package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/dto"
	"github.com/noah-isme/edu-booking-api/internal/models"
	"github.com/noah-isme/edu-booking-api/pkg/response"
)

type bookingService interface {
	CreateRequest(ctx context.Context, req dto.CreateBookingRequest, actor *models.JWTClaims) (*models.BookingRequest, error)
	Accept(ctx context.Context, requestID string, req dto.AcceptBookingRequest, actor *models.JWTClaims) (*models.AcceptedBooking, error)
	Decline(ctx context.Context, requestID string, req dto.DeclineBookingRequest, actor *models.JWTClaims) (*models.BookingRequest, error)
	Cancel(ctx context.Context, sessionID string, req dto.CancelSessionRequest, actor *models.JWTClaims) (*models.ScheduledSession, error)
	Complete(ctx context.Context, sessionID string, req dto.CompleteSessionRequest, actor *models.JWTClaims) (*models.ScheduledSession, error)
	GetRequest(ctx context.Context, id string, actor *models.JWTClaims) (*models.BookingRequest, error)
	ListProviderRequests(ctx context.Context, providerID string, query dto.BookingRequestQuery, actor *models.JWTClaims) ([]models.BookingRequest, *models.Pagination, error)
	ListRequesterRequests(ctx context.Context, requesterID string, query dto.BookingRequestQuery, actor *models.JWTClaims) ([]models.BookingRequest, *models.Pagination, error)
	GetSession(ctx context.Context, id string, actor *models.JWTClaims) (*models.ScheduledSession, error)
	ListProviderSessions(ctx context.Context, providerID string, from, to models.Date, actor *models.JWTClaims) ([]models.ScheduledSession, error)
}

// BookingHandler exposes booking requests and the sessions they become.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler builds a booking handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// CreateRequest godoc
// @Summary Submit a booking request to a provider
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking request payload"
// @Success 201 {object} response.Envelope
// @Router /booking-requests [post]
func (h *BookingHandler) CreateRequest(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid booking request payload"))
		return
	}
	request, err := h.service.CreateRequest(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// GetRequest godoc
// @Summary Get a booking request
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking request ID"
// @Success 200 {object} response.Envelope
// @Router /booking-requests/{id} [get]
func (h *BookingHandler) GetRequest(c *gin.Context) {
	request, err := h.service.GetRequest(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Accept godoc
// @Summary Accept a pending request and schedule its session
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking request ID"
// @Param payload body dto.AcceptBookingRequest true "Scheduling payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /booking-requests/{id}/accept [post]
func (h *BookingHandler) Accept(c *gin.Context) {
	var req dto.AcceptBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid accept payload"))
		return
	}
	accepted, err := h.service.Accept(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, accepted)
}

// Decline godoc
// @Summary Decline a pending request
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking request ID"
// @Param payload body dto.DeclineBookingRequest true "Decline payload"
// @Success 200 {object} response.Envelope
// @Router /booking-requests/{id}/decline [post]
func (h *BookingHandler) Decline(c *gin.Context) {
	var req dto.DeclineBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid decline payload"))
		return
	}
	request, err := h.service.Decline(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ListProviderRequests godoc
// @Summary List requests addressed to a provider
// @Tags Bookings
// @Produce json
// @Param id path string true "Provider ID"
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/booking-requests [get]
func (h *BookingHandler) ListProviderRequests(c *gin.Context) {
	var query dto.BookingRequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid request filter"))
		return
	}
	requests, pagination, err := h.service.ListProviderRequests(c.Request.Context(), c.Param("id"), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// ListRequesterRequests godoc
// @Summary List requests a person has submitted
// @Tags Bookings
// @Produce json
// @Param id path string true "Person ID"
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /persons/{id}/booking-requests [get]
func (h *BookingHandler) ListRequesterRequests(c *gin.Context) {
	var query dto.BookingRequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid request filter"))
		return
	}
	requests, pagination, err := h.service.ListRequesterRequests(c.Request.Context(), c.Param("id"), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// GetSession godoc
// @Summary Get a scheduled session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *BookingHandler) GetSession(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// ListProviderSessions godoc
// @Summary List a provider's sessions by start date
// @Tags Sessions
// @Produce json
// @Param id path string true "Provider ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /providers/{id}/sessions [get]
func (h *BookingHandler) ListProviderSessions(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sessions, err := h.service.ListProviderSessions(c.Request.Context(), c.Param("id"), from, to, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// CancelSession godoc
// @Summary Cancel a scheduled session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.CancelSessionRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *BookingHandler) CancelSession(c *gin.Context) {
	var req dto.CancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid cancellation payload"))
		return
	}
	session, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// CompleteSession godoc
// @Summary Mark a scheduled session completed
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.CompleteSessionRequest false "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/complete [post]
func (h *BookingHandler) CompleteSession(c *gin.Context) {
	var req dto.CompleteSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err, "invalid completion payload"))
			return
		}
	}
	session, err := h.service.Complete(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
