package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/middleware"
	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
)

const defaultListingDays = 30

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

func optionalDate(c *gin.Context, name string) (*models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := models.ParseDate(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
	}
	return &parsed, nil
}

// dateRange reads from/to query dates, defaulting to a window starting today.
func dateRange(c *gin.Context) (models.Date, models.Date, error) {
	from, err := optionalDate(c, "from")
	if err != nil {
		return models.Date{}, models.Date{}, err
	}
	to, err := optionalDate(c, "to")
	if err != nil {
		return models.Date{}, models.Date{}, err
	}
	start := models.DateOf(time.Now().UTC())
	if from != nil {
		start = *from
	}
	end := start.AddDays(defaultListingDays)
	if to != nil {
		end = *to
	}
	return start, end, nil
}

func optionalInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
	}
	return value, nil
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
