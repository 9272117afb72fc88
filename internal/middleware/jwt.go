package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
	"github.com/noah-isme/edu-booking-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT rejects requests without a valid bearer token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		switch {
		case !present:
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		case !ok:
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a valid token is sent. Public slot and rule reads use it so
// anonymous callers still get through.
func OptionalJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, _, ok := bearerToken(c); ok {
			if claims, err := validator.ValidateToken(token); err == nil {
				c.Set(ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

// bearerToken reports the token, whether an Authorization header was sent at all, and whether
// it was a well-formed bearer credential.
func bearerToken(c *gin.Context) (string, bool, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false, false
	}
	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", true, false
	}
	return token, true, true
}
