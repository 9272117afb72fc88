package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/models"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
	"github.com/noah-isme/edu-booking-api/pkg/response"
)

// RequireRoles admits only callers holding one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return guard(roleSet(roles), "")
}

// SelfOrRoles admits callers whose ID equals the named path parameter, plus the given roles.
// Person-scoped listings use it so people can only read their own bookings.
func SelfOrRoles(param string, roles ...models.UserRole) gin.HandlerFunc {
	return guard(roleSet(roles), param)
}

func guard(allowed map[models.UserRole]struct{}, selfParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		if selfParam != "" {
			if target := c.Param(selfParam); target != "" && target == claims.UserID {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

func roleSet(roles []models.UserRole) map[models.UserRole]struct{} {
	set := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// CurrentClaims returns the authenticated caller, or nil for anonymous requests.
func CurrentClaims(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
