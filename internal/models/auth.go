package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the role claim carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleStudent    UserRole = "STUDENT"
	RoleMentor     UserRole = "MENTOR"
	RoleCounsellor UserRole = "COUNSELLOR"
	RoleTutor      UserRole = "TUTOR"
)

// JWTClaims represents the JWT payload of access tokens issued by the identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry an administrative role.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && (c.Role == RoleAdmin || c.Role == RoleSuperAdmin)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
