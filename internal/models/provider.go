package models

import "time"

// ProviderRole tags the bookable capacity a person acts in.
type ProviderRole string

const (
	ProviderRoleMentor     ProviderRole = "mentor"
	ProviderRoleCounsellor ProviderRole = "counsellor"
	ProviderRoleTutor      ProviderRole = "tutor"
)

// Valid reports whether the role is one of the supported provider roles.
func (r ProviderRole) Valid() bool {
	switch r {
	case ProviderRoleMentor, ProviderRoleCounsellor, ProviderRoleTutor:
		return true
	}
	return false
}

// Provider is a person's bookable role row. One person may own one provider per role.
type Provider struct {
	ID          string       `db:"id" json:"id"`
	PersonID    string       `db:"person_id" json:"person_id"`
	Role        ProviderRole `db:"role" json:"role"`
	DisplayName string       `db:"display_name" json:"display_name"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ProviderDeactivationResult reports what the deactivation cascade touched.
type ProviderDeactivationResult struct {
	Provider         Provider `json:"provider"`
	RulesDeactivated int64    `json:"rules_deactivated"`
	RequestsDeclined int64    `json:"requests_declined"`
}
