package models

import "time"

// Space is a shared workspace. It is owned by exactly one of a user
// (personal space) or an organization; the unused owner column is empty.
type Space struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id,omitempty" db:"user_id"`
	OrganizationID string    `json:"organization_id,omitempty" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Slug           string    `json:"slug" db:"slug"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// SpaceBasic is the ownership projection of a space, for callers that only
// need to know who owns it.
type SpaceBasic struct {
	ID             string `json:"id" db:"id"`
	UserID         string `json:"user_id,omitempty" db:"user_id"`
	OrganizationID string `json:"organization_id,omitempty" db:"organization_id"`
}

// SpaceMembership shares a personally-owned space with another user.
// Row present = member. Organization-owned spaces never consult this table.
type SpaceMembership struct {
	ID        string    `json:"id" db:"id"`
	SpaceID   string    `json:"space_id" db:"space_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
