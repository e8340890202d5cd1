package domain

import (
	"slices"
	"time"
)

// Claims is the identity a validated token vouches for.
type Claims struct {
	Subject   string // username
	UserID    string
	Roles     []Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasRole reports whether the claims carry role r.
func (c *Claims) HasRole(r Role) bool {
	return c != nil && slices.Contains(c.Roles, r)
}

// HasAnyRole reports whether the claims carry at least one of roles.
func (c *Claims) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}
