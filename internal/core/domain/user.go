package domain

import (
	"strings"
	"time"
)

// Role is the single authority a principal holds.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// DefaultRole is assigned when a caller does not pick one.
const DefaultRole = RoleUser

const rolePrefix = "ROLE_"

// ParseRole accepts the canonical form or a bare name in any case
// ("ROLE_ADMIN", "admin", "Admin").
func ParseRole(s string) (Role, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, rolePrefix) {
		name = rolePrefix + name
	}
	switch Role(name) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// Profile holds the free-text attributes of a principal.
type Profile struct {
	FirstName   string
	LastName    string
	BirthDate   *time.Time
	City        string
	Country     string
	Avatar      string
	Company     string
	JobPosition string
	Mobile      string
}

// User is a registered principal.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Profile
	Role      Role
	Enabled   bool
	CreatedAt time.Time
	LastLogin *time.Time // nil until the first successful login
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ProfileUpdate carries a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	BirthDate   *time.Time
	City        *string
	Country     *string
	Avatar      *string
	Company     *string
	JobPosition *string
	Mobile      *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil &&
		p.BirthDate == nil && p.City == nil && p.Country == nil &&
		p.Avatar == nil && p.Company == nil && p.JobPosition == nil &&
		p.Mobile == nil
}

// Apply copies every set field of p onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		u.BirthDate = &bd
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Company != nil {
		u.Company = *p.Company
	}
	if p.JobPosition != nil {
		u.JobPosition = *p.JobPosition
	}
	if p.Mobile != nil {
		u.Mobile = *p.Mobile
	}
}
