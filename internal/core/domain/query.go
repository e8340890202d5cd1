package domain

import "time"

// SortField names a sortable user attribute using its API spelling.
type SortField string

const (
	SortByID        SortField = "id"
	SortByUsername  SortField = "username"
	SortByEmail     SortField = "email"
	SortByFirstName SortField = "firstName"
	SortByLastName  SortField = "lastName"
	SortByCompany   SortField = "company"
	SortByCreatedAt SortField = "createdAt"
	SortByLastLogin SortField = "lastLogin"
)

var sortFields = map[SortField]struct{}{
	SortByID: {}, SortByUsername: {}, SortByEmail: {}, SortByFirstName: {},
	SortByLastName: {}, SortByCompany: {}, SortByCreatedAt: {}, SortByLastLogin: {},
}

// Valid reports whether f can be sorted on.
func (f SortField) Valid() bool {
	_, ok := sortFields[f]
	return ok
}

// UserQuery is what the search engine hands to the repository.
// Search is already trimmed; empty means unfiltered. Limit 0 means no limit.
type UserQuery struct {
	Search   string
	SortBy   SortField
	SortDesc bool
	Offset   int
	Limit    int
}

// UserCountFilter narrows a count. Zero values match everything.
type UserCountFilter struct {
	Role         Role
	CreatedSince time.Time
}

// UserStats summarises the directory population.
type UserStats struct {
	TotalUsers        int64
	TotalAdmins       int64
	TotalRegularUsers int64
	NewUsersToday     int64
}
