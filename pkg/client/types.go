package client

import "time"

// LoginRequest identifies the principal by username or email.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	BirthDate   string     `json:"birthDate,omitempty"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	Avatar      string     `json:"avatar"`
	Company     string     `json:"company"`
	JobPosition string     `json:"jobPosition"`
	Mobile      string     `json:"mobile"`
	Role        string     `json:"role"`
	Enabled     bool       `json:"enabled"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLogin   *time.Time `json:"lastLogin"`
}

// ProfileUpdate is a partial profile change; nil fields are not sent.
type ProfileUpdate struct {
	Email       *string `json:"email,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	BirthDate   *string `json:"birthDate,omitempty"`
	City        *string `json:"city,omitempty"`
	Country     *string `json:"country,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	Company     *string `json:"company,omitempty"`
	JobPosition *string `json:"jobPosition,omitempty"`
	Mobile      *string `json:"mobile,omitempty"`
}

// ListOptions are the query parameters of the user listing. Zero values
// leave the server defaults in place.
type ListOptions struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
	Search  string
}

type UserPage struct {
	Users       []User `json:"users"`
	CurrentPage int    `json:"currentPage"`
	TotalItems  int64  `json:"totalItems"`
	TotalPages  int    `json:"totalPages"`
	Size        int    `json:"size"`
}

type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalAdmins       int64 `json:"totalAdmins"`
	TotalRegularUsers int64 `json:"totalRegularUsers"`
	NewUsersToday     int64 `json:"newUsersToday"`
}

type ImportResult struct {
	TotalRecords      int `json:"totalRecords"`
	SuccessfulImports int `json:"successfulImports"`
	FailedImports     int `json:"failedImports"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
