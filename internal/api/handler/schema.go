package handler

import (
	"bytes"
	"encoding/json"
	"time"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
}

type registerRequest struct {
	Username  string `json:"username"  validate:"required,min=3,max=50"`
	Email     string `json:"email"     validate:"required,email,max=100"`
	Password  string `json:"password"  validate:"required,min=6,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName"  validate:"max=100"`
}

// --- Users ---

type userResponse struct {
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

// updateProfileRequest is a partial update; absent fields stay unchanged.
type updateProfileRequest struct {
	Email       *string `json:"email"       validate:"omitempty,email,max=100"`
	FirstName   *string `json:"firstName"   validate:"omitempty,max=100"`
	LastName    *string `json:"lastName"    validate:"omitempty,max=100"`
	BirthDate   *string `json:"birthDate"   validate:"omitempty,datetime=2006-01-02"`
	City        *string `json:"city"        validate:"omitempty,max=100"`
	Country     *string `json:"country"     validate:"omitempty,max=100"`
	Avatar      *string `json:"avatar"      validate:"omitempty,max=500"`
	Company     *string `json:"company"     validate:"omitempty,max=100"`
	JobPosition *string `json:"jobPosition" validate:"omitempty,max=100"`
	Mobile      *string `json:"mobile"      validate:"omitempty,max=30"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=72"`
}

type listUsersResponse struct {
	Users       []userResponse `json:"users"`
	CurrentPage int            `json:"currentPage"`
	TotalItems  int64          `json:"totalItems"`
	TotalPages  int            `json:"totalPages"`
	Size        int            `json:"size"`
}

type statsResponse struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalAdmins       int64 `json:"totalAdmins"`
	TotalRegularUsers int64 `json:"totalRegularUsers"`
	NewUsersToday     int64 `json:"newUsersToday"`
}

// --- Batch import ---

// importRecord is one element of an import file, in the shape the user
// generator produces.
type importRecord struct {
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	BirthDate   string     `json:"birthDate"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	Avatar      string     `json:"avatar"`
	Company     string     `json:"company"`
	JobPosition string     `json:"jobPosition"`
	Mobile      string     `json:"mobile"`
	Role        importRole `json:"role"`
	Enabled     *bool      `json:"enabled"`
}

// importRole accepts "ROLE_ADMIN", "admin" or {"name": "ROLE_ADMIN"}.
type importRole string

func (r *importRole) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if b[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = importRole(obj.Name)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = importRole(s)
	return nil
}

type importResponse struct {
	TotalRecords      int `json:"totalRecords"`
	SuccessfulImports int `json:"successfulImports"`
	FailedImports     int `json:"failedImports"`
}
