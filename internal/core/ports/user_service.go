package ports

import (
	"context"
	"time"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

// RegisterInput is a self-signup request.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// CreateUserInput is an admin or bootstrap creation request. Role "" means
// domain.DefaultRole.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Profile  domain.Profile
	Role     domain.Role
}

// ListUsersInput carries the raw search/list parameters.
type ListUsersInput struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
	Search  string
}

// UserPage is one page of a filtered, sorted listing.
type UserPage struct {
	Users       []*domain.User
	CurrentPage int
	TotalItems  int64
	TotalPages  int
	PageSize    int
}

// DefaultAdmin describes the account created at startup when missing.
type DefaultAdmin struct {
	Username string
	Email    string
	Password string
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (*domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	List(ctx context.Context, in ListUsersInput) (*UserPage, error)
	Export(ctx context.Context, search string) ([]*domain.User, error)
	Stats(ctx context.Context, now time.Time) (*domain.UserStats, error)
}
