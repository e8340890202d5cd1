package ports

import (
	"context"
	"time"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

// LoginInput identifies the principal by username or, when empty, by email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is a freshly issued bearer token and the principal it names.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
}

// TokenValidator turns a raw bearer token into claims.
// Every failure is domain.ErrUnauthenticated.
type TokenValidator interface {
	Validate(token string) (*domain.Claims, error)
}
