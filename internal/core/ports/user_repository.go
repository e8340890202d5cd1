package ports

import (
	"context"
	"time"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

// UserRepository is the directory's persistence contract. Implementations are
// the single point of mutual exclusion: username and email uniqueness and the
// password hash swap must hold under concurrent callers.
type UserRepository interface {
	// Create stores a new user and returns it with its ID assigned.
	// Fails with domain.ErrUsernameTaken or domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateProfile applies the set fields of update. An email change that
	// collides with another user fails with domain.ErrEmailTaken.
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)

	// ReplacePasswordHash swaps the stored hash only if it still equals
	// oldHash; otherwise it fails with domain.ErrInvalidCredential.
	ReplacePasswordHash(ctx context.Context, id, oldHash, newHash string) error

	SetRole(ctx context.Context, id string, role domain.Role) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error

	// Search returns one page of matching users and the total match count.
	Search(ctx context.Context, q domain.UserQuery) ([]*domain.User, int64, error)
	Count(ctx context.Context, f domain.UserCountFilter) (int64, error)
}
