package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
	"github.com/cirestech/usermgmt/internal/infrastructure/db/memory"
)

const testSecret = "test-secret-test-secret-test-secret!"

var discardLogger = zerolog.Nop()

func testHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

func testTokens(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

func newUserSvc() (*UserService, *memory.UserRepository) {
	repo := memory.NewUserRepository()
	return NewUserService(repo, testHasher(), discardLogger), repo
}

func mustCreate(t *testing.T, svc *UserService, username, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := svc.Create(context.Background(), ports.CreateUserInput{
		Username: username,
		Email:    email,
		Password: "password",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return u
}

// failingRepo wraps a real repository and fails selected calls.
type failingRepo struct {
	ports.UserRepository
	createErr error
	touchErr  error
}

func (r *failingRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	return r.UserRepository.Create(ctx, u)
}

func (r *failingRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	return r.UserRepository.TouchLastLogin(ctx, id, at)
}

var errBoom = errors.New("boom")
