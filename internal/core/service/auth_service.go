package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

// LoginLimiter throttles repeated failed logins per identifier (Redis).
type LoginLimiter interface {
	Blocked(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

// NopLimiter never blocks. Used when no Redis is configured.
type NopLimiter struct{}

func (NopLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (NopLimiter) RecordFailure(context.Context, string) error   { return nil }
func (NopLimiter) Reset(context.Context, string) error           { return nil }

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	repo    ports.UserRepository
	hasher  *PasswordHasher
	tokens  *TokenManager
	limiter LoginLimiter
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(repo ports.UserRepository, hasher *PasswordHasher, tokens *TokenManager, limiter LoginLimiter, log zerolog.Logger) *AuthService {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	return &AuthService{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		log:     log,
		now:     time.Now,
	}
}

// Login authenticates by username (or email when username is empty). Unknown
// users and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	identifier := strings.TrimSpace(in.Username)
	byEmail := identifier == ""
	if byEmail {
		identifier = strings.TrimSpace(in.Email)
	}
	if identifier == "" || in.Password == "" {
		return nil, domain.Invalid("username or email and password are required")
	}

	blocked, err := s.limiter.Blocked(ctx, identifier)
	if err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("login limiter check failed, continuing")
	} else if blocked {
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.lookup(ctx, identifier, byEmail)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.hasher.dummyVerify(in.Password)
		s.recordFailure(ctx, identifier)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, in.Password) {
		s.recordFailure(ctx, identifier)
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, domain.ErrAccountDisabled
	}

	if err := s.limiter.Reset(ctx, identifier); err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("failed to reset login limiter")
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", user.Username).Str("role", user.Role.String()).Msg("user logged in")

	return &ports.LoginResult{
		Token:     token,
		TokenType: TokenType,
		ExpiresAt: exp,
		User:      user,
	}, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string, byEmail bool) (*domain.User, error) {
	if byEmail {
		return s.repo.FindByEmail(ctx, identifier)
	}
	return s.repo.FindByUsername(ctx, identifier)
}

func (s *AuthService) recordFailure(ctx context.Context, identifier string) {
	if err := s.limiter.RecordFailure(ctx, identifier); err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("failed to record login failure")
	}
}
