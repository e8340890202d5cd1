package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

// ImportService bulk-creates users, best effort per batch and all or nothing
// per record. There is no transaction across the batch.
type ImportService struct {
	repo   ports.UserRepository
	hasher *PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewImportService(repo ports.UserRepository, hasher *PasswordHasher, log zerolog.Logger) *ImportService {
	return &ImportService{repo: repo, hasher: hasher, log: log, now: time.Now}
}

// Import walks candidates in order. A record is rejected when its username or
// email already exists, including records committed earlier in the same call.
// A cancelled context rejects whatever has not been processed yet.
func (s *ImportService) Import(ctx context.Context, candidates []ports.ImportCandidate) ports.ImportResult {
	result := ports.ImportResult{Total: len(candidates)}

	for i, c := range candidates {
		if ctx.Err() != nil {
			result.Rejected += len(candidates) - i
			s.log.Warn().Err(ctx.Err()).Int("remaining", len(candidates)-i).Msg("import interrupted")
			break
		}

		if err := s.importOne(ctx, c); err != nil {
			result.Rejected++
			ev := s.log.Debug()
			if !errors.Is(err, domain.ErrUserExists) && !errors.Is(err, domain.ErrValidation) {
				ev = s.log.Error()
			}
			ev.Err(err).Int("index", i).Str("username", c.Username).Msg("import record rejected")
			continue
		}
		result.Accepted++
	}

	s.log.Info().
		Int("total", result.Total).
		Int("accepted", result.Accepted).
		Int("rejected", result.Rejected).
		Msg("batch import finished")
	return result
}

func (s *ImportService) importOne(ctx context.Context, c ports.ImportCandidate) error {
	username := strings.TrimSpace(c.Username)
	email := strings.TrimSpace(c.Email)
	if username == "" || email == "" {
		return domain.Invalid("username and email are required")
	}

	if taken, err := s.repo.ExistsByUsername(ctx, username); err != nil {
		return err
	} else if taken {
		return domain.ErrUsernameTaken
	}
	if taken, err := s.repo.ExistsByEmail(ctx, email); err != nil {
		return err
	} else if taken {
		return domain.ErrEmailTaken
	}

	hash, err := s.passwordHash(c.Password)
	if err != nil {
		return err
	}

	role, ok := domain.ParseRole(c.Role)
	if !ok {
		role = domain.RoleUser
	}
	enabled := true
	if c.Enabled != nil {
		enabled = *c.Enabled
	}

	// Create re-checks uniqueness atomically, so a concurrent writer that
	// slipped in after the checks above still gets this record rejected.
	_, err = s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Profile:      c.Profile,
		Role:         role,
		Enabled:      enabled,
		CreatedAt:    s.now().UTC(),
	})
	return err
}

// passwordHash stores bcrypt hashes as given and hashes anything else. A
// record without a password gets a random one nobody knows, so the account
// exists but cannot log in.
func (s *ImportService) passwordHash(password string) (string, error) {
	if s.hasher.IsHash(password) {
		return password, nil
	}
	if password == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		password = hex.EncodeToString(buf)
	}
	return s.hasher.Hash(password)
}
