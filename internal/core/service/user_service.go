package service

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	minPasswordLen  = 6
	notSpecified    = "Not specified"
)

// UserService owns the directory invariants on top of a UserRepository.
type UserService struct {
	repo   ports.UserRepository
	hasher *PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, hasher *PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, log: log, now: time.Now}
}

// Register creates a self-signed-up USER with the original defaults for the
// profile fields the signup form does not ask for.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.Create(ctx, ports.CreateUserInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Role:     domain.RoleUser,
		Profile: domain.Profile{
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			City:        notSpecified,
			Country:     notSpecified,
			Company:     notSpecified,
			JobPosition: notSpecified,
			Avatar:      avatarURL(in.FirstName, in.LastName),
		},
	})
}

// Create stores a new enabled principal with a hashed password.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	switch {
	case username == "":
		return nil, domain.Invalid("username is required")
	case email == "":
		return nil, domain.Invalid("email is required")
	case len(in.Password) < minPasswordLen:
		return nil, domain.Invalid("password must be at least %d characters", minPasswordLen)
	case len(in.Password) > maxPasswordBytes:
		return nil, domain.Invalid("password must be at most %d bytes", maxPasswordBytes)
	}

	role := in.Role
	if role == "" {
		role = domain.DefaultRole
	}
	if !role.Valid() {
		return nil, domain.Invalid("unknown role %q", role)
	}

	// The repository enforces uniqueness; checking first only picks the message.
	if taken, err := s.repo.ExistsByUsername(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}
	if taken, err := s.repo.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Profile:      in.Profile,
		Role:         role,
		Enabled:      true,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Str("role", created.Role.String()).Msg("user created")
	return created, nil
}

// UpdateProfile applies a partial update; only set fields change.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return nil, domain.Invalid("email cannot be empty")
		}
		update.Email = &email
	}
	if update.Empty() {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.UpdateProfile(ctx, id, update)
}

// ChangePassword replaces the hash only when currentPassword verifies
// against the stored one.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return domain.Invalid("new password must be at least %d characters", minPasswordLen)
	}
	if len(newPassword) > maxPasswordBytes {
		return domain.Invalid("new password must be at most %d bytes", maxPasswordBytes)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(user.PasswordHash, currentPassword) {
		return domain.ErrInvalidCredential
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.ReplacePasswordHash(ctx, id, user.PasswordHash, hash); err != nil {
		return err
	}

	s.log.Info().Str("user_id", id).Msg("password changed")
	return nil
}

// SetRole is idempotent: setting the current role succeeds.
func (s *UserService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.Invalid("invalid role, use ROLE_USER or ROLE_ADMIN")
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("role", role.String()).Msg("role updated")
	return s.repo.FindByID(ctx, id)
}

// SetEnabled is idempotent: setting the current flag succeeds.
func (s *UserService) SetEnabled(ctx context.Context, id string, enabled bool) (*domain.User, error) {
	if err := s.repo.SetEnabled(ctx, id, enabled); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Bool("enabled", enabled).Msg("status updated")
	return s.repo.FindByID(ctx, id)
}

// Delete removes the user permanently and returns what was removed.
func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("username", user.Username).Msg("user deleted")
	return user, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *UserService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.repo.ExistsByUsername(ctx, username)
}

func (s *UserService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}

// List filters, sorts and slices the directory. Pages are 0-based; an empty
// result has TotalPages 0 and a page past the end yields no users.
func (s *UserService) List(ctx context.Context, in ports.ListUsersInput) (*ports.UserPage, error) {
	if in.Page < 0 {
		return nil, domain.Invalid("page must be 0 or greater")
	}
	if in.Size < 1 {
		return nil, domain.Invalid("size must be at least 1")
	}
	size := min(in.Size, maxPageSize)

	sortBy := domain.SortField(in.SortBy)
	if in.SortBy == "" {
		sortBy = domain.SortByUsername
	}
	if !sortBy.Valid() {
		return nil, domain.Invalid("cannot sort by %q", in.SortBy)
	}

	query := domain.UserQuery{
		Search:   strings.TrimSpace(in.Search),
		SortBy:   sortBy,
		SortDesc: strings.EqualFold(in.SortDir, "desc"),
		Offset:   in.Page * size,
		Limit:    size,
	}
	// A page whose offset overflows int is past the end of any store; ask
	// for one row only to learn the total.
	past := in.Page > math.MaxInt/size
	if past {
		query.Offset, query.Limit = 0, 1
	}
	users, total, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if users == nil || past {
		users = []*domain.User{}
	}

	return &ports.UserPage{
		Users:       users,
		CurrentPage: in.Page,
		TotalItems:  total,
		TotalPages:  totalPages(total, size),
		PageSize:    size,
	}, nil
}

// Export returns every user matching search, sorted by username.
func (s *UserService) Export(ctx context.Context, search string) ([]*domain.User, error) {
	users, _, err := s.repo.Search(ctx, domain.UserQuery{
		Search: strings.TrimSpace(search),
		SortBy: domain.SortByUsername,
	})
	return users, err
}

// Stats counts the population; "today" starts at UTC midnight of now.
func (s *UserService) Stats(ctx context.Context, now time.Time) (*domain.UserStats, error) {
	var (
		stats domain.UserStats
		err   error
	)
	if stats.TotalUsers, err = s.repo.Count(ctx, domain.UserCountFilter{}); err != nil {
		return nil, err
	}
	if stats.TotalAdmins, err = s.repo.Count(ctx, domain.UserCountFilter{Role: domain.RoleAdmin}); err != nil {
		return nil, err
	}
	if stats.TotalRegularUsers, err = s.repo.Count(ctx, domain.UserCountFilter{Role: domain.RoleUser}); err != nil {
		return nil, err
	}
	midnight := now.UTC().Truncate(24 * time.Hour)
	if stats.NewUsersToday, err = s.repo.Count(ctx, domain.UserCountFilter{CreatedSince: midnight}); err != nil {
		return nil, err
	}
	return &stats, nil
}

// EnsureDefaultAdmin creates the bootstrap admin unless its username exists.
// An empty password disables the bootstrap.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, admin ports.DefaultAdmin) error {
	if admin.Username == "" || admin.Password == "" {
		s.log.Debug().Msg("default admin bootstrap disabled")
		return nil
	}
	exists, err := s.repo.ExistsByUsername(ctx, admin.Username)
	if err != nil {
		return err
	}
	if exists {
		s.log.Info().Str("username", admin.Username).Msg("default admin already exists")
		return nil
	}

	_, err = s.Create(ctx, ports.CreateUserInput{
		Username: admin.Username,
		Email:    admin.Email,
		Password: admin.Password,
		Role:     domain.RoleAdmin,
		Profile: domain.Profile{
			FirstName:   "System",
			LastName:    "Administrator",
			City:        "System",
			Country:     "System",
			Company:     "System",
			JobPosition: "Administrator",
			Avatar:      avatarURL("Admin", ""),
		},
	})
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	return err
}

func totalPages(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func avatarURL(first, last string) string {
	name := strings.TrimSpace(first + " " + last)
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=6366F1&color=fff"
}
