// Package memory is a process-local UserRepository for development and tests.
// A single RWMutex guards every index, which makes each method atomic.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string // username -> id
	byEmail    map[string]string // email -> id
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func clone(u *domain.User) *domain.User {
	c := *u
	if u.BirthDate != nil {
		bd := *u.BirthDate
		c.BirthDate = &bd
	}
	if u.LastLogin != nil {
		ll := *u.LastLogin
		c.LastLogin = &ll
	}
	return &c
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.Username]; ok {
		return nil, domain.ErrUsernameTaken
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrEmailTaken
	}

	stored := clone(user)
	if stored.ID == "" {
		stored.ID = primitive.NewObjectID().Hex()
	}
	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	r.byEmail[stored.Email] = stored.ID
	return clone(stored), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findIndexed(r.byUsername, username)
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findIndexed(r.byEmail, email)
}

func (r *UserRepository) findIndexed(index map[string]string, key string) (*domain.User, error) {
	id, ok := index[key]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[username]
	return ok, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	oldEmail := u.Email
	if update.Email != nil && *update.Email != oldEmail {
		if owner, taken := r.byEmail[*update.Email]; taken && owner != id {
			return nil, domain.ErrEmailTaken
		}
	}

	update.Apply(u)
	if u.Email != oldEmail {
		delete(r.byEmail, oldEmail)
		r.byEmail[u.Email] = id
	}
	return clone(u), nil
}

func (r *UserRepository) ReplacePasswordHash(_ context.Context, id, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.PasswordHash != oldHash {
		return domain.ErrInvalidCredential
	}
	u.PasswordHash = newHash
	return nil
}

func (r *UserRepository) SetRole(_ context.Context, id string, role domain.Role) error {
	return r.mutate(id, func(u *domain.User) { u.Role = role })
}

func (r *UserRepository) SetEnabled(_ context.Context, id string, enabled bool) error {
	return r.mutate(id, func(u *domain.User) { u.Enabled = enabled })
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(u *domain.User) { u.LastLogin = &at })
}

func (r *UserRepository) mutate(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	delete(r.byUsername, u.Username)
	delete(r.byEmail, u.Email)
	return nil
}

func (r *UserRepository) Search(_ context.Context, q domain.UserQuery) ([]*domain.User, int64, error) {
	r.mu.RLock()
	matched := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		if matches(u, q.Search) {
			matched = append(matched, clone(u))
		}
	}
	r.mu.RUnlock()

	sortUsers(matched, q.SortBy, q.SortDesc)

	total := int64(len(matched))
	if q.Offset < 0 || q.Offset >= len(matched) {
		return []*domain.User{}, total, nil
	}
	end := len(matched)
	if q.Limit > 0 {
		end = min(q.Offset+q.Limit, len(matched))
	}
	return matched[q.Offset:end], total, nil
}

func (r *UserRepository) Count(_ context.Context, f domain.UserCountFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, u := range r.byID {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if !f.CreatedSince.IsZero() && u.CreatedAt.Before(f.CreatedSince) {
			continue
		}
		n++
	}
	return n, nil
}

// matches is a case-insensitive substring test over the searchable fields.
func matches(u *domain.User, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, field := range []string{u.Username, u.Email, u.FirstName, u.LastName, u.Company} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortUsers(users []*domain.User, by domain.SortField, desc bool) {
	slices.SortStableFunc(users, func(a, b *domain.User) int {
		c := compareBy(a, b, by)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
}

func compareBy(a, b *domain.User, by domain.SortField) int {
	switch by {
	case domain.SortByID:
		return cmp.Compare(a.ID, b.ID)
	case domain.SortByEmail:
		return cmp.Compare(a.Email, b.Email)
	case domain.SortByFirstName:
		return cmp.Compare(a.FirstName, b.FirstName)
	case domain.SortByLastName:
		return cmp.Compare(a.LastName, b.LastName)
	case domain.SortByCompany:
		return cmp.Compare(a.Company, b.Company)
	case domain.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.SortByLastLogin:
		return compareTimes(a.LastLogin, b.LastLogin)
	default:
		return cmp.Compare(a.Username, b.Username)
	}
}

// compareTimes orders never-logged-in users first, as a null sorts in Mongo.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
