package service

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies secrets with bcrypt.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is out of bcrypt's range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(secret string) (string, error) {
	if len(secret) > maxPasswordBytes {
		return "", domain.Invalid("password must be at most %d bytes", maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash. bcrypt compares in constant time.
func (h *PasswordHasher) Verify(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// IsHash reports whether s is already a bcrypt hash.
func (h *PasswordHasher) IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// dummyVerify burns the same bcrypt work as a real comparison so that a
// login for an unknown user takes as long as one with a wrong password.
func (h *PasswordHasher) dummyVerify(secret string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(secret))
}
