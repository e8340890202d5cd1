package service

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := testTokens(t)
	user := &domain.User{ID: "u1", Username: "alice", Role: domain.RoleAdmin}

	token, exp, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if until := time.Until(exp); until <= 59*time.Minute || until > time.Hour {
		t.Fatalf("unexpected expiry %s", exp)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "alice" || claims.UserID != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !slices.Equal(claims.Roles, []domain.Role{domain.RoleAdmin}) {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("exp mismatch: %s vs %s", claims.ExpiresAt, exp)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	m := testTokens(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue(&domain.User{Username: "bob", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = time.Now
	if _, err := m.Validate(token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestTokenManager_RejectsForeignOrMalformedTokens(t *testing.T) {
	m := testTokens(t)

	other, err := NewTokenManager("another-secret-another-secret-another", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	foreign, _, _ := other.Issue(&domain.User{Username: "eve", Role: domain.RoleAdmin})

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":   "eve",
		"roles": []string{"ROLE_ADMIN"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "eve",
		"roles": []string{"ROLE_ADMIN"},
	}).SignedString([]byte(testSecret))

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "eve",
		"roles": []string{"ROLE_ROOT"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"roles": []string{"ROLE_USER"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	for name, token := range map[string]string{
		"wrong key":  foreign,
		"wrong alg":  hs512,
		"no exp":     noExp,
		"bad role":   badRole,
		"no subject": noSubject,
		"garbage":    "not-a-token",
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(token); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestNewTokenManager_WeakSecret(t *testing.T) {
	if _, err := NewTokenManager("short", time.Hour); !errors.Is(err, ErrWeakSecret) {
		t.Fatalf("expected ErrWeakSecret, got %v", err)
	}
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	m, err := NewTokenManager(testSecret, 0)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if m.TTL() != 24*time.Hour {
		t.Fatalf("expected 24h default, got %s", m.TTL())
	}
}
