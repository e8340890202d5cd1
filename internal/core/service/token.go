package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

const (
	// TokenType is the authorization scheme clients put before the token.
	TokenType       = "Bearer"
	defaultTokenTTL = 24 * time.Hour
	minSecretLength = 32
)

var ErrWeakSecret = errors.New("jwt secret must be at least 32 bytes")

// tokenClaims is the JWT body: sub, roles, iat, exp plus the user id.
type tokenClaims struct {
	UserID string   `json:"uid,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 bearer tokens. The key is fixed for
// the lifetime of the process.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of every issued token.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for user valid from now until now+TTL.
func (m *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	iat := m.now().UTC().Truncate(time.Second)
	exp := iat.Add(m.ttl)
	claims := tokenClaims{
		UserID: user.ID,
		Roles:  []string{user.Role.String()},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate checks signature, algorithm and expiry. Any failure is reported as
// domain.ErrUnauthenticated with no further detail.
func (m *TokenManager) Validate(token string) (*domain.Claims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}

	roles := make([]domain.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		role, ok := domain.ParseRole(r)
		if !ok {
			return nil, domain.ErrUnauthenticated
		}
		roles = append(roles, role)
	}

	out := &domain.Claims{
		Subject: claims.Subject,
		UserID:  claims.UserID,
		Roles:   roles,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	out.ExpiresAt = claims.ExpiresAt.Time
	return out, nil
}
