package client

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const roleAdmin = "ROLE_ADMIN"

// AuthResponse is the body of a successful login.
type AuthResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
}

// Session holds at most one login. It lives only in memory and is safe for
// concurrent use; the last Set wins.
type Session struct {
	mu   sync.RWMutex
	auth *AuthResponse
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Set(auth AuthResponse) {
	auth.Roles = append([]string(nil), auth.Roles...)

	s.mu.Lock()
	s.auth = &auth
	s.mu.Unlock()
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.auth = nil
	s.mu.Unlock()
}

// Current returns a copy of the stored login.
func (s *Session) Current() (AuthResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.auth == nil {
		return AuthResponse{}, false
	}
	a := *s.auth
	a.Roles = append([]string(nil), s.auth.Roles...)
	return a, true
}

// AuthorizationHeader returns "<tokenType> <token>".
func (s *Session) AuthorizationHeader() (string, bool) {
	a, ok := s.Current()
	if !ok {
		return "", false
	}
	return tokenType(a.TokenType) + " " + a.AccessToken, true
}

func (s *Session) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.auth == nil {
		return false
	}
	for _, r := range s.auth.Roles {
		if r == roleAdmin {
			return true
		}
	}
	return false
}

func (s *Session) Username() string {
	a, _ := s.Current()
	return a.Username
}

// Token implements oauth2.TokenSource. It fails with ErrUnauthenticated when
// nobody is logged in.
func (s *Session) Token() (*oauth2.Token, error) {
	a, ok := s.Current()
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &oauth2.Token{
		AccessToken: a.AccessToken,
		TokenType:   tokenType(a.TokenType),
		Expiry:      a.ExpiresAt,
	}, nil
}

func tokenType(t string) string {
	if t == "" {
		return "Bearer"
	}
	return t
}
