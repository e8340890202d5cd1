package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

type stubValidator struct {
	claims *domain.Claims
	err    error
	got    string
}

func (s *stubValidator) Validate(token string) (*domain.Claims, error) {
	s.got = token
	return s.claims, s.err
}

func newContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	want := &domain.Claims{Subject: "alice", Roles: []domain.Role{domain.RoleAdmin}}
	v := &stubValidator{claims: want}
	c, rec := newContext("Bearer abc.def.ghi")

	called := false
	handler := Auth(v)(func(c echo.Context) error {
		called = true
		if got := ClaimsFrom(c); got != want {
			t.Fatalf("claims not set: %+v", got)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if v.got != "abc.def.ghi" {
		t.Fatalf("validator got %q", v.got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	v := &stubValidator{claims: &domain.Claims{Subject: "alice"}}
	c, _ := newContext("bearer tok")

	if err := Auth(v)(func(echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cases := map[string]struct {
		header string
		v      *stubValidator
	}{
		"missing header":  {"", &stubValidator{}},
		"wrong scheme":    {"Token abc", &stubValidator{}},
		"no token":        {"Bearer ", &stubValidator{}},
		"invalid token":   {"Bearer not-a-token", &stubValidator{err: domain.ErrUnauthenticated}},
		"validator error": {"Bearer tok", &stubValidator{err: errors.New("boom")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(tc.header)
			handler := Auth(tc.v)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
			if ClaimsFrom(c) != nil {
				t.Fatalf("claims must not be set")
			}
		})
	}
}
