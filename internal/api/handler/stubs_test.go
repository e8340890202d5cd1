package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/api/middleware"
	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.loginFn(ctx, in)
}

// stubUserService implements ports.UserService; unset funcs panic when hit.
type stubUserService struct {
	ports.UserService

	registerFn       func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	findByIDFn       func(ctx context.Context, id string) (*domain.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, id string, u domain.ProfileUpdate) (*domain.User, error)
	changePasswordFn func(ctx context.Context, id, current, next string) error
	setRoleFn        func(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	setEnabledFn     func(ctx context.Context, id string, enabled bool) (*domain.User, error)
	deleteFn         func(ctx context.Context, id string) (*domain.User, error)
	listFn           func(ctx context.Context, in ports.ListUsersInput) (*ports.UserPage, error)
	exportFn         func(ctx context.Context, search string) ([]*domain.User, error)
	statsFn          func(ctx context.Context, now time.Time) (*domain.UserStats, error)
}

func (s *stubUserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findByIDFn(ctx, id)
}

func (s *stubUserService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findByUsernameFn(ctx, username)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate) (*domain.User, error) {
	return s.updateProfileFn(ctx, id, u)
}

func (s *stubUserService) ChangePassword(ctx context.Context, id, current, next string) error {
	return s.changePasswordFn(ctx, id, current, next)
}

func (s *stubUserService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return s.setRoleFn(ctx, id, role)
}

func (s *stubUserService) SetEnabled(ctx context.Context, id string, enabled bool) (*domain.User, error) {
	return s.setEnabledFn(ctx, id, enabled)
}

func (s *stubUserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	return s.deleteFn(ctx, id)
}

func (s *stubUserService) List(ctx context.Context, in ports.ListUsersInput) (*ports.UserPage, error) {
	return s.listFn(ctx, in)
}

func (s *stubUserService) Export(ctx context.Context, search string) ([]*domain.User, error) {
	return s.exportFn(ctx, search)
}

func (s *stubUserService) Stats(ctx context.Context, now time.Time) (*domain.UserStats, error) {
	return s.statsFn(ctx, now)
}

type stubImportService struct {
	importFn func(ctx context.Context, c []ports.ImportCandidate) ports.ImportResult
}

func (s *stubImportService) Import(ctx context.Context, c []ports.ImportCandidate) ports.ImportResult {
	return s.importFn(ctx, c)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newRequest(e *echo.Echo, method, target string, body io.Reader, claims *domain.Claims) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		middleware.SetClaims(c, claims)
	}
	return c, rec
}

var (
	aliceClaims = &domain.Claims{Subject: "alice", UserID: "u1", Roles: []domain.Role{domain.RoleUser}}
	adminClaims = &domain.Claims{Subject: "root", UserID: "u0", Roles: []domain.Role{domain.RoleAdmin}}
)

func aliceUser() *domain.User {
	return &domain.User{
		ID:        "u1",
		Username:  "alice",
		Email:     "alice@example.com",
		Profile:   domain.Profile{FirstName: "Alice", City: "Lyon"},
		Role:      domain.RoleUser,
		Enabled:   true,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
