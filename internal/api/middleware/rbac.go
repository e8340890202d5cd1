package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/service"
)

// RequireRoles admits a request when the authenticated principal holds one of
// roles. With no roles it admits any authenticated principal. Must run after Auth.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.Authorize(ClaimsFrom(c), roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
