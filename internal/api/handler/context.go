package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/api/middleware"
	"github.com/cirestech/usermgmt/internal/core/domain"
)

// ctxClaims returns the claims injected by the Auth middleware. Their absence
// means the route was mounted without Auth and is treated as unauthenticated.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
