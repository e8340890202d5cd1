package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/api/metrics"
	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

const claimsKey = "auth.claims"

// Auth validates the bearer token and injects its claims into the context.
// Requests without a usable token fail with domain.ErrUnauthenticated.
func Auth(validator ports.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.TokensRejectedTotal.WithLabelValues("missing").Inc()
				return domain.ErrUnauthenticated
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				metrics.TokensRejectedTotal.WithLabelValues("malformed").Inc()
				return domain.ErrUnauthenticated
			}

			claims, err := validator.Validate(strings.TrimSpace(token))
			if err != nil {
				metrics.TokensRejectedTotal.WithLabelValues("invalid").Inc()
				return domain.ErrUnauthenticated
			}

			SetClaims(c, claims)
			return next(c)
		}
	}
}

// SetClaims stores claims on the request context.
func SetClaims(c echo.Context, claims *domain.Claims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom returns the claims the Auth middleware stored, or nil.
func ClaimsFrom(c echo.Context) *domain.Claims {
	claims, _ := c.Get(claimsKey).(*domain.Claims)
	return claims
}
