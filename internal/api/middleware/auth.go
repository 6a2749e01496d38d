package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinictrack/user-service/internal/core/domain"
)

// Context keys set by the auth chain.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyPrincipal = "principal"
)

// TokenVerifier turns a bearer token into the caller id it was issued for.
type TokenVerifier interface {
	Authenticate(token string) (string, error)
}

// PrincipalResolver loads the caller's current role.
type PrincipalResolver interface {
	Principal(ctx context.Context, userID string) (domain.Principal, error)
}

// Auth validates the bearer token and injects the caller id into context.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "no token provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			userID, err := verifier.Authenticate(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyUserID, userID)
			return next(c)
		}
	}
}

// LoadPrincipal resolves the caller id set by Auth into a domain.Principal,
// once per request. A caller whose account no longer exists is rejected.
func LoadPrincipal(resolver PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(ContextKeyUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			p, err := resolver.Principal(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
				}
				return err
			}

			c.Set(ContextKeyPrincipal, p)
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by LoadPrincipal.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(ContextKeyPrincipal).(domain.Principal)
	return p, ok && p.ID != ""
}
