package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinictrack/user-service/internal/core/domain"
)

// RBAC rejects callers whose role is not in allowedRoles. It must run after LoadPrincipal.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if _, ok := allowed[p.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access denied: insufficient permissions")
			}
			return next(c)
		}
	}
}
