package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinictrack/user-service/internal/api/middleware"
	"github.com/clinictrack/user-service/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by middleware.LoadPrincipal.
// Its absence means the route was registered without the auth chain.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// baseURL is scheme://host of the current request.
func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}
