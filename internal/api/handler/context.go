package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenleaf/storefront/internal/core/service"
)

// ctxProfile returns the browser profile injected by the Profile middleware.
// A missing profile means the route was registered without it.
func ctxProfile(c echo.Context) (*service.Profile, error) {
	p, _ := c.Get("profile").(*service.Profile)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "missing profile")
	}
	return p, nil
}
