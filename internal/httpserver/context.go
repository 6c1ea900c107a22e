package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/checkmoa/auth-service/internal/models"
)

// CurrentUser returns the user placed in the context by the auth middleware,
// or nil on unauthenticated routes.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get("authUser").(*models.User); ok {
		return u
	}
	return nil
}
