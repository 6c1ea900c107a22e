package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/checkmoa/auth-service/internal/middleware"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	AuditHandler *AuditHTTP
	AuthMW       *middleware.Auth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)
	e.POST("/refresh", d.AuthHandler.Refresh)

	e.POST("/auth/google/callback", d.AuthHandler.GoogleCallback)
	e.POST("/auth/kakao/callback", d.AuthHandler.KakaoCallback)

	private := e.Group("")
	private.Use(d.AuthMW.RequireAuth)
	private.GET("/me", d.AuthHandler.Me)
	private.DELETE("/me", d.AuthHandler.DeleteMe)

	admin := e.Group("/admin")
	admin.Use(d.AuthMW.RequireAuth, d.AuthMW.AdminOnly)
	admin.GET("/access-logs", d.AuditHandler.SearchAccessLogs)
}
