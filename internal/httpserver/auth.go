package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/checkmoa/auth-service/internal/apperr"
	"github.com/checkmoa/auth-service/internal/expiry"
	"github.com/checkmoa/auth-service/internal/federation"
	"github.com/checkmoa/auth-service/internal/logging"
	"github.com/checkmoa/auth-service/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// httpError maps business errors onto their HTTP status; anything else is a
// plain 500 without internals leaking to the client.
func httpError(err error) error {
	var be *apperr.Error
	if errors.As(err, &be) {
		return echo.NewHTTPError(be.Status, echo.Map{
			"code":    be.Code,
			"message": be.Message,
		})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	info := service.RequestInfo{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Endpoint:  c.Path(),
	}
	res, err := h.Svc.Login(ctx, req.Email, req.Password, info)
	if err != nil {
		return httpError(err)
	}

	h.setTokenCookies(c, res.AccessToken, res.RefreshToken)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	accessToken, refreshToken := h.tokensFromRequest(c)
	if accessToken == "" || refreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "both tokens are required")
	}

	if err := h.Svc.Logout(ctx, accessToken, refreshToken); err != nil {
		return httpError(err)
	}

	c.SetCookie(deleteCookie(accessCookieName, "/"))
	c.SetCookie(deleteCookie(refreshCookieName, "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	refreshToken := h.refreshTokenFromRequest(c)
	if refreshToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	accessToken, err := h.Svc.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return httpError(err)
	}

	if exp, err := expiry.Absolute(h.Svc.AccessTokenExpiry); err == nil {
		c.SetCookie(createCookie(accessCookieName, accessToken, "/", exp))
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": accessToken})
}

func (h *AuthHTTP) GoogleCallback(c echo.Context) error {
	var profile federation.GoogleProfile
	if err := c.Bind(&profile); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return h.federatedLogin(c, profile.Identity())
}

func (h *AuthHTTP) KakaoCallback(c echo.Context) error {
	var profile federation.KakaoProfile
	if err := c.Bind(&profile); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return h.federatedLogin(c, profile.Identity())
}

func (h *AuthHTTP) federatedLogin(c echo.Context, id federation.Identity) error {
	ctx := c.Request().Context()
	if id.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "profile email is required")
	}

	pair, err := h.Svc.HandleFederatedCallback(ctx, id)
	if err != nil {
		return httpError(err)
	}

	h.setTokenCookies(c, pair.AccessToken, pair.RefreshToken)
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, service.UserSummary{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	})
}

func (h *AuthHTTP) DeleteMe(c echo.Context) error {
	ctx := c.Request().Context()

	user := CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.DeleteUser(ctx, user.ID, req.Password); err != nil {
		return httpError(err)
	}

	c.SetCookie(deleteCookie(accessCookieName, "/"))
	c.SetCookie(deleteCookie(refreshCookieName, "/"))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, accessToken, refreshToken string) {
	now := time.Now()
	if d, err := expiry.Duration(h.Svc.AccessTokenExpiry); err == nil {
		c.SetCookie(createCookie(accessCookieName, accessToken, "/", now.Add(d)))
	}
	if d, err := expiry.Duration(h.Svc.RefreshTokenExpiry); err == nil {
		c.SetCookie(createCookie(refreshCookieName, refreshToken, "/", now.Add(d)))
	}
}

func (h *AuthHTTP) tokensFromRequest(c echo.Context) (string, string) {
	var req struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req)

	accessToken := req.AccessToken
	if accessToken == "" {
		if ck, err := c.Cookie(accessCookieName); err == nil {
			accessToken = ck.Value
		}
	}
	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if ck, err := c.Cookie(refreshCookieName); err == nil {
			refreshToken = ck.Value
		}
	}
	return accessToken, refreshToken
}

func (h *AuthHTTP) refreshTokenFromRequest(c echo.Context) string {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req)
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		return ck.Value
	}
	return ""
}
