package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/checkmoa/auth-service/internal/apperr"
	"github.com/checkmoa/auth-service/internal/service"
	"github.com/checkmoa/auth-service/pkg/tokens"
)

type Auth struct {
	Codec *tokens.Codec
	Svc   *service.AuthService
}

func NewAuth(codec *tokens.Codec, svc *service.AuthService) *Auth {
	return &Auth{Codec: codec, Svc: svc}
}

// RequireAuth verifies the bearer token and confirms through the service
// that its subject still exists and its jti is not revoked. When the access
// token arrived via cookie and has merely expired, the refresh cookie is used
// to mint a replacement transparently before the request proceeds.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		payload, err := m.Codec.Verify(raw)
		if errors.Is(err, tokens.ErrExpired) {
			payload, err = m.autoRefresh(c)
		}
		if err != nil {
			c.SetCookie(expiredCookie("accessToken"))
			c.SetCookie(expiredCookie("refreshToken"))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		user, err := m.Svc.ValidateUser(c.Request().Context(), payload.Subject, payload.JTI)
		if err != nil {
			var be *apperr.Error
			if errors.As(err, &be) {
				return echo.NewHTTPError(be.Status, be.Message)
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}

		c.Set("authUser", user)
		c.Set("user_id", user.ID.String())
		c.Set("role", user.Role)
		return next(c)
	}
}

// AdminOnly must run after RequireAuth.
func (m *Auth) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, ok := c.Get("role").(string); !ok || role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

// autoRefresh trades a valid refresh cookie for a new access token and plants
// the replacement cookie on the response.
func (m *Auth) autoRefresh(c echo.Context) (tokens.Payload, error) {
	ck, err := c.Cookie("refreshToken")
	if err != nil || ck.Value == "" {
		return tokens.Payload{}, tokens.ErrExpired
	}

	accessToken, err := m.Svc.RefreshAccessToken(c.Request().Context(), ck.Value)
	if err != nil {
		return tokens.Payload{}, err
	}

	payload, err := m.Codec.Verify(accessToken)
	if err != nil {
		return tokens.Payload{}, err
	}

	c.SetCookie(&http.Cookie{
		Name:     "accessToken",
		Value:    accessToken,
		Path:     "/",
		Expires:  payload.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return payload, nil
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := c.Cookie("accessToken"); err == nil {
		return ck.Value
	}
	return ""
}

func expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
