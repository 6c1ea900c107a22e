package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/checkmoa/auth-service/internal/middleware"
	"github.com/checkmoa/auth-service/internal/repo"
	"github.com/checkmoa/auth-service/internal/service"
	"github.com/checkmoa/auth-service/pkg/tokens"
)

type testEnv struct {
	e   *echo.Echo
	svc *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repo.Migrate(db))

	rp := &repo.GormRepo{DB: db}
	codec := tokens.NewCodec([]byte("test-jwt-secret"))
	svc := &service.AuthService{
		Repo:               rp,
		Codec:              codec,
		Blacklist:          &service.BlacklistService{Repo: rp},
		AccessTokenExpiry:  "15m",
		RefreshTokenExpiry: "7d",
	}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:  &AuthHTTP{Svc: svc},
		AuditHandler: &AuditHTTP{},
		AuthMW:       middleware.NewAuth(codec, svc),
	})

	return &testEnv{e: e, svc: svc}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, env *testEnv) (string, string) {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/register", map[string]string{
		"name": "Test User", "email": "a@x.com", "password": "Secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "Secret123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res service.LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	return res.AccessToken, res.RefreshToken
}

func TestHTTP_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	access, _ := registerAndLogin(t, env)

	payload, err := env.svc.Codec.Verify(access)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.JTI)

	// register response must not leak the password hash
	rec := env.do(t, http.MethodPost, "/register", map[string]string{
		"name": "Other", "email": "b@x.com", "password": "Secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2id")
}

func TestHTTP_Login_WrongPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/register", map[string]string{
		"name": "Test User", "email": "a@x.com", "password": "Secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid-credentials")
}

func TestHTTP_SecondLoginRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	registerAndLogin(t, env)

	rec := env.do(t, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "Secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already-logged-in")
}

func TestHTTP_RefreshAndLogout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	access, refresh := registerAndLogin(t, env)

	rec := env.do(t, http.MethodPost, "/refresh", map[string]string{
		"refresh_token": refresh,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshRes struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshRes))
	require.NotEmpty(t, refreshRes.AccessToken)
	assert.NotEqual(t, access, refreshRes.AccessToken)

	rec = env.do(t, http.MethodPost, "/logout", map[string]string{
		"access_token": refreshRes.AccessToken, "refresh_token": refresh,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/logout", map[string]string{
		"access_token": refreshRes.AccessToken, "refresh_token": refresh,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already-logged-out")
}

func TestHTTP_Refresh_InvalidToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/refresh", map[string]string{
		"refresh_token": "not-a-jwt",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid-refresh-token")
}

func TestHTTP_FederatedCallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/auth/google/callback", map[string]string{
		"id": "google-123", "email": "g@x.com", "firstName": "Gil-dong", "lastName": "Hong",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pair service.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestHTTP_Me_RequiresAuth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	access, _ := registerAndLogin(t, env)
	rec = env.do(t, http.MethodGet, "/me", nil, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var me service.UserSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "a@x.com", me.Email)
}

func TestHTTP_Me_AutoRefreshOnExpiredCookie(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	access, refresh := registerAndLogin(t, env)

	payload, err := env.svc.Codec.Verify(access)
	require.NoError(t, err)
	expired, err := env.svc.Codec.Sign(tokens.NewPayload(payload.Subject), -time.Minute)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/me", nil, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: expired})
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// a fresh access cookie rides back on the response
	var replaced bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "accessToken" && ck.Value != "" && ck.Value != expired {
			replaced = true
		}
	}
	assert.True(t, replaced)
}

func TestHTTP_AdminRoute_ForbiddenForUsers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	access, _ := registerAndLogin(t, env)

	rec := env.do(t, http.MethodGet, "/admin/access-logs?q=login", nil, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
