package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/signin-portal/internal/api/middleware"
	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/service"
	"github.com/99minutos/signin-portal/internal/core/validation"
	"github.com/99minutos/signin-portal/internal/infrastructure/memory"
	"github.com/99minutos/signin-portal/internal/pkg/config"
)

type acceptingAuth struct{}

func (acceptingAuth) Login(context.Context, string, string) (*domain.Session, error) {
	return &domain.Session{ID: "backend-1", UserID: "u-1", Secret: "s", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (acceptingAuth) GetUser(_ context.Context, s *domain.Session) (*domain.User, error) {
	return &domain.User{ID: s.UserID, Email: "user@example.com"}, nil
}

func (acceptingAuth) Logout(context.Context, *domain.Session) error { return nil }

func newPortal(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{Env: "development"}
	cfg.Session = config.SessionConfig{
		Secret:      "0123456789abcdef0123456789abcdef",
		TTL:         time.Hour,
		ProfilePath: "/profile",
		SignInPath:  "/sign-in",
	}
	svc := service.NewSignInService(acceptingAuth{}, memory.NewUserStateStore(time.Hour), memory.NewCredentialVault(time.Hour), nil, zerolog.Nop())

	e, err := NewRouter(Deps{Config: cfg, SignIn: svc, Schema: validation.MustNew(), Log: zerolog.Nop()})
	require.NoError(t, err)
	return e
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			found = ck
		}
	}
	require.NotNil(t, found, "expected a session cookie")
	return found
}

func getProfile(h http.Handler, ck *http.Cookie) int {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestSignIn_PreSignInCookieIsNotAuthenticated(t *testing.T) {
	h := newPortal(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sign-in", nil))
	preAuth := sessionCookie(t, rec)

	form := url.Values{"email": {"user@example.com"}, "password": {"Abcdef12"}}
	req := httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(preAuth)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	signedIn := sessionCookie(t, rec)
	assert.NotEqual(t, preAuth.Value, signedIn.Value)

	assert.Equal(t, http.StatusOK, getProfile(h, signedIn))
	assert.Equal(t, http.StatusSeeOther, getProfile(h, preAuth), "pre-sign-in cookie must not reach the profile")
}

func TestSignInAPI_PreSignInTokenIsNotAuthenticated(t *testing.T) {
	h := newPortal(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	preAuth := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sign-in", strings.NewReader(`{"email":"user@example.com","password":"Abcdef12"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(preAuth)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+preAuth.Value)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
}
