package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/validation"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid form"), http.StatusBadRequest, "invalid form"},
		{"invalid credentials", fmt.Errorf("login: %w", domain.ErrInvalidCredentials), http.StatusUnauthorized, "invalid credentials"},
		{"user exists", domain.ErrUserExists, http.StatusConflict, "user already exists"},
		{"backend down", fmt.Errorf("x: %w", domain.ErrBackendUnavailable), http.StatusServiceUnavailable, "service unavailable"},
		{"field errors", validation.FieldErrors{"email": "Enter a valid email."}, http.StatusUnprocessableEntity, "Enter a valid email."},
		{"unexpected", errors.New("mongo: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

		if rec.Code != tc.wantCode {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.wantCode, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tc.wantBody) {
			t.Errorf("%s: expected body to contain %q, got %s", tc.name, tc.wantBody, rec.Body.String())
		}
		if tc.name == "unexpected" && strings.Contains(rec.Body.String(), "mongo") {
			t.Errorf("internal cause leaked: %s", rec.Body.String())
		}
	}
}

func TestHTTPErrorHandler_CancelledWritesNothing(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/sign-in", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(context.Canceled, c)

	if rec.Body.Len() != 0 {
		t.Fatalf("expected no body, got %s", rec.Body.String())
	}
}
