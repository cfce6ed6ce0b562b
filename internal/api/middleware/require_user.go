package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

const ctxUser = "user"

// StateReader loads the user state of a portal session.
type StateReader interface {
	State(ctx context.Context, sessionKey string) (domain.UserState, error)
}

// RequireUser lets the request through only when the session holds a user.
// Browsers are sent to signInPath, API clients get 401.
func RequireUser(states StateReader, signInPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, err := states.State(c.Request().Context(), SessionID(c))
			if err != nil {
				return err
			}
			if !state.Authenticated() {
				if strings.HasPrefix(c.Path(), "/api/") {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not signed in"})
				}
				return Redirect(c, signInPath)
			}
			c.Set(ctxUser, state.User)
			return next(c)
		}
	}
}

// CurrentUser returns the user set by RequireUser, or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(ctxUser).(*domain.User)
	return u
}
