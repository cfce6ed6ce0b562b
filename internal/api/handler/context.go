package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/signin-portal/internal/api/metrics"
	"github.com/99minutos/signin-portal/internal/core/validation"
)

// requestID returns the id assigned by the RequestID middleware.
func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// navigator implements ports.Navigator by remembering where to go; the
// handler turns it into a redirect.
type navigator struct {
	target string
}

func (n *navigator) Push(path string) { n.target = path }

func countValidationFailures(errs validation.FieldErrors) {
	for field := range errs {
		metrics.ValidationFailuresTotal.WithLabelValues(field).Inc()
	}
}
