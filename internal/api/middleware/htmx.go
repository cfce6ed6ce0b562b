package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const ctxHTMX = "htmx.info"

// HTMXInfo captures request metadata from HX-* headers.
type HTMXInfo struct {
	IsHTMX      bool
	IsBoosted   bool
	CurrentURL  string
	Target      string
	TriggerName string
}

// HTMX inspects HX-* headers and stores them on the context.
func HTMX() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			c.Set(ctxHTMX, HTMXInfo{
				IsHTMX:      strings.EqualFold(h.Get("HX-Request"), "true"),
				IsBoosted:   strings.EqualFold(h.Get("HX-Boosted"), "true"),
				CurrentURL:  h.Get("HX-Current-URL"),
				Target:      h.Get("HX-Target"),
				TriggerName: h.Get("HX-Trigger-Name"),
			})
			c.Response().Header().Add("Vary", "HX-Request")
			return next(c)
		}
	}
}

// IsHTMX reports whether the request was initiated by htmx. It falls back to
// the raw header when the HTMX middleware did not run.
func IsHTMX(c echo.Context) bool {
	if info, ok := c.Get(ctxHTMX).(HTMXInfo); ok {
		return info.IsHTMX
	}
	return strings.EqualFold(c.Request().Header.Get("HX-Request"), "true")
}

// Redirect navigates the client to path: HX-Redirect for htmx requests,
// 303 See Other otherwise.
func Redirect(c echo.Context, path string) error {
	if IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", path)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, path)
}
