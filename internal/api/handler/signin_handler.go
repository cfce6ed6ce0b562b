package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/signin-portal/internal/api/middleware"
	"github.com/99minutos/signin-portal/internal/api/toast"
	"github.com/99minutos/signin-portal/internal/api/view"
	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/form"
	"github.com/99minutos/signin-portal/internal/core/ports"
	"github.com/99minutos/signin-portal/internal/core/service"
	"github.com/99minutos/signin-portal/internal/core/validation"
)

const intentTogglePassword = "toggle-password"

// Paths are the routes the sign-in pages link and redirect to.
type Paths struct {
	SignIn  string
	SignOut string
	Profile string
}

// SignInHandler serves the HTML sign-in form.
type SignInHandler struct {
	svc    ports.SignInService
	schema *validation.Schema
	paths  Paths
	secure bool
	log    zerolog.Logger
}

func NewSignInHandler(svc ports.SignInService, schema *validation.Schema, paths Paths, secureCookies bool, log zerolog.Logger) *SignInHandler {
	return &SignInHandler{svc: svc, schema: schema, paths: paths, secure: secureCookies, log: log}
}

type signInForm struct {
	Email        string `form:"email"`
	Password     string `form:"password"`
	Intent       string `form:"intent"`
	ShowPassword bool   `form:"show_password"`
}

// Show renders the empty form, or sends a signed-in user on to the profile.
func (h *SignInHandler) Show(c echo.Context) error {
	state, err := h.svc.State(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	nav := &navigator{}
	if service.NewRedirectEffect(h.paths.Profile).Observe(state, nav) {
		return middleware.Redirect(c, nav.target)
	}

	f := form.New()
	f.SetShowPassword(c.QueryParam("show_password") == "true")
	return h.render(c, http.StatusOK, f, nil)
}

// Submit validates the form and signs in, or flips the password visibility
// when the toggle button was pressed.
func (h *SignInHandler) Submit(c echo.Context) error {
	var in signInForm
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	f := form.New()
	f.Bind(validation.SignInInput{Email: in.Email, Password: in.Password})
	f.SetShowPassword(in.ShowPassword)

	if in.Intent == intentTogglePassword {
		f.TogglePasswordVisibility()
		return h.render(c, http.StatusOK, f, nil)
	}

	if !f.Validate(h.schema) {
		countValidationFailures(f.Errors())
		return h.render(c, h.status(c, http.StatusUnprocessableEntity), f, nil)
	}

	ctx := c.Request().Context()
	toasts := toast.NewCollector()
	res, err := h.svc.Submit(ctx, ports.SubmitInput{
		SessionKey:  middleware.SessionID(c),
		RequestID:   requestID(c),
		Credentials: domain.Credentials{Email: in.Email, Password: in.Password},
		Loading:     f,
		Toaster:     toasts,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Client went away; nobody is left to render for.
			return nil
		}
		f.ClearPassword()
		return h.render(c, h.status(c, http.StatusInternalServerError), f, toasts)
	}

	if res.SessionKey != "" {
		if err := middleware.RotateSession(c, res.SessionKey); err != nil {
			return err
		}
	}

	nav := &navigator{}
	if service.NewRedirectEffect(h.paths.Profile).Observe(res.State, nav) {
		return middleware.Redirect(c, nav.target)
	}

	f.ClearPassword()
	return h.render(c, h.status(c, http.StatusUnauthorized), f, toasts)
}

// SignOut ends the portal session and returns to the sign-in page.
func (h *SignInHandler) SignOut(c echo.Context) error {
	if err := h.svc.SignOut(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return err
	}
	middleware.ClearSessionCookie(c, h.secure)
	return middleware.Redirect(c, h.paths.SignIn)
}

// Profile renders the signed-in user's page. It runs behind RequireUser.
func (h *SignInHandler) Profile(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageProfile, view.ProfilePage{
		User:        middleware.CurrentUser(c),
		SignOutPath: h.paths.SignOut,
	})
}

// render writes the whole page, or only the form for htmx swaps with the
// toast raised as an HX-Trigger event.
func (h *SignInHandler) render(c echo.Context, status int, f *form.Controller, toasts *toast.Collector) error {
	page := view.SignInPage{Action: h.paths.SignIn, Form: f}
	if toasts == nil {
		toasts = toast.NewCollector()
	}

	if middleware.IsHTMX(c) {
		if err := toasts.WriteTrigger(c); err != nil {
			h.log.Warn().Err(err).Msg("failed to encode toast trigger")
		}
		return c.Render(status, view.FragmentSignInForm, page)
	}

	page.Toasts = toasts.Toasts()
	return c.Render(status, view.PageSignIn, page)
}

// status keeps htmx responses at 200 so the fragment is swapped in.
func (h *SignInHandler) status(c echo.Context, code int) int {
	if middleware.IsHTMX(c) {
		return http.StatusOK
	}
	return code
}
