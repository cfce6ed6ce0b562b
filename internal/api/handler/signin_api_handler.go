package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/signin-portal/internal/api/middleware"
	"github.com/99minutos/signin-portal/internal/api/toast"
	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
	"github.com/99minutos/signin-portal/internal/core/validation"
)

// SignInAPIHandler is the JSON variant of the sign-in flow.
type SignInAPIHandler struct {
	svc         ports.SignInService
	profilePath string
	secure      bool
}

func NewSignInAPIHandler(svc ports.SignInService, profilePath string, secureCookies bool) *SignInAPIHandler {
	return &SignInAPIHandler{svc: svc, profilePath: profilePath, secure: secureCookies}
}

type signInRequest struct {
	Email    string `json:"email"    validate:"email,email_format,max=255"`
	Password string `json:"password" validate:"min=8,max=18,password_complexity"`
}

type validationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

type signInFailedResponse struct {
	Error string       `json:"error"`
	Toast domain.Toast `json:"toast"`
}

type signInResponse struct {
	User     *domain.User `json:"user"`
	Token    string       `json:"token"`
	Redirect string       `json:"redirect"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	Loading       bool         `json:"loading"`
	Failed        bool         `json:"failed"`
}

// SignIn validates the credentials and signs in the current session.
//
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  signInFailedResponse
// @Failure      422   {object}  validationErrorResponse
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/sign-in [post]
func (h *SignInAPIHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			countValidationFailures(fe)
			return c.JSON(http.StatusUnprocessableEntity, validationErrorResponse{Errors: fe})
		}
		return err
	}

	toasts := toast.NewCollector()
	res, err := h.svc.Submit(c.Request().Context(), ports.SubmitInput{
		SessionKey:  middleware.SessionID(c),
		RequestID:   requestID(c),
		Credentials: domain.Credentials{Email: req.Email, Password: req.Password},
		Toaster:     toasts,
	})
	if err != nil {
		return err
	}

	if res.Failed || res.State.User == nil {
		t, ok := toasts.Last()
		if !ok {
			t = domain.SignInFailedToast
		}
		return c.JSON(http.StatusUnauthorized, signInFailedResponse{Error: t.Title, Toast: t})
	}

	if res.SessionKey != "" {
		if err := middleware.RotateSession(c, res.SessionKey); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, signInResponse{
		User:     res.State.User,
		Token:    middleware.SessionToken(c),
		Redirect: h.profilePath,
	})
}

// Session returns the user state of the current session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/session [get]
func (h *SignInAPIHandler) Session(c echo.Context) error {
	state, err := h.svc.State(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		Authenticated: state.Authenticated(),
		User:          state.User,
		Loading:       state.Loading,
		Failed:        state.Failed,
	})
}

// SignOut ends the current session.
//
// @Summary      Sign out
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sign-out [post]
func (h *SignInAPIHandler) SignOut(c echo.Context) error {
	if err := h.svc.SignOut(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return err
	}
	middleware.ClearSessionCookie(c, h.secure)
	return c.NoContent(http.StatusNoContent)
}
