package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// SessionCookie carries the signed portal session id.
	SessionCookie = "signin_session"

	ctxSessionID    = "session_id"
	ctxSessionToken = "session_token"
	ctxSessionOpts  = "session_opts"
	issuer          = "signin-portal"
)

// SessionOptions configures the portal session cookie.
type SessionOptions struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// Session resolves the portal session from the cookie, or from a bearer
// token for API clients, and injects its id into the context. Requests
// without a valid session get a fresh one; tampered or expired tokens are
// never trusted.
func Session(opts SessionOptions) echo.MiddlewareFunc {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := requestToken(c)
			sid, err := ParseSessionToken(opts.Secret, token)
			if err != nil {
				sid = uuid.NewString()
				token, err = SignSessionToken(opts.Secret, sid, opts.TTL)
				if err != nil {
					return err
				}
				c.SetCookie(sessionCookie(token, opts))
			}

			c.Set(ctxSessionOpts, opts)
			c.Set(ctxSessionID, sid)
			c.Set(ctxSessionToken, token)
			return next(c)
		}
	}
}

// RotateSession replaces the current session with sid: a new token is signed,
// sent as the cookie and exposed through SessionID and SessionToken. It must
// run behind Session.
func RotateSession(c echo.Context, sid string) error {
	opts, ok := c.Get(ctxSessionOpts).(SessionOptions)
	if !ok {
		return errors.New("rotate session: no session middleware")
	}
	token, err := SignSessionToken(opts.Secret, sid, opts.TTL)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	dropSetCookie(c, SessionCookie)
	c.SetCookie(sessionCookie(token, opts))
	c.Set(ctxSessionID, sid)
	c.Set(ctxSessionToken, token)
	return nil
}

// SessionID returns the portal session id set by Session, or "".
func SessionID(c echo.Context) string {
	sid, _ := c.Get(ctxSessionID).(string)
	return sid
}

// SessionToken returns the signed token for the current session, or "".
func SessionToken(c echo.Context) string {
	token, _ := c.Get(ctxSessionToken).(string)
	return token
}

// SignSessionToken issues an HS256 token carrying only the session id.
func SignSessionToken(secret, sid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        sid,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken verifies token and returns its session id.
func ParseSessionToken(secret, token string) (string, error) {
	if token == "" {
		return "", errors.New("missing session token")
	}

	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return "", errors.New("invalid session token")
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", errors.New("invalid session id")
	}
	return claims.ID, nil
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// dropSetCookie removes a cookie this response was about to set.
func dropSetCookie(c echo.Context, name string) {
	h := c.Response().Header()
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, name+"=") {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
}

func requestToken(c echo.Context) string {
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func sessionCookie(token string, opts SessionOptions) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
