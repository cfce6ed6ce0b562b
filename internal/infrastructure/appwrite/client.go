// Package appwrite is an AuthClient for the Appwrite account REST API.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10

	headerProject  = "X-Appwrite-Project"
	headerKey      = "X-Appwrite-Key"
	headerSession  = "X-Appwrite-Session"
	headerResponse = "X-Appwrite-Response-Format"
	responseFormat = "1.5.0"
)

// Config captures the settings for talking to an Appwrite project.
type Config struct {
	// Endpoint is the API root including the version, e.g. https://cloud.appwrite.io/v1.
	Endpoint  string
	ProjectID string
	// APIKey is a server key; with it Appwrite returns session secrets.
	APIKey  string
	Timeout time.Duration
}

// Client implements ports.AuthClient.
type Client struct {
	endpoint string
	project  string
	apiKey   string
	http     *http.Client
}

// New returns a Client. A default timeout is applied when none is provided.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.ProjectID == "" {
		return nil, errors.New("appwrite: endpoint and project id are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		project:  cfg.ProjectID,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

var _ ports.AuthClient = (*Client)(nil)

// Error is a non-2xx answer from Appwrite.
type Error struct {
	Status  int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("appwrite: %d %s: %s", e.Status, e.Type, e.Message)
}

// Unwrap maps Appwrite failures onto the domain sentinels.
func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return domain.ErrInvalidCredentials
	case e.Status == http.StatusNotFound:
		return domain.ErrUserNotFound
	case e.Status == http.StatusTooManyRequests, e.Status >= 500:
		return domain.ErrBackendUnavailable
	default:
		return nil
	}
}

type sessionResponse struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

type userResponse struct {
	ID                string `json:"$id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	EmailVerification bool   `json:"emailVerification"`
	CreatedAt         string `json:"$createdAt"`
}

// Login creates an email/password session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var res sessionResponse
	if err := c.do(ctx, http.MethodPost, "/account/sessions/email", nil, body, &res); err != nil {
		return nil, err
	}
	if res.Secret == "" {
		return nil, errors.New("appwrite: session secret missing, is the API key set?")
	}

	return &domain.Session{
		ID:        res.ID,
		UserID:    res.UserID,
		Secret:    res.Secret,
		ExpiresAt: parseTime(res.Expire),
	}, nil
}

// GetUser returns the account behind session.
func (c *Client) GetUser(ctx context.Context, session *domain.Session) (*domain.User, error) {
	if session == nil || session.Secret == "" {
		return nil, domain.ErrSessionNotFound
	}

	var res userResponse
	if err := c.do(ctx, http.MethodGet, "/account", session, nil, &res); err != nil {
		return nil, err
	}

	return &domain.User{
		ID:            res.ID,
		Email:         res.Email,
		Name:          res.Name,
		EmailVerified: res.EmailVerification,
		CreatedAt:     parseTime(res.CreatedAt),
	}, nil
}

// Logout deletes the current session.
func (c *Client) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Secret == "" {
		return nil
	}
	return c.do(ctx, http.MethodDelete, "/account/sessions/current", session, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, session *domain.Session, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("appwrite: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("appwrite: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerProject, c.project)
	req.Header.Set(headerResponse, responseFormat)
	if c.apiKey != "" {
		req.Header.Set(headerKey, c.apiKey)
	}
	if session != nil {
		req.Header.Set(headerSession, session.Secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("appwrite: %s %s: %w: %v", method, path, domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("appwrite: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(raw, e) != nil || e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	// The body's code can disagree with the transport status; trust the latter.
	e.Status = resp.StatusCode
	return e
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
