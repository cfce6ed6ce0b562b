package ports

import (
	"context"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

// SubmitInput carries one validated submit from the transport layer.
type SubmitInput struct {
	SessionKey  string
	RequestID   string
	Credentials domain.Credentials
	Loading     LoadingIndicator
	Toaster     Toaster
}

// SubmitResult is the outcome of a submit.
type SubmitResult struct {
	State domain.UserState
	// SessionKey is the key the session moved to on success. The caller must
	// hand it to the client in place of the submitted one.
	SessionKey string
	// Failed is true when the backend rejected the login or the user fetch.
	Failed bool
}

// SignInService runs the sign-in flow and exposes the session lifecycle
// around it.
type SignInService interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	State(ctx context.Context, sessionKey string) (domain.UserState, error)
	SignOut(ctx context.Context, sessionKey string) error
}
