package ports

import (
	"context"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

// AttemptRepository appends sign-in attempts to the audit trail.
type AttemptRepository interface {
	InsertAttempt(ctx context.Context, attempt *domain.SignInAttempt) error
}

// AttemptRecorder accepts attempts without blocking the submit path.
type AttemptRecorder interface {
	Record(attempt domain.SignInAttempt)
}
