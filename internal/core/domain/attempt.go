package domain

import "time"

// AttemptOutcome is the result of one sign-in submit.
type AttemptOutcome string

const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeFailure   AttemptOutcome = "failure"
	OutcomeCancelled AttemptOutcome = "cancelled"
)

// SignInAttempt is an audit record of one submit. The failure reason is
// internal and never shown to the user.
type SignInAttempt struct {
	Email      string
	Outcome    AttemptOutcome
	Reason     string
	UserID     string
	SessionKey string
	RequestID  string
	Timestamp  time.Time
}
