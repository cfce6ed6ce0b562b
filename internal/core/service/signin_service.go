package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/signin-portal/internal/api/metrics"
	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

type signInService struct {
	auth  ports.AuthClient
	store ports.UserStateStore
	vault ports.CredentialVault
	audit ports.AttemptRecorder
	log   zerolog.Logger
	now   func() time.Time
	// newKey mints the session key a successful sign-in moves to.
	newKey func() string
}

// NewSignInService returns a SignInService implementation. audit may be nil.
func NewSignInService(
	auth ports.AuthClient,
	store ports.UserStateStore,
	vault ports.CredentialVault,
	audit ports.AttemptRecorder,
	log zerolog.Logger,
) ports.SignInService {
	if audit == nil {
		audit = discardRecorder{}
	}
	return &signInService{
		auth:   auth,
		store:  store,
		vault:  vault,
		audit:  audit,
		log:    log,
		now:    time.Now,
		newKey: uuid.NewString,
	}
}

// Submit runs one sign-in attempt for the session. Backend failures are
// reported through the toaster and SubmitResult.Failed, not as an error; a
// returned error means the request context ended or the state/vault stores
// failed.
func (s *signInService) Submit(ctx context.Context, in ports.SubmitInput) (*ports.SubmitResult, error) {
	if in.SessionKey == "" {
		return nil, fmt.Errorf("submit: %w", domain.ErrSessionNotFound)
	}
	loading := in.Loading
	if loading == nil {
		loading = noopLoading{}
	}
	toaster := in.Toaster
	if toaster == nil {
		toaster = noopToaster{}
	}

	loading.SetLoading(true)
	defer loading.SetLoading(false)
	metrics.SubmissionsInFlight.Inc()
	defer metrics.SubmissionsInFlight.Dec()

	attempt := domain.SignInAttempt{
		Email:      in.Credentials.Email,
		SessionKey: in.SessionKey,
		RequestID:  in.RequestID,
	}

	if _, err := s.store.Dispatch(ctx, in.SessionKey, domain.InitAction()); err != nil {
		toaster.Toast(domain.SignInFailedToast)
		s.finish(&attempt, domain.OutcomeFailure, err)
		return &ports.SubmitResult{Failed: true}, fmt.Errorf("submit: dispatch init: %w", err)
	}

	user, session, err := s.authenticate(ctx, in.Credentials)
	if err != nil {
		return s.fail(ctx, in.SessionKey, toaster, &attempt, err, false)
	}

	// The signed-in state lives under a fresh key; the pre-sign-in key may be
	// known to someone else.
	key := s.newKey()
	if err := s.vault.Put(ctx, key, session); err != nil {
		s.discardSession(ctx, session)
		return s.fail(ctx, in.SessionKey, toaster, &attempt, fmt.Errorf("store backend session: %w", err), true)
	}

	state, err := s.store.Dispatch(ctx, key, domain.SuccessAction(user))
	if err != nil {
		if delErr := s.vault.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log.Warn().Err(delErr).Str("session", key).Msg("failed to drop backend session")
		}
		s.discardSession(ctx, session)
		return s.fail(ctx, in.SessionKey, toaster, &attempt, fmt.Errorf("dispatch success: %w", err), true)
	}

	s.retire(ctx, in.SessionKey, session)

	attempt.UserID = user.ID
	s.finish(&attempt, domain.OutcomeSuccess, nil)
	s.log.Info().
		Str("session", key).
		Str("user_id", user.ID).
		Msg("sign-in succeeded")

	return &ports.SubmitResult{State: state, SessionKey: key}, nil
}

// retire drops everything held under the pre-sign-in key, including a backend
// session from an earlier sign-in. Failures are logged; the key is no longer
// handed to the client.
func (s *signInService) retire(ctx context.Context, key string, current *domain.Session) {
	ctx = context.WithoutCancel(ctx)

	prev, err := s.vault.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
	case err != nil:
		s.log.Warn().Err(err).Str("session", key).Msg("failed to load previous backend session")
	default:
		if prev.ID != current.ID {
			s.discardSession(ctx, prev)
		}
		if err := s.vault.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("session", key).Msg("failed to drop previous backend session")
		}
	}

	if err := s.store.Clear(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("session", key).Msg("failed to clear previous session state")
	}
}

// authenticate performs the two backend calls strictly in sequence.
func (s *signInService) authenticate(ctx context.Context, creds domain.Credentials) (*domain.User, *domain.Session, error) {
	start := time.Now()
	session, err := s.auth.Login(ctx, creds.Email, creds.Password)
	metrics.ObserveBackend("login", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	start = time.Now()
	user, err := s.auth.GetUser(ctx, session)
	metrics.ObserveBackend("get_user", time.Since(start).Seconds(), err)
	if err != nil {
		s.discardSession(ctx, session)
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		s.discardSession(ctx, session)
		return nil, nil, fmt.Errorf("get user: %w", domain.ErrUserNotFound)
	}
	return user, session, nil
}

// fail moves the state to FETCH_FAILURE. The dispatch is detached from ctx
// cancellation so the state never stays loading. A cancelled ctx suppresses
// the toast and is returned as the error; infra failures are returned too.
func (s *signInService) fail(
	ctx context.Context,
	key string,
	toaster ports.Toaster,
	attempt *domain.SignInAttempt,
	cause error,
	infra bool,
) (*ports.SubmitResult, error) {
	state, err := s.store.Dispatch(context.WithoutCancel(ctx), key, domain.FailureAction())
	if err != nil {
		s.log.Error().Err(err).Str("session", key).Msg("failed to dispatch sign-in failure")
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.finish(attempt, domain.OutcomeCancelled, cause)
		s.log.Debug().Err(cause).Str("session", key).Msg("sign-in abandoned by client")
		return &ports.SubmitResult{State: state, Failed: true}, ctxErr
	}

	s.log.Error().Err(cause).Str("session", key).Msg("sign-in failed")
	toaster.Toast(domain.SignInFailedToast)
	s.finish(attempt, domain.OutcomeFailure, cause)

	if infra {
		return &ports.SubmitResult{State: state, Failed: true}, fmt.Errorf("submit: %w", cause)
	}
	return &ports.SubmitResult{State: state, Failed: true}, nil
}

// discardSession deletes a backend session the portal will not keep.
func (s *signInService) discardSession(ctx context.Context, session *domain.Session) {
	if session == nil {
		return
	}
	if err := s.auth.Logout(context.WithoutCancel(ctx), session); err != nil {
		s.log.Warn().Err(err).Str("backend_session", session.ID).Msg("failed to discard backend session")
	}
}

func (s *signInService) finish(attempt *domain.SignInAttempt, outcome domain.AttemptOutcome, cause error) {
	attempt.Outcome = outcome
	attempt.Timestamp = s.now().UTC()
	if cause != nil {
		attempt.Reason = cause.Error()
	}
	metrics.SubmissionsTotal.WithLabelValues(string(outcome)).Inc()
	s.audit.Record(*attempt)
}

func (s *signInService) State(ctx context.Context, key string) (domain.UserState, error) {
	if key == "" {
		return domain.UserState{}, nil
	}
	state, err := s.store.State(ctx, key)
	if err != nil {
		return domain.UserState{}, fmt.Errorf("load user state: %w", err)
	}
	return state, nil
}

// SignOut deletes the backend session, if any, and drops the portal state.
// A backend that refuses the logout does not keep the portal signed in.
func (s *signInService) SignOut(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	session, err := s.vault.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
	case err != nil:
		return fmt.Errorf("sign out: %w", err)
	default:
		start := time.Now()
		logoutErr := s.auth.Logout(ctx, session)
		metrics.ObserveBackend("logout", time.Since(start).Seconds(), logoutErr)
		if logoutErr != nil {
			s.log.Warn().Err(logoutErr).Str("session", key).Msg("backend logout failed")
		}
	}

	if err := s.vault.Delete(ctx, key); err != nil {
		return fmt.Errorf("sign out: delete backend session: %w", err)
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return fmt.Errorf("sign out: clear state: %w", err)
	}

	s.log.Info().Str("session", key).Msg("signed out")
	return nil
}

type noopLoading struct{}

func (noopLoading) SetLoading(bool) {}

type noopToaster struct{}

func (noopToaster) Toast(domain.Toast) {}

type discardRecorder struct{}

func (discardRecorder) Record(domain.SignInAttempt) {}
