package service

import (
	"sync"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

// DefaultProfilePath is where a signed-in user is sent from the sign-in page.
const DefaultProfilePath = "/profile"

// RedirectEffect navigates away from the sign-in page once a user appears in
// the state. It fires once per distinct user.
type RedirectEffect struct {
	path string

	mu       sync.Mutex
	lastUser string
}

func NewRedirectEffect(path string) *RedirectEffect {
	if path == "" {
		path = DefaultProfilePath
	}
	return &RedirectEffect{path: path}
}

// Observe is called on every render with the current state. It reports
// whether it navigated.
func (r *RedirectEffect) Observe(state domain.UserState, nav ports.Navigator) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state.User == nil {
		r.lastUser = ""
		return false
	}
	if state.User.ID == r.lastUser {
		return false
	}
	r.lastUser = state.User.ID
	nav.Push(r.path)
	return true
}

func (r *RedirectEffect) Path() string { return r.path }
