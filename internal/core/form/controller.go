// Package form holds the sign-in form's local state: the field values, the
// field errors from the last validation, the loading flag and the password
// visibility toggle.
package form

import (
	"sync"

	"github.com/99minutos/signin-portal/internal/core/validation"
)

const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Controller is the state of one rendered sign-in form. It is safe for use
// by the submit flow and the renderer at the same time.
type Controller struct {
	mu           sync.RWMutex
	values       validation.SignInInput
	errors       validation.FieldErrors
	loading      bool
	showPassword bool
}

// New returns a form with empty values and the password hidden.
func New() *Controller {
	return &Controller{}
}

// Bind sets the field values from a submitted candidate.
func (c *Controller) Bind(in validation.SignInInput) {
	c.mu.Lock()
	c.values = in
	c.mu.Unlock()
}

// Values returns the current field values.
func (c *Controller) Values() validation.SignInInput {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values
}

// ClearPassword empties the password field after a failed submit.
func (c *Controller) ClearPassword() {
	c.mu.Lock()
	c.values.Password = ""
	c.mu.Unlock()
}

// Validate runs the schema against the current values. Errors from a
// previous call are replaced, never merged. It reports whether the form is
// valid.
func (c *Controller) Validate(s *validation.Schema) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, errs := s.Validate(c.values)
	c.errors = errs
	return len(errs) == 0
}

// Errors returns a copy of the field errors.
func (c *Controller) Errors() validation.FieldErrors {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.errors) == 0 {
		return nil
	}
	out := make(validation.FieldErrors, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// Error returns the message for field, or "".
func (c *Controller) Error(field string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errors[field]
}

// SetLoading implements ports.LoadingIndicator.
func (c *Controller) SetLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}

func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// SetShowPassword sets the visibility directly, e.g. from a re-rendered form.
func (c *Controller) SetShowPassword(show bool) {
	c.mu.Lock()
	c.showPassword = show
	c.mu.Unlock()
}

// TogglePasswordVisibility flips the password field between hidden and shown.
// It touches neither the values nor the errors.
func (c *Controller) TogglePasswordVisibility() {
	c.mu.Lock()
	c.showPassword = !c.showPassword
	c.mu.Unlock()
}

func (c *Controller) ShowPassword() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.showPassword
}

// PasswordInputType is the input type attribute for the password field.
func (c *Controller) PasswordInputType() string {
	if c.ShowPassword() {
		return "text"
	}
	return "password"
}

// PasswordIcon names the icon on the visibility toggle: an open eye while
// hidden, a crossed eye while shown.
func (c *Controller) PasswordIcon() string {
	if c.ShowPassword() {
		return "eye-off"
	}
	return "eye"
}
