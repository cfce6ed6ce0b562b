package view

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/form"
	"github.com/99minutos/signin-portal/internal/core/validation"
)

func render(t *testing.T, name string, data any) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data, nil))
	return buf.String()
}

func TestRenderer_DefinesPages(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	names := r.Names()
	for _, want := range []string{PageSignIn, PageProfile, FragmentSignInForm} {
		assert.Contains(t, names, want)
	}
	assert.Error(t, r.Render(&bytes.Buffer{}, "missing", nil, nil))
}

func TestSignInPage_ErrorsAndToast(t *testing.T) {
	f := form.New()
	f.Bind(validation.SignInInput{Email: "nope", Password: "short"})
	f.Validate(validation.MustNew())

	html := render(t, PageSignIn, SignInPage{
		Action: "/sign-in",
		Form:   f,
		Toasts: []domain.Toast{domain.SignInFailedToast},
	})

	assert.Contains(t, html, "Enter a valid email.")
	assert.Contains(t, html, "Password must be at least 8 characters long")
	assert.Contains(t, html, `value="nope"`)
	assert.Contains(t, html, `type="password"`)
	assert.Contains(t, html, `data-icon="eye"`)
	assert.Contains(t, html, "Something went wrong.")
	assert.Contains(t, html, "toast destructive")
}

func TestSignInForm_ShowPassword(t *testing.T) {
	f := form.New()
	f.TogglePasswordVisibility()

	html := render(t, FragmentSignInForm, SignInPage{Action: "/sign-in", Form: f})

	assert.Contains(t, html, `type="text"`)
	assert.Contains(t, html, `data-icon="eye-off"`)
	assert.Contains(t, html, "Hide password")
	assert.NotContains(t, html, "<html")
}

func TestSignInForm_Loading(t *testing.T) {
	f := form.New()
	f.SetLoading(true)

	html := render(t, FragmentSignInForm, SignInPage{Action: "/sign-in", Form: f})

	assert.Contains(t, html, `aria-busy="true"`)
	assert.Contains(t, html, "spinner active")
}

func TestProfilePage(t *testing.T) {
	html := render(t, PageProfile, ProfilePage{
		User:        &domain.User{ID: "u-1", Email: "user@example.com", Name: "ada", EmailVerified: true, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		SignOutPath: "/sign-out",
	})

	assert.Contains(t, html, "user@example.com (verified)")
	assert.Contains(t, html, "2026-03-01")
	assert.Contains(t, html, `action="/sign-out"`)
	assert.Contains(t, html, ">A<")
}
