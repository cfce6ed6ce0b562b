// Package view renders the portal's HTML pages from embedded templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/form"
)

//go:embed templates/*.tmpl
var templates embed.FS

const (
	PageSignIn  = "sign_in"
	PageProfile = "profile"
	// FragmentSignInForm is the form alone, swapped in place by htmx.
	FragmentSignInForm = "sign_in_form"
)

// SignInPage is the data for the sign-in page and its form fragment.
type SignInPage struct {
	Action string
	Form   *form.Controller
	Toasts []domain.Toast
}

// ProfilePage is the data for the profile page.
type ProfilePage struct {
	User        *domain.User
	SignOutPath string
}

// Renderer implements echo.Renderer.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"initial": func(s string) string {
			if s == "" {
				return "?"
			}
			return strings.ToUpper(string([]rune(s)[:1]))
		},
	}
	tmpl, err := template.New("_root").Funcs(funcs).ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named page or fragment.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	if r.tmpl.Lookup(name) == nil {
		return fmt.Errorf("template %q not found", name)
	}
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// Names lists the defined templates, for tests and diagnostics.
func (r *Renderer) Names() []string {
	var names []string
	for _, t := range r.tmpl.Templates() {
		if t.Name() != "_root" {
			names = append(names, t.Name())
		}
	}
	return names
}
