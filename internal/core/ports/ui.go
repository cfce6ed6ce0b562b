package ports

import "github.com/99minutos/signin-portal/internal/core/domain"

// Toaster presents a toast to the user.
type Toaster interface {
	Toast(t domain.Toast)
}

// Navigator moves the user to another route.
type Navigator interface {
	Push(path string)
}

// LoadingIndicator is the submit form's local loading flag.
type LoadingIndicator interface {
	SetLoading(loading bool)
}
