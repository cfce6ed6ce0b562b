package handler

import (
	"github.com/99minutos/signin-portal/internal/core/validation"
)

// echoValidator wraps the sign-in schema so Echo can call c.Validate(req).
type echoValidator struct {
	schema *validation.Schema
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator(schema *validation.Schema) *echoValidator {
	return &echoValidator{schema: schema}
}

// Validate satisfies the echo.Validator interface. Rule failures come back
// as validation.FieldErrors.
func (ev *echoValidator) Validate(i any) error {
	return ev.schema.Check(i)
}
