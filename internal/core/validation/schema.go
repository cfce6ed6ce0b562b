// Package validation holds the sign-in schema: field rules for email and
// password and the messages shown next to each field when a rule fails.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

const (
	MaxEmailLength    = 255
	MinPasswordLength = 8
	MaxPasswordLength = 18
)

// SignInInput is the candidate object submitted by the sign-in form.
type SignInInput struct {
	Email    string `json:"email"    form:"email"    validate:"email,email_format,max=255"`
	Password string `json:"password" form:"password" validate:"min=8,max=18,password_complexity"`
}

// Field messages, keyed by "<field>.<tag>".
var messages = map[string]string{
	"email.email":                  "Enter a valid email.",
	"email.email_format":           "Enter a valid email.",
	"email.max":                    "Email is too long.",
	"password.min":                 "Password must be at least 8 characters long",
	"password.max":                 "Password is too long.",
	"password.password_complexity": "Password must contain at least one uppercase letter, one lowercase letter, and one number.",
}

// FieldErrors maps a field name to the message of its first failing rule.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+fe[f])
	}
	return strings.Join(msgs, "; ")
}

// Schema validates candidate objects and renders field-level messages.
type Schema struct {
	v     *validator.Validate
	trans ut.Translator
}

// New builds the schema with its custom rule and English messages.
func New() (*Schema, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("password_complexity", validatePasswordComplexity); err != nil {
		return nil, fmt.Errorf("register password_complexity: %w", err)
	}
	if err := v.RegisterValidation("email_format", validateEmailFormat); err != nil {
		return nil, fmt.Errorf("register email_format: %w", err)
	}

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("register default translations: %w", err)
	}
	for _, tag := range []string{"email", "email_format", "max", "min", "password_complexity"} {
		if err := v.RegisterTranslation(tag, trans, registerMessages, translateField); err != nil {
			return nil, fmt.Errorf("register %s translation: %w", tag, err)
		}
	}

	return &Schema{v: v, trans: trans}, nil
}

// MustNew is New for package-level wiring where a failure is a programming error.
func MustNew() *Schema {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a sign-in candidate. On success it returns the typed
// credentials and a nil FieldErrors.
func (s *Schema) Validate(in SignInInput) (domain.Credentials, FieldErrors) {
	if err := s.Check(&in); err != nil {
		var fe FieldErrors
		if errors.As(err, &fe) {
			return domain.Credentials{}, fe
		}
		return domain.Credentials{}, FieldErrors{"form": err.Error()}
	}
	return domain.Credentials{Email: in.Email, Password: in.Password}, nil
}

// Check validates any tagged struct and returns FieldErrors on rule failures.
func (s *Schema) Check(i any) error {
	err := s.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(FieldErrors, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = fe.Translate(s.trans)
	}
	return out
}

func registerMessages(trans ut.Translator) error {
	for key, text := range messages {
		if err := trans.Add(key, text, true); err != nil {
			return err
		}
	}
	return nil
}

// translateField prefers a sign-in message and falls back to the library's
// English text for other structs.
func translateField(trans ut.Translator, fe validator.FieldError) string {
	key := fe.Field() + "." + fe.Tag()
	if _, ok := messages[key]; ok {
		if msg, err := trans.T(key); err == nil {
			return msg
		}
	}
	switch fe.Tag() {
	case "email", "email_format":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// validatePasswordComplexity requires an ASCII lowercase letter, an ASCII
// uppercase letter, an ASCII digit and no whitespace.
func validatePasswordComplexity(fl validator.FieldLevel) bool {
	return PasswordComplex(fl.Field().String())
}

// PasswordComplex reports whether p satisfies the complexity rule alone.
func PasswordComplex(p string) bool {
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsSpace(r) || r == '\ufeff':
			return false
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

var (
	emailLocalPart = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]$`)
	emailDomain    = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)
)

// validateEmailFormat narrows the RFC 5322 "email" rule to plain addresses:
// no quoted or spaced local parts, no leading or doubled dots, and a
// top-level domain of at least two letters.
func validateEmailFormat(fl validator.FieldLevel) bool {
	return EmailFormat(fl.Field().String())
}

// EmailFormat reports whether s passes the plain-address rule alone.
func EmailFormat(s string) bool {
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return emailLocalPart.MatchString(s[:at]) && emailDomain.MatchString(s[at+1:])
}
