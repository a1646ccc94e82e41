// Package validation checks decoded request bodies and reports the first
// violated constraint as a client-facing message.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is a request-schema violation. Message is safe to show to clients.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an Error for a named field.
func New(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// urlorempty allows "" as a way to clear an optional link.
	_ = v.RegisterValidation("urlorempty", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		return isURI(value)
	})
	return v
}

func isURI(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

// Struct validates s and returns an *Error describing the first failure.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return fromFieldError(fieldErrs[0])
}

func fromFieldError(fe validator.FieldError) *Error {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return New(field, "%q is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return New(field, "%q must contain at least %s items", field, fe.Param())
		}
		return New(field, "%q length must be at least %s characters long", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return New(field, "%q must contain less than or equal to %s items", field, fe.Param())
		}
		return New(field, "%q length must be less than or equal to %s characters long", field, fe.Param())
	case "email":
		return New(field, "%q must be a valid email", field)
	case "url", "uri", "urlorempty":
		return New(field, "%q must be a valid uri", field)
	default:
		return New(field, "%q is invalid", field)
	}
}

// fieldPath drops the top-level struct name from the namespace so nested
// and indexed fields read as "technologies[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
