// Package validation wraps go-playground/validator with the shop's custom rules
// and turns validation failures into readable field messages.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	separators   = regexp.MustCompile(`[\s\-\(\)\.]`)
	jamaicaPhone = regexp.MustCompile(`^(?:\+?1)?876(\d{7})$`)

	once     sync.Once
	validate *validator.Validate
)

// NormalizePhone accepts 876-XXX-XXXX and 1-876-XXX-XXXX (separators and a leading
// "+" tolerated) and returns the canonical 1-876-XXX-XXXX form.
func NormalizePhone(phone string) (string, bool) {
	cleaned := separators.ReplaceAllString(strings.TrimSpace(phone), "")
	m := jamaicaPhone.FindStringSubmatch(cleaned)
	if m == nil {
		return "", false
	}
	local := m[1]
	return fmt.Sprintf("1-876-%s-%s", local[:3], local[3:]), true
}

// Validator returns the shared validator with the "jmphone" rule registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("jmphone", func(fl validator.FieldLevel) bool {
			_, ok := NormalizePhone(fl.Field().String())
			return ok
		})
	})
	return validate
}

// FieldError is one failed rule, reported against the JSON-ish field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Struct validates s and flattens validator errors into FieldErrors.
// A nil slice means s is valid.
func Struct(s interface{}) []FieldError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: toSnake(fe.Field()), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(toSnake(fe.Field()), "_", " ")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "jmphone":
		return "phone must be in 876-XXX-XXXX or 1-876-XXX-XXXX format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
