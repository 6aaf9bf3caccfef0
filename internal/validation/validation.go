// Package validation holds the small predicates and sanitizers shared by every
// resource: field presence, text cleaning, format checks and allow-lists.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate = newValidator()
	strip    = bluemonday.StrictPolicy()
)

// newValidator reports fields by the name clients send rather than the Go
// field name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"mapstructure", "json"} {
			name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		return ValidDate(fl.Field().String(), DateLayout)
	})
	return v
}

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// ErrInvalidID is returned by ParseID for anything other than a positive
// decimal integer.
var ErrInvalidID = errors.New("id must be a positive integer")

// Validator exposes the shared validator instance so services and tests use
// the same registered rules.
func Validator() *validator.Validate {
	return validate
}

// RequireFields returns the names that are absent from body or carry only
// whitespace. An empty result means every field is present.
func RequireFields(body map[string]any, names ...string) []string {
	var missing []string
	for _, name := range names {
		if isBlank(body[name]) {
			missing = append(missing, name)
		}
	}
	return missing
}

func isBlank(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	case []string:
		return len(value) == 0
	case []any:
		return len(value) == 0
	default:
		return false
	}
}

// SanitizeText trims s, drops any markup and escapes the characters that are
// significant in HTML.
func SanitizeText(s string) string {
	return strings.TrimSpace(strip.Sanitize(strings.TrimSpace(s)))
}

// ValidEmail reports whether s is a well-formed e-mail address.
func ValidEmail(s string) bool {
	return s != "" && validate.Var(s, "email") == nil
}

// ValidURL reports whether s is an absolute URL.
func ValidURL(s string) bool {
	return s != "" && validate.Var(s, "url") == nil
}

// ValidDate reports whether s parses with layout and formats back to exactly
// the same string.
func ValidDate(s, layout string) bool {
	t, err := time.Parse(layout, s)
	if err != nil {
		return false
	}
	return t.Format(layout) == s
}

// Enum returns the allowed entry matching value case-insensitively, or
// fallback when nothing matches.
func Enum(value string, allowed []string, fallback string) string {
	value = strings.TrimSpace(value)
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, value) {
			return candidate
		}
	}
	return fallback
}

// ParseID accepts digits only and rejects zero.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidID
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidID
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// Describe turns a validator error into a short caller-facing message naming
// the offending fields.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "url":
			parts = append(parts, fmt.Sprintf("%s must be a valid URL", fe.Field()))
		case "calendar_date":
			parts = append(parts, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
