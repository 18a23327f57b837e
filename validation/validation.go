// Package validation validates entities before they are written to an
// index, using struct tags understood by go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// errorMessages maps validation tags to friendly error messages.
var errorMessages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"min":      "The field '%s' must be at least %s characters long.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"lte":      "The field '%s' must be less than or equal to %s.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"gt":       "The field '%s' must be greater than %s.",
	"lt":       "The field '%s' must be less than %s.",
	"oneof":    "The field '%s' must be one of %s.",
}

// parseMessage constructs a friendly error message for one violation.
func parseMessage(fieldName string, e validator.FieldError) string {
	if msg, exists := errorMessages[e.Tag()]; exists {
		switch strings.Count(msg, "%s") {
		case 1:
			return fmt.Sprintf(msg, fieldName)
		case 2:
			return fmt.Sprintf(msg, fieldName, e.Param())
		}
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", fieldName, e.Tag())
}

// fieldName resolves the document field name for a struct field,
// preferring the es tag, then the json tag, then the Go name.
func fieldName(structType reflect.Type, goName string) string {
	field, ok := structType.FieldByName(goName)
	if !ok {
		return goName
	}
	for _, key := range []string{"es", "json"} {
		tag := field.Tag.Get(key)
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			return name
		}
	}
	return goName
}

// ValidateStruct validates an entity and returns a map of document
// field names to friendly error messages. An empty map means valid.
func ValidateStruct(s any) map[string]string {
	validationErrors := make(map[string]string)

	err := validate.Struct(s)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			structType := reflect.TypeOf(s)
			for structType.Kind() == reflect.Pointer {
				structType = structType.Elem()
			}
			for _, e := range validationErrs {
				name := fieldName(structType, e.StructField())
				validationErrors[name] = parseMessage(name, e)
			}
		}
	}

	return validationErrors
}

// Error carries the per-field messages of a failed validation.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate returns a *Error when the entity has violations, nil
// otherwise.
func Validate(s any) error {
	fields := ValidateStruct(s)
	if len(fields) == 0 {
		return nil
	}
	return &Error{Fields: fields}
}
