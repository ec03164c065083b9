// Package validation checks request structs with go-playground/validator and
// turns its errors into per-field messages keyed by json name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Error lists the rejected fields with a message for each.
type Error struct {
	Fields map[string]string `json:"fields"`
}

// Error joins the messages in field-name order.
func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	msgs := make([]string, len(names))
	for i, f := range names {
		msgs[i] = e.Fields[f]
	}
	return strings.Join(msgs, "; ")
}

// Messages overrides the default message for a field error. Returning false
// falls back to Message.
type Messages func(field string, fe validator.FieldError) (string, bool)

// Struct checks s's validate tags. A rejected field yields an *Error; only
// the first failure per field is kept.
func Struct(s any, custom Messages) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	ve := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := FieldName(fe)
		if _, dup := ve.Fields[field]; dup {
			continue
		}
		msg, ok := "", false
		if custom != nil {
			msg, ok = custom(field, fe)
		}
		if !ok {
			msg = Message(field, fe)
		}
		ve.Fields[field] = msg
	}
	return ve
}

// FieldName maps people[2] to people.
func FieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

// Message is the default text for a failed tag.
func Message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
