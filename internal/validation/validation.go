// Package validation collects field-level input errors.
package validation

import (
	"strings"
	"unicode/utf8"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned as a single error when any field fails validation.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Required records an error when v is blank.
func (e *Errors) Required(field, v, message string) bool {
	if strings.TrimSpace(v) == "" {
		e.Add(field, message)
		return false
	}
	return true
}

// Length records an error when the rune count of v is outside [min, max].
func (e *Errors) Length(field, v string, min, max int, message string) bool {
	n := utf8.RuneCountInString(v)
	if n < min || n > max {
		e.Add(field, message)
		return false
	}
	return true
}

// Err returns nil when nothing was recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
