// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a domain failure independently of where it was detected.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindDuplicateKey
	KindValidation
	KindReferentialViolation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindDuplicateKey:
		return "DuplicateKey"
	case KindValidation:
		return "ValidationFailure"
	case KindReferentialViolation:
		return "ReferentialViolation"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is checks. Any *Error of the same kind matches.
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrDuplicateKey         = &Error{Kind: KindDuplicateKey}
	ErrValidation           = &Error{Kind: KindValidation}
	ErrReferentialViolation = &Error{Kind: KindReferentialViolation}
)

// Error is the single domain error type surfaced by services.
type Error struct {
	Kind   Kind
	Entity string
	Field  string
	Value  string
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s with %s %q not found", e.Entity, e.Field, e.Value)
	case KindDuplicateKey:
		return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
	case KindValidation:
		if len(e.Fields) == 0 {
			return "validation failed"
		}
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return "validation failed: " + strings.Join(parts, "; ")
	case KindReferentialViolation:
		return fmt.Sprintf("%s %q is still referenced", e.Entity, e.Value)
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can write errors.Is(err, appErrors.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewNotFound reports a missing entity looked up by field=value.
func NewNotFound(entity, field string, value any) error {
	return &Error{Kind: KindNotFound, Entity: entity, Field: field, Value: fmt.Sprint(value)}
}

// NewDuplicateKey reports a uniqueness violation on field=value.
func NewDuplicateKey(entity, field string, value any) error {
	return &Error{Kind: KindDuplicateKey, Entity: entity, Field: field, Value: fmt.Sprint(value)}
}

// NewValidation reports malformed input, one message per offending field.
func NewValidation(fields map[string]string) error {
	return &Error{Kind: KindValidation, Fields: fields}
}

// NewFieldValidation is a shorthand for a single offending field.
func NewFieldValidation(field, msg string) error {
	return NewValidation(map[string]string{field: msg})
}

// NewReferentialViolation reports a delete that would leave dangling references.
func NewReferentialViolation(entity string, value any, cause error) error {
	return &Error{Kind: KindReferentialViolation, Entity: entity, Value: fmt.Sprint(value), Err: cause}
}

// KindOf returns the domain kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
