package service

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrNotMember            = errors.New("you are not a member of this group")
	ErrForbidden            = errors.New("only the group owner can do that")
	ErrConflict             = errors.New("already exists")
	ErrOwnerCannotLeave     = errors.New("the owner cannot leave the group; delete it instead")
	ErrInvalidCode          = errors.New("invalid or expired code")
	ErrMovieUnavailable     = errors.New("could not find movie information")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrStorageNotConfigured = errors.New("storage not configured")
)

// ValidationError carries per-field messages for form submissions.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
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
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
