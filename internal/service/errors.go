package service

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors returned by the services. Handlers map them to HTTP status codes.
var (
	ErrInvalidSemester     = errors.New("semester must be 1 or 2")
	ErrInvalidSetNumber    = errors.New("set number must be at least 1")
	ErrClassNotFound       = errors.New("class not found")
	ErrSubjectNotFound     = errors.New("subject not found")
	ErrQuestionSetNotFound = errors.New("question set not found")
	ErrQuestionBankEmpty   = errors.New("question bank is empty for this set")
	ErrResultNotFound      = errors.New("test result not found")
	ErrResultForbidden     = errors.New("test result belongs to another user")
	ErrUpstreamData        = errors.New("authoritative question data is inconsistent")
	ErrPersistence         = errors.New("failed to persist test result")
)

// ValidationError reports user-correctable problems with a submission, keyed by field.
type ValidationError struct {
	Fields map[string]string
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
	return "invalid submission: " + strings.Join(parts, "; ")
}

// newValidationError builds a ValidationError holding a single field message.
func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
