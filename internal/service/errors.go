package service

import (
	"errors"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/query"
)

// ValidationError represents user input issues.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BuilderNotFoundError is returned when a parameter name has no registered
// builder.
type BuilderNotFoundError struct {
	Name string
}

func (e *BuilderNotFoundError) Error() string {
	return "builder not found: " + e.Name
}

// ErrQueryExecution is returned in place of any store failure. The store
// error itself is only logged.
var ErrQueryExecution = errors.New("query execution failed")

// asValidation converts filter and field errors raised while building a
// query into a ValidationError. Other errors are returned unchanged.
func asValidation(err error) error {
	var fieldErr *builders.UnknownFieldError
	var filterErr *query.FilterError
	switch {
	case errors.As(err, &fieldErr), errors.As(err, &filterErr):
		return &ValidationError{Message: err.Error()}
	default:
		return err
	}
}
