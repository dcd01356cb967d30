package domain

import (
	"fmt"

	"github.com/allisson/colkeys/internal/errors"
)

// Migration error definitions.
var (
	// ErrStatementExecution indicates the database rejected a DDL or DML statement.
	ErrStatementExecution = errors.Wrap(errors.ErrUnavailable, "statement execution failed")

	// ErrRandomizedFilter indicates an equality filter on a randomized column,
	// which the encryption scheme cannot evaluate.
	ErrRandomizedFilter = errors.Wrap(errors.ErrInvalidInput, "equality filter on randomized column")

	// ErrMissingFilterValue indicates the expected record has no value for the filter column.
	ErrMissingFilterValue = errors.Wrap(errors.ErrInvalidInput, "expected record has no filter value")
)

// StepError records the step a run failed in. Err keeps the underlying
// taxonomy error (ErrStatementExecution, ErrSigningFailure, ...).
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
