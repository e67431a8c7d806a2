package chart

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDataFormat means inline chart data could not be parsed as
	// "<label> <integer>" pairs.
	ErrInvalidDataFormat = errors.New("invalid inline data format, expected '<label> <number>' pairs")

	// ErrNoData means the resolved dataset was empty; no chart is produced.
	ErrNoData = errors.New("no data to chart")

	// ErrUnsafeCode means the synthesized code tripped the security screen.
	// It is deliberately distinct from ExecError so tests can assert the
	// sandbox actively blocks known attack patterns.
	ErrUnsafeCode = errors.New("synthesized code contains forbidden constructs")

	// ErrInvalidCode means the synthesized code failed the syntactic sanity
	// check before execution.
	ErrInvalidCode = errors.New("synthesized code does not look like chart code")
)

// ExecError reports a failure inside the sandboxed execution, carrying the
// offending fragment for diagnosis.
type ExecError struct {
	Code string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("chart code execution failed: %v\ncode:\n%s", e.Err, e.Code)
}

func (e *ExecError) Unwrap() error { return e.Err }
