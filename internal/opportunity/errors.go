package opportunity

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName means opp_name already exists (case-insensitive).
	ErrDuplicateName = errors.New("opportunity name already exists")

	// ErrDuplicateID means a non-empty opp_id already exists (case-insensitive).
	ErrDuplicateID = errors.New("opportunity id already exists")

	// ErrMissingLocator means an update supplied neither opp_id nor opp_name.
	ErrMissingLocator = errors.New("either opp_id or opp_name must be provided")

	// ErrNotFound means no record matched the locator.
	ErrNotFound = errors.New("no opportunity found")
)

// ValidationError reports a mandatory create field that was left empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s is required", e.Field)
}
