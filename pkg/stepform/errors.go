package stepform

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchema reports a schema the engine cannot run.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrUnknownField reports a field name missing from the schema.
	// It means the schema and the caller disagree, not bad user input.
	ErrUnknownField = errors.New("unknown field")
	// ErrFieldHidden reports a write to a field the session does not expose:
	// one on a step skipped in the current mode, or one ignored when editing.
	ErrFieldHidden = errors.New("field is hidden in this mode")
	// ErrNotOpen is returned by actions on a closed wizard.
	ErrNotOpen = errors.New("wizard is not open")
	// ErrSubmitInProgress is returned by Open and Close while a submission is pending.
	ErrSubmitInProgress = errors.New("submission in progress")
)

// SubmitError wraps a persistence failure. Entered values are kept and the
// caller may submit again.
type SubmitError struct {
	Mode Mode
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Mode, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
