package schema

import "fmt"

// NotFoundError reports a task with no parameter file on the SAS path.
type NotFoundError struct {
	Task string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no parameter file for task %q on the SAS path", e.Task)
}

// MalformedError reports a parameter file that could not be parsed or
// that declares an invalid parameter. Field names the offending piece.
type MalformedError struct {
	Task  string
	Field string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parameter file for %q: field %s: %v", e.Task, e.Field, e.Err)
	}
	return fmt.Sprintf("parameter file for %q: field %s invalid", e.Task, e.Field)
}

func (e *MalformedError) Unwrap() error { return e.Err }
