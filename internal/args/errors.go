package args

import "fmt"

// UnknownParameterError reports a supplied name the task's schema does
// not declare, on a schema that is not open.
type UnknownParameterError struct {
	Task string
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("task %s does not accept parameter %q", e.Task, e.Name)
}

// TypeMismatchError reports a value that does not satisfy the declared
// type or allowed values of its parameter.
type TypeMismatchError struct {
	Name     string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("parameter %q expects %s, got %q", e.Name, e.Expected, e.Got)
}

// MissingParameterError reports a mandatory parameter that was neither
// supplied nor covered by a default.
type MissingParameterError struct {
	Task string
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("task %s requires parameter %q", e.Task, e.Name)
}
