package dispatch

import "fmt"

// TaskExecutionError wraps a strategy failure: a native executable's
// non-zero exit status or an in-process routine's error.
type TaskExecutionError struct {
	Task     string
	ExitCode int // meaningful for native tasks; 0 otherwise
	Err      error
}

func (e *TaskExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
	}
	return fmt.Sprintf("task %s exited with status %d", e.Task, e.ExitCode)
}

func (e *TaskExecutionError) Unwrap() error { return e.Err }
