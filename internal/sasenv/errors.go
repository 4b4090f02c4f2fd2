package sasenv

import (
	"fmt"
	"strings"
)

// RestoreError reports that restoring one or more snapshotted settings
// failed on scope exit. Leaked settings corrupt every later invocation
// in the process, so callers must treat this as fatal.
type RestoreError struct {
	Vars []string
	Err  error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore environment %s: %v", strings.Join(e.Vars, ", "), e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }
