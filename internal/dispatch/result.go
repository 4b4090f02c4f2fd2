package dispatch

import (
	"time"

	"saskit/internal/args"
)

// Status classifies one invocation's outcome.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusFailure   Status = "FAILURE"
	StatusEarlyExit Status = "EARLY_EXIT"
)

// Result is the outcome of one task invocation.
type Result struct {
	ID         string           // invocation UUID
	Task       string
	Invocation *args.Invocation // resolved canonical invocation
	Status     Status
	ExitCode   int    // subprocess exit status; 0 for in-process tasks
	Output     string // info action text; empty for normal execution
	Err        error  // failure cause recorded in non-strict mode
	Started    time.Time
	Duration   time.Duration
	LogPath    string // per-task log file when one was written
}
