package logging

import (
	"log/slog"
	"os"
	"strconv"
)

// LevelCritical sits above slog.LevelError and marks failures that abort
// a task outright (SAS verbosity 1).
const LevelCritical = slog.LevelError + 4

// DefaultVerbosity is assumed when SAS_VERBOSITY is unset or unparsable.
const DefaultVerbosity = 4

// FromVerbosity maps a SAS verbosity level onto a slog level. The scale
// runs 1 (critical only) to 10 (full debug); out-of-range values fall
// back to DefaultVerbosity.
func FromVerbosity(v int) slog.Level {
	switch {
	case v == 1:
		return LevelCritical
	case v >= 2 && v <= 3:
		return slog.LevelError
	case v >= 4 && v <= 5:
		return slog.LevelWarn
	case v >= 6 && v <= 7:
		return slog.LevelInfo
	case v >= 8 && v <= 10:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// EnvVerbosity reads SAS_VERBOSITY from the process environment,
// returning DefaultVerbosity when unset or outside 1..10.
func EnvVerbosity() int {
	v, err := strconv.Atoi(os.Getenv("SAS_VERBOSITY"))
	if err != nil || v < 1 || v > 10 {
		return DefaultVerbosity
	}
	return v
}
