// Package logging provides structured logging for saskit. Sinks follow
// the SAS conventions: console plus optional per-task and aggregate log
// files, with the level driven by the SAS verbosity scale.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init configures the global slog default with the given level and format.
// Every writer receives every record; with none, os.Stderr is used.
// Format must be "text" or "json".
func Init(level slog.Level, format string, w ...io.Writer) {
	var writer io.Writer = os.Stderr
	sinks := make([]io.Writer, 0, len(w))
	for _, s := range w {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	switch len(sinks) {
	case 0:
	case 1:
		writer = sinks[0]
	default:
		writer = io.MultiWriter(sinks...)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// ForTask returns a logger tagged with the task name, used for streamed
// subprocess output and invocation records.
func ForTask(task string) *slog.Logger {
	return slog.Default().With(slog.String("task", task))
}
