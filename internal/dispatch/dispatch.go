// Package dispatch resolves task names to execution strategies and runs
// one invocation end to end: schema load, argument normalization,
// environment scoping, strategy execution, logging and history.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"saskit/internal/args"
	"saskit/internal/format"
	"saskit/internal/logging"
	"saskit/internal/manpage"
	"saskit/internal/sasenv"
	"saskit/internal/schema"
	"saskit/internal/store"
)

// HistorySink receives one record per finished invocation. Sink errors
// never fail the invocation.
type HistorySink interface {
	Append(rec store.Record) error
}

// DocResolver returns task documentation text (or a URL pointing at it)
// for the manual-page info action.
type DocResolver interface {
	Resolve(ctx context.Context, task string) (string, error)
}

// Config wires a Dispatcher. Schemas and Registry are required; the
// rest are optional.
type Config struct {
	Schemas     *schema.Reader
	Registry    *Registry
	History     HistorySink
	Docs        DocResolver
	TaskLogDir  string // per-task log directory; empty defers to SAS_TASKLOGDIR
	TaskLogMode string // logging.FileModeAppend or FileModeTruncate
}

// Options modify one invocation.
type Options struct {
	Strict    bool      // propagate strategy errors instead of recording them
	Echo      io.Writer // stream task output here as it is produced
	Dir       string    // working directory when the arguments carry none
	NoHistory bool      // skip the history record for this invocation
}

// Dispatcher runs tasks. Invocations mutate process-wide state
// (environment variables, working directory) and must not run
// concurrently within one process.
type Dispatcher struct {
	cfg Config
	log *slog.Logger
}

// New returns a Dispatcher over the given collaborators.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg, log: logging.New("dispatch")}
}

// Invoke runs one task end to end. Schema and normalization errors
// propagate unchanged; they fire before any side effect. Strategy
// failures come back as a FAILURE result with the cause recorded, or as
// the error itself in strict mode. A failure to restore the environment
// afterwards supersedes everything: it returns as the error even when
// the task itself succeeded.
func (d *Dispatcher) Invoke(ctx context.Context, task string, set args.ArgumentSet, opts Options) (*Result, error) {
	desc, err := d.cfg.Schemas.Load(task)
	if err != nil {
		return nil, err
	}
	inv, err := args.Normalize(desc, set)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:         uuid.NewString(),
		Task:       task,
		Invocation: inv,
		Started:    time.Now().UTC(),
	}

	if inv.EarlyExit != args.NoExit {
		res.Status = StatusEarlyExit
		res.Output = d.infoAction(ctx, desc, inv.EarlyExit)
		res.Duration = time.Since(res.Started)
		d.log.Info("info action", "task", task, "id", res.ID, "action", inv.EarlyExit.String())
		d.record(res, opts)
		return res, nil
	}

	overrides, strategyInv := partitionOverrides(desc, inv, opts)

	taskLog := logging.ForTask(task)
	var logSink io.Writer
	if logFile := d.openTaskLog(task, res); logFile != nil {
		defer logFile.Close()
		logSink = logFile
	}

	d.log.Info("invoking", "task", task, "id", res.ID, "kind", desc.Kind.String(), "command", inv.Render())
	if len(overrides) > 0 {
		d.log.Debug("environment overrides", "task", task, "overrides", overrides)
	}

	var runErr error
	switch desc.Kind {
	case schema.InProcess:
		runErr = d.runScoped(ctx, strategyInv, overrides, logSink, opts)
	default:
		out := outputs{echo: opts.Echo, file: logSink}
		var code int
		code, runErr = runNative(ctx, taskLog, strategyInv, overrides, out)
		res.ExitCode = code
	}
	res.Duration = time.Since(res.Started)

	if runErr != nil {
		var restoreErr *sasenv.RestoreError
		if errors.As(runErr, &restoreErr) {
			d.log.Error("environment restore failed", "task", task, "id", res.ID, "vars", restoreErr.Vars, "error", restoreErr)
			return nil, runErr
		}
		var execErr *TaskExecutionError
		if !errors.As(runErr, &execErr) {
			return nil, runErr
		}
		res.Status = StatusFailure
		res.Err = runErr
		if res.ExitCode == 0 {
			res.ExitCode = execErr.ExitCode
		}
		taskLog.Log(ctx, logging.LevelCritical, task+" failed!")
		if logSink != nil {
			fmt.Fprintln(logSink, task+" failed!")
		}
		d.log.Error("task failed", "task", task, "id", res.ID, "error", runErr, "duration", res.Duration)
		d.record(res, opts)
		if opts.Strict {
			return res, runErr
		}
		return res, nil
	}

	res.Status = StatusSuccess
	taskLog.Info(task + " executed successfully!")
	if logSink != nil {
		fmt.Fprintln(logSink, task+" executed successfully!")
	}
	d.log.Info("task completed", "task", task, "id", res.ID, "status", res.Status, "duration", res.Duration)
	d.record(res, opts)
	return res, nil
}

// runScoped wraps the in-process strategy in an environment scope,
// restored on every exit path. A restore failure supersedes the
// strategy's own outcome.
func (d *Dispatcher) runScoped(ctx context.Context, inv *args.Invocation, overrides map[string]string, logFile io.Writer, opts Options) (err error) {
	fn, ok := d.cfg.Registry.Lookup(inv.Task)
	if !ok {
		return &TaskExecutionError{Task: inv.Task, Err: errors.New("no registered routine")}
	}
	scope, err := sasenv.Enter(overrides)
	if err != nil {
		return err
	}
	defer func() {
		if restoreErr := scope.Exit(); restoreErr != nil {
			err = restoreErr
		}
	}()

	if err := fn(ctx, inv.Params(), taskStdout(opts.Echo, logFile)); err != nil {
		return &TaskExecutionError{Task: inv.Task, Err: err}
	}
	return nil
}

func taskStdout(echo, logFile io.Writer) io.Writer {
	var ws []io.Writer
	if echo != nil {
		ws = append(ws, echo)
	}
	if logFile != nil {
		ws = append(ws, logFile)
	}
	switch len(ws) {
	case 0:
		return io.Discard
	case 1:
		return ws[0]
	}
	return io.MultiWriter(ws...)
}

// partitionOverrides splits environment override keys out of the named
// pairs; the remainder forms the invocation handed to the strategy.
// Named overrides win over flag-derived ones. The options' directory
// fills workdir only when the arguments did not set one. A name the
// schema declares itself is a task parameter, never an override.
func partitionOverrides(desc *schema.Descriptor, inv *args.Invocation, opts Options) (map[string]string, *args.Invocation) {
	overrides := make(map[string]string, len(inv.Env)+1)
	for k, v := range inv.Env {
		overrides[k] = v
	}

	kept := make([]args.Pair, 0, len(inv.Pairs))
	for _, p := range inv.Pairs {
		if _, declared := desc.Get(p.Name); !declared && sasenv.IsOverrideKey(p.Name) {
			overrides[p.Name] = p.Value
			continue
		}
		kept = append(kept, p)
	}
	if opts.Dir != "" {
		if _, ok := overrides[sasenv.WorkDirKey]; !ok {
			overrides[sasenv.WorkDirKey] = opts.Dir
		}
	}
	filtered := &args.Invocation{
		Task:  inv.Task,
		Pairs: kept,
		Flags: inv.Flags,
	}
	return overrides, filtered
}

// infoAction produces the text for an early-exit flag without touching
// the environment or any strategy.
func (d *Dispatcher) infoAction(ctx context.Context, desc *schema.Descriptor, exit args.EarlyExit) string {
	switch exit {
	case args.ExitVersion:
		if desc.Version != "" {
			return fmt.Sprintf("%s (%s-%s)\n", desc.Task, desc.Task, desc.Version)
		}
		return desc.Task + "\n"
	case args.ExitParamDump:
		return format.ParamDump(desc)
	case args.ExitManpage:
		return d.manpage(ctx, desc.Task)
	default:
		// Help, and dialog for which there is no GUI here; the
		// parameter table is the closest usable equivalent.
		return format.TaskHelp(desc)
	}
}

func (d *Dispatcher) manpage(ctx context.Context, task string) string {
	if d.cfg.Docs == nil {
		return manpage.URL(task) + "\n"
	}
	text, err := d.cfg.Docs.Resolve(ctx, task)
	if err != nil {
		d.log.Warn("documentation fetch failed", "task", task, "error", err)
		return manpage.URL(task) + "\n"
	}
	return text
}

// openTaskLog opens the per-task log sink when a directory is
// configured, explicitly or through SAS_TASKLOGDIR.
func (d *Dispatcher) openTaskLog(task string, res *Result) *os.File {
	if d.cfg.TaskLogDir == "" && os.Getenv("SAS_TASKLOGDIR") == "" {
		return nil
	}
	mode := d.cfg.TaskLogMode
	if mode == "" {
		mode = os.Getenv("SAS_TASKLOGFMODE")
	}
	f, err := logging.TaskFile(task, d.cfg.TaskLogDir, mode)
	if err != nil {
		d.log.Warn("task log unavailable", "task", task, "error", err)
		return nil
	}
	res.LogPath = f.Name()
	return f
}

func (d *Dispatcher) record(res *Result, opts Options) {
	if d.cfg.History == nil || opts.NoHistory {
		return
	}
	rec := store.Record{
		ID:         res.ID,
		Task:       res.Task,
		Argv:       res.Invocation.Argv(),
		Status:     string(res.Status),
		ExitCode:   res.ExitCode,
		StartedAt:  res.Started.Format(time.RFC3339),
		FinishedAt: res.Started.Add(res.Duration).Format(time.RFC3339),
		DurationMS: res.Duration.Milliseconds(),
		LogPath:    res.LogPath,
	}
	if err := d.cfg.History.Append(rec); err != nil {
		d.log.Warn("history append failed", "task", res.Task, "id", res.ID, "error", err)
	}
}
