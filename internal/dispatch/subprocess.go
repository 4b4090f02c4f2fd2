package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sync/errgroup"

	"saskit/internal/args"
	"saskit/internal/sasenv"
)

// maxLineBytes bounds one streamed output line; selection expressions
// echoed by tasks can get very long.
const maxLineBytes = 1 << 20

// outputs fans one streamed line out to the caller's console and the
// per-task log file, either of which may be absent.
type outputs struct {
	echo io.Writer
	file io.Writer
}

func (o outputs) line(s string) {
	if o.echo != nil {
		fmt.Fprintln(o.echo, s)
	}
	if o.file != nil {
		fmt.Fprintln(o.file, s)
	}
}

// runNative spawns the task's executable with the canonical argv and
// streams its output line by line while it runs: stdout at INFO, stderr
// at ERROR. The child environment is the parent's plus the rendered
// override block; the parent process is never mutated. Returns the exit
// status and a TaskExecutionError for any failure.
func runNative(ctx context.Context, log *slog.Logger, inv *args.Invocation, overrides map[string]string, out outputs) (int, error) {
	cmd := exec.CommandContext(ctx, inv.Task, inv.Argv()...)
	cmd.Env = append(os.Environ(), sasenv.EnvBlock(overrides)...)
	if dir, ok := overrides[sasenv.WorkDirKey]; ok {
		cmd.Dir = dir
	}
	// Kill the whole process group on cancellation; SAS tasks fork
	// helpers (epproc alone spawns a dozen).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, &TaskExecutionError{Task: inv.Task, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, &TaskExecutionError{Task: inv.Task, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return 0, &TaskExecutionError{Task: inv.Task, Err: err}
	}

	var g errgroup.Group
	g.Go(func() error {
		return pump(stdout, func(line string) {
			log.Info(line)
			out.line(line)
		})
	})
	g.Go(func() error {
		return pump(stderr, func(line string) {
			log.Error(line)
			out.line(line)
		})
	})
	pumpErr := g.Wait()

	waitErr := cmd.Wait()
	if waitErr != nil {
		if ctx.Err() != nil {
			return -1, &TaskExecutionError{Task: inv.Task, ExitCode: -1, Err: ctx.Err()}
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := exitErr.ExitCode()
			return code, &TaskExecutionError{Task: inv.Task, ExitCode: code}
		}
		return 0, &TaskExecutionError{Task: inv.Task, Err: waitErr}
	}
	if pumpErr != nil {
		return 0, &TaskExecutionError{Task: inv.Task, Err: pumpErr}
	}
	return 0, nil
}

func pump(r io.Reader, emit func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		emit(sc.Text())
	}
	return sc.Err()
}
