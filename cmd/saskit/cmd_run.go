package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saskit/internal/args"
	"saskit/internal/dispatch"
	"saskit/internal/format"
)

var runFlags struct {
	strict    bool
	echo      bool
	inDir     string
	noHistory bool
}

var runCmd = &cobra.Command{
	Use:   "run <task> [key=value|flag ...]",
	Short: "Dispatch one SAS task",
	Long: `Run dispatches a single task through the schema-driven pipeline:
the parameter file is loaded, the arguments are normalized against it,
and the task executes in-process or as a native subprocess.

Everything after the task name is handed to the task untouched, so the
usual SAS forms all work:

  saskit run cifbuild --odf=/data/0104860501/ODF withccfpath=yes
  saskit run evselect table=events.fits expression='PI>150'
  saskit run epproc -V 7
  saskit run sasver -v

Info flags (-h, -v, -p, -m) short-circuit execution and print the
requested text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	// Tokens after the task name belong to the task, -v and friends
	// included.
	f.SetInterspersed(false)
	f.BoolVar(&runFlags.strict, "strict", false, "Return task failures as errors instead of recording them")
	f.BoolVar(&runFlags.echo, "echo", true, "Stream task output to stdout as it is produced")
	f.StringVar(&runFlags.inDir, "in-dir", "", "Working directory for the task (when the arguments carry none)")
	f.BoolVar(&runFlags.noHistory, "no-history", false, "Skip the invocation history record")
}

func runRun(cmd *cobra.Command, argv []string) error {
	tk, err := newToolkit(!runFlags.noHistory)
	if err != nil {
		return err
	}
	defer tk.close()

	task, tokens := argv[0], argv[1:]
	opts := dispatch.Options{
		Strict:    runFlags.strict,
		Dir:       runFlags.inDir,
		NoHistory: runFlags.noHistory,
	}
	out := cmd.OutOrStdout()
	if runFlags.echo {
		opts.Echo = out
	}

	res, invokeErr := tk.dispatcher.Invoke(cmd.Context(), task, args.NewTokens(tokens...), opts)
	if res == nil {
		return invokeErr
	}
	if res.Status == dispatch.StatusEarlyExit {
		fmt.Fprint(out, res.Output)
		return nil
	}

	fmt.Fprintf(out, "%s: %s (exit %d, %s, invocation %s)\n",
		res.Task, res.Status, res.ExitCode, format.FmtDuration(res.Duration), res.ID)
	if res.LogPath != "" {
		fmt.Fprintf(out, "log: %s\n", res.LogPath)
	}
	if invokeErr != nil {
		return invokeErr
	}
	return res.Err
}
