package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saskit/internal/workspace"
)

var processFlags struct {
	forceRerun  bool
	tasks       []string
	instruments []string
}

var processCmd = &cobra.Command{
	Use:   "process <obsid>",
	Short: "Calibrate an observation and run the instrument pipelines",
	Long: `Process performs the basic reduction for one observation: locate the
workspace, calibrate it when needed, then run the instrument pipelines
(epproc, emproc, rgsproc by default) over the ingested ODF. Pipelines
whose instruments were inactive, or whose event lists already exist,
are skipped.

Select pipelines explicitly with --tasks, or by instrument with
--instruments (PN, M1, M2, R1, R2, OM):

  saskit process 0104860501
  saskit process 0104860501 --tasks epchain,rgsproc
  saskit process 0104860501 --instruments PN,OM --force-rerun`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.BoolVar(&processFlags.forceRerun, "force-rerun", false, "Rerun pipelines whose event lists already exist")
	f.StringSliceVar(&processFlags.tasks, "tasks", nil, "Pipeline tasks to run (epproc, epchain, emproc, emchain, rgsproc, omichain)")
	f.StringSliceVar(&processFlags.instruments, "instruments", nil, "Run the default pipelines for these instruments only")
}

func runProcess(cmd *cobra.Command, argv []string) error {
	if len(processFlags.tasks) > 0 && len(processFlags.instruments) > 0 {
		return fmt.Errorf("--tasks and --instruments are mutually exclusive")
	}
	tasks := processFlags.tasks
	if len(processFlags.instruments) > 0 {
		t, err := workspace.PipelinesFor(processFlags.instruments)
		if err != nil {
			return err
		}
		tasks = t
	}

	tk, err := newToolkit(true)
	if err != nil {
		return err
	}
	defer tk.close()

	out := cmd.OutOrStdout()
	obs, err := openObservation(argv[0], tk, out)
	if err != nil {
		return err
	}
	if err := obs.Calibrate(cmd.Context(), workspace.CalibrateOptions{}); err != nil {
		return err
	}
	if err := obs.Process(cmd.Context(), workspace.ProcessOptions{
		Force: processFlags.forceRerun,
		Tasks: tasks,
	}); err != nil {
		return err
	}
	printWorkspace(out, obs.Status())
	return nil
}
