package main

import (
	"github.com/spf13/cobra"

	"saskit/internal/workspace"
)

var calibrateFlags struct {
	force bool
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate <obsid>",
	Short: "Build the calibration products for one observation",
	Long: `Calibrate verifies the raw ODF under <data-dir>/<obsid>/ODF, builds
the calibration index with cifbuild, then ingests the ODF with
odfingest and validates the summary file it writes. When usable
products already exist the command is a no-op unless forced.

The raw data must already be on disk; fetch the ODF from the XMM-Newton
archive into <data-dir>/<obsid>/ODF first.`,
	Args: cobra.ExactArgs(1),
	RunE: runCalibrate,
}

func init() {
	calibrateCmd.Flags().BoolVar(&calibrateFlags.force, "force", false, "Rerun cifbuild and odfingest even when outputs exist")
}

func runCalibrate(cmd *cobra.Command, argv []string) error {
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
	if err := obs.Calibrate(cmd.Context(), workspace.CalibrateOptions{Force: calibrateFlags.force}); err != nil {
		return err
	}
	printWorkspace(out, obs.Status())
	return nil
}
