package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"saskit/internal/sasenv"
)

var initFlags struct {
	save bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the SAS environment for this process",
	Long: `Init applies the configured SAS installation to the process
environment the way the shell setup script would: SAS_DIR, SAS_CCFPATH
and SAS_PATH are set, the executable and library search paths gain the
installation's entries, and the session defaults follow the
configuration. HEASOFT must already be initialized.

The resulting variables are printed. With --save the effective
configuration is also written to the config file, so later runs pick it
up without flags.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.save, "save", false, "Persist the effective configuration to the config file")
}

func runInit(cmd *cobra.Command, _ []string) error {
	if cfg.SASDir == "" {
		return fmt.Errorf("no SAS installation configured: set SAS_DIR or sas_dir in the config file")
	}
	if info, err := os.Stat(cfg.SASDir); err != nil || !info.IsDir() {
		return fmt.Errorf("SAS installation %s does not exist", cfg.SASDir)
	}

	summary, err := sasenv.Initialize(sasenv.InitOptions{
		SASDir:          cfg.SASDir,
		CCFPath:         cfg.CCFPath,
		Verbosity:       cfg.Verbosity,
		SuppressWarning: cfg.SuppressWarning,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, summary)

	if initFlags.save {
		if err := cfg.Save(rootFlags.config); err != nil {
			return err
		}
		fmt.Fprintln(out, "configuration saved")
	}
	return nil
}
