package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"saskit/internal/config"
	"saskit/internal/format"
)

// sasVariables are the environment variables the toolkit reads or sets,
// in display order.
var sasVariables = []string{
	"SAS_DIR", "SAS_PATH", "SAS_CCFPATH", "SAS_CCF", "SAS_ODF",
	"SAS_VERBOSITY", "SAS_SUPPRESS_WARNING", "SAS_CLOBBER",
	"SAS_IMAGEVIEWER", "SAS_TASKLOGDIR", "SAS_TASKLOGFMODE",
	"SASKIT_DATA_DIR",
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the effective configuration and SAS environment",
	Long: `Env prints the configuration after layering (built-in defaults, then
the config file, then the process environment) together with the SAS
variables currently set, so a surprising task run can be traced back to
where each value came from.`,
	Args: cobra.NoArgs,
	RunE: runEnv,
}

func runEnv(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	path := rootFlags.config
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		path = p
	}
	state := "present"
	if _, err := os.Stat(path); err != nil {
		state = "not present"
	}
	fmt.Fprintf(out, "config file: %s (%s)\n\n", path, state)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintf(out, "effective configuration:\n%s\n", data)

	tb := format.NewTable(format.ASCII)
	tb.Header("Variable", "Value")
	for _, name := range sasVariables {
		v, ok := os.LookupEnv(name)
		if !ok {
			v = "(unset)"
		}
		tb.Row(name, v)
	}
	fmt.Fprintln(out, tb.String())
	return nil
}
