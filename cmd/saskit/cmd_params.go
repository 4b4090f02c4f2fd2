package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saskit/internal/format"
)

var paramsFlags struct {
	markdown bool
}

var paramsCmd = &cobra.Command{
	Use:   "params <task>",
	Short: "Show a task's parameter schema",
	Long: `Params renders the parameter table for one task: name, whether it
is mandatory, type, default, constraints or allowed values, and the
description. Sub-parameters are indented under their group.`,
	Args: cobra.ExactArgs(1),
	RunE: runParams,
}

func init() {
	paramsCmd.Flags().BoolVar(&paramsFlags.markdown, "markdown", false, "Render a Markdown table instead of ASCII")
}

func runParams(cmd *cobra.Command, argv []string) error {
	tk, err := newToolkit(false)
	if err != nil {
		return err
	}
	defer tk.close()

	desc, err := tk.schemas.Load(argv[0])
	if err != nil {
		return err
	}
	mode := format.ASCII
	if paramsFlags.markdown {
		mode = format.Markdown
	}
	fmt.Fprintln(cmd.OutOrStdout(), format.ParamsTable(desc, mode))
	return nil
}
