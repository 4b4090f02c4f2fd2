package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saskit/internal/format"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks known to the toolkit",
	Long: `Tasks lists every task with a parameter schema on the SAS path
(SAS_PATH, falling back to SAS_DIR) plus the bundled in-process tasks,
with each task's kind and schema version.`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func runTasks(cmd *cobra.Command, _ []string) error {
	tk, err := newToolkit(false)
	if err != nil {
		return err
	}
	defer tk.close()

	tb := format.NewTable(format.ASCII)
	tb.Header("Task", "Kind", "Version")
	names := tk.schemas.Tasks()
	for _, name := range names {
		desc, err := tk.schemas.Load(name)
		if err != nil {
			tb.Row(name, "unreadable", "")
			continue
		}
		tb.Row(name, desc.Kind.String(), desc.Version)
	}
	tb.Footer("", "total", len(names))

	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}
