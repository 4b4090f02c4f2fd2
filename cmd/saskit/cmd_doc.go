package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"saskit/internal/logging"
	"saskit/internal/manpage"
)

var docCmd = &cobra.Command{
	Use:   "doc <task>",
	Short: "Show a task's documentation",
	Long: `Doc resolves the manual for one task. A local SAS installation's
copy under <SAS_DIR>/doc wins; without one the online page is rendered
headlessly and its text printed. When neither works the online URL is
printed so the manual is still one click away.`,
	Args: cobra.ExactArgs(1),
	RunE: runDoc,
}

func runDoc(cmd *cobra.Command, argv []string) error {
	task := argv[0]
	resolver := manpage.NewResolver(cfg.SASDir)
	text, err := resolver.Resolve(cmd.Context(), task)
	if err != nil {
		logging.New("doc").Warn("documentation fetch failed", "task", task, "error", err)
		fmt.Fprintln(cmd.OutOrStdout(), manpage.URL(task))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
