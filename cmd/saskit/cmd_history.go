package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"saskit/internal/format"
	"saskit/internal/store"
)

var historyFlags struct {
	limit int
	json  bool
}

var historyCmd = &cobra.Command{
	Use:   "history [task]",
	Short: "List past task invocations",
	Long: `History lists the recorded invocations, newest first, from the
SQLite store under the data directory. With a task name only that
task's runs are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&historyFlags.limit, "limit", 20, "Maximum records to show (0 = all)")
	f.BoolVar(&historyFlags.json, "json", false, "Emit records as JSON")
}

func runHistory(cmd *cobra.Command, argv []string) error {
	st, err := store.Open(historyPath())
	if err != nil {
		return err
	}
	defer st.Close()

	var recs []*store.Record
	if len(argv) == 1 {
		recs, err = st.ListByTask(argv[0], historyFlags.limit)
	} else {
		recs, err = st.List(historyFlags.limit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyFlags.json {
		if recs == nil {
			recs = []*store.Record{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "no invocations recorded")
		return nil
	}

	tb := format.NewTable(format.ASCII)
	tb.Header("ID", "Task", "Status", "Exit", "Started", "Duration", "Arguments")
	for _, rec := range recs {
		tb.Row(
			shortID(rec.ID),
			rec.Task,
			rec.Status,
			rec.ExitCode,
			rec.StartedAt,
			format.FmtDuration(time.Duration(rec.DurationMS)*time.Millisecond),
			format.Truncate(strings.Join(rec.Argv, " "), 48),
		)
	}
	tb.Footer("", "", "", "", "", "total", len(recs))
	fmt.Fprintln(out, tb.String())
	return nil
}

// shortID trims an invocation UUID to its first group; the full UUID
// is available via --json.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
