package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"saskit/internal/config"
	"saskit/internal/dispatch"
	"saskit/internal/logging"
	"saskit/internal/manpage"
	"saskit/internal/schema"
	"saskit/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	verbosity int
	logFormat string
	dataDir   string
	config    string
}

// cfg is the effective configuration, populated before any RunE fires.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "saskit",
	Short: "Run and inspect XMM-Newton SAS tasks",
	Long: "saskit dispatches XMM-Newton SAS tasks with canonical argument\n" +
		"handling, inspects their parameter schemas, and drives per-observation\n" +
		"calibration and reduction pipelines.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&rootFlags.verbosity, "verbosity", config.DefaultVerbosity, "SAS verbosity level (1..10)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log output format (text, json)")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Directory holding per-observation workspaces (default: $SASKIT_DATA_DIR or .)")
	pf.StringVar(&rootFlags.config, "config", "", "Config file path (default: <user config dir>/saskit/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version
}

// setup layers the configuration (defaults, file, environment) and
// applies command-line overrides on top, then wires the global logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(rootFlags.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbosity") {
		c.Verbosity = rootFlags.verbosity
	}
	if rootFlags.dataDir != "" {
		c.DataDir = rootFlags.dataDir
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	logging.Init(logging.FromVerbosity(c.Verbosity), rootFlags.logFormat, os.Stderr)
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// toolkit bundles the collaborators a task-running command needs.
type toolkit struct {
	schemas    *schema.Reader
	registry   *dispatch.Registry
	history    *store.SqlStore
	dispatcher *dispatch.Dispatcher
}

func (t *toolkit) close() {
	if t.history != nil {
		_ = t.history.Close()
	}
}

// newToolkit wires the schema reader, the in-process registry, the
// invocation history and the dispatcher from the effective
// configuration. withHistory controls whether the SQLite store opens;
// commands that only read schemas skip it.
func newToolkit(withHistory bool) (*toolkit, error) {
	schemas := schema.NewReader()
	registry := dispatch.NewRegistry()
	dispatch.RegisterBuiltins(schemas, registry, version)

	t := &toolkit{schemas: schemas, registry: registry}
	if withHistory {
		st, err := store.Open(historyPath())
		if err != nil {
			return nil, err
		}
		t.history = st
	}

	dcfg := dispatch.Config{
		Schemas:     schemas,
		Registry:    registry,
		Docs:        manpage.NewResolver(cfg.SASDir),
		TaskLogDir:  cfg.TaskLogDir,
		TaskLogMode: cfg.TaskLogFMode,
	}
	if t.history != nil {
		dcfg.History = t.history
	}
	t.dispatcher = dispatch.New(dcfg)
	return t, nil
}

// historyPath resolves the invocation database against the data
// directory.
func historyPath() string {
	dir := cfg.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, store.DefaultDBName)
}
