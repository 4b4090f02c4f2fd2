package main

import (
	"context"

	"github.com/spf13/cobra"

	"saskit/internal/logging"
	"saskit/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Serve exposes the toolkit over the Model Context Protocol on
stdin/stdout: agent clients list tasks, inspect parameter schemas, run
tasks and query observation workspaces.

The server monitors its parent process. When the client dies without
closing the transport, the server self-terminates to avoid zombie
processes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	tk, err := newToolkit(true)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(mcp.Config{
		Schemas:    tk.schemas,
		Dispatcher: tk.dispatcher,
		DataDir:    cfg.DataDir,
		Version:    version,
		History:    tk.history,
	})
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcp.WatchParent(ctx, cancel)

	logging.New("serve").Info("starting saskit MCP server over stdio (parent watchdog active)")
	return srv.Run(ctx)
}
