// Package mcp exposes the toolkit over the Model Context Protocol:
// agent clients list SAS tasks, inspect parameter schemas, run tasks
// through the dispatcher and query observation workspaces.
package mcp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"saskit/internal/dispatch"
	"saskit/internal/logging"
	"saskit/internal/schema"
)

// Config wires the server to the rest of the toolkit.
type Config struct {
	Schemas    *schema.Reader
	Dispatcher *dispatch.Dispatcher
	DataDir    string    // observation workspaces root, for observation_status
	Version    string    // reported in the MCP handshake; "dev" when empty
	History    io.Closer // closed on Shutdown, usually the history store
}

// Server wraps the MCP SDK server around the dispatcher.
type Server struct {
	MCPServer *sdkmcp.Server

	cfg Config
	log *slog.Logger

	// runMu serializes run_task calls: in-process strategies mutate
	// the process environment, which cannot be scoped per call.
	runMu sync.Mutex
}

// NewServer creates an MCP server exposing the task tools.
func NewServer(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{cfg: cfg, log: logging.New("mcp")}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "saskit", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until ctx is canceled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting saskit MCP server over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// Shutdown releases toolkit resources, closing the history store when
// one was provided.
func (s *Server) Shutdown() {
	if s.cfg.History != nil {
		if err := s.cfg.History.Close(); err != nil {
			s.log.Warn("closing history store", "error", err)
		}
	}
}

// WatchParent monitors for parent process death in a background
// goroutine. When the parent PID changes (the client disconnected or
// restarted), it calls cancel to trigger graceful shutdown, preventing
// zombie server processes from accumulating.
//
// This must NOT read from stdin: the SDK's StdioTransport owns stdin
// exclusively, and stealing bytes here would corrupt the JSON-RPC
// stream. Polling the parent PID is the safe signal.
func WatchParent(ctx context.Context, cancel context.CancelFunc) {
	ppid := os.Getppid()
	log := logging.New("mcp")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					log.Warn("parent process died, shutting down", "was_pid", ppid)
					cancel()
					return
				}
			}
		}
	}()
}
