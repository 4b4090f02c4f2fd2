package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"saskit/internal/args"
	"saskit/internal/dispatch"
	"saskit/internal/workspace"
)

// logTailLines caps how much task output run_task returns inline; the
// full stream still lands in the per-task log file when configured.
const logTailLines = 40

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "List the SAS tasks this toolkit can resolve, with execution kind and version.",
	}, s.handleListTasks)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "task_params",
		Description: "Describe a task's parameters: type, default, mandatory flag, allowed values and constraints.",
	}, s.handleTaskParams)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_task",
		Description: "Run a SAS task with a parameter map. Returns status, exit code, invocation id and the output tail.",
	}, s.handleRunTask)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "observation_status",
		Description: "Report an observation workspace: reduction state, active instruments, calibration and product paths.",
	}, s.handleObservationStatus)
}

// --- Tool input/output types ---

type listTasksInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"substring filter on task names"`
}

type taskEntry struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Version string `json:"version,omitempty"`
}

type listTasksOutput struct {
	Tasks []taskEntry `json:"tasks"`
	Total int         `json:"total"`
}

type taskParamsInput struct {
	Task string `json:"task" jsonschema:"SAS task name"`
}

type paramRow struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Default     string   `json:"default,omitempty"`
	Mandatory   bool     `json:"mandatory,omitempty"`
	List        bool     `json:"list,omitempty"`
	Allowed     []string `json:"allowed,omitempty"`
	Constraints string   `json:"constraints,omitempty"`
	Description string   `json:"description,omitempty"`
	Parent      string   `json:"parent,omitempty"`
}

type taskParamsOutput struct {
	Task    string     `json:"task"`
	Version string     `json:"version,omitempty"`
	Kind    string     `json:"kind"`
	Open    bool       `json:"open,omitempty"`
	Params  []paramRow `json:"params"`
}

type runTaskInput struct {
	Task   string         `json:"task" jsonschema:"SAS task name"`
	Args   map[string]any `json:"args,omitempty" jsonschema:"parameter name to value map"`
	Tokens []string       `json:"tokens,omitempty" jsonschema:"raw argument tokens, for bare flags like -v or -m; ignored when args is set"`
	Dir    string         `json:"dir,omitempty" jsonschema:"working directory for the task"`
	Strict bool           `json:"strict,omitempty" jsonschema:"report task failure as a tool error instead of a FAILURE result"`
}

type runTaskOutput struct {
	ID       string `json:"id,omitempty"`
	Status   string `json:"status"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
	LogTail  string `json:"log_tail,omitempty"`
	LogPath  string `json:"log_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

type observationStatusInput struct {
	ObsID   string `json:"obsid" jsonschema:"10-digit XMM observation id"`
	DataDir string `json:"data_dir,omitempty" jsonschema:"override the configured data directory"`
}

// --- Tool handlers ---

func (s *Server) handleListTasks(ctx context.Context, _ *sdkmcp.CallToolRequest, input listTasksInput) (*sdkmcp.CallToolResult, listTasksOutput, error) {
	out := listTasksOutput{Tasks: []taskEntry{}}
	for _, name := range s.cfg.Schemas.Tasks() {
		if input.Filter != "" && !strings.Contains(name, input.Filter) {
			continue
		}
		entry := taskEntry{Name: name}
		if desc, err := s.cfg.Schemas.Load(name); err == nil {
			entry.Kind = desc.Kind.String()
			entry.Version = desc.Version
		} else {
			s.log.Warn("unreadable parameter file", "task", name, "error", err)
			entry.Kind = "unreadable"
		}
		out.Tasks = append(out.Tasks, entry)
	}
	out.Total = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleTaskParams(ctx context.Context, _ *sdkmcp.CallToolRequest, input taskParamsInput) (*sdkmcp.CallToolResult, taskParamsOutput, error) {
	if input.Task == "" {
		return nil, taskParamsOutput{}, fmt.Errorf("task is required")
	}
	desc, err := s.cfg.Schemas.Load(input.Task)
	if err != nil {
		return nil, taskParamsOutput{}, err
	}
	out := taskParamsOutput{
		Task:    desc.Task,
		Version: desc.Version,
		Kind:    desc.Kind.String(),
		Open:    desc.Open,
		Params:  make([]paramRow, 0, len(desc.Params)),
	}
	for _, p := range desc.Params {
		out.Params = append(out.Params, paramRow{
			Name:        p.Name,
			Type:        string(p.Type),
			Default:     p.Default,
			Mandatory:   p.Mandatory,
			List:        p.List,
			Allowed:     p.Allowed,
			Constraints: p.Constraints,
			Description: p.Description,
			Parent:      p.Parent,
		})
	}
	return nil, out, nil
}

func (s *Server) handleRunTask(ctx context.Context, _ *sdkmcp.CallToolRequest, input runTaskInput) (*sdkmcp.CallToolResult, runTaskOutput, error) {
	if input.Task == "" {
		return nil, runTaskOutput{}, fmt.Errorf("task is required")
	}

	// One task at a time: in-process strategies mutate the process
	// environment for their duration.
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var echo bytes.Buffer
	set := args.ArgumentSet{Map: input.Args, Tokens: input.Tokens}
	res, err := s.cfg.Dispatcher.Invoke(ctx, input.Task, set, dispatch.Options{
		Strict: input.Strict,
		Echo:   &echo,
		Dir:    input.Dir,
	})
	if err != nil {
		if res != nil {
			return nil, runTaskOutput{}, fmt.Errorf("run %s: %v (status %s, exit code %d)",
				input.Task, err, res.Status, res.ExitCode)
		}
		return nil, runTaskOutput{}, err
	}

	out := runTaskOutput{
		ID:       res.ID,
		Status:   string(res.Status),
		ExitCode: res.ExitCode,
		Output:   res.Output,
		LogTail:  tail(echo.String(), logTailLines),
		LogPath:  res.LogPath,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleObservationStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, input observationStatusInput) (*sdkmcp.CallToolResult, workspace.Status, error) {
	dataDir := input.DataDir
	if dataDir == "" {
		dataDir = s.cfg.DataDir
	}
	obs, err := workspace.Open(input.ObsID, workspace.Config{
		DataDir: dataDir,
		Invoker: s.cfg.Dispatcher,
	})
	if err != nil {
		// An empty workspace is an answer, not a failure.
		if errors.Is(err, workspace.ErrNoRawData) {
			return nil, workspace.Status{
				ObsID: input.ObsID,
				State: workspace.Uninitialized.String(),
			}, nil
		}
		return nil, workspace.Status{}, err
	}
	return nil, obs.Status(), nil
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
