package mcp

import (
	"context"
	"fmt"

	"github.com/deixis/strata/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type opsParams struct {
	Operation  string `json:"operation" jsonschema:"Operation to perform: list, list_changed, run, run_changed, generate, or fmt."`
	WorkingDir string `json:"working_directory,omitempty" jsonschema:"Directory containing the stack project. Defaults to the server workspace."`
	Command    string `json:"command,omitempty" jsonschema:"Command to execute across stacks. Required for run and run_changed."`
	Changed    bool   `json:"changed,omitempty" jsonschema:"Only operate on changed stacks."`
	Parallel   int    `json:"parallel,omitempty" jsonschema:"Number of parallel executions for run operations."`
	Check      bool   `json:"check,omitempty" jsonschema:"Check formatting without rewriting files (fmt only)."`
}

func (h *handler) opsHandler(ctx context.Context, req *mcp.CallToolRequest, params opsParams) (*mcp.CallToolResult, any, error) {
	workingDir := params.WorkingDir
	if workingDir == "" {
		workingDir = h.engine.Workspace
	}

	out, err := h.engine.StackOp(ctx, workflow.OpParams{
		Operation:  params.Operation,
		WorkingDir: workingDir,
		Command:    params.Command,
		Changed:    params.Changed,
		Parallel:   params.Parallel,
		Check:      params.Check,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("stack operation: %v", err))
	}
	return textResult(out)
}
