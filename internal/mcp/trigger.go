package mcp

import (
	"context"
	"fmt"

	"github.com/deixis/strata/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type triggerParams struct {
	StackPath     string `json:"stack_path,omitempty" jsonschema:"Path of the stack to trigger. Required unless a status filter is given."`
	WorkingDir    string `json:"working_directory,omitempty" jsonschema:"Directory containing the stack project. Defaults to the server workspace."`
	Status        string `json:"status,omitempty" jsonschema:"Trigger stacks by status instead of by path (ok, failed, drifted, unhealthy, healthy). Takes precedence over stack_path."`
	Recursive     bool   `json:"recursive,omitempty" jsonschema:"Recursively trigger all nested stacks."`
	IgnoreChange  bool   `json:"ignore_change,omitempty" jsonschema:"Mark the stack as unchanged instead of triggering it."`
	CommitMessage string `json:"commit_message,omitempty" jsonschema:"Commit message used verbatim. Derived from the target when empty."`
	CreatePR      *bool  `json:"create_pr,omitempty" jsonschema:"Create a draft review request after committing. Defaults to true."`
	PRTitle       string `json:"pr_title,omitempty" jsonschema:"Review request title. Derived from the commit message when empty."`
}

func (h *handler) triggerHandler(ctx context.Context, req *mcp.CallToolRequest, params triggerParams) (*mcp.CallToolResult, any, error) {
	createPR := true
	if params.CreatePR != nil {
		createPR = *params.CreatePR
	}

	workingDir := params.WorkingDir
	if workingDir == "" {
		workingDir = h.engine.Workspace
	}

	transcript, err := h.engine.Trigger(ctx, workflow.TriggerParams{
		StackPath:     params.StackPath,
		WorkingDir:    workingDir,
		Status:        params.Status,
		Recursive:     params.Recursive,
		IgnoreChange:  params.IgnoreChange,
		CommitMessage: params.CommitMessage,
		CreatePR:      createPR,
		PRTitle:       params.PRTitle,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("trigger workflow: %v", err))
	}

	if transcript.Failed() {
		return errorResult(transcript.String())
	}
	return textResult(transcript.String())
}
