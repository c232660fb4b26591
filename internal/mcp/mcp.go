// Package mcp provides the Strata MCP server, registering the workflow,
// operations, and cloud tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"strings"
	"time"

	"github.com/deixis/strata"
	"github.com/deixis/strata/internal/cloud"
	"github.com/deixis/strata/internal/config"
	"github.com/deixis/strata/internal/runner"
	"github.com/deixis/strata/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *workflow.Engine
	runner *runner.Runner // retained for updateWorkspaceFromRoots; nil in tests
	cloud  *cloud.Client  // nil when no API key is configured
}

// NewServer creates an MCP server with the Strata tools registered.
// The stack CLI tools are skipped with WithoutCLITools; the cloud tools
// appear only when a cloud client is attached.
func NewServer(cfg *config.Config, r *runner.Runner, workspace string, opts ...ServerOption) *mcp.Server {
	h := &handler{
		engine: &workflow.Engine{
			Config:    cfg,
			Runner:    r,
			Workspace: workspace,
		},
		runner: r,
	}

	var so serverOptions
	for _, o := range opts {
		o(&so)
	}
	h.cloud = so.cloud
	if so.runner != nil {
		h.engine.Runner = so.runner
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: buildInstructions(so),
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "strata", Version: strata.Version}, mcpOpts)

	if !so.noCLITools {
		mcp.AddTool(s, &mcp.Tool{
			Name: "stack_trigger_workflow",
			Description: `Trigger stacks and commit the resulting change, optionally opening a draft review request.

Runs the trigger command, checks and stages the working tree, commits with a
derived (or caller-supplied) message, and with create_pr also creates a branch,
pushes it, and opens a draft review request. Returns the full step transcript.`,
		}, h.triggerHandler)

		mcp.AddTool(s, &mcp.Tool{
			Name: "stack_operations",
			Description: `Run one stack CLI operation: list, list_changed, run, run_changed, generate, or fmt.

run and run_changed execute a caller-supplied command across stacks and
require the command parameter. Returns the formatted command result.`,
		}, h.opsHandler)
	}

	if h.cloud != nil {
		registerCloudTools(s, h)
	}

	return s
}

// ServerOption configures the Strata MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	cloud      *cloud.Client
	runner     workflow.CommandRunner
	noCLITools bool
}

// WithCloud attaches a cloud API client and enables the cloud tools.
func WithCloud(c *cloud.Client) ServerOption {
	return func(o *serverOptions) {
		o.cloud = c
	}
}

// WithoutCLITools skips registration of the workflow and operations
// tools. Used when the stack CLI is not on PATH.
func WithoutCLITools() ServerOption {
	return func(o *serverOptions) {
		o.noCLITools = true
	}
}

// WithCommandRunner replaces the command runner behind the workflow
// tools. Mainly for tests.
func WithCommandRunner(r workflow.CommandRunner) ServerOption {
	return func(o *serverOptions) {
		o.runner = r
	}
}

// buildInstructions appends availability notes for tool groups that are
// disabled in this session.
func buildInstructions(so serverOptions) string {
	var b strings.Builder
	b.WriteString(Instructions)
	if so.noCLITools {
		b.WriteString("\nNote: the stack CLI was not found on PATH, so stack_trigger_workflow and stack_operations are unavailable in this session.\n")
	}
	if so.cloud == nil {
		b.WriteString("\nNote: no cloud API key is configured, so the cloud tools are unavailable in this session.\n")
	}
	return b.String()
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates
// the handler's engine, runner, and config if a valid root is returned.
// This is called during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		return
	}

	if h.runner != nil {
		h.runner.Workspace = workspace
		h.runner.Timeout = loaded.Config.Timeout()
		h.runner.MaxOutput = loaded.Config.MaxOutputBytes()
	}

	h.engine.Config = loaded.Config
	h.engine.Workspace = workspace
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
