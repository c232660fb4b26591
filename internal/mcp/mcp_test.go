package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deixis/strata/internal/cloud"
	"github.com/deixis/strata/internal/config"
	"github.com/deixis/strata/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// fakeRunner implements workflow.CommandRunner, succeeding for every
// command except those containing a failWhen substring.
type fakeRunner struct {
	commands []string
	failWhen []string
}

func (f *fakeRunner) Execute(ctx context.Context, command, dir string, timeout time.Duration) *runner.Result {
	f.commands = append(f.commands, command)
	for _, s := range f.failWhen {
		if strings.Contains(command, s) {
			return &runner.Result{ReturnCode: 1, Stderr: "boom", Command: command, Dir: dir}
		}
	}
	return &runner.Result{Success: true, Stdout: "done", Command: command, Dir: dir}
}

// setup creates a Strata MCP server + client over in-memory transports.
func setup(t *testing.T, opts ...ServerOption) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(&config.Config{}, nil, t.TempDir(), opts...)

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func toolNames(t *testing.T, cs *mcp.ClientSession) map[string]bool {
	t.Helper()
	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	return names
}

// --- tool registration ---

func TestToolRegistration_Default(t *testing.T) {
	cs := setup(t, WithCommandRunner(&fakeRunner{}))
	names := toolNames(t, cs)
	if !names["stack_trigger_workflow"] || !names["stack_operations"] {
		t.Errorf("expected CLI tools to be registered, got %v", names)
	}
	if names["stack_organizations"] {
		t.Errorf("cloud tools should not be registered without a client, got %v", names)
	}
}

func TestToolRegistration_WithoutCLI(t *testing.T) {
	cs := setup(t, WithoutCLITools())
	names := toolNames(t, cs)
	if names["stack_trigger_workflow"] || names["stack_operations"] {
		t.Errorf("expected CLI tools to be skipped, got %v", names)
	}
}

func TestToolRegistration_WithCloud(t *testing.T) {
	c, err := cloud.NewClient("key", "strata/test")
	if err != nil {
		t.Fatal(err)
	}
	cs := setup(t, WithoutCLITools(), WithCloud(c))
	names := toolNames(t, cs)
	for _, want := range []string{"stack_organizations", "stack_list", "stack_drifts", "stack_deployments", "stack_review_requests"} {
		if !names[want] {
			t.Errorf("expected %s to be registered, got %v", want, names)
		}
	}
}

// --- stack_trigger_workflow ---

func TestTriggerWorkflow_Success(t *testing.T) {
	fake := &fakeRunner{}
	cs := setup(t, WithCommandRunner(fake))

	res := callTool(t, cs, "stack_trigger_workflow", map[string]any{
		"stack_path": "stacks/vpc",
		"create_pr":  false,
	})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Step 1: Triggering stacks") {
		t.Errorf("expected step heading, got:\n%s", text)
	}
	if !strings.Contains(text, "Trigger workflow completed.") {
		t.Errorf("expected completion line, got:\n%s", text)
	}
	if len(fake.commands) != 4 {
		t.Errorf("expected 4 commands, got %d: %v", len(fake.commands), fake.commands)
	}
}

func TestTriggerWorkflow_MissingTarget(t *testing.T) {
	fake := &fakeRunner{}
	cs := setup(t, WithCommandRunner(fake))

	res := callTool(t, cs, "stack_trigger_workflow", nil)
	if !res.IsError {
		t.Fatal("expected IsError for missing stack_path and status")
	}
	if len(fake.commands) != 0 {
		t.Errorf("no commands should run, got %v", fake.commands)
	}
}

func TestTriggerWorkflow_MandatoryFailure(t *testing.T) {
	fake := &fakeRunner{failWhen: []string{"git add"}}
	cs := setup(t, WithCommandRunner(fake))

	res := callTool(t, cs, "stack_trigger_workflow", map[string]any{
		"stack_path": "stacks/vpc",
	})
	text := resultText(res)
	if !res.IsError {
		t.Fatalf("expected IsError for aborted workflow, got:\n%s", text)
	}
	if !strings.Contains(text, "FAILED: Staging changes failed.") {
		t.Errorf("expected failure marker, got:\n%s", text)
	}
}

func TestTriggerWorkflow_DegradedSuccess(t *testing.T) {
	fake := &fakeRunner{failWhen: []string{"gh pr create"}}
	cs := setup(t, WithCommandRunner(fake))

	res := callTool(t, cs, "stack_trigger_workflow", map[string]any{
		"stack_path": "stacks/vpc",
	})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("degraded success should not be an error, got:\n%s", text)
	}
	if !strings.Contains(text, "WARNING: Review request creation failed.") {
		t.Errorf("expected warning marker, got:\n%s", text)
	}
	if !strings.Contains(text, "Trigger workflow completed.") {
		t.Errorf("expected completion line, got:\n%s", text)
	}
}

// --- stack_operations ---

func TestStackOperations_List(t *testing.T) {
	fake := &fakeRunner{}
	cs := setup(t, WithCommandRunner(fake))

	res := callTool(t, cs, "stack_operations", map[string]any{
		"operation": "list",
	})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "[OK] Command: terramate list") {
		t.Errorf("expected formatted result, got:\n%s", text)
	}
}

func TestStackOperations_UnknownOperation(t *testing.T) {
	fake := &fakeRunner{}
	cs := setup(t, WithCommandRunner(fake))

	res := callTool(t, cs, "stack_operations", map[string]any{
		"operation": "destroy",
	})
	if !res.IsError {
		t.Fatal("expected IsError for unknown operation")
	}
	if !strings.Contains(resultText(res), "unknown operation") {
		t.Errorf("expected unknown operation message, got: %s", resultText(res))
	}
	if len(fake.commands) != 0 {
		t.Errorf("no commands should run, got %v", fake.commands)
	}
}

func TestStackOperations_RunRequiresCommand(t *testing.T) {
	fake := &fakeRunner{}
	cs := setup(t, WithCommandRunner(fake))

	res := callTool(t, cs, "stack_operations", map[string]any{
		"operation": "run",
	})
	if !res.IsError {
		t.Fatal("expected IsError for run without command")
	}
	if len(fake.commands) != 0 {
		t.Errorf("no commands should run, got %v", fake.commands)
	}
}

// --- cloud tools ---

func cloudFixture(t *testing.T, handler http.HandlerFunc) *cloud.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c, err := cloud.NewClient("key", "strata/test", cloud.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestStackOrganizations(t *testing.T) {
	c := cloudFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/memberships" {
			t.Errorf("path = %q, want /v1/memberships", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"org_uuid": "abc-123", "org_name": "acme", "org_display_name": "Acme Corp", "role": "admin", "status": "active"}]`))
	})
	cs := setup(t, WithoutCLITools(), WithCloud(c))

	res := callTool(t, cs, "stack_organizations", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Acme Corp") || !strings.Contains(text, "abc-123") {
		t.Errorf("expected organization details, got:\n%s", text)
	}
}

func TestStackList_Formatted(t *testing.T) {
	c := cloudFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"stacks": [{"stack_id": 7, "repository": "github.com/acme/infra", "path": "/stacks/vpc", "status": "drifted", "meta_name": "vpc"}],
			"paginated_result": {"total": 1, "page": 1, "per_page": 100}
		}`))
	})
	cs := setup(t, WithoutCLITools(), WithCloud(c))

	res := callTool(t, cs, "stack_list", map[string]any{
		"org_uuid": "abc-123",
		"status":   "drifted",
	})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Stack: vpc (ID: 7)") {
		t.Errorf("expected stack header, got:\n%s", text)
	}
	if !strings.Contains(text, "Status: drifted") {
		t.Errorf("expected status line, got:\n%s", text)
	}
}

func TestStackList_APIError(t *testing.T) {
	c := cloudFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_message": "invalid API key"}`))
	})
	cs := setup(t, WithoutCLITools(), WithCloud(c))

	res := callTool(t, cs, "stack_list", map[string]any{
		"org_uuid": "abc-123",
	})
	if !res.IsError {
		t.Fatal("expected IsError for unauthorized response")
	}
	if !strings.Contains(resultText(res), "invalid API key") {
		t.Errorf("expected API error message, got: %s", resultText(res))
	}
}
