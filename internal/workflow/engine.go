// Package workflow sequences external CLI invocations into the stack
// trigger pipeline and the single-shot stack operations. It is consumed
// by both the MCP server and the CLI commands.
package workflow

import (
	"context"
	"os/exec"
	"time"

	"github.com/deixis/strata/internal/config"
	"github.com/deixis/strata/internal/runner"
)

// CommandRunner executes one external command.
// Implemented by runner.Runner.
type CommandRunner interface {
	Execute(ctx context.Context, command, dir string, timeout time.Duration) *runner.Result
}

// Engine holds shared dependencies for all workflow operations.
type Engine struct {
	Config    *config.Config
	Runner    CommandRunner
	Workspace string // default working directory for commands
}

// CLIAvailable reports whether the named binary is on PATH. It is
// resolved once during startup and threaded into tool registration, so
// tool availability never changes mid-session.
func CLIAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
