package workflow

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/deixis/strata/internal/runner"
	"github.com/kballard/go-shellquote"
)

// RunTimeout bounds run-style operations, which execute arbitrary
// commands across many stacks.
const RunTimeout = 5 * time.Minute

// OpParams configure one stack operation.
type OpParams struct {
	Operation  string
	WorkingDir string
	Command    string // required for run and run_changed
	Changed    bool   // only operate on changed stacks
	Parallel   int    // parallel executions for run operations
	Check      bool   // check-only mode for fmt
}

// Operations is the closed set of dispatchable operation names.
var Operations = []string{"list", "list_changed", "run", "run_changed", "generate", "fmt"}

// StackOp maps one named operation onto a single command invocation and
// returns the formatted result. Precondition failures (unknown
// operation, missing command) are returned as errors before any process
// is spawned.
func (e *Engine) StackOp(ctx context.Context, p OpParams) (string, error) {
	command, err := buildOpCommand(e.Config.CLI(), p)
	if err != nil {
		return "", err
	}

	timeout := e.Config.Timeout()
	if strings.HasPrefix(p.Operation, "run") {
		timeout = RunTimeout
	}

	res := e.Runner.Execute(ctx, command, p.WorkingDir, timeout)
	return runner.Format(res), nil
}

func buildOpCommand(cli string, p OpParams) (string, error) {
	argv := []string{cli}

	switch p.Operation {
	case "list":
		argv = append(argv, "list")
		if p.Changed {
			argv = append(argv, "--changed")
		}
	case "list_changed":
		argv = append(argv, "list", "--changed")
	case "run", "run_changed":
		if p.Command == "" {
			return "", MissingParamError{Param: "command", Op: "the '" + p.Operation + "' operation"}
		}
		argv = append(argv, "run")
		if p.Changed || p.Operation == "run_changed" {
			argv = append(argv, "--changed")
		}
		if p.Parallel > 1 {
			argv = append(argv, "--parallel", strconv.Itoa(p.Parallel))
		}
		// The caller's command is a command of its own, not an argument:
		// it stays unquoted so the executor tokenizes it as written.
		return shellquote.Join(argv...) + " -- " + p.Command, nil
	case "generate":
		argv = append(argv, "generate")
		if p.Changed {
			argv = append(argv, "--changed")
		}
	case "fmt":
		argv = append(argv, "fmt")
		if p.Check {
			argv = append(argv, "--check")
		}
	default:
		return "", UnknownOperationError{Op: p.Operation}
	}

	return shellquote.Join(argv...), nil
}
