package workflow

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/deixis/strata/internal/runner"
	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TriggerParams configure one run of the trigger workflow. Either
// StackPath or Status must be set; when both are set the status filter
// takes precedence.
type TriggerParams struct {
	StackPath     string
	WorkingDir    string
	Status        string // trigger stacks by status instead of by path
	Recursive     bool
	IgnoreChange  bool
	CommitMessage string // used verbatim when set
	CreatePR      bool
	PRTitle       string // derived from the commit message when empty
}

// failMessages are the transcript markers for abort-policy states.
var failMessages = map[State]string{
	StateTrigger: "Trigger failed, stopping workflow.",
	StateStatus:  "Working tree status check failed.",
	StateStage:   "Staging changes failed.",
	StateCommit:  "Commit failed.",
}

// warnMessages are the transcript markers for warn-policy states.
var warnMessages = map[State]string{
	StateBranch: "Branch creation failed; review request skipped.",
	StatePush:   "Pushing the branch failed; review request skipped.",
	StatePR:     "Review request creation failed. Install the GitHub CLI or check repository permissions.",
}

// Trigger runs the trigger-and-review workflow and returns its
// transcript. The only error it returns is a precondition failure
// raised before any process is spawned; every downstream command
// failure is captured in the transcript instead.
func (e *Engine) Trigger(ctx context.Context, p TriggerParams) (*Transcript, error) {
	if p.StackPath == "" && p.Status == "" {
		return nil, MissingParamError{Param: "stack_path", Op: "the trigger workflow (or supply a status filter)"}
	}

	run := &triggerRun{
		e:          e,
		p:          p,
		t:          &Transcript{},
		triggerCmd: buildTriggerCommand(e.Config.CLI(), p),
		commitMsg:  commitMessage(p),
	}

	m := NewMachine(p.CreatePR)
	for s := StateTrigger; s != StateDone; {
		out := run.exec(ctx, s)
		if out == OutcomeFail {
			switch m.Policy(s) {
			case Abort:
				run.t.Fail(failMessages[s])
			case Warn:
				run.t.Warn(warnMessages[s])
			}
		}
		s = m.Next(s, out)
	}

	if !run.t.Failed() {
		run.t.Append("")
		run.t.Append("Trigger workflow completed.")
	}
	return run.t, nil
}

// triggerRun carries the mutable state of one workflow invocation.
type triggerRun struct {
	e          *Engine
	p          TriggerParams
	t          *Transcript
	triggerCmd string
	commitMsg  string
	branchName string
}

func (r *triggerRun) exec(ctx context.Context, s State) Outcome {
	switch s {
	case StateTrigger:
		return r.trigger(ctx)
	case StateStatus:
		return r.statusCheck(ctx)
	case StateStage:
		return r.stage(ctx)
	case StateCommit:
		return r.commit(ctx)
	case StateBranch:
		return r.createBranch(ctx)
	case StatePush:
		return r.push(ctx)
	case StatePR:
		return r.createPR(ctx)
	}
	return OutcomeFail
}

// runCmd executes one command and appends its formatted result.
func (r *triggerRun) runCmd(ctx context.Context, command string) *runner.Result {
	res := r.e.Runner.Execute(ctx, command, r.p.WorkingDir, r.e.Config.Timeout())
	r.t.Append(runner.Format(res))
	return res
}

func outcomeOf(res *runner.Result) Outcome {
	if res.Success {
		return OutcomeOK
	}
	return OutcomeFail
}

func (r *triggerRun) trigger(ctx context.Context) Outcome {
	r.t.Section("Step 1: Triggering stacks")
	return outcomeOf(r.runCmd(ctx, r.triggerCmd))
}

func (r *triggerRun) statusCheck(ctx context.Context) Outcome {
	r.t.Section("Step 2: Checking working tree status")
	return outcomeOf(r.runCmd(ctx, "git status --porcelain"))
}

func (r *triggerRun) stage(ctx context.Context) Outcome {
	r.t.Section("Step 3: Staging trigger files")
	return outcomeOf(r.runCmd(ctx, "git add ."))
}

func (r *triggerRun) commit(ctx context.Context) Outcome {
	r.t.Section("Step 4: Committing changes with message: '" + r.commitMsg + "'")
	cmd := shellquote.Join("git", "commit", "-m", r.commitMsg)
	return outcomeOf(r.runCmd(ctx, cmd))
}

func (r *triggerRun) createBranch(ctx context.Context) Outcome {
	r.t.Section("Step 5: Creating draft review request")
	r.branchName = r.e.Config.BranchPrefix() + branchSuffix()
	cmd := shellquote.Join("git", "checkout", "-b", r.branchName)
	return outcomeOf(r.runCmd(ctx, cmd))
}

func (r *triggerRun) push(ctx context.Context) Outcome {
	cmd := shellquote.Join("git", "push", "-u", r.e.Config.Remote(), r.branchName)
	return outcomeOf(r.runCmd(ctx, cmd))
}

func (r *triggerRun) createPR(ctx context.Context) Outcome {
	title := r.p.PRTitle
	if title == "" {
		title = deriveTitle(r.commitMsg)
	}
	body := "Automated stack trigger.\n\nTrigger command: " + r.triggerCmd

	cmd := shellquote.Join("gh", "pr", "create", "--draft", "--title", title, "--body", body)
	out := outcomeOf(r.runCmd(ctx, cmd))
	if out == OutcomeOK {
		r.t.Append("Draft review request created.")
	}
	return out
}

// buildTriggerCommand assembles the trigger invocation as a quoted
// argument vector. A status filter takes precedence over a stack path.
func buildTriggerCommand(cli string, p TriggerParams) string {
	argv := []string{cli, "trigger"}
	if p.Status != "" {
		argv = append(argv, "--status="+p.Status)
	} else {
		argv = append(argv, p.StackPath)
	}
	if p.Recursive {
		argv = append(argv, "--recursive")
	}
	if p.IgnoreChange {
		argv = append(argv, "--ignore-change")
	}
	return shellquote.Join(argv...)
}

// commitMessage returns the caller's message verbatim, or derives one
// from the status filter or the final path segment of the stack path.
func commitMessage(p TriggerParams) string {
	if p.CommitMessage != "" {
		return p.CommitMessage
	}
	if p.Status != "" {
		return "chore: trigger stacks with status " + p.Status
	}
	name := "stack"
	if p.StackPath != "" {
		name = filepath.Base(p.StackPath)
	}
	return "chore: trigger stack " + name
}

// deriveTitle strips a leading "chore: " token from the commit message
// and title-cases the remainder.
func deriveTitle(commitMsg string) string {
	return cases.Title(language.English).String(strings.TrimPrefix(commitMsg, "chore: "))
}

// branchSuffix returns a short random suffix. Collision resistance is
// all that is needed here, not unpredictability.
func branchSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
