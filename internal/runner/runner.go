// Package runner executes external commands with wall-clock timeouts
// and output size limits. Every outcome is reported as data: Execute
// never returns an error, it returns a Result describing the failure.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// Runner executes commands with bounded runtime and output.
type Runner struct {
	Workspace string        // default working directory when a call supplies none
	Timeout   time.Duration // default per-command timeout
	MaxOutput int           // bytes, per stream
}

// Execute tokenizes command using shell quoting rules, spawns it in dir
// (or the Runner's workspace when dir is empty), and waits for it to
// finish within timeout (the Runner's default when timeout is zero).
//
// On expiry the child is killed and reaped; the Result carries
// ReturnCode -1 and a "timed out" error string. Spawn failures and
// unparsable commands are reported the same way. Exactly one OS process
// is created per call, and none outlives it.
func (r *Runner) Execute(ctx context.Context, command, dir string, timeout time.Duration) *Result {
	if dir == "" {
		dir = r.Workspace
	}
	if timeout <= 0 {
		timeout = r.Timeout
	}

	argv, err := shellquote.Split(command)
	if err != nil {
		return failure(command, dir, "invalid command: "+err.Error())
	}
	if len(argv) == 0 || argv[0] == "" {
		return failure(command, dir, "invalid command")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	// Reap the child even if it holds its pipes open after the kill.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: r.MaxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: r.MaxOutput}

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		res := failure(command, dir, "timed out after "+strconv.Itoa(int(timeout.Seconds()))+"s")
		res.Stdout = decode(stdout.Bytes())
		res.Stderr = decode(stderr.Bytes())
		return res
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Binary not found or other spawn error.
			return failure(command, dir, runErr.Error())
		}
	}

	return &Result{
		Success:    exitCode == 0,
		ReturnCode: exitCode,
		Stdout:     decode(stdout.Bytes()),
		Stderr:     decode(stderr.Bytes()),
		Command:    command,
		Dir:        dir,
		Truncated:  stdout.Len() >= r.MaxOutput || stderr.Len() >= r.MaxOutput,
	}
}

func failure(command, dir, msg string) *Result {
	return &Result{
		Success:    false,
		ReturnCode: -1,
		Command:    command,
		Dir:        dir,
		Err:        msg,
	}
}

// decode converts captured bytes to text, replacing invalid UTF-8
// rather than failing.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
