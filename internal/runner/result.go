package runner

import (
	"fmt"
	"strings"
)

// Result holds the outcome of one external command invocation.
// Success is true iff the process exited with code 0. Err is set only
// when the process never produced a normal exit (spawn failure,
// unparsable command, timeout); ReturnCode is -1 in those cases.
type Result struct {
	Success    bool
	ReturnCode int
	Stdout     string
	Stderr     string
	Command    string // the invocation as issued
	Dir        string // working directory, empty for the caller's default
	Err        string
	Truncated  bool // true if output exceeded the size cap
}

// Format renders a Result as a human-readable transcript entry.
// It is a pure function of the Result's fields.
func Format(r *Result) string {
	marker := "OK"
	if !r.Success {
		marker = "FAIL"
	}

	dir := r.Dir
	if dir == "" {
		dir = "current"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Command: %s\n", marker, r.Command)
	fmt.Fprintf(&b, "Return Code: %d\n", r.ReturnCode)
	fmt.Fprintf(&b, "Working Directory: %s\n", dir)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "STDOUT:")
	if r.Stdout != "" {
		fmt.Fprintln(&b, strings.TrimRight(r.Stdout, "\n"))
	} else {
		fmt.Fprintln(&b, "(no output)")
	}

	if r.Stderr != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "STDERR:")
		fmt.Fprintln(&b, strings.TrimRight(r.Stderr, "\n"))
	}

	if r.Err != "" {
		fmt.Fprintf(&b, "\nError: %s\n", r.Err)
	}

	return b.String()
}
