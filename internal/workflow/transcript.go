package workflow

import "strings"

// Transcript accumulates the ordered, human-readable step reports of
// one workflow invocation. It is created at workflow start, appended to
// as the state machine advances, and returned as the sole output; it is
// never shared across invocations.
type Transcript struct {
	entries  []string
	failed   bool
	degraded bool
}

// Append adds one entry verbatim.
func (t *Transcript) Append(entry string) {
	t.entries = append(t.entries, entry)
}

// Section starts a new step report. Sections after the first are
// preceded by a blank line.
func (t *Transcript) Section(heading string) {
	if len(t.entries) > 0 {
		t.entries = append(t.entries, "")
	}
	t.entries = append(t.entries, heading)
}

// Fail records a mandatory-step failure. The workflow is aborted and
// reported as failed.
func (t *Transcript) Fail(msg string) {
	t.failed = true
	t.entries = append(t.entries, "", "FAILED: "+msg)
}

// Warn records an optional-step failure. The workflow still completes,
// degraded.
func (t *Transcript) Warn(msg string) {
	t.degraded = true
	t.entries = append(t.entries, "", "WARNING: "+msg)
}

// Failed reports whether a mandatory step failed.
func (t *Transcript) Failed() bool { return t.failed }

// Degraded reports whether an optional step failed.
func (t *Transcript) Degraded() bool { return t.degraded }

func (t *Transcript) String() string {
	return strings.Join(t.entries, "\n")
}
