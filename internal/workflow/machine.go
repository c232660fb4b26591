package workflow

// State identifies one stage of the trigger workflow.
type State string

const (
	StateTrigger State = "trigger"
	StateStatus  State = "status_check"
	StateStage   State = "stage"
	StateCommit  State = "commit"
	StateBranch  State = "branch"
	StatePush    State = "push"
	StatePR      State = "pr_create"
	StateDone    State = "done"
)

// Outcome is the result of executing one state.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFail
)

// Policy decides what a state failure means for the whole workflow.
type Policy string

const (
	// Abort stops the workflow and reports it as failed.
	Abort Policy = "abort"
	// Warn records a warning and lets the workflow complete, degraded.
	Warn Policy = "warn"
)

type transition struct {
	state   State
	outcome Outcome
}

// Machine is the trigger workflow's transition table plus the per-state
// failure policies. Step ordering is fixed and total: no state is
// reachable before its predecessor has completed.
type Machine struct {
	next   map[transition]State
	policy map[State]Policy
}

// NewMachine builds the trigger workflow machine:
//
//	trigger → status_check → stage → commit → [branch → push → pr_create] → done
//
// The bracketed sub-pipeline is wired in only when review is true.
// Any failure transitions straight to done; the state's Policy decides
// whether that is an abort or a degraded completion.
func NewMachine(review bool) *Machine {
	next := map[transition]State{
		{StateTrigger, OutcomeOK}: StateStatus,
		{StateStatus, OutcomeOK}:  StateStage,
		{StateStage, OutcomeOK}:   StateCommit,
		{StateCommit, OutcomeOK}:  StateDone,
		{StateBranch, OutcomeOK}:  StatePush,
		{StatePush, OutcomeOK}:    StatePR,
		{StatePR, OutcomeOK}:      StateDone,

		{StateTrigger, OutcomeFail}: StateDone,
		{StateStatus, OutcomeFail}:  StateDone,
		{StateStage, OutcomeFail}:   StateDone,
		{StateCommit, OutcomeFail}:  StateDone,
		{StateBranch, OutcomeFail}:  StateDone,
		{StatePush, OutcomeFail}:    StateDone,
		{StatePR, OutcomeFail}:      StateDone,
	}
	if review {
		next[transition{StateCommit, OutcomeOK}] = StateBranch
	}

	return &Machine{
		next: next,
		policy: map[State]Policy{
			StateTrigger: Abort,
			StateStatus:  Abort,
			StateStage:   Abort,
			StateCommit:  Abort,
			StateBranch:  Warn,
			StatePush:    Warn,
			StatePR:      Warn,
		},
	}
}

// Next returns the state following s for the given outcome.
func (m *Machine) Next(s State, o Outcome) State {
	return m.next[transition{s, o}]
}

// Policy returns the failure policy for s.
func (m *Machine) Policy(s State) Policy {
	return m.policy[s]
}
