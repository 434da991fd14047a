package runner

import "fmt"

// State is a run's position in its lifecycle.
//
//	Created → FixturesApplied → Running → Completed
//	   └──────────────┴────────────┴──→ Aborted
type State uint8

const (
	// StateCreated means the world exists and nothing has been applied.
	StateCreated State = iota + 1
	// StateFixturesApplied means every immediate step succeeded.
	StateFixturesApplied
	// StateRunning means the tick loop is dispatching scheduled steps.
	StateRunning
	// StateCompleted means the run reached a verdict normally.
	StateCompleted
	// StateAborted means an adapter error ended the run.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateFixturesApplied:
		return "fixtures_applied"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}
