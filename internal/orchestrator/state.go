package orchestrator

// State is a phase of the per-request agent loop:
// AwaitModel -> ExecutingTools -> AwaitModel -> ... -> Done | Aborted.
type State int

const (
	StateAwaitModel State = iota
	StateExecutingTools
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAwaitModel:
		return "await_model"
	case StateExecutingTools:
		return "executing_tools"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
