package supervisor

import "fmt"

// State is a step of the supervisor lifecycle.
type State int

const (
	StateInit State = iota
	StateDirCreated
	StateChildrenSpawned
	StateAwaitingHumanMarker
	StateHealthCheck
	StateRunning
	StateAborted
	StateCompleted
	StateInterrupted
)

var stateNames = map[State]string{
	StateInit:                "INIT",
	StateDirCreated:          "DIR_CREATED",
	StateChildrenSpawned:     "CHILDREN_SPAWNED",
	StateAwaitingHumanMarker: "AWAITING_HUMAN_MARKER",
	StateHealthCheck:         "HEALTH_CHECK",
	StateRunning:             "RUNNING",
	StateAborted:             "ABORTED",
	StateCompleted:           "COMPLETED",
	StateInterrupted:         "INTERRUPTED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateCompleted || s == StateInterrupted
}

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	StateInit:                {StateDirCreated},
	StateDirCreated:          {StateChildrenSpawned},
	StateChildrenSpawned:     {StateAwaitingHumanMarker},
	StateAwaitingHumanMarker: {StateHealthCheck, StateInterrupted},
	StateHealthCheck:         {StateRunning, StateAborted, StateInterrupted},
	StateRunning:             {StateCompleted, StateInterrupted},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
