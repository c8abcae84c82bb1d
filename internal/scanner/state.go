package scanner

// State is a stage of a scan
type State string

const (
	StateCreated     State = "created"
	StateNavigating  State = "navigating"
	StateSettling    State = "settling"
	StateExtracting  State = "extracting"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
	// StateError marks a failed navigation or extraction. The scan then
	// moves on to aggregating whatever it collected.
	StateError State = "error"
)

var transitions = map[State][]State{
	StateCreated:     {StateNavigating, StateError},
	StateNavigating:  {StateSettling, StateError},
	StateSettling:    {StateExtracting},
	StateExtracting:  {StateAggregating, StateError},
	StateError:       {StateAggregating},
	StateAggregating: {StateDone},
}

// CanTransition reports whether a scan may move from one state to another
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// stateMachine tracks the current state and reports each change
type stateMachine struct {
	current State
	history []State
	notify  func(State)
}

func newStateMachine(notify func(State)) *stateMachine {
	m := &stateMachine{current: StateCreated, history: []State{StateCreated}, notify: notify}
	if notify != nil {
		notify(StateCreated)
	}
	return m
}

// to moves to next, ignoring transitions the machine does not allow
func (m *stateMachine) to(next State) bool {
	if !CanTransition(m.current, next) {
		return false
	}
	m.current = next
	m.history = append(m.history, next)
	if m.notify != nil {
		m.notify(next)
	}
	return true
}
