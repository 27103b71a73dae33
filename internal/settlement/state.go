package settlement

// State is a step of one settlement's lifecycle.
type State uint8

const (
	StateIdle State = iota
	StateValidating
	StateReserving
	StateResolving
	StateSettling
	StateRecorded
	StateRejected
	StateErrored
)

var stateNames = map[State]string{
	StateIdle:       "Idle",
	StateValidating: "Validating",
	StateReserving:  "Reserving",
	StateResolving:  "Resolving",
	StateSettling:   "Settling",
	StateRecorded:   "Recorded",
	StateRejected:   "Rejected",
	StateErrored:    "Errored",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateRecorded || s == StateRejected || s == StateErrored
}

// Transition is reported to the observer on every state change. Err is set
// when the new state is Rejected or Errored.
type Transition struct {
	PlayerID string
	From     State
	To       State
	Err      error
}

type run struct {
	playerID string
	state    State
	observe  func(Transition)
}

func (r *run) to(next State, err error) {
	t := Transition{PlayerID: r.playerID, From: r.state, To: next, Err: err}
	r.state = next
	if r.observe != nil {
		r.observe(t)
	}
}
