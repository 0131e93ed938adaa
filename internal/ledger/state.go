package ledger

// State is a phase of the settlement worker.
type State int32

const (
	StateIdle State = iota
	StateDraining
	StateApplying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateApplying:
		return "applying"
	default:
		return "unknown"
	}
}
