package session

// State is the logging state.
type State int32

const (
	Suspended State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

type eventKind int

const (
	eventToggle eventKind = iota
	eventTick
	eventClear
)

type event struct {
	kind eventKind
	// gen is the arming generation a tick belongs to.
	gen   uint64
	reply chan error
}
