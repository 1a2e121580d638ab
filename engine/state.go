package engine

// State is the lifecycle position of a prepared statement.
type State uint8

const (
	StateCreated State = iota
	StateBound
	StateExecuted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBound:
		return "bound"
	case StateExecuted:
		return "executed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
