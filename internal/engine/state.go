package engine

// State tracks the uninstall run through its lifecycle.
type State int

const (
	StatePlanned State = iota
	StateConfirmed
	StateExecuting
	StateVerifying
	StateSucceeded
	StateRestoring
	StateRestored
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePlanned:
		return "planned"
	case StateConfirmed:
		return "confirmed"
	case StateExecuting:
		return "executing"
	case StateVerifying:
		return "verifying"
	case StateSucceeded:
		return "succeeded"
	case StateRestoring:
		return "restoring"
	case StateRestored:
		return "restored"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
