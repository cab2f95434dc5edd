package printer

// State is the connection lifecycle position of a transport.
type State int

const (
	StateDisconnected State = iota
	StateDiscovering
	StateConnecting
	StateServiceResolving
	StateReady
	StateWriting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateDiscovering:
		return "discovering"
	case StateConnecting:
		return "connecting"
	case StateServiceResolving:
		return "service_resolving"
	case StateReady:
		return "ready"
	case StateWriting:
		return "writing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
