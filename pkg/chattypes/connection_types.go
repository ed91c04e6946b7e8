package chattypes

// ConnState is the lifecycle state of the backend connection.
type ConnState int

const (
	// StateDisconnected means no socket exists.
	StateDisconnected ConnState = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateOpen means frames can be sent.
	StateOpen
	// StateClosing means a close was requested and the socket is draining.
	StateClosing
)

// String returns the lowercase name of the state.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}
