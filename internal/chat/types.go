package chat

// SessionState is the lifecycle position of a Session.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateActive
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Participant is what the Roster needs from a connected session.
type Participant interface {
	ID() string
	Name() string
	// Send queues one notification line. It must not block.
	Send(line string) error
	// Disconnect asks the participant to terminate. It must not block.
	Disconnect()
}

// Shutdowner tears down the whole service. Sessions call it on KILL.
type Shutdowner interface {
	Shutdown()
}

var (
	ErrSessionClosed = errorString("session_closed")
	ErrSlowConsumer  = errorString("slow_consumer")
	ErrRosterClosed  = errorString("roster_closed")
	ErrServerClosed  = errorString("server_closed")
)

type errorString string

func (e errorString) Error() string { return string(e) }
