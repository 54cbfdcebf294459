package core

// Frame is a raw encoded control message, already framed for the wire.
type Frame []byte

// SignalConnection is the outbound half of one client transport. TrySend
// never blocks; a full buffer is reported as an error.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult is the outcome of one relay: how many got the frame and
// which members could not take it.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}
