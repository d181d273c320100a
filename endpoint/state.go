// Package endpoint drives the connection state machine — three-way
// handshake, data phase, and teardown — on top of the arq send/receive
// engines and the congestion controller, over a socket.Datagram
// transport. It supervises the concurrent flows described in the
// design's concurrency model (transmitter, datagram receiver, timer
// scanner) with golang.org/x/sync/errgroup, the way the teacher
// supervises a QUIC session's read/write loops from server.go, adapted
// from a single long-lived session loop into three cooperating flows
// per transfer.
package endpoint

import "sync"

// State is a connection's position in its lifecycle.
type State uint8

const (
	Idle State = iota
	Connecting
	Connected
	Transferring
	Closing
	Completed
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Transferring:
		return "transferring"
	case Closing:
		return "closing"
	case Completed:
		return "completed"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// stateBox is a small mutex-guarded state holder shared by Sender and
// Receiver, since both track the same lifecycle.
type stateBox struct {
	mu sync.Mutex
	s  State
}

func (b *stateBox) set(s State) {
	b.mu.Lock()
	b.s = s
	b.mu.Unlock()
}

func (b *stateBox) get() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.s
}
