package socket

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// pipeAddr is a trivial net.Addr for an in-memory Pipe endpoint.
type pipeAddr string

func (a pipeAddr) Network() string { return "pipe" }
func (a pipeAddr) String() string  { return string(a) }

type datagram struct {
	data []byte
	from net.Addr
}

// DropFunc decides, given the 1-based ordinal of the datagram on its
// direction, whether it should be dropped. It exists so deterministic
// tests can force specific sequence numbers to be lost on first
// transmission (see spec.md scenarios S2/S3), the same role the
// teacher's integrationtests.UDPProxy dropIncomingPacket/
// dropOutgoingPacket callbacks play.
type DropFunc func(ordinal uint64) bool

// PipeEnd is one side of an in-memory, two-party Datagram channel pair,
// used by tests in place of a real UDP socket.
type PipeEnd struct {
	self, peer net.Addr
	out        chan<- datagram
	in         <-chan datagram

	sendCounter uint64
	recvCounter uint64

	mu         sync.Mutex
	dropOutput DropFunc

	readTimeout time.Duration
	closed      chan struct{}
	closeOnce   sync.Once
}

// NewPipe creates a connected pair of PipeEnds named a and b.
func NewPipe(a, b string) (*PipeEnd, *PipeEnd) {
	ab := make(chan datagram, 256)
	ba := make(chan datagram, 256)
	pa := &PipeEnd{self: pipeAddr(a), peer: pipeAddr(b), out: ab, in: ba, closed: make(chan struct{})}
	pb := &PipeEnd{self: pipeAddr(b), peer: pipeAddr(a), out: ba, in: ab, closed: make(chan struct{})}
	return pa, pb
}

// SetDropOutput installs a callback deciding, per outbound datagram
// ordinal (1-based, reset never), whether to silently drop it instead of
// placing it on the wire. Pass nil to disable.
func (p *PipeEnd) SetDropOutput(f DropFunc) {
	p.mu.Lock()
	p.dropOutput = f
	p.mu.Unlock()
}

// ReadFrom implements Datagram.
func (p *PipeEnd) ReadFrom(ctx context.Context) ([]byte, net.Addr, error) {
	var timeout <-chan time.Time
	if p.readTimeout > 0 {
		timer := time.NewTimer(p.readTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case dg, ok := <-p.in:
		if !ok {
			return nil, nil, errors.New("pipe closed")
		}
		atomic.AddUint64(&p.recvCounter, 1)
		return dg.data, dg.from, nil
	case <-timeout:
		return nil, nil, context.DeadlineExceeded
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-p.closed:
		return nil, nil, errors.New("pipe closed")
	}
}

// WriteTo implements Datagram. addr is ignored; a Pipe always writes to
// its fixed peer.
func (p *PipeEnd) WriteTo(ctx context.Context, data []byte, addr net.Addr) error {
	ordinal := atomic.AddUint64(&p.sendCounter, 1)

	p.mu.Lock()
	drop := p.dropOutput
	p.mu.Unlock()
	if drop != nil && drop(ordinal) {
		return nil
	}

	cp := append([]byte(nil), data...)
	select {
	case p.out <- datagram{data: cp, from: p.self}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return errors.New("pipe closed")
	}
}

// SetReadTimeout implements Datagram.
func (p *PipeEnd) SetReadTimeout(d time.Duration) { p.readTimeout = d }

// LocalAddr implements Datagram.
func (p *PipeEnd) LocalAddr() net.Addr { return p.self }

// Close implements Datagram.
func (p *PipeEnd) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

var _ Datagram = (*PipeEnd)(nil)
