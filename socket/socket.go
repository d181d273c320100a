// Package socket defines the datagram transport the core consumes,
// keeping net.UDPConn out of every package except this one's concrete UDP
// adapter. The engine only ever depends on the Datagram interface, so
// tests can swap in PipeEnd (an in-memory transport that drops only the
// datagrams its DropFunc selects) or a
// gomock-generated mock without touching a real socket.
package socket

import (
	"context"
	"net"
	"time"
)

// Datagram is the collaborator interface the core expects from a bound
// or connected datagram socket: a single writer and a single reader per
// endpoint per direction, as required by §5 of the design.
type Datagram interface {
	// ReadFrom blocks until a datagram arrives, ctx is cancelled, or the
	// read deadline (if any) elapses.
	ReadFrom(ctx context.Context) (data []byte, addr net.Addr, err error)
	// WriteTo sends a datagram to addr. Once a send has started it is
	// not cancellable, matching the design's "send is non-cancellable
	// once initiated" rule.
	WriteTo(ctx context.Context, data []byte, addr net.Addr) error
	// SetReadTimeout bounds each ReadFrom call, so the receiver and
	// timer-scanner flows can poll a running flag instead of blocking
	// forever on a dead peer.
	SetReadTimeout(d time.Duration)
	// LocalAddr returns the bound local address, for logging.
	LocalAddr() net.Addr
	// Close releases the underlying resource. Safe to call once.
	Close() error
}
