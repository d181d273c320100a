package endpoint

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/oslowtech/reliabletransfer/arq"
	"github.com/oslowtech/reliabletransfer/eventlog"
	"github.com/oslowtech/reliabletransfer/internal/xlog"
	"github.com/oslowtech/reliabletransfer/lossy"
	"github.com/oslowtech/reliabletransfer/packet"
	"github.com/oslowtech/reliabletransfer/rtpconfig"
	"github.com/oslowtech/reliabletransfer/rtperr"
	"github.com/oslowtech/reliabletransfer/socket"
	"github.com/oslowtech/reliabletransfer/stats"
)

// Receiver drives one inbound transfer: it waits for a SYN, completes
// the handshake, reassembles the byte stream into sink in order, and
// replies to teardown. A Receiver handles exactly one transfer per call
// to Run; call Run again (or construct a fresh Receiver) for the next
// one, mirroring the receiver's "buffer reset on SYN" lifecycle from
// spec.md §4.5.
type Receiver struct {
	conn socket.Datagram
	cfg  rtpconfig.Config
	sink io.Writer

	arqReceiver arq.Receiver
	loss        *lossy.Injector

	Stats     *stats.Counters
	EventLog  *eventlog.Log
	SessionID uuid.UUID
	log       *xlog.SessionLogger

	state    stateBox
	peerAddr net.Addr
}

// NewReceiver constructs a Receiver bound to conn, delivering reassembled
// bytes to sink in order as they are confirmed.
func NewReceiver(conn socket.Datagram, cfg rtpconfig.Config, sink io.Writer) *Receiver {
	sessionID := uuid.New()
	return &Receiver{
		conn:        conn,
		cfg:         cfg,
		sink:        sink,
		arqReceiver: newArqReceiver(cfg.ProtocolMode, uint16(cfg.WindowSize)),
		loss:        lossy.New(cfg.PacketLossRate),
		Stats:       stats.New(),
		EventLog:    eventlog.New(eventlog.DefaultCapacity),
		SessionID:   sessionID,
		log:         xlog.ForSession(sessionID),
	}
}

// State returns the receiver's current lifecycle state.
func (r *Receiver) State() State { return r.state.get() }

// Run services one transfer to completion: handshake, data phase,
// teardown. It blocks until the transfer Completes, ctx is cancelled, or
// a protocol error occurs.
func (r *Receiver) Run(ctx context.Context) error {
	r.state.set(Idle)
	r.conn.SetReadTimeout(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, from, err := r.conn.ReadFrom(ctx)
		if err != nil {
			return rtperr.NewTransportError(err)
		}
		p, err := packet.Decode(raw)
		if err != nil {
			r.Stats.IncChecksumErrors()
			r.EventLog.Append(eventlog.KindChecksumError, "%v", err)
			continue
		}

		if p.IsSyn() && !p.IsAck() {
			r.state.set(Connecting)
			r.arqReceiver.Reset()
			r.Stats = stats.New()
			r.peerAddr = from
			r.Stats.MarkStarted()
			r.EventLog.Append(eventlog.KindSynSent, "syn received from %v", from)
			r.log.Infof("syn received from %v, resetting session", from)

			reply := packet.NewSynAck(0, p.SeqNo+1, r.arqReceiver.AdvertisedWindow())
			if err := r.sendRaw(ctx, reply, from); err != nil {
				return rtperr.NewTransportError(err)
			}
			continue
		}

		if r.peerAddr == nil {
			continue // no session established yet; ignore stray datagrams
		}

		if p.IsAck() && !p.IsFin() && !p.IsSyn() && r.state.get() == Connecting {
			r.state.set(Connected)
			r.state.set(Transferring)
			continue
		}

		if p.IsData() {
			if r.state.get() != Transferring {
				continue
			}
			if err := r.handleData(ctx, p, from); err != nil {
				return err
			}
			continue
		}

		if p.IsFin() {
			if st := r.state.get(); st != Transferring && st != Closing {
				r.state.set(Error)
				r.log.Errorf("unexpected fin received in state %s", st)
				return rtperr.NewUnexpectedFin(fmt.Sprintf("fin received in state %s", st))
			}
			r.Stats.MarkEnded()
			r.state.set(Closing)
			r.EventLog.Append(eventlog.KindFinSent, "fin received")
			finAck := packet.NewFinAck(p.SeqNo, p.SeqNo+1)
			if err := r.sendRaw(ctx, finAck, from); err != nil {
				return rtperr.NewTransportError(err)
			}
			r.state.set(Completed)
			r.EventLog.Append(eventlog.KindTransferComplete, "transfer complete")
			r.log.Infof("transfer complete, %d bytes delivered", r.Stats.Snapshot().BytesTransferred)
			return nil
		}
	}
}

func (r *Receiver) handleData(ctx context.Context, p *packet.Packet, from net.Addr) error {
	ack, delivered, outOfOrder, duplicate := r.arqReceiver.HandlePacket(p)

	switch {
	case duplicate:
		r.Stats.IncDuplicate()
	case outOfOrder:
		r.Stats.IncOutOfOrder()
	}

	if len(delivered) > 0 {
		if _, err := r.sink.Write(delivered); err != nil {
			return rtperr.NewTransportError(err)
		}
		r.Stats.AddBytes(len(delivered))
	}

	if ack == nil {
		return nil
	}
	r.EventLog.Append(eventlog.KindAckSent, "ack_no=%d", ack.AckNo)
	return r.sendRaw(ctx, ack, from)
}

func (r *Receiver) sendRaw(ctx context.Context, p *packet.Packet, to net.Addr) error {
	if r.loss.ShouldDrop() {
		r.EventLog.Append(eventlog.KindPacketDrop, "outbound drop ack_no=%d flags=%s", p.AckNo, p.Flags)
		return nil
	}
	buf, err := p.Encode()
	if err != nil {
		return err
	}
	return r.conn.WriteTo(ctx, buf, to)
}
