package endpoint

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oslowtech/reliabletransfer/arq"
	"github.com/oslowtech/reliabletransfer/congestion"
	"github.com/oslowtech/reliabletransfer/eventlog"
	"github.com/oslowtech/reliabletransfer/internal/xlog"
	"github.com/oslowtech/reliabletransfer/lossy"
	"github.com/oslowtech/reliabletransfer/packet"
	"github.com/oslowtech/reliabletransfer/protocol"
	"github.com/oslowtech/reliabletransfer/rtpconfig"
	"github.com/oslowtech/reliabletransfer/rtperr"
	"github.com/oslowtech/reliabletransfer/socket"
	"github.com/oslowtech/reliabletransfer/stats"
)

// handshakeAttempts is the bounded retry count for each handshake step
// and for the FIN teardown step, per spec.md §4.5.
const handshakeAttempts = 5

// transmitIdle is how long the transmitter flow sleeps when the window
// admits nothing new to send, so it can re-check Done/ctx without busy
// spinning.
const transmitIdle = 5 * time.Millisecond

// Sender drives one outbound transfer: handshake, data phase, teardown.
// A Sender is single-use — call Send once per instance.
type Sender struct {
	conn       socket.Datagram
	remoteAddr net.Addr
	cfg        rtpconfig.Config

	arqSender arq.Sender
	cong      *congestion.Controller
	loss      *lossy.Injector

	Stats     *stats.Counters
	EventLog  *eventlog.Log
	SessionID uuid.UUID
	log       *xlog.SessionLogger

	state stateBox

	finAckCh chan struct{}
}

// NewSender constructs a Sender bound to conn/remoteAddr with the given
// validated configuration.
func NewSender(conn socket.Datagram, remoteAddr net.Addr, cfg rtpconfig.Config) *Sender {
	sessionID := uuid.New()
	return &Sender{
		conn:       conn,
		remoteAddr: remoteAddr,
		cfg:        cfg,
		arqSender:  newArqSender(cfg.ProtocolMode, uint16(cfg.WindowSize)),
		cong:       congestion.New(cfg.CongestionEnabled),
		loss:       lossy.New(cfg.PacketLossRate),
		Stats:      stats.New(),
		EventLog:   eventlog.New(eventlog.DefaultCapacity),
		SessionID:  sessionID,
		log:        xlog.ForSession(sessionID),
	}
}

// State returns the sender's current lifecycle state.
func (s *Sender) State() State { return s.state.get() }

// Send transfers data to the peer end to end: handshake, data phase,
// teardown. It returns once the transfer has Completed or failed.
func (s *Sender) Send(ctx context.Context, data []byte) error {
	s.state.set(Connecting)
	if _, err := s.handshake(ctx); err != nil {
		s.state.set(Error)
		return err
	}
	s.state.set(Connected)

	s.arqSender.LoadData(data)
	s.Stats.MarkStarted()
	s.state.set(Transferring)
	s.finAckCh = make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.transmitFlow(gctx) })
	g.Go(func() error { return s.receiveFlow(gctx) })
	if s.cfg.ProtocolMode != protocol.StopWait {
		g.Go(func() error { return s.timerFlow(gctx) })
	}
	if err := g.Wait(); err != nil {
		s.state.set(Error)
		return err
	}

	s.state.set(Closing)
	s.teardown(ctx)
	s.Stats.MarkEnded()
	s.state.set(Completed)
	s.EventLog.Append(eventlog.KindTransferComplete, "transfer complete, %d bytes", len(data))
	s.log.Infof("transfer complete, %d bytes in %s", len(data), s.Stats.Snapshot().Duration())
	return nil
}

// handshake performs the sender-initiated three-way handshake: SYN,
// await SYN+ACK, ACK. It returns the initial sequence number used.
func (s *Sender) handshake(ctx context.Context) (uint32, error) {
	const initSeq = 0
	syn := packet.NewSyn(initSeq, uint16(s.cfg.WindowSize))

	for attempt := 1; attempt <= handshakeAttempts; attempt++ {
		if err := s.sendRaw(ctx, syn); err != nil {
			return 0, rtperr.NewTransportError(err)
		}
		s.EventLog.Append(eventlog.KindSynSent, "syn attempt %d", attempt)

		s.conn.SetReadTimeout(s.cfg.Timeout)
		raw, _, err := s.conn.ReadFrom(ctx)
		if err != nil {
			continue // timeout or transient read error: retry
		}
		reply, err := packet.Decode(raw)
		if err != nil {
			s.Stats.IncChecksumErrors()
			continue
		}
		if reply.IsSyn() && reply.IsAck() && reply.AckNo == initSeq+1 {
			s.EventLog.Append(eventlog.KindSynAckReceived, "syn+ack received")
			ack := packet.NewAck(reply.SeqNo+1, uint16(s.cfg.WindowSize))
			if err := s.sendRaw(ctx, ack); err != nil {
				return 0, rtperr.NewTransportError(err)
			}
			s.log.Infof("handshake complete after %d attempt(s)", attempt)
			return initSeq, nil
		}
	}
	s.log.Errorf("handshake failed after %d attempts", handshakeAttempts)
	return 0, rtperr.NewHandshakeFailed("no syn+ack after handshake retries exhausted")
}

func (s *Sender) transmitFlow(ctx context.Context) error {
	for {
		if s.arqSender.Done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ready := s.arqSender.Ready(time.Now(), s.cong.EffectiveWindow())
		if len(ready) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(transmitIdle):
			}
			continue
		}
		for _, p := range ready {
			s.cong.OnPacketSent()
			s.Stats.IncPacketsSent()
			s.Stats.AddBytes(len(p.Payload))
			if s.loss.ShouldDrop() {
				s.EventLog.Append(eventlog.KindPacketDrop, "outbound drop seq=%d", p.SeqNo)
				continue
			}
			if err := s.sendRaw(ctx, p); err != nil {
				return rtperr.NewTransportError(err)
			}
			s.EventLog.Append(eventlog.KindPacketSent, "seq=%d", p.SeqNo)
		}
	}
}

func (s *Sender) receiveFlow(ctx context.Context) error {
	readTimeout := protocol.TimerScanInterval
	if s.cfg.ProtocolMode == protocol.StopWait {
		readTimeout = s.cong.RTO()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.conn.SetReadTimeout(readTimeout)
		raw, _, err := s.conn.ReadFrom(ctx)
		if err != nil {
			if s.arqSender.Done() {
				return nil
			}
			if s.cfg.ProtocolMode == protocol.StopWait {
				if scanErr := s.scanTimeouts(ctx); scanErr != nil {
					return scanErr
				}
				readTimeout = s.cong.RTO()
			}
			continue
		}

		p, err := packet.Decode(raw)
		if err != nil {
			s.Stats.IncChecksumErrors()
			s.EventLog.Append(eventlog.KindChecksumError, "%v", err)
			continue
		}

		if p.IsFin() && p.IsAck() {
			select {
			case <-s.finAckCh:
			default:
				close(s.finAckCh)
			}
			s.EventLog.Append(eventlog.KindFinAckReceived, "fin+ack received")
			continue
		}
		if !p.IsAck() {
			continue
		}

		s.Stats.IncAcksReceived()
		s.EventLog.Append(eventlog.KindAckReceived, "ack_no=%d", p.AckNo)
		_, rtt := s.arqSender.HandleAck(time.Now(), p)
		s.cong.OnAckReceived(rtt)
		if rtt != nil {
			s.Stats.RecordRTT(*rtt)
		}

		if s.arqSender.Done() {
			return nil
		}
	}
}

func (s *Sender) timerFlow(ctx context.Context) error {
	ticker := time.NewTicker(protocol.TimerScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.arqSender.Done() {
				return nil
			}
			if err := s.scanTimeouts(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Sender) scanTimeouts(ctx context.Context) error {
	retransmit, err := s.arqSender.CheckTimeouts(time.Now(), s.cong.RTO(), s.cfg.RetransmitCap)
	if err != nil {
		s.EventLog.Append(eventlog.KindError, "%v", err)
		return err
	}
	if len(retransmit) == 0 {
		return nil
	}
	s.Stats.IncTimeouts()
	s.cong.OnTimeout()
	s.EventLog.Append(eventlog.KindTimeout, "retransmitting %d packet(s)", len(retransmit))
	s.log.Debugf("timeout: retransmitting %d packet(s), cwnd now %d", len(retransmit), s.cong.EffectiveWindow())
	for _, p := range retransmit {
		s.Stats.IncRetransmissions()
		s.Stats.IncPacketsSent()
		s.Stats.AddBytes(len(p.Payload))
		if s.loss.ShouldDrop() {
			continue
		}
		if err := s.sendRaw(ctx, p); err != nil {
			return rtperr.NewTransportError(err)
		}
		s.EventLog.Append(eventlog.KindRetransmit, "seq=%d", p.SeqNo)
	}
	return nil
}

// teardown sends FIN and waits a bounded interval for FIN+ACK. Absence
// is logged but never fails the transfer, since every payload chunk is
// already acknowledged by the time teardown starts.
func (s *Sender) teardown(ctx context.Context) {
	fin := packet.NewFin(s.arqSender.NextSeq())
	for attempt := 1; attempt <= handshakeAttempts; attempt++ {
		if err := s.sendRaw(ctx, fin); err != nil {
			s.log.Errorf("teardown: send fin: %v", err)
			return
		}
		s.EventLog.Append(eventlog.KindFinSent, "fin attempt %d", attempt)

		s.conn.SetReadTimeout(protocol.DefaultFinAckWait)
		raw, _, err := s.conn.ReadFrom(ctx)
		if ctx.Err() != nil {
			return
		}
		if p, decErr := packet.Decode(raw); err == nil && decErr == nil && p.IsFin() && p.IsAck() {
			s.EventLog.Append(eventlog.KindFinAckReceived, "fin+ack received")
			s.log.Infof("teardown confirmed after %d attempt(s)", attempt)
			return
		}
		// absence is non-fatal; resend FIN within the attempt budget.
	}
	s.EventLog.Append(eventlog.KindWarning, "no fin+ack received, teardown unconfirmed")
	s.log.Infof("teardown unconfirmed after %d attempts, proceeding anyway", handshakeAttempts)
}

func (s *Sender) sendRaw(ctx context.Context, p *packet.Packet) error {
	buf, err := p.Encode()
	if err != nil {
		return err
	}
	return s.conn.WriteTo(ctx, buf, s.remoteAddr)
}
