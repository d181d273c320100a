package arq

import (
	"sync"
	"time"

	"github.com/oslowtech/reliabletransfer/packet"
	"github.com/oslowtech/reliabletransfer/rtperr"
)

// cumulativeSender implements the sender half shared by Stop-and-Wait and
// Go-Back-N: cumulative ACKs advance base to ack.AckNo, a single timer
// tracks the oldest unacknowledged packet, and a timeout retransmits
// every packet in [base, nextSeq) — which is exactly one packet for
// Stop-and-Wait, since maxInFlight there is always 1. The two disciplines
// differ only in maxInFlight, so they share this engine.
type cumulativeSender struct {
	mu sync.Mutex

	chunks      [][]byte
	total       uint32
	base        uint32
	nextSeq     uint32
	maxInFlight int
	windowSize  uint16

	sent map[uint32]*SentPacket
}

func newCumulativeSender(maxInFlight int, windowSize uint16) *cumulativeSender {
	return &cumulativeSender{maxInFlight: maxInFlight, windowSize: windowSize, sent: make(map[uint32]*SentPacket)}
}

func (s *cumulativeSender) LoadData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = chunk(data)
	s.total = uint32(len(s.chunks))
	s.base = 0
	s.nextSeq = 0
	s.sent = make(map[uint32]*SentPacket)
}

func (s *cumulativeSender) Ready(now time.Time, effectiveWindow int) []*packet.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := s.maxInFlight
	if effectiveWindow < limit {
		limit = effectiveWindow
	}

	var out []*packet.Packet
	for s.nextSeq < s.total && int(s.nextSeq-s.base) < limit {
		p := packet.NewData(s.nextSeq, s.chunks[s.nextSeq], s.windowSize)
		s.sent[s.nextSeq] = &SentPacket{SeqNo: s.nextSeq, Packet: p, SentAt: now}
		out = append(out, p)
		s.nextSeq++
	}
	return out
}

func (s *cumulativeSender) HandleAck(now time.Time, ack *packet.Packet) ([]uint32, *time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ack.AckNo <= s.base {
		return nil, nil // duplicate ACK, window state unchanged
	}

	var acked []uint32
	var rtt *time.Duration
	for seq := s.base; seq < ack.AckNo && seq < s.nextSeq; seq++ {
		rec, ok := s.sent[seq]
		if !ok {
			continue
		}
		if rtt == nil && rec.Retransmissions == 0 {
			d := now.Sub(rec.SentAt)
			rtt = &d
		}
		acked = append(acked, seq)
		delete(s.sent, seq)
	}
	s.base = ack.AckNo
	return acked, rtt
}

func (s *cumulativeSender) CheckTimeouts(now time.Time, rto time.Duration, retransmitCap int) ([]*packet.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base >= s.nextSeq {
		return nil, nil
	}
	oldest, ok := s.sent[s.base]
	if !ok || now.Sub(oldest.SentAt) < rto {
		return nil, nil
	}

	var out []*packet.Packet
	for seq := s.base; seq < s.nextSeq; seq++ {
		rec, ok := s.sent[seq]
		if !ok {
			continue
		}
		rec.Retransmissions++
		if rec.Retransmissions > retransmitCap {
			return nil, rtperr.NewTransferAborted(seq, rec.Retransmissions)
		}
		rec.SentAt = now
		out = append(out, rec.Packet)
	}
	return out, nil
}

func (s *cumulativeSender) Base() uint32        { s.mu.Lock(); defer s.mu.Unlock(); return s.base }
func (s *cumulativeSender) NextSeq() uint32     { s.mu.Lock(); defer s.mu.Unlock(); return s.nextSeq }
func (s *cumulativeSender) TotalChunks() uint32 { s.mu.Lock(); defer s.mu.Unlock(); return s.total }
func (s *cumulativeSender) InFlight() uint32    { s.mu.Lock(); defer s.mu.Unlock(); return s.nextSeq - s.base }
func (s *cumulativeSender) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total > 0 && s.base >= s.total
}

// cumulativeReceiver implements the receiver half shared by Stop-and-Wait
// and Go-Back-N: only a strictly in-order arrival is accepted, every
// arrival (in-order, duplicate, or out-of-order) is re-ACKed with the
// cumulative expected sequence number, and nothing is ever buffered.
type cumulativeReceiver struct {
	mu          sync.Mutex
	expectedSeq uint32
	window      uint16
}

func newCumulativeReceiver(window uint16) *cumulativeReceiver {
	return &cumulativeReceiver{window: window}
}

func (r *cumulativeReceiver) HandlePacket(p *packet.Packet) (*packet.Packet, []byte, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var delivered []byte
	var outOfOrder, duplicate bool

	switch {
	case p.SeqNo == r.expectedSeq:
		delivered = p.Payload
		r.expectedSeq++
	case p.SeqNo < r.expectedSeq:
		duplicate = true
	default:
		outOfOrder = true
	}

	ack := packet.NewAck(r.expectedSeq, r.window)
	return ack, delivered, outOfOrder, duplicate
}

func (r *cumulativeReceiver) ExpectedSeq() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expectedSeq
}

func (r *cumulativeReceiver) AdvertisedWindow() uint16 { return r.window }

func (r *cumulativeReceiver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expectedSeq = 0
}

// StopWaitSender is the Stop-and-Wait send-window engine: at most one
// packet in flight at a time.
type StopWaitSender struct{ *cumulativeSender }

// NewStopWaitSender creates a Stop-and-Wait sender. windowSize is only
// stamped into outgoing packets' advertised-window field; the in-flight
// limit is always 1.
func NewStopWaitSender(windowSize uint16) *StopWaitSender {
	return &StopWaitSender{newCumulativeSender(1, windowSize)}
}

// StopWaitReceiver is the Stop-and-Wait receive-buffer engine.
type StopWaitReceiver struct{ *cumulativeReceiver }

// NewStopWaitReceiver creates a Stop-and-Wait receiver.
func NewStopWaitReceiver() *StopWaitReceiver {
	return &StopWaitReceiver{newCumulativeReceiver(1)}
}

// GoBackNSender is the Go-Back-N send-window engine: up to windowSize
// packets in flight, cumulative ACKs, batch retransmission on timeout.
type GoBackNSender struct{ *cumulativeSender }

// NewGoBackNSender creates a Go-Back-N sender with the given window size.
func NewGoBackNSender(windowSize uint16) *GoBackNSender {
	return &GoBackNSender{newCumulativeSender(int(windowSize), windowSize)}
}

// GoBackNReceiver is the Go-Back-N receive-buffer engine. It is
// behaviorally identical to StopWaitReceiver except for the advertised
// window value, exactly as spec.md §4.4 describes it.
type GoBackNReceiver struct{ *cumulativeReceiver }

// NewGoBackNReceiver creates a Go-Back-N receiver advertising windowSize.
func NewGoBackNReceiver(windowSize uint16) *GoBackNReceiver {
	return &GoBackNReceiver{newCumulativeReceiver(windowSize)}
}

var (
	_ Sender   = (*StopWaitSender)(nil)
	_ Receiver = (*StopWaitReceiver)(nil)
	_ Sender   = (*GoBackNSender)(nil)
	_ Receiver = (*GoBackNReceiver)(nil)
)
