package arq

import (
	"sync"
	"time"

	"github.com/oslowtech/reliabletransfer/packet"
	"github.com/oslowtech/reliabletransfer/rtperr"
)

// SelectiveRepeatSender tracks one timer per outstanding packet (modeled
// as a per-record deadline checked by CheckTimeouts rather than an actual
// OS timer, so the endpoint's single timer-scanner flow can drive all
// three disciplines uniformly), acks individual sequence numbers, and
// retransmits only the specific packet that timed out.
type SelectiveRepeatSender struct {
	mu sync.Mutex

	chunks     [][]byte
	total      uint32
	base       uint32
	nextSeq    uint32
	windowSize uint16

	sent  map[uint32]*SentPacket
	acked map[uint32]struct{}
}

// NewSelectiveRepeatSender creates a Selective Repeat sender with the
// given window size.
func NewSelectiveRepeatSender(windowSize uint16) *SelectiveRepeatSender {
	return &SelectiveRepeatSender{
		windowSize: windowSize,
		sent:       make(map[uint32]*SentPacket),
		acked:      make(map[uint32]struct{}),
	}
}

func (s *SelectiveRepeatSender) LoadData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = chunk(data)
	s.total = uint32(len(s.chunks))
	s.base = 0
	s.nextSeq = 0
	s.sent = make(map[uint32]*SentPacket)
	s.acked = make(map[uint32]struct{})
}

func (s *SelectiveRepeatSender) Ready(now time.Time, effectiveWindow int) []*packet.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := int(s.windowSize)
	if effectiveWindow < limit {
		limit = effectiveWindow
	}

	var out []*packet.Packet
	for s.nextSeq < s.total && int(s.nextSeq-s.base) < limit {
		seq := s.nextSeq
		s.nextSeq++
		if _, ok := s.acked[seq]; ok {
			continue // already acked (a stale retransmitted ACK arrived before this slot opened)
		}
		p := packet.NewData(seq, s.chunks[seq], s.windowSize)
		s.sent[seq] = &SentPacket{SeqNo: seq, Packet: p, SentAt: now}
		out = append(out, p)
	}
	return out
}

// HandleAck applies an individual ACK: ack.AckNo = seq+1 for the packet
// being acknowledged. An ACK for a sequence already in the acked-set is a
// duplicate and changes nothing.
func (s *SelectiveRepeatSender) HandleAck(now time.Time, ack *packet.Packet) ([]uint32, *time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ack.AckNo == 0 {
		return nil, nil
	}
	seq := ack.AckNo - 1
	if seq < s.base {
		return nil, nil // stale ack for a sequence already retired
	}
	if _, already := s.acked[seq]; already {
		return nil, nil // duplicate ACK
	}

	var rtt *time.Duration
	if rec, ok := s.sent[seq]; ok {
		if rec.Retransmissions == 0 {
			d := now.Sub(rec.SentAt)
			rtt = &d
		}
		delete(s.sent, seq)
	}

	s.acked[seq] = struct{}{}
	for {
		if _, ok := s.acked[s.base]; !ok {
			break
		}
		delete(s.acked, s.base)
		s.base++
	}
	return []uint32{seq}, rtt
}

func (s *SelectiveRepeatSender) CheckTimeouts(now time.Time, rto time.Duration, retransmitCap int) ([]*packet.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*packet.Packet
	for seq := s.base; seq < s.nextSeq; seq++ {
		if _, acked := s.acked[seq]; acked {
			continue
		}
		rec, ok := s.sent[seq]
		if !ok || now.Sub(rec.SentAt) < rto {
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

func (s *SelectiveRepeatSender) Base() uint32        { s.mu.Lock(); defer s.mu.Unlock(); return s.base }
func (s *SelectiveRepeatSender) NextSeq() uint32     { s.mu.Lock(); defer s.mu.Unlock(); return s.nextSeq }
func (s *SelectiveRepeatSender) TotalChunks() uint32 { s.mu.Lock(); defer s.mu.Unlock(); return s.total }
func (s *SelectiveRepeatSender) InFlight() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeq - s.base
}
func (s *SelectiveRepeatSender) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total > 0 && s.base >= s.total
}

// SelectiveRepeatReceiver buffers out-of-order arrivals within
// [expectedSeq, expectedSeq+windowSize) and drains them into the sink as
// soon as expectedSeq itself arrives.
type SelectiveRepeatReceiver struct {
	mu          sync.Mutex
	expectedSeq uint32
	windowSize  uint16
	buffered    map[uint32][]byte
}

// NewSelectiveRepeatReceiver creates a Selective Repeat receiver.
func NewSelectiveRepeatReceiver(windowSize uint16) *SelectiveRepeatReceiver {
	return &SelectiveRepeatReceiver{windowSize: windowSize, buffered: make(map[uint32][]byte)}
}

func (r *SelectiveRepeatReceiver) HandlePacket(p *packet.Packet) (*packet.Packet, []byte, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq := p.SeqNo

	if seq < r.expectedSeq {
		// Old packet; still ACK to repair a lost ACK, but nothing new to
		// deliver.
		return packet.NewAck(seq+1, r.windowSize), nil, false, true
	}

	if seq >= r.expectedSeq+uint32(r.windowSize) {
		// Outside the receive window: drop silently, no ACK.
		return nil, nil, true, false
	}

	outOfOrder := seq != r.expectedSeq
	r.buffered[seq] = p.Payload

	ack := packet.NewAck(seq+1, r.windowSize)

	var delivered []byte
	for {
		data, ok := r.buffered[r.expectedSeq]
		if !ok {
			break
		}
		delivered = append(delivered, data...)
		delete(r.buffered, r.expectedSeq)
		r.expectedSeq++
	}

	return ack, delivered, outOfOrder, false
}

func (r *SelectiveRepeatReceiver) ExpectedSeq() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expectedSeq
}

func (r *SelectiveRepeatReceiver) AdvertisedWindow() uint16 { return r.windowSize }

func (r *SelectiveRepeatReceiver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expectedSeq = 0
	r.buffered = make(map[uint32][]byte)
}

var (
	_ Sender   = (*SelectiveRepeatSender)(nil)
	_ Receiver = (*SelectiveRepeatReceiver)(nil)
)
