// Package arq implements the Send Window & Retransmission Engine and the
// Receive Buffer & Acknowledger for all three ARQ disciplines named in
// the design: Stop-and-Wait, Go-Back-N, and Selective Repeat. Each
// discipline shares fragmentation and the sent-packet bookkeeping
// pattern (a sequence-indexed map guarded by one mutex, as in the
// teacher's ackhandler.outgoingPacketAckHandler) but differs in window
// admission, ACK semantics, and retransmission scope.
//
// These types are pure state machines: they never touch a socket. The
// endpoint package drives them, performing the actual datagram I/O and
// running the concurrent flows described in the design.
package arq

import (
	"time"

	"github.com/oslowtech/reliabletransfer/packet"
	"github.com/oslowtech/reliabletransfer/protocol"
)

// SentPacket is the sender-side record for one outstanding payload
// chunk: the framed packet, when it was last transmitted, how many
// times, and whether it has been acknowledged. Its lifetime runs from
// first transmission to acknowledgement.
type SentPacket struct {
	SeqNo           uint32
	Packet          *packet.Packet
	SentAt          time.Time
	Retransmissions int
	Acked           bool
}

// Sender is the shared contract for the three send-window engines.
type Sender interface {
	// LoadData fragments data into protocol.MaxPayloadSize chunks and
	// resets the window to send them from sequence 0.
	LoadData(data []byte)

	// Ready returns newly-admitted packets to transmit right now, bounded
	// by min(window size, effectiveWindow) and marks them as sent. It may
	// be called repeatedly; already-sent, unacked packets are never
	// returned again by Ready (CheckTimeouts handles retransmission).
	Ready(now time.Time, effectiveWindow int) []*packet.Packet

	// HandleAck applies an incoming ACK packet, returning the sequence
	// numbers newly acknowledged by it and, if Karn's algorithm permits
	// (the record was never retransmitted), an RTT sample.
	HandleAck(now time.Time, ack *packet.Packet) (ackedSeqs []uint32, rtt *time.Duration)

	// CheckTimeouts scans outstanding records against rto and returns the
	// packets to retransmit right now. err is a *rtperr.Error wrapping
	// TransferAborted if any record exceeded the retransmission cap.
	CheckTimeouts(now time.Time, rto time.Duration, retransmitCap int) (retransmit []*packet.Packet, err error)

	// Base is the lowest unacknowledged sequence number.
	Base() uint32
	// NextSeq is the next sequence number to transmit.
	NextSeq() uint32
	// TotalChunks is the number of payload chunks in the loaded stream.
	TotalChunks() uint32
	// InFlight is NextSeq-Base, the strict in-flight count (see the
	// congestion section of DESIGN.md for why this, not the congestion
	// controller's separately-tracked counter, is authoritative for
	// window admission).
	InFlight() uint32
	// Done reports whether every chunk has been acknowledged.
	Done() bool
}

// Receiver is the shared contract for the three receive-buffer engines.
type Receiver interface {
	// HandlePacket processes one decoded DATA packet, returning the ACK
	// to send (always non-nil for a valid in-window arrival), any bytes
	// newly delivered to the sink in order, and classification flags for
	// statistics.
	HandlePacket(p *packet.Packet) (ack *packet.Packet, delivered []byte, outOfOrder bool, duplicate bool)

	// ExpectedSeq is the next in-order sequence number to deliver.
	ExpectedSeq() uint32

	// AdvertisedWindow is the window value to stamp on outgoing ACKs.
	AdvertisedWindow() uint16

	// Reset clears all buffered state (invoked on a fresh SYN).
	Reset()
}

// chunk splits data into protocol.MaxPayloadSize pieces; the final piece
// may be shorter.
func chunk(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var chunks [][]byte
	for i := 0; i < len(data); i += protocol.MaxPayloadSize {
		end := i + protocol.MaxPayloadSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}
