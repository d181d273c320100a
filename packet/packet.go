// Package packet implements the wire codec for the reliable transfer
// protocol: a fixed 13-byte header in network byte order followed by up
// to 1024 bytes of payload, with a CRC-32 checksum over everything but
// the checksum field itself.
package packet

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/oslowtech/reliabletransfer/protocol"
	"github.com/oslowtech/reliabletransfer/rtperr"
)

// Packet is an immutable wire message. Once constructed (by NewData, NewAck,
// ... or by Decode) its exported fields are never changed; Encode only
// records the computed checksum, so re-encoding a packet for
// retransmission yields the same bytes as its first transmission.
type Packet struct {
	SeqNo    uint32
	AckNo    uint32
	Flags    protocol.Flags
	Window   uint16
	Payload  []byte
	checksum uint16
}

// NewSyn creates a SYN packet carrying the sender's initial sequence
// number and offered window.
func NewSyn(seq uint32, window uint16) *Packet {
	return &Packet{SeqNo: seq, Flags: protocol.FlagSYN, Window: window}
}

// NewSynAck creates a SYN+ACK reply with sequence seq and acknowledgement
// number ack (the caller passes the peer SYN's seq+1).
func NewSynAck(seq, ack uint32, window uint16) *Packet {
	return &Packet{SeqNo: seq, AckNo: ack, Flags: protocol.FlagSYN | protocol.FlagACK, Window: window}
}

// NewAck creates a pure ACK packet.
func NewAck(ack uint32, window uint16) *Packet {
	return &Packet{AckNo: ack, Flags: protocol.FlagACK, Window: window}
}

// NewData creates a DATA packet carrying payload at sequence seq.
func NewData(seq uint32, payload []byte, window uint16) *Packet {
	return &Packet{SeqNo: seq, Flags: protocol.FlagDATA, Window: window, Payload: payload}
}

// NewFin creates a FIN packet.
func NewFin(seq uint32) *Packet {
	return &Packet{SeqNo: seq, Flags: protocol.FlagFIN}
}

// NewFinAck creates a FIN+ACK reply.
func NewFinAck(seq, ack uint32) *Packet {
	return &Packet{SeqNo: seq, AckNo: ack, Flags: protocol.FlagFIN | protocol.FlagACK}
}

func (p *Packet) IsSyn() bool  { return p.Flags.Has(protocol.FlagSYN) }
func (p *Packet) IsAck() bool  { return p.Flags.Has(protocol.FlagACK) }
func (p *Packet) IsFin() bool  { return p.Flags.Has(protocol.FlagFIN) }
func (p *Packet) IsData() bool { return p.Flags.Has(protocol.FlagDATA) }

// Checksum returns the CRC-32 (low 16 bits) over the header fields other
// than the checksum field itself, concatenated with the payload.
func (p *Packet) Checksum() uint16 {
	var hdr [protocol.HeaderSize - 2]byte
	binary.BigEndian.PutUint32(hdr[0:4], p.SeqNo)
	binary.BigEndian.PutUint32(hdr[4:8], p.AckNo)
	hdr[8] = byte(p.Flags)
	binary.BigEndian.PutUint16(hdr[9:11], p.Window)

	crc := crc32.NewIEEE()
	crc.Write(hdr[:])
	crc.Write(p.Payload)
	return uint16(crc.Sum32() & 0xFFFF)
}

// Encode serializes the packet to wire bytes, computing and embedding the
// checksum. It fails with OversizedPayload if Payload exceeds
// protocol.MaxPayloadSize.
func (p *Packet) Encode() ([]byte, error) {
	if len(p.Payload) > protocol.MaxPayloadSize {
		return nil, rtperr.NewOversizedPayload(len(p.Payload))
	}
	p.checksum = p.Checksum()

	buf := make([]byte, protocol.HeaderSize+len(p.Payload))
	binary.BigEndian.PutUint32(buf[0:4], p.SeqNo)
	binary.BigEndian.PutUint32(buf[4:8], p.AckNo)
	buf[8] = byte(p.Flags)
	binary.BigEndian.PutUint16(buf[9:11], p.Window)
	binary.BigEndian.PutUint16(buf[11:13], p.checksum)
	copy(buf[protocol.HeaderSize:], p.Payload)
	return buf, nil
}

// Decode parses wire bytes into a Packet, verifying the checksum. Excess
// bytes beyond the header are treated as payload without any additional
// length enforcement, per the wire format: a short datagram fails with
// MalformedPacket, a checksum mismatch fails with ChecksumError.
func Decode(data []byte) (*Packet, error) {
	if len(data) < protocol.HeaderSize {
		return nil, rtperr.NewMalformedPacket("datagram shorter than header")
	}

	p := &Packet{
		SeqNo:    binary.BigEndian.Uint32(data[0:4]),
		AckNo:    binary.BigEndian.Uint32(data[4:8]),
		Flags:    protocol.Flags(data[8]),
		Window:   binary.BigEndian.Uint16(data[9:11]),
		checksum: binary.BigEndian.Uint16(data[11:13]),
	}
	if len(data) > protocol.HeaderSize {
		p.Payload = append([]byte(nil), data[protocol.HeaderSize:]...)
	}

	if p.Checksum() != p.checksum {
		return nil, rtperr.NewChecksumError("checksum mismatch")
	}
	return p, nil
}

// VerifyChecksum reports whether the packet's embedded checksum matches
// its recomputed checksum. Only meaningful on a Decode'd packet.
func (p *Packet) VerifyChecksum() bool {
	return p.checksum == p.Checksum()
}
