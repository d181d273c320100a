// Package rtperr defines the error taxonomy of the reliable transfer
// engine, grouped by origin as in the design: decode errors are recovered
// locally and counted, protocol errors terminate the session, transport
// errors are surfaced during an active session, and configuration errors
// are rejected before a session ever starts.
package rtperr

import "fmt"

// Code identifies a category of engine error. The zero value is never
// used by a real error.
type Code uint8

// Error codes, grouped by origin.
const (
	_ Code = iota
	// Decode errors: the packet is dropped, a counter is incremented,
	// and the session continues.
	CodeMalformedPacket
	CodeChecksumError
	CodeOversizedPayload

	// Protocol errors: the session is reported to the caller and the
	// endpoint transitions to Error.
	CodeHandshakeFailed
	CodeTransferAborted
	CodeUnexpectedFin

	// Transport errors: surfaced during an active session.
	CodeTransportError

	// Configuration errors: rejected at configuration time.
	CodeInvalidConfiguration
)

var codeNames = map[Code]string{
	CodeMalformedPacket:      "MalformedPacket",
	CodeChecksumError:        "ChecksumError",
	CodeOversizedPayload:     "OversizedPayload",
	CodeHandshakeFailed:      "HandshakeFailed",
	CodeTransferAborted:      "TransferAborted",
	CodeUnexpectedFin:        "UnexpectedFin",
	CodeTransportError:       "TransportError",
	CodeInvalidConfiguration: "InvalidConfiguration",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Error is the concrete error type returned by this module. It carries a
// Code for programmatic matching and a human-readable detail message.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is makes errors.Is(err, rtperr.MalformedPacket) etc. work against the
// sentinel values below, by comparing codes rather than pointers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Sentinel values for errors.Is comparisons; Detail is empty on these and
// is filled in on the concrete errors returned by the producing code.
var (
	MalformedPacket      = &Error{Code: CodeMalformedPacket}
	ChecksumError        = &Error{Code: CodeChecksumError}
	OversizedPayload     = &Error{Code: CodeOversizedPayload}
	HandshakeFailed      = &Error{Code: CodeHandshakeFailed}
	TransferAborted      = &Error{Code: CodeTransferAborted}
	UnexpectedFin        = &Error{Code: CodeUnexpectedFin}
	TransportError       = &Error{Code: CodeTransportError}
	InvalidConfiguration = &Error{Code: CodeInvalidConfiguration}
)

// NewMalformedPacket reports a datagram shorter than the header size.
func NewMalformedPacket(detail string) error { return newf(CodeMalformedPacket, "%s", detail) }

// NewChecksumError reports a checksum mismatch on decode.
func NewChecksumError(detail string) error { return newf(CodeChecksumError, "%s", detail) }

// NewOversizedPayload reports an encode-time payload over MaxPayloadSize.
func NewOversizedPayload(size int) error {
	return newf(CodeOversizedPayload, "payload of %d bytes exceeds maximum", size)
}

// NewHandshakeFailed reports handshake retry exhaustion.
func NewHandshakeFailed(detail string) error { return newf(CodeHandshakeFailed, "%s", detail) }

// NewTransferAborted reports retransmission-cap exhaustion for a sequence.
func NewTransferAborted(seq uint32, retries int) error {
	return newf(CodeTransferAborted, "sequence %d exceeded retransmission cap after %d attempts", seq, retries)
}

// NewUnexpectedFin reports a FIN received outside the expected phase.
func NewUnexpectedFin(detail string) error { return newf(CodeUnexpectedFin, "%s", detail) }

// NewTransportError wraps a socket-level failure during an active session.
func NewTransportError(cause error) error {
	return newf(CodeTransportError, "%s", cause.Error())
}

// NewInvalidConfiguration reports an out-of-range configuration field.
func NewInvalidConfiguration(detail string) error {
	return newf(CodeInvalidConfiguration, "%s", detail)
}
