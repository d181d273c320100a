// Package qlogtrace JSON-encodes eventlog.Record values for external
// telemetry consumers, adapted from the teacher's qlog package (which
// marshals wire.ExtendedHeader values with gojay.MarshalerJSONObject)
// to the engine's own Record shape instead of a QUIC packet header.
package qlogtrace

import (
	"io"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/oslowtech/reliabletransfer/eventlog"
)

// entry adapts one eventlog.Record to gojay's object-marshaling
// interface, the same pattern the teacher uses to encode an
// ExtendedHeader field by field rather than via reflection.
type entry eventlog.Record

// MarshalJSONObject implements gojay.MarshalerJSONObject.
func (e entry) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("time", e.Time.Format(time.RFC3339Nano))
	enc.StringKey("kind", string(e.Kind))
	enc.StringKey("message", e.Message)
}

// IsNil implements gojay.MarshalerJSONObject.
func (e entry) IsNil() bool { return e.Time.IsZero() && e.Kind == "" && e.Message == "" }

// entries adapts a []eventlog.Record to gojay's array-marshaling
// interface so a whole snapshot encodes as one JSON array.
type entries []eventlog.Record

// MarshalJSONArray implements gojay.MarshalerJSONArray.
func (es entries) MarshalJSONArray(enc *gojay.Encoder) {
	for _, r := range es {
		enc.Object(entry(r))
	}
}

// IsNil implements gojay.MarshalerJSONArray.
func (es entries) IsNil() bool { return len(es) == 0 }

// Encoder writes a stream of eventlog records to w as newline-delimited
// JSON objects, one per record, following qlog's line-oriented trace
// convention.
type Encoder struct {
	enc *gojay.Encoder
	w   io.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: gojay.NewEncoder(w), w: w}
}

// EncodeRecord writes a single record as one JSON object followed by a
// newline.
func (e *Encoder) EncodeRecord(r eventlog.Record) error {
	if err := e.enc.Encode(entry(r)); err != nil {
		return err
	}
	_, err := e.w.Write([]byte("\n"))
	return err
}

// EncodeSnapshot writes an entire log snapshot as one JSON array.
func (e *Encoder) EncodeSnapshot(records []eventlog.Record) error {
	return e.enc.Encode(entries(records))
}
