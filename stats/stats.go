// Package stats exposes the endpoint's monotone counters as an immutable
// snapshot value type. Derived quantities (throughput, efficiency,
// average RTT, goodput) are computed by Snapshot methods from the raw
// counters rather than stored, mirroring the @property accessors on the
// original reference implementation's *Stats dataclasses.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counters is the mutable, owned-by-one-endpoint counter set. All fields
// are updated with atomic operations so the timer, receiver, and
// transmitter flows can increment them without a shared lock; Snapshot
// still copies them together with the RTT reservoir under one lock so
// readers see a consistent combination.
type Counters struct {
	PacketsSent       uint64
	AcksReceived      uint64
	Retransmissions   uint64
	Timeouts          uint64
	ChecksumErrors    uint64
	OutOfOrder        uint64
	DuplicateArrivals uint64
	BytesTransferred  uint64

	mu         sync.Mutex
	rttSamples []time.Duration
	startedAt  time.Time
	endedAt    time.Time

	maxRTTSamples int
}

// DefaultMaxRTTSamples bounds the RTT reservoir to avoid unbounded growth
// on a long-running transfer.
const DefaultMaxRTTSamples = 2048

// New creates a zeroed Counters set.
func New() *Counters {
	return &Counters{maxRTTSamples: DefaultMaxRTTSamples}
}

func (c *Counters) IncPacketsSent()     { atomic.AddUint64(&c.PacketsSent, 1) }
func (c *Counters) IncAcksReceived()    { atomic.AddUint64(&c.AcksReceived, 1) }
func (c *Counters) IncRetransmissions() { atomic.AddUint64(&c.Retransmissions, 1) }
func (c *Counters) IncTimeouts()        { atomic.AddUint64(&c.Timeouts, 1) }
func (c *Counters) IncChecksumErrors()  { atomic.AddUint64(&c.ChecksumErrors, 1) }
func (c *Counters) IncOutOfOrder()      { atomic.AddUint64(&c.OutOfOrder, 1) }
func (c *Counters) IncDuplicate()       { atomic.AddUint64(&c.DuplicateArrivals, 1) }
func (c *Counters) AddBytes(n int)      { atomic.AddUint64(&c.BytesTransferred, uint64(n)) }

// RecordRTT appends an RTT sample to the reservoir, dropping the oldest
// sample once the reservoir is full.
func (c *Counters) RecordRTT(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rttSamples) >= c.maxRTTSamples {
		c.rttSamples = c.rttSamples[1:]
	}
	c.rttSamples = append(c.rttSamples, d)
}

// MarkStarted records the transfer start time, used for throughput.
func (c *Counters) MarkStarted() {
	c.mu.Lock()
	c.startedAt = time.Now()
	c.mu.Unlock()
}

// MarkEnded records the transfer end time.
func (c *Counters) MarkEnded() {
	c.mu.Lock()
	c.endedAt = time.Now()
	c.mu.Unlock()
}

// Snapshot is an immutable, point-in-time copy of Counters, safe to read
// concurrently and never mutated by observers.
type Snapshot struct {
	PacketsSent       uint64
	AcksReceived      uint64
	Retransmissions   uint64
	Timeouts          uint64
	ChecksumErrors    uint64
	OutOfOrder        uint64
	DuplicateArrivals uint64
	BytesTransferred  uint64
	RTTSamples        []time.Duration
	Started           time.Time
	Ended             time.Time
}

// Snapshot copies the current counter values into an immutable value.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	samples := make([]time.Duration, len(c.rttSamples))
	copy(samples, c.rttSamples)
	return Snapshot{
		PacketsSent:       atomic.LoadUint64(&c.PacketsSent),
		AcksReceived:      atomic.LoadUint64(&c.AcksReceived),
		Retransmissions:   atomic.LoadUint64(&c.Retransmissions),
		Timeouts:          atomic.LoadUint64(&c.Timeouts),
		ChecksumErrors:    atomic.LoadUint64(&c.ChecksumErrors),
		OutOfOrder:        atomic.LoadUint64(&c.OutOfOrder),
		DuplicateArrivals: atomic.LoadUint64(&c.DuplicateArrivals),
		BytesTransferred:  atomic.LoadUint64(&c.BytesTransferred),
		RTTSamples:        samples,
		Started:           c.startedAt,
		Ended:             c.endedAt,
	}
}

// Duration is the elapsed time between MarkStarted and MarkEnded (or now,
// if the transfer hasn't ended yet).
func (s Snapshot) Duration() time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	if s.Ended.IsZero() {
		return time.Since(s.Started)
	}
	return s.Ended.Sub(s.Started)
}

// ThroughputMBps is the raw bit rate including retransmissions, in
// megabits per second.
func (s Snapshot) ThroughputMBps() float64 {
	d := s.Duration()
	if d <= 0 {
		return 0
	}
	return float64(s.BytesTransferred) * 8 / d.Seconds() / 1_000_000
}

// Efficiency is the fraction of sent packets that were not
// retransmissions: unique/total.
func (s Snapshot) Efficiency() float64 {
	if s.PacketsSent == 0 {
		return 0
	}
	unique := s.PacketsSent - s.Retransmissions
	return float64(unique) / float64(s.PacketsSent)
}

// AvgRTT is the arithmetic mean of the retained RTT samples.
func (s Snapshot) AvgRTT() time.Duration {
	if len(s.RTTSamples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.RTTSamples {
		total += d
	}
	return total / time.Duration(len(s.RTTSamples))
}

// Goodput is the application-visible delivered byte rate, excluding
// retransmitted bytes, in megabits per second. It approximates delivered
// bytes as BytesTransferred scaled by Efficiency, since individual
// payload sizes aren't retained per-retransmission.
func (s Snapshot) Goodput() float64 {
	return s.ThroughputMBps() * s.Efficiency()
}
