// Package congestion implements a classical TCP Tahoe-style congestion
// controller: slow start, congestion avoidance, and a Jacobson/Karels RTO
// estimator. It bounds the sender's in-flight packet count and computes
// the retransmission timeout consulted by the arq package.
//
// This mirrors the shape of a cubic/reno sender (see e.g. quic-go's
// congestion.cubicSender: a struct of cwnd/ssthresh plus
// OnPacketSent/OnCongestionEvent-style hooks) but implements the simpler
// Tahoe arithmetic the design calls for, with no fast-retransmit path.
package congestion

import (
	"math"
	"sync"
	"time"

	"github.com/oslowtech/reliabletransfer/protocol"
)

const (
	initialCwnd     = 1.0
	initialSsthresh = 64.0

	minCwnd = 1.0
	maxCwnd = 1024.0

	karelsAlpha = 1.0 / 8.0
	karelsBeta  = 1.0 / 4.0
)

// Phase is the congestion controller's current regime.
type Phase uint8

const (
	SlowStart Phase = iota
	CongestionAvoidance
)

func (p Phase) String() string {
	if p == SlowStart {
		return "slow_start"
	}
	return "congestion_avoidance"
}

// Snapshot is an immutable, consistent copy of the controller's state,
// safe to read without holding the controller's lock.
type Snapshot struct {
	Cwnd            float64
	Ssthresh        float64
	Srtt            time.Duration
	Rttvar          time.Duration
	Rto             time.Duration
	PacketsInFlight int
	Phase           Phase
}

// Controller owned exclusively by the sender; observers must call
// Snapshot rather than holding a live reference to it.
type Controller struct {
	mu sync.Mutex

	enabled bool

	cwnd     float64
	ssthresh float64

	srtt   time.Duration
	rttvar time.Duration
	rto    time.Duration

	packetsInFlight int
}

// New creates a Controller in its starting state: cwnd=1, ssthresh=64,
// rto=1s. enabled=false makes EffectiveWindow always report maxCwnd,
// per the design's "congestion control disabled" mode.
func New(enabled bool) *Controller {
	return &Controller{
		enabled:  enabled,
		cwnd:     initialCwnd,
		ssthresh: initialSsthresh,
		rto:      time.Second,
	}
}

// OnPacketSent increments the in-flight count.
func (c *Controller) OnPacketSent() {
	c.mu.Lock()
	c.packetsInFlight++
	c.mu.Unlock()
}

// OnAckReceived decrements the in-flight count (floored at zero). When
// enabled, it then updates the RTT/RTO estimate if rttSample is non-nil,
// and grows cwnd according to the current phase whether or not a sample
// was given. Per Karn's algorithm, callers must pass a nil rttSample for
// any packet that was retransmitted.
func (c *Controller) OnAckReceived(rttSample *time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.packetsInFlight > 0 {
		c.packetsInFlight--
	}
	if !c.enabled {
		return
	}

	if rttSample != nil {
		c.updateRTO(*rttSample)
	}

	if c.inSlowStart() {
		c.cwnd = math.Min(c.cwnd+1, maxCwnd)
	} else {
		c.cwnd = math.Min(c.cwnd+1/c.cwnd, maxCwnd)
	}
}

// OnTimeout applies the multiplicative cutback: ssthresh = max(cwnd/2, 2),
// cwnd = minCwnd. It also resets the in-flight counter to zero, since the
// engine tracks true in-flight as nextSeq-base and this counter is
// informational only (see the package doc and DESIGN.md).
func (c *Controller) OnTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.ssthresh = math.Max(c.cwnd/2, 2)
	c.cwnd = minCwnd
	c.packetsInFlight = 0
}

func (c *Controller) updateRTO(sample time.Duration) {
	if c.srtt == 0 {
		c.srtt = sample
		c.rttvar = sample / 2
	} else {
		diff := c.srtt - sample
		if diff < 0 {
			diff = -diff
		}
		c.rttvar = time.Duration((1-karelsBeta)*float64(c.rttvar) + karelsBeta*float64(diff))
		c.srtt = time.Duration((1-karelsAlpha)*float64(c.srtt) + karelsAlpha*float64(sample))
	}
	rto := c.srtt + 4*c.rttvar
	c.rto = clampDuration(rto, protocol.MinRTO, protocol.MaxRTO)
}

func (c *Controller) inSlowStart() bool {
	return c.cwnd < c.ssthresh
}

// EffectiveWindow returns the number of packets the sender may currently
// have in flight: floor(cwnd), at least 1, when enabled; the maximum
// congestion window otherwise (i.e. the congestion controller imposes no
// additional bound).
func (c *Controller) EffectiveWindow() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return int(maxCwnd)
	}
	w := int(math.Floor(c.cwnd))
	if w < 1 {
		w = 1
	}
	return w
}

// Snapshot returns a consistent, point-in-time copy of the controller's
// fields for external observers.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	phase := SlowStart
	if !c.inSlowStart() {
		phase = CongestionAvoidance
	}
	return Snapshot{
		Cwnd:            c.cwnd,
		Ssthresh:        c.ssthresh,
		Srtt:            c.srtt,
		Rttvar:          c.rttvar,
		Rto:             c.rto,
		PacketsInFlight: c.packetsInFlight,
		Phase:           phase,
	}
}

// RTO returns the current retransmission timeout.
func (c *Controller) RTO() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rto
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
