package congestion_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/oslowtech/reliabletransfer/congestion"
)

func TestCongestion(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Congestion Suite")
}

var _ = Describe("Controller", func() {
	It("starts in slow start with cwnd=1, ssthresh=64", func() {
		c := congestion.New(true)
		snap := c.Snapshot()
		Expect(snap.Cwnd).To(Equal(1.0))
		Expect(snap.Ssthresh).To(Equal(64.0))
		Expect(snap.Phase).To(Equal(congestion.SlowStart))
		Expect(c.EffectiveWindow()).To(Equal(1))
	})

	It("grows cwnd exponentially during slow start", func() {
		c := congestion.New(true)
		prev := c.Snapshot().Cwnd
		for i := 0; i < 5; i++ {
			rtt := 10 * time.Millisecond
			c.OnPacketSent()
			c.OnAckReceived(&rtt)
			next := c.Snapshot().Cwnd
			Expect(next).To(BeNumerically(">", prev))
			prev = next
		}
	})

	It("cuts back multiplicatively on timeout", func() {
		c := congestion.New(true)
		rtt := 10 * time.Millisecond
		for i := 0; i < 10; i++ {
			c.OnPacketSent()
			c.OnAckReceived(&rtt)
		}
		before := c.Snapshot().Cwnd
		c.OnTimeout()
		after := c.Snapshot()
		Expect(after.Cwnd).To(Equal(1.0))
		Expect(after.Ssthresh).To(Equal(before / 2))
		Expect(after.PacketsInFlight).To(Equal(0))
	})

	It("never lets cwnd govern admission when disabled", func() {
		c := congestion.New(false)
		Expect(c.EffectiveWindow()).To(BeNumerically(">=", 1024))
		c.OnTimeout() // no-op when disabled
		Expect(c.Snapshot().Cwnd).To(Equal(1.0))
	})

	It("ignores RTT samples from retransmitted packets (Karn's algorithm)", func() {
		c := congestion.New(true)
		c.OnPacketSent()
		c.OnAckReceived(nil) // retransmitted packet: no RTT sample
		Expect(c.Snapshot().Srtt).To(Equal(time.Duration(0)))
	})

	It("clamps RTO within [MinRTO, MaxRTO]", func() {
		c := congestion.New(true)
		hugeRTT := 120 * time.Second
		c.OnPacketSent()
		c.OnAckReceived(&hugeRTT)
		Expect(c.RTO()).To(BeNumerically("<=", 60*time.Second))
	})
})
