package stats_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/oslowtech/reliabletransfer/stats"
)

func TestStats(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stats Suite")
}

var _ = Describe("Counters and Snapshot", func() {
	It("computes efficiency as unique/total sent", func() {
		c := stats.New()
		for i := 0; i < 10; i++ {
			c.IncPacketsSent()
		}
		for i := 0; i < 2; i++ {
			c.IncRetransmissions()
		}
		Expect(c.Snapshot().Efficiency()).To(BeNumerically("~", 0.8, 0.001))
	})

	It("reports zero efficiency with no packets sent", func() {
		Expect(stats.New().Snapshot().Efficiency()).To(Equal(0.0))
	})

	It("averages the retained RTT samples", func() {
		c := stats.New()
		c.RecordRTT(10 * time.Millisecond)
		c.RecordRTT(20 * time.Millisecond)
		c.RecordRTT(30 * time.Millisecond)
		Expect(c.Snapshot().AvgRTT()).To(Equal(20 * time.Millisecond))
	})

	It("bounds the RTT reservoir and drops the oldest sample", func() {
		c := stats.New()
		for i := 0; i < 2048+10; i++ {
			c.RecordRTT(time.Duration(i) * time.Millisecond)
		}
		snap := c.Snapshot()
		Expect(snap.RTTSamples).To(HaveLen(2048))
		Expect(snap.RTTSamples[0]).To(Equal(10 * time.Millisecond))
	})

	It("computes duration between start and end", func() {
		c := stats.New()
		c.MarkStarted()
		time.Sleep(5 * time.Millisecond)
		c.MarkEnded()
		Expect(c.Snapshot().Duration()).To(BeNumerically(">=", 5*time.Millisecond))
	})

	It("computes goodput as throughput scaled by efficiency", func() {
		c := stats.New()
		c.MarkStarted()
		c.AddBytes(1_000_000)
		for i := 0; i < 10; i++ {
			c.IncPacketsSent()
		}
		c.IncRetransmissions()
		time.Sleep(10 * time.Millisecond)
		c.MarkEnded()
		snap := c.Snapshot()
		Expect(snap.Goodput()).To(BeNumerically("~", snap.ThroughputMBps()*snap.Efficiency(), 0.0001))
	})
})
