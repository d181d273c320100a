package eventlog_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/oslowtech/reliabletransfer/eventlog"
)

func TestEventlog(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Eventlog Suite")
}

var _ = Describe("Log", func() {
	It("retains records in chronological order", func() {
		l := eventlog.New(10)
		l.Append(eventlog.KindSynSent, "attempt %d", 1)
		l.Append(eventlog.KindSynAckReceived, "ok")
		snap := l.Snapshot(0)
		Expect(snap).To(HaveLen(2))
		Expect(snap[0].Kind).To(Equal(eventlog.KindSynSent))
		Expect(snap[0].Message).To(Equal("attempt 1"))
		Expect(snap[1].Kind).To(Equal(eventlog.KindSynAckReceived))
	})

	It("drops the oldest record once capacity is exceeded", func() {
		l := eventlog.New(3)
		for i := 0; i < 5; i++ {
			l.Append(eventlog.KindPacketSent, "seq=%d", i)
		}
		snap := l.Snapshot(0)
		Expect(snap).To(HaveLen(3))
		Expect(snap[0].Message).To(Equal("seq=2"))
		Expect(snap[2].Message).To(Equal("seq=4"))
	})

	It("returns only the most recent n records", func() {
		l := eventlog.New(eventlog.DefaultCapacity)
		for i := 0; i < 10; i++ {
			l.Append(eventlog.KindPacketSent, "seq=%d", i)
		}
		snap := l.Snapshot(3)
		Expect(snap).To(HaveLen(3))
		Expect(snap[0].Message).To(Equal("seq=7"))
		Expect(snap[2].Message).To(Equal("seq=9"))
	})

	It("clears all entries on Reset", func() {
		l := eventlog.New(5)
		l.Append(eventlog.KindError, "boom")
		l.Reset()
		Expect(l.Snapshot(0)).To(BeEmpty())
	})
})
