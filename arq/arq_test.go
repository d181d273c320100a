package arq_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/oslowtech/reliabletransfer/arq"
	"github.com/oslowtech/reliabletransfer/packet"
)

func TestArq(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Arq Suite")
}

const rto = 50 * time.Millisecond

var _ = Describe("Stop-and-Wait", func() {
	It("never has more than one packet in flight", func() {
		s := arq.NewStopWaitSender(4)
		s.LoadData(make([]byte, 3000)) // 3 chunks at 1024B
		now := time.Now()

		first := s.Ready(now, 64)
		Expect(first).To(HaveLen(1))
		Expect(s.InFlight()).To(Equal(uint32(1)))

		second := s.Ready(now, 64)
		Expect(second).To(BeEmpty(), "no new packet admitted while one is outstanding")
	})

	It("advances base and admits the next packet on ACK", func() {
		s := arq.NewStopWaitSender(4)
		s.LoadData(make([]byte, 2048))
		now := time.Now()

		sent := s.Ready(now, 64)
		Expect(sent).To(HaveLen(1))

		acked, rtt := s.HandleAck(now.Add(5*time.Millisecond), packet.NewAck(1, 4))
		Expect(acked).To(Equal([]uint32{0}))
		Expect(rtt).ToNot(BeNil())
		Expect(s.Base()).To(Equal(uint32(1)))

		next := s.Ready(now, 64)
		Expect(next).To(HaveLen(1))
		Expect(next[0].SeqNo).To(Equal(uint32(1)))
	})

	It("retransmits the outstanding packet after rto elapses (S2-style loss)", func() {
		s := arq.NewStopWaitSender(4)
		s.LoadData(make([]byte, 100))
		now := time.Now()

		sent := s.Ready(now, 64)
		Expect(sent).To(HaveLen(1))

		retransmit, err := s.CheckTimeouts(now.Add(rto+time.Millisecond), rto, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(retransmit).To(HaveLen(1))
		Expect(retransmit[0].SeqNo).To(Equal(uint32(0)))
	})

	It("aborts the transfer once the retransmission cap is exceeded", func() {
		s := arq.NewStopWaitSender(4)
		s.LoadData(make([]byte, 100))
		now := time.Now()
		s.Ready(now, 64)

		var err error
		for i := 0; i < 3; i++ {
			now = now.Add(rto + time.Millisecond)
			_, err = s.CheckTimeouts(now, rto, 2)
		}
		Expect(err).To(HaveOccurred())
	})

	It("denies Karn RTT samples to retransmitted packets", func() {
		s := arq.NewStopWaitSender(4)
		s.LoadData(make([]byte, 100))
		now := time.Now()
		s.Ready(now, 64)

		_, err := s.CheckTimeouts(now.Add(rto+time.Millisecond), rto, 10)
		Expect(err).ToNot(HaveOccurred())

		_, rtt := s.HandleAck(now.Add(2*rto), packet.NewAck(1, 4))
		Expect(rtt).To(BeNil())
	})

	It("receiver delivers in order and re-ACKs duplicates cumulatively", func() {
		r := arq.NewStopWaitReceiver()

		ack0, delivered, outOfOrder, dup := r.HandlePacket(packet.NewData(0, []byte("A"), 4))
		Expect(delivered).To(Equal([]byte("A")))
		Expect(outOfOrder).To(BeFalse())
		Expect(dup).To(BeFalse())
		Expect(ack0.AckNo).To(Equal(uint32(1)))

		// Duplicate arrival of seq 0: re-ACKed, nothing new delivered.
		ack1, delivered, _, dup := r.HandlePacket(packet.NewData(0, []byte("A"), 4))
		Expect(dup).To(BeTrue())
		Expect(delivered).To(BeEmpty())
		Expect(ack1.AckNo).To(Equal(uint32(1)))
	})
})

var _ = Describe("Go-Back-N", func() {
	It("admits up to window_size packets in flight", func() {
		s := arq.NewGoBackNSender(4)
		s.LoadData(make([]byte, 1024*10))
		now := time.Now()

		sent := s.Ready(now, 64)
		Expect(sent).To(HaveLen(4))
		Expect(s.InFlight()).To(Equal(uint32(4)))
		Expect(s.Ready(now, 64)).To(BeEmpty())
	})

	It("batch-retransmits everything from base on a single timeout (S3-style loss)", func() {
		s := arq.NewGoBackNSender(4)
		s.LoadData(make([]byte, 1024*4))
		now := time.Now()
		s.Ready(now, 64)

		retransmit, err := s.CheckTimeouts(now.Add(rto+time.Millisecond), rto, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(retransmit).To(HaveLen(4))
	})

	It("slides the window forward on a cumulative ACK and admits new packets", func() {
		s := arq.NewGoBackNSender(4)
		s.LoadData(make([]byte, 1024*10))
		now := time.Now()
		s.Ready(now, 64)

		acked, _ := s.HandleAck(now, packet.NewAck(2, 4))
		Expect(acked).To(Equal([]uint32{0, 1}))
		Expect(s.Base()).To(Equal(uint32(2)))

		next := s.Ready(now, 64)
		Expect(next).To(HaveLen(2)) // 2 slots freed by the cumulative ack
	})

	It("ignores a stale duplicate ACK", func() {
		s := arq.NewGoBackNSender(4)
		s.LoadData(make([]byte, 1024*4))
		now := time.Now()
		s.Ready(now, 64)
		s.HandleAck(now, packet.NewAck(2, 4))

		acked, _ := s.HandleAck(now, packet.NewAck(1, 4))
		Expect(acked).To(BeEmpty())
		Expect(s.Base()).To(Equal(uint32(2)))
	})

	It("receiver discards out-of-order arrivals and re-sends the cumulative ACK", func() {
		r := arq.NewGoBackNReceiver(4)
		ack, delivered, outOfOrder, _ := r.HandlePacket(packet.NewData(1, []byte("B"), 4))
		Expect(outOfOrder).To(BeTrue())
		Expect(delivered).To(BeEmpty())
		Expect(ack.AckNo).To(Equal(uint32(0))) // still expecting seq 0
	})
})

var _ = Describe("Selective Repeat", func() {
	It("retransmits only the specific timed-out sequence (S4-style loss)", func() {
		s := arq.NewSelectiveRepeatSender(4)
		s.LoadData(make([]byte, 1024*4))
		now := time.Now()
		s.Ready(now, 64)

		// Ack sequences 1 and 2 so only 0 and 3 remain outstanding.
		s.HandleAck(now, packet.NewAck(2, 4))
		s.HandleAck(now, packet.NewAck(3, 4))

		retransmit, err := s.CheckTimeouts(now.Add(rto+time.Millisecond), rto, 10)
		Expect(err).ToNot(HaveOccurred())
		seqs := []uint32{}
		for _, p := range retransmit {
			seqs = append(seqs, p.SeqNo)
		}
		Expect(seqs).To(ConsistOf(uint32(0), uint32(3)))
	})

	It("never sends beyond base+window_size", func() {
		s := arq.NewSelectiveRepeatSender(2)
		s.LoadData(make([]byte, 1024*10))
		now := time.Now()
		sent := s.Ready(now, 64)
		Expect(sent).To(HaveLen(2))
		Expect(s.Ready(now, 64)).To(BeEmpty())
	})

	It("buffers out-of-order arrivals and drains them once the gap fills (S5-style reorder)", func() {
		r := arq.NewSelectiveRepeatReceiver(4)

		ack1, delivered, outOfOrder, _ := r.HandlePacket(packet.NewData(1, []byte("B"), 4))
		Expect(outOfOrder).To(BeTrue())
		Expect(delivered).To(BeEmpty())
		Expect(ack1.AckNo).To(Equal(uint32(2))) // SR acks the individual sequence

		_, delivered, outOfOrder, _ = r.HandlePacket(packet.NewData(0, []byte("A"), 4))
		Expect(outOfOrder).To(BeFalse())
		Expect(delivered).To(Equal([]byte("AB"))) // drains 0 then the buffered 1
		Expect(r.ExpectedSeq()).To(Equal(uint32(2)))
	})

	It("acks a below-window duplicate without re-delivering it", func() {
		r := arq.NewSelectiveRepeatReceiver(4)
		r.HandlePacket(packet.NewData(0, []byte("A"), 4))

		ack, delivered, _, _ := r.HandlePacket(packet.NewData(0, []byte("A"), 4))
		Expect(delivered).To(BeEmpty())
		Expect(ack.AckNo).To(Equal(uint32(1)))
	})

	It("drops an arrival outside the receive window silently", func() {
		r := arq.NewSelectiveRepeatReceiver(2)
		ack, delivered, dropped, _ := r.HandlePacket(packet.NewData(5, []byte("Z"), 2))
		Expect(ack).To(BeNil())
		Expect(delivered).To(BeEmpty())
		Expect(dropped).To(BeTrue())
	})
})
