package rtpconfig_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/oslowtech/reliabletransfer/protocol"
	"github.com/oslowtech/reliabletransfer/rtpconfig"
)

func TestRtpconfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rtpconfig Suite")
}

var _ = Describe("Config", func() {
	It("validates the documented defaults", func() {
		cfg := rtpconfig.Default()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.ProtocolMode).To(Equal(protocol.GoBackN))
	})

	It("rejects an unknown protocol mode", func() {
		cfg := rtpconfig.Default()
		cfg.ProtocolModeName = "quantum_entanglement"
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects a window size out of range", func() {
		cfg := rtpconfig.Default()
		cfg.WindowSize = 0
		Expect(cfg.Validate()).To(HaveOccurred())

		cfg = rtpconfig.Default()
		cfg.WindowSize = protocol.MaxWindowSize + 1
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects a timeout out of range", func() {
		cfg := rtpconfig.Default()
		cfg.TimeoutSeconds = 0.01
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects a packet loss rate outside [0,1]", func() {
		cfg := rtpconfig.Default()
		cfg.PacketLossRate = 1.5
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("falls back to the default retransmit cap when unset", func() {
		cfg := rtpconfig.Default()
		cfg.RetransmitCap = 0
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.RetransmitCap).To(Equal(protocol.DefaultRetransmitCap))
	})

	It("accepts a valid selective_repeat window", func() {
		cfg := rtpconfig.Default()
		cfg.ProtocolModeName = "selective_repeat"
		cfg.WindowSize = 50
		Expect(cfg.Validate()).To(Succeed())
	})
})
