package protocol_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/oslowtech/reliabletransfer/protocol"
)

func TestProtocol(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Protocol Suite")
}

var _ = Describe("Flags", func() {
	It("combines independent bits", func() {
		f := protocol.FlagSYN | protocol.FlagACK
		Expect(f.Has(protocol.FlagSYN)).To(BeTrue())
		Expect(f.Has(protocol.FlagACK)).To(BeTrue())
		Expect(f.Has(protocol.FlagFIN)).To(BeFalse())
		Expect(f.String()).To(Equal("SYN|ACK"))
	})

	It("renders no flags as NONE", func() {
		Expect(protocol.Flags(0).String()).To(Equal("NONE"))
	})
})

var _ = Describe("Mode", func() {
	It("parses every supported mode name", func() {
		for _, tc := range []struct {
			name string
			mode protocol.Mode
		}{
			{"stop_wait", protocol.StopWait},
			{"go_back_n", protocol.GoBackN},
			{"selective_repeat", protocol.SelectiveRepeat},
		} {
			mode, ok := protocol.ParseMode(tc.name)
			Expect(ok).To(BeTrue())
			Expect(mode).To(Equal(tc.mode))
			Expect(mode.String()).To(Equal(tc.name))
		}
	})

	It("rejects an unknown mode name", func() {
		_, ok := protocol.ParseMode("quantum_entanglement")
		Expect(ok).To(BeFalse())
	})
})
