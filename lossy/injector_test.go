package lossy_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/oslowtech/reliabletransfer/lossy"
)

func TestLossy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Lossy Suite")
}

var _ = Describe("Injector", func() {
	It("never drops at a zero rate", func() {
		in := lossy.New(0)
		for i := 0; i < 1000; i++ {
			Expect(in.ShouldDrop()).To(BeFalse())
		}
	})

	It("always drops at rate 1", func() {
		in := lossy.NewSeeded(1, 42)
		for i := 0; i < 1000; i++ {
			Expect(in.ShouldDrop()).To(BeTrue())
		}
	})

	It("is deterministic for a fixed seed", func() {
		a := lossy.NewSeeded(0.5, 7)
		b := lossy.NewSeeded(0.5, 7)
		for i := 0; i < 100; i++ {
			Expect(a.ShouldDrop()).To(Equal(b.ShouldDrop()))
		}
	})

	It("derives the same seed from the same string twice", func() {
		Expect(lossy.SeedFromString("scenario-s2")).To(Equal(lossy.SeedFromString("scenario-s2")))
	})

	It("derives different seeds from different strings", func() {
		Expect(lossy.SeedFromString("scenario-s2")).ToNot(Equal(lossy.SeedFromString("scenario-s3")))
	})

	It("applies a reconfigured rate immediately", func() {
		in := lossy.NewSeeded(0, 1)
		in.SetRate(1)
		Expect(in.ShouldDrop()).To(BeTrue())
	})
})
