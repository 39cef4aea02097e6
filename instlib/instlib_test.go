package instlib_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/signalgp/instlib"
)

func TestInstlib(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Instlib Suite")
}

var _ = Describe("Library", func() {
	It("assigns sequential opcode ids on registration", func() {
		lib := instlib.NewLibrary()
		id0 := lib.Register(instlib.Entry{Name: "nop"})
		id1 := lib.Register(instlib.Entry{Name: "inc"})
		Expect(id0).To(Equal(uint32(0)))
		Expect(id1).To(Equal(uint32(1)))
		Expect(lib.Len()).To(Equal(2))
	})

	It("looks up entries by id and name", func() {
		lib := instlib.NewLibrary()
		lib.Register(instlib.Entry{Name: "nop", Properties: 0})
		e, ok := lib.Lookup(0)
		Expect(ok).To(BeTrue())
		Expect(e.Name).To(Equal("nop"))

		id, ok := lib.LookupByName("nop")
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(uint32(0)))
	})

	It("reports unknown opcode ids as absent", func() {
		lib := instlib.NewLibrary()
		_, ok := lib.Lookup(42)
		Expect(ok).To(BeFalse())
	})

	It("panics on duplicate names", func() {
		lib := instlib.NewLibrary()
		lib.Register(instlib.Entry{Name: "nop"})
		Expect(func() { lib.Register(instlib.Entry{Name: "nop"}) }).To(Panic())
	})
})

var _ = Describe("Property", func() {
	It("composes as a bitmask", func() {
		p := instlib.ModuleDef | instlib.BlockOpen
		Expect(p.Has(instlib.ModuleDef)).To(BeTrue())
		Expect(p.Has(instlib.BlockOpen)).To(BeTrue())
		Expect(p.Has(instlib.BlockClose)).To(BeFalse())
	})
})
