package flow_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/signalgp/flow"
)

func TestFlow(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Flow Suite")
}

var _ = Describe("Kind", func() {
	It("names each kind for diagnostics", func() {
		Expect(flow.Basic.String()).To(Equal("BASIC"))
		Expect(flow.While.String()).To(Equal("WHILE"))
		Expect(flow.Routine.String()).To(Equal("ROUTINE"))
		Expect(flow.Call.String()).To(Equal("CALL"))
		Expect(flow.Kind(99).String()).To(Equal("UNKNOWN"))
	})
})

var _ = Describe("Stack", func() {
	It("reports no top on an empty stack", func() {
		var s flow.Stack
		_, ok := s.Top()
		Expect(ok).To(BeFalse())
	})

	It("pushes and reports the new top", func() {
		var s flow.Stack
		s = s.Push(flow.Record{Kind: flow.Call, MP: 1, IP: 2})
		top, ok := s.Top()
		Expect(ok).To(BeTrue())
		Expect(top).To(Equal(flow.Record{Kind: flow.Call, MP: 1, IP: 2}))
	})

	It("pops LIFO", func() {
		var s flow.Stack
		s = s.Push(flow.Record{MP: 1})
		s = s.Push(flow.Record{MP: 2})
		s, popped, ok := s.Pop()
		Expect(ok).To(BeTrue())
		Expect(popped.MP).To(Equal(uint32(2)))
		top, _ := s.Top()
		Expect(top.MP).To(Equal(uint32(1)))
	})

	It("reports no pop on an empty stack", func() {
		var s flow.Stack
		_, _, ok := s.Pop()
		Expect(ok).To(BeFalse())
	})

	It("sets the top record's ip, a no-op if empty", func() {
		var s flow.Stack
		s = s.SetTopIP(5) // no-op
		Expect(s).To(BeEmpty())

		s = s.Push(flow.Record{IP: 0})
		s = s.SetTopIP(7)
		top, _ := s.Top()
		Expect(top.IP).To(Equal(7))
	})
})
