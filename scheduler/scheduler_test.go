package scheduler_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/signalgp/scheduler"
	"github.com/sarchlab/signalgp/vmthread"
)

func TestScheduler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scheduler Suite")
}

func countingHooks(steps *int) scheduler.Hooks {
	return scheduler.Hooks{
		InitThread: func(thread *vmthread.Thread, moduleID uint32) {
			thread.CallStack = append(thread.CallStack, &vmthread.CallFrame{})
		},
		StepThread: func(thread *vmthread.Thread) {
			*steps++
		},
	}
}

var _ = Describe("Scheduler", func() {
	It("admits a spawned thread into active on the next tick, not immediately", func() {
		var steps int
		s := scheduler.New(countingHooks(&steps), 4, 16, true)
		id, ok := s.SpawnByID(0, 1.0)
		Expect(ok).To(BeTrue())
		Expect(s.Thread(id).RunState).To(Equal(vmthread.Pending))
		Expect(s.ActiveCount()).To(Equal(0))

		s.ProcessSingle()
		Expect(s.Thread(id).RunState).To(Equal(vmthread.Running))
		Expect(steps).To(Equal(1))
	})

	It("reclaims a slot once its call stack empties after a step", func() {
		var steps int
		s := scheduler.New(scheduler.Hooks{
			InitThread: func(thread *vmthread.Thread, moduleID uint32) {
				thread.CallStack = append(thread.CallStack, &vmthread.CallFrame{})
			},
			StepThread: func(thread *vmthread.Thread) {
				steps++
				thread.CallStack = nil // dies this step
			},
		}, 4, 16, true)
		id, _ := s.SpawnByID(0, 1.0)
		s.ProcessSingle()
		Expect(s.Thread(id).IsDead()).To(BeTrue())
		Expect(s.ActiveCount()).To(Equal(0))
	})

	It("fails softly once thread capacity is exhausted", func() {
		var steps int
		s := scheduler.New(countingHooks(&steps), 4, 1, true)
		_, ok1 := s.SpawnByID(0, 1.0)
		_, ok2 := s.SpawnByID(0, 1.0)
		Expect(ok1).To(BeTrue())
		Expect(ok2).To(BeFalse())
	})

	It("reuses a slot returned to unused by RemoveAllPending", func() {
		var steps int
		s := scheduler.New(countingHooks(&steps), 4, 1, true)
		first, _ := s.SpawnByID(0, 1.0)
		s.RemoveAllPending()
		Expect(s.Thread(first).IsDead()).To(BeTrue())

		second, ok := s.SpawnByID(0, 1.0)
		Expect(ok).To(BeTrue())
		Expect(second).To(Equal(first))
	})

	It("preempts the lowest-priority active thread for a higher-priority pending one", func() {
		var steps int
		s := scheduler.New(countingHooks(&steps), 1, 8, true)
		low, _ := s.SpawnByID(0, 1.0)
		s.ProcessSingle() // low is now active, alone, at the limit of 1
		Expect(s.Thread(low).RunState).To(Equal(vmthread.Running))

		high, _ := s.SpawnByID(0, 5.0)
		s.ProcessSingle()

		Expect(s.Thread(high).RunState).To(Equal(vmthread.Running))
		Expect(s.Thread(low).IsDead()).To(BeTrue())
	})

	It("kills excess FIFO pending rather than preempting, when priority is disabled", func() {
		var steps int
		s := scheduler.New(countingHooks(&steps), 1, 8, false)
		first, _ := s.SpawnByID(0, 1.0)
		s.ProcessSingle()

		second, _ := s.SpawnByID(0, 99.0)
		s.ProcessSingle()

		Expect(s.Thread(first).RunState).To(Equal(vmthread.Running))
		Expect(s.Thread(second).IsDead()).To(BeTrue())
	})

	It("kills tail-of-exec_order threads when SetActiveLimit lowers the cap", func() {
		var steps int
		s := scheduler.New(countingHooks(&steps), 4, 8, true)
		a, _ := s.SpawnByID(0, 1.0)
		b, _ := s.SpawnByID(0, 1.0)
		s.ProcessSingle()
		Expect(s.ActiveCount()).To(Equal(2))

		s.SetActiveLimit(1)
		Expect(s.ActiveCount()).To(Equal(1))
		Expect(s.Thread(a).RunState).To(Equal(vmthread.Running))
		Expect(s.Thread(b).IsDead()).To(BeTrue())
	})
})
