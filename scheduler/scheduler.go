// Package scheduler implements the thread scheduler: slot-addressed thread
// storage, priority-gated admission with preemption, and the per-tick
// execution walk. It is generic over how a thread's initial call frame gets
// built and how a single step advances it — both are supplied as Hooks so
// this package never depends on the flow-control engine or instruction set.
package scheduler

import (
	"sort"

	"github.com/sarchlab/signalgp/vmthread"
)

// DefaultMaxActiveThreads, DefaultMaxThreadSpace mirror the defaults a host
// configuration may leave unset.
const (
	DefaultMaxActiveThreads = 64
	DefaultMaxThreadSpace   = 512
)

// Hooks are the two host-supplied callbacks the scheduler invokes; they are
// the seam that keeps this package free of any dependency on the flow
// engine or a concrete instruction set.
type Hooks struct {
	// InitThread sets up a freshly spawned thread's initial call frame.
	InitThread func(thread *vmthread.Thread, moduleID uint32)
	// StepThread advances thread by exactly one atomic step.
	StepThread func(thread *vmthread.Thread)
}

// Scheduler owns slot-addressed thread storage and the admission/execution
// bookkeeping described by the scheduler's invariants: every slot id is in
// exactly one of {active, unused, pending}, or is dead and unreachable.
type Scheduler struct {
	hooks Hooks

	threads []*vmthread.Thread
	active  map[int]struct{}
	unused  []int // LIFO
	pending []int // FIFO

	execOrder []int

	maxActiveThreads int
	maxThreadSpace   int
	usePriority      bool

	executing  bool
	currentID  int
	hasCurrent bool
}

// New builds a Scheduler. maxActiveThreads/maxThreadSpace of 0 take the
// package defaults.
func New(hooks Hooks, maxActiveThreads, maxThreadSpace int, usePriority bool) *Scheduler {
	if maxActiveThreads <= 0 {
		maxActiveThreads = DefaultMaxActiveThreads
	}
	if maxThreadSpace <= 0 {
		maxThreadSpace = DefaultMaxThreadSpace
	}
	return &Scheduler{
		hooks:            hooks,
		active:           map[int]struct{}{},
		maxActiveThreads: maxActiveThreads,
		maxThreadSpace:   maxThreadSpace,
		usePriority:      usePriority,
	}
}

// ThreadCount returns the number of slots currently allocated (not
// necessarily all live).
func (s *Scheduler) ThreadCount() int { return len(s.threads) }

// ActiveCount returns |active|.
func (s *Scheduler) ActiveCount() int { return len(s.active) }

// PendingCount returns |pending|.
func (s *Scheduler) PendingCount() int { return len(s.pending) }

// Thread returns the slot for id, or nil if out of range.
func (s *Scheduler) Thread(id int) *vmthread.Thread {
	if id < 0 || id >= len(s.threads) {
		return nil
	}
	return s.threads[id]
}

// CurrentThread returns the thread currently being stepped by ProcessSingle,
// or nil outside of a step.
func (s *Scheduler) CurrentThread() *vmthread.Thread {
	if !s.hasCurrent {
		return nil
	}
	return s.Thread(s.currentID)
}

// SpawnByID acquires a slot (reused or freshly grown), resets it, sets its
// priority, runs InitThread, and marks it PENDING. A capacity-exhausted
// spawn is a silent soft failure: (0, false).
func (s *Scheduler) SpawnByID(moduleID uint32, priority float64) (int, bool) {
	id, ok := s.acquireSlot()
	if !ok {
		return 0, false
	}
	thread := s.threads[id]
	thread.Reset()
	thread.SlotID = id
	thread.Priority = priority
	thread.RunState = vmthread.Pending
	if s.hooks.InitThread != nil {
		s.hooks.InitThread(thread, moduleID)
	}
	s.pending = append(s.pending, id)
	return id, true
}

func (s *Scheduler) acquireSlot() (int, bool) {
	if n := len(s.unused); n > 0 {
		id := s.unused[n-1]
		s.unused = s.unused[:n-1]
		return id, true
	}
	if len(s.threads) >= s.maxThreadSpace {
		return 0, false
	}
	id := len(s.threads)
	s.threads = append(s.threads, &vmthread.Thread{SlotID: id, RunState: vmthread.Dead})
	return id, true
}

// SetActiveLimit adjusts max_active_threads. Lowering it below the current
// active count kills threads from the tail of exec_order (youngest-first)
// until the limit holds.
func (s *Scheduler) SetActiveLimit(n int) {
	if n < 0 {
		panic("scheduler: negative active-thread limit")
	}
	s.maxActiveThreads = n
	for len(s.active) > s.maxActiveThreads && len(s.execOrder) > 0 {
		tail := s.execOrder[len(s.execOrder)-1]
		s.execOrder = s.execOrder[:len(s.execOrder)-1]
		s.killActive(tail)
	}
}

// SetThreadCapacity adjusts max_thread_space. Shrinking below the current
// slot count erases every slot with id ≥ n from every tracker.
func (s *Scheduler) SetThreadCapacity(n int) {
	if n < 0 {
		panic("scheduler: negative thread-space capacity")
	}
	s.maxThreadSpace = n
	if n >= len(s.threads) {
		return
	}
	s.threads = s.threads[:n]
	s.execOrder = filterBelow(s.execOrder, n)
	s.pending = filterBelow(s.pending, n)
	s.unused = filterBelow(s.unused, n)
	for id := range s.active {
		if id >= n {
			delete(s.active, id)
		}
	}
}

func filterBelow(ids []int, n int) []int {
	out := ids[:0]
	for _, id := range ids {
		if id < n {
			out = append(out, id)
		}
	}
	return out
}

// RemoveAllPending marks every PENDING thread DEAD and returns their slots
// to unused, returning the slot ids affected.
func (s *Scheduler) RemoveAllPending() []int {
	killed := s.pending
	s.pending = nil
	for _, id := range killed {
		s.threads[id].Reset()
		s.unused = append(s.unused, id)
	}
	return killed
}

// ProcessSingle runs one hardware tick: admission, then the execution walk.
// Panics if called reentrantly (e.g. from within a StepThread hook) — a
// contract violation, not a recoverable condition.
func (s *Scheduler) ProcessSingle() {
	if s.executing {
		panic("scheduler: process_single invoked while already executing")
	}
	s.executing = true
	defer func() { s.executing = false }()

	s.admitPending()

	order := s.execOrder[:0:0]
	order = append(order, s.execOrder...)
	kept := order[:0]
	for _, id := range order {
		thread := s.threads[id]
		if thread.RunState == vmthread.Dead {
			continue
		}
		s.currentID = id
		s.hasCurrent = true
		if s.hooks.StepThread != nil {
			s.hooks.StepThread(thread)
		}
		s.hasCurrent = false
		if thread.IsDead() {
			s.killActive(id)
			continue
		}
		kept = append(kept, id)
	}
	s.execOrder = kept
}

// Process runs k ticks.
func (s *Scheduler) Process(k int) {
	for i := 0; i < k; i++ {
		s.ProcessSingle()
	}
}

func (s *Scheduler) killActive(id int) {
	delete(s.active, id)
	s.threads[id].Reset()
	s.unused = append(s.unused, id)
	s.removeFromExecOrder(id)
}

func (s *Scheduler) removeFromExecOrder(id int) {
	for i, v := range s.execOrder {
		if v == id {
			s.execOrder = append(s.execOrder[:i], s.execOrder[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) activate(id int) {
	thread := s.threads[id]
	thread.RunState = vmthread.Running
	s.active[id] = struct{}{}
	s.execOrder = append(s.execOrder, id)
}

func (s *Scheduler) killPending(id int) {
	s.threads[id].Reset()
	s.unused = append(s.unused, id)
}

type idPriority struct {
	id       int
	priority float64
}

func (s *Scheduler) admitPending() {
	if len(s.pending) == 0 {
		return
	}
	if !s.usePriority || len(s.pending)+len(s.active) <= s.maxActiveThreads {
		s.activateFIFOUntilFull()
		return
	}
	s.admitWithPreemption()
}

func (s *Scheduler) activateFIFOUntilFull() {
	pending := s.pending
	s.pending = nil
	i := 0
	for ; i < len(pending) && len(s.active) < s.maxActiveThreads; i++ {
		s.activate(pending[i])
	}
	for ; i < len(pending); i++ {
		s.killPending(pending[i])
	}
}

// admitWithPreemption runs the priority-preemption algorithm: pending
// threads are ranked highest-priority-first (ties broken by lower slot id),
// active threads below the top pending priority are ranked
// lowest-priority-first (ties broken by higher slot id, so among equal
// priorities the newer thread is evicted first) as eviction candidates.
func (s *Scheduler) admitWithPreemption() {
	pendingRank := make([]idPriority, len(s.pending))
	for i, id := range s.pending {
		pendingRank[i] = idPriority{id: id, priority: s.threads[id].Priority}
	}
	sort.SliceStable(pendingRank, func(i, j int) bool {
		if pendingRank[i].priority != pendingRank[j].priority {
			return pendingRank[i].priority > pendingRank[j].priority
		}
		return pendingRank[i].id < pendingRank[j].id
	})
	s.pending = nil

	maxPendingPriority := pendingRank[0].priority

	var activeCandidates []idPriority
	for id := range s.active {
		if s.threads[id].Priority < maxPendingPriority {
			activeCandidates = append(activeCandidates, idPriority{id: id, priority: s.threads[id].Priority})
		}
	}
	sort.SliceStable(activeCandidates, func(i, j int) bool {
		if activeCandidates[i].priority != activeCandidates[j].priority {
			return activeCandidates[i].priority < activeCandidates[j].priority
		}
		return activeCandidates[i].id > activeCandidates[j].id
	})

	pi := 0
	for len(s.active) < s.maxActiveThreads && pi < len(pendingRank) {
		s.activate(pendingRank[pi].id)
		pi++
	}

	ai := 0
	for pi < len(pendingRank) && ai < len(activeCandidates) &&
		pendingRank[pi].priority > activeCandidates[ai].priority {
		s.killActive(activeCandidates[ai].id)
		s.activate(pendingRank[pi].id)
		pi++
		ai++
	}

	for ; pi < len(pendingRank); pi++ {
		s.killPending(pendingRank[pi].id)
	}
}
