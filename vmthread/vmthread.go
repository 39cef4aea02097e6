// Package vmthread provides the per-thread call stack data model: call
// frames, their memory-model hooks, and the thread lifecycle.
package vmthread

import "github.com/sarchlab/signalgp/flow"

// MemoryState is a host-supplied local-memory value. The runtime never
// interprets its contents and does not itself call Reset: every new call
// frame gets a fresh state from MemoryModel.NewState.
type MemoryState interface {
	Reset()
}

// MemoryModel is the host-supplied factory and cross-frame hook set invoked
// on call/return. One model is shared by every thread of the VM it is
// passed to; its hooks may update model-global state during execution.
type MemoryModel interface {
	// NewState allocates a fresh MemoryState for a newly pushed call frame.
	NewState() MemoryState
	// OnCall is invoked when callee's frame is pushed on top of caller's.
	OnCall(caller, callee MemoryState)
	// OnReturn is invoked when returning's frame is about to be popped back
	// to caller.
	OnReturn(returning, caller MemoryState)
	// ResetGlobal clears any model-global state (shared across all threads
	// of one VM), invoked on hardware reset.
	ResetGlobal()
}

// RunState is a thread slot's lifecycle state.
type RunState uint8

const (
	// Pending threads are awaiting admission at the next tick.
	Pending RunState = iota
	// Running threads are iterated and stepped once per tick.
	Running
	// Dead threads are unreachable; their slot is eligible for reuse.
	Dead
)

// CallFrame is one entry in a thread's call stack: a local memory state and
// a stack of active flow records.
type CallFrame struct {
	Memory MemoryState
	Flows  flow.Stack
	// Circular means falling off the frame's governing module wraps to its
	// begin rather than returning.
	Circular bool
}

// TopFlow returns the frame's effective (mp, ip): the top of its flow
// stack. ok is false if the frame has implicitly returned (empty stack).
func (f *CallFrame) TopFlow() (flow.Record, bool) {
	return f.Flows.Top()
}

// Thread is one independent execution context: a call stack, a scheduling
// priority, and a lifecycle state.
type Thread struct {
	SlotID    int
	CallStack []*CallFrame
	Priority  float64
	RunState  RunState
}

// TopFrame returns the thread's top call frame, or nil if the call stack is
// empty (the thread has fully returned and should be reaped as DEAD).
func (t *Thread) TopFrame() *CallFrame {
	if len(t.CallStack) == 0 {
		return nil
	}
	return t.CallStack[len(t.CallStack)-1]
}

// PushFrame pushes a new call frame.
func (t *Thread) PushFrame(f *CallFrame) {
	t.CallStack = append(t.CallStack, f)
}

// PopFrame pops and returns the top call frame, and whether there was one.
func (t *Thread) PopFrame() (*CallFrame, bool) {
	if len(t.CallStack) == 0 {
		return nil, false
	}
	top := t.CallStack[len(t.CallStack)-1]
	t.CallStack = t.CallStack[:len(t.CallStack)-1]
	return top, true
}

// Reset clears a reclaimed thread slot back to its default state: priority
// 1, DEAD, empty call stack. Matches the source's Thread::Reset — a slot
// must never carry state between unrelated spawns.
func (t *Thread) Reset() {
	t.CallStack = nil
	t.Priority = 1.0
	t.RunState = Dead
}

// IsDead reports whether the thread should be reaped: an empty call stack
// (fully returned) or an explicit Dead run state.
func (t *Thread) IsDead() bool {
	return t.RunState == Dead || len(t.CallStack) == 0
}
