// Package flowengine implements the per-thread control-flow algorithm: the
// single-step loop, block-boundary discovery, and the open/close/break
// contracts for each flow kind. It is the thing package flow's doc comment
// defers to.
package flowengine

import (
	"github.com/sarchlab/signalgp/flow"
	"github.com/sarchlab/signalgp/instlib"
	"github.com/sarchlab/signalgp/machine"
	"github.com/sarchlab/signalgp/module"
	"github.com/sarchlab/signalgp/program"
	"github.com/sarchlab/signalgp/vmthread"
)

// DefaultMaxCallDepth bounds the call-stack depth a single thread may reach
// before CallModule becomes a silent no-op.
const DefaultMaxCallDepth = 256

// Engine holds everything the flow algorithm needs beyond the thread itself:
// the compiled module list, the program they index into, the instruction
// library (for BlockOpen/BlockClose properties), and the memory-model hooks
// invoked on call/return.
type Engine struct {
	Modules      []module.Module
	Program      *program.Program
	Lib          *instlib.Library
	Memory       vmthread.MemoryModel
	MaxCallDepth int
}

func (e *Engine) maxCallDepth() int {
	if e.MaxCallDepth <= 0 {
		return DefaultMaxCallDepth
	}
	return e.MaxCallDepth
}

// Step advances thread t by exactly one atomic step: an instruction
// executes, a flow unwinds, a call returns, or the thread dies. m is passed
// through to the instruction executor unmodified; the caller is responsible
// for m.CurrentThread()/CurrentFrame() reflecting t for the duration of the
// call.
func (e *Engine) Step(m machine.Machine, t *vmthread.Thread) {
	for {
		if len(t.CallStack) == 0 {
			t.RunState = vmthread.Dead
			return
		}
		frame := t.TopFrame()
		top, ok := frame.TopFlow()
		if !ok {
			e.returnFromCall(t)
			continue
		}

		mod := e.moduleAt(top.MP)
		size := e.Program.Size()

		switch {
		case mod.Contains(top.IP):
			ip := top.IP
			frame.Flows = frame.Flows.SetTopIP(ip + 1)
			inst := e.Program.At(ip)
			e.execute(m, &inst)
			return
		case top.IP >= size && mod.Wraps() && mod.Contains(0):
			frame.Flows = frame.Flows.SetTopIP(1)
			inst := e.Program.At(0)
			e.execute(m, &inst)
			return
		default:
			e.closeFlow(t)
		}
	}
}

func (e *Engine) execute(m machine.Machine, inst *program.Instruction) {
	entry, ok := e.Lib.Lookup(inst.OpcodeID)
	if !ok || entry.Executor == nil {
		return
	}
	entry.Executor(m, inst)
}

func (e *Engine) moduleAt(id uint32) module.Module {
	if int(id) >= len(e.Modules) {
		return module.Module{Members: map[int]struct{}{}}
	}
	return e.Modules[id]
}

// OpenBlock pushes a new flow of kind onto t's top frame, running
// findEndOfBlock from the frame's current (mp, ip) to locate the close.
func (e *Engine) OpenBlock(t *vmthread.Thread, kind flow.Kind) {
	frame := t.TopFrame()
	if frame == nil {
		return
	}
	top, ok := frame.TopFlow()
	if !ok {
		return
	}
	header := e.prevPos(top.IP)
	end := e.findEndOfBlock(top.MP, top.IP)
	frame.Flows = frame.Flows.Push(flow.Record{
		Kind: kind, MP: top.MP, IP: top.IP, Begin: header, End: end,
	})
}

// SkipBlock advances the top frame's top flow past the matching BLOCK_CLOSE
// without opening a new flow.
func (e *Engine) SkipBlock(t *vmthread.Thread) {
	frame := t.TopFrame()
	if frame == nil {
		return
	}
	top, ok := frame.TopFlow()
	if !ok {
		return
	}
	end := e.findEndOfBlock(top.MP, top.IP)
	frame.Flows = frame.Flows.SetTopIP(end + 1)
}

// CloseFlow pops the top frame's top flow per its kind's close contract.
func (e *Engine) CloseFlow(t *vmthread.Thread) {
	e.closeFlow(t)
}

// BreakFlow pops the top frame's top flow per its kind's break contract.
func (e *Engine) BreakFlow(t *vmthread.Thread) {
	frame := t.TopFrame()
	if frame == nil {
		return
	}
	top, ok := frame.TopFlow()
	if !ok {
		return
	}
	switch top.Kind {
	case flow.Basic, flow.While:
		stack, popped, _ := frame.Flows.Pop()
		popped.IP = popped.End
		if e.moduleAt(popped.MP).Contains(popped.End + 1) {
			popped.IP = popped.End + 1
		}
		frame.Flows = propagate(stack, popped.MP, popped.IP)
	case flow.Routine, flow.Call:
		e.closeFlow(t)
	}
}

func (e *Engine) closeFlow(t *vmthread.Thread) {
	frame := t.TopFrame()
	if frame == nil {
		return
	}
	stack, popped, ok := frame.Flows.Pop()
	if !ok {
		return
	}
	switch popped.Kind {
	case flow.Basic:
		frame.Flows = propagate(stack, popped.MP, popped.IP)
	case flow.While:
		frame.Flows = propagate(stack, popped.MP, popped.Begin)
	case flow.Routine:
		frame.Flows = stack
	case flow.Call:
		if frame.Circular {
			popped.IP = popped.Begin
			frame.Flows = stack.Push(popped)
		} else {
			frame.Flows = stack
		}
	}
}

// propagate sets the new top's (mp, ip) to the values carried out of a
// closed nested flow, a no-op if the stack is now empty (the frame has
// fully unwound and will be reclaimed by returnFromCall).
func propagate(s flow.Stack, mp uint32, ip int) flow.Stack {
	if len(s) == 0 {
		return s
	}
	s[len(s)-1].MP = mp
	s[len(s)-1].IP = ip
	return s
}

// prevPos returns the position immediately before ip, wrapping to the last
// instruction if ip is 0 (OpenBlock is always called with ip already
// advanced past the opening instruction, so this recovers that
// instruction's own position — the loop header for WHILE).
func (e *Engine) prevPos(ip int) int {
	size := e.Program.Size()
	if ip <= 0 {
		if size == 0 {
			return 0
		}
		return size - 1
	}
	return ip - 1
}

// findEndOfBlock scans forward from startIP within module mp, tracking
// nesting depth, and returns the position of the BLOCK_CLOSE that brings
// depth back to zero. The scan wraps modulo program size and is bounded by
// the program's size, so a malformed program with no matching close
// terminates the scan rather than looping forever — the position returned
// in that case is wherever the scan happened to stop.
func (e *Engine) findEndOfBlock(mp uint32, startIP int) int {
	mod := e.moduleAt(mp)
	size := e.Program.Size()
	if size == 0 {
		return startIP
	}
	depth := 1
	pos := startIP % size
	for i := 0; i < size; i++ {
		if mod.Contains(pos) {
			inst := e.Program.At(pos)
			if entry, ok := e.Lib.Lookup(inst.OpcodeID); ok {
				switch {
				case entry.Properties.Has(instlib.BlockOpen):
					depth++
				case entry.Properties.Has(instlib.BlockClose):
					depth--
					if depth == 0 {
						return pos
					}
				}
			}
		}
		pos = (pos + 1) % size
	}
	return pos
}

// CallModule pushes a new call frame executing moduleID. A silent no-op if
// the thread is already at the call-depth ceiling or moduleID is unknown.
func (e *Engine) CallModule(t *vmthread.Thread, moduleID uint32, circular bool) {
	if len(t.CallStack) >= e.maxCallDepth() || int(moduleID) >= len(e.Modules) {
		return
	}
	mod := e.Modules[moduleID]
	caller := t.TopFrame()
	callee := &vmthread.CallFrame{Memory: e.Memory.NewState(), Circular: circular}
	callee.Flows = callee.Flows.Push(flow.Record{
		Kind: flow.Call, MP: moduleID, IP: mod.Begin, Begin: mod.Begin, End: mod.End,
	})
	t.PushFrame(callee)
	if caller != nil {
		e.Memory.OnCall(caller.Memory, callee.Memory)
	}
}

// CallRoutine opens a ROUTINE flow on the current frame: no new call frame,
// no memory-model hook, and closing it does not update the flow beneath it.
func (e *Engine) CallRoutine(t *vmthread.Thread, moduleID uint32) {
	if int(moduleID) >= len(e.Modules) {
		return
	}
	frame := t.TopFrame()
	if frame == nil {
		return
	}
	mod := e.Modules[moduleID]
	frame.Flows = frame.Flows.Push(flow.Record{
		Kind: flow.Routine, MP: moduleID, IP: mod.Begin, Begin: mod.Begin, End: mod.End,
	})
}

func (e *Engine) returnFromCall(t *vmthread.Thread) {
	if len(t.CallStack) == 0 {
		return
	}
	returning, _ := t.PopFrame()
	if caller := t.TopFrame(); caller != nil {
		e.Memory.OnReturn(returning.Memory, caller.Memory)
	}
}
