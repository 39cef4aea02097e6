// Package memory provides a demonstration register-file implementation of
// vmthread.MemoryState and vmthread.MemoryModel, modeled on this codebase's
// ARM64 register file: a fixed array of general-purpose registers plus a
// handful of flag bits, read and written by index with out-of-range indices
// treated as the always-zero register rather than an error.
package memory

import "github.com/sarchlab/signalgp/vmthread"

// NumRegisters is the size of a RegisterFile's general-purpose bank.
const NumRegisters = 16

// Flags holds the condition bits a comparison instruction may set and a
// branch instruction may read.
type Flags struct {
	Zero     bool
	Negative bool
	Carry    bool
}

// RegisterFile is one call frame's local memory: NumRegisters general
// registers plus a set of condition flags. Register NumRegisters-1 is wired as the
// always-zero register, mirroring the hard-wired XZR register in this
// codebase's ARM64 emulator — writes to it are discarded and reads always
// return 0.
type RegisterFile struct {
	R     [NumRegisters]int64
	Flags Flags
}

var _ vmthread.MemoryState = (*RegisterFile)(nil)

// zeroReg is the index of the hard-wired always-zero register.
const zeroReg = NumRegisters - 1

// Read returns the value of register reg, or 0 if reg is out of range or is
// the zero register.
func (f *RegisterFile) Read(reg int) int64 {
	if reg < 0 || reg >= NumRegisters || reg == zeroReg {
		return 0
	}
	return f.R[reg]
}

// Write stores value into register reg. Out-of-range indices and the zero
// register are silently ignored, matching the "invalid address is a no-op"
// rule individual instruction executors are expected to follow.
func (f *RegisterFile) Write(reg int, value int64) {
	if reg < 0 || reg >= NumRegisters || reg == zeroReg {
		return
	}
	f.R[reg] = value
}

// Reset implements vmthread.MemoryState, clearing every register and flag.
func (f *RegisterFile) Reset() {
	*f = RegisterFile{}
}

// Stats counts cross-frame events observed by a Model, for diagnostics.
type Stats struct {
	Calls   uint64
	Returns uint64
}

// Model is the vmthread.MemoryModel backing RegisterFile frames. It carries
// one piece of model-global state — a small globals bank visible to every
// thread of the owning VM — plus call/return counters.
type Model struct {
	Globals [NumRegisters]int64
	stats   Stats
}

var _ vmthread.MemoryModel = (*Model)(nil)

// NewModel constructs an empty Model.
func NewModel() *Model {
	return &Model{}
}

// NewState implements vmthread.MemoryModel: each pushed call frame gets its
// own zeroed RegisterFile.
func (m *Model) NewState() vmthread.MemoryState {
	return &RegisterFile{}
}

// OnCall implements vmthread.MemoryModel. The callee frame starts clean —
// registers are not inherited across a call, matching the ARM64 emulator's
// lack of an implicit register-passing convention — and the call is
// recorded in Stats.
func (m *Model) OnCall(caller, callee vmthread.MemoryState) {
	m.stats.Calls++
}

// OnReturn implements vmthread.MemoryModel. Register 0 carries a return
// value by convention: returning's R[0] is copied into caller's R[0], the
// same register-0-as-result convention this codebase's emulator uses for
// syscall results.
func (m *Model) OnReturn(returning, caller vmthread.MemoryState) {
	m.stats.Returns++
	r, ok := returning.(*RegisterFile)
	if !ok {
		return
	}
	c, ok := caller.(*RegisterFile)
	if !ok {
		return
	}
	c.R[0] = r.R[0]
}

// ResetGlobal implements vmthread.MemoryModel: clears the globals bank and
// the call/return counters.
func (m *Model) ResetGlobal() {
	m.Globals = [NumRegisters]int64{}
	m.stats = Stats{}
}

// Stats returns the accumulated call/return counts.
func (m *Model) Stats() Stats {
	return m.stats
}
