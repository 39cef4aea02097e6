// Package machine declares the Machine contract that instruction executors,
// event handlers, and event dispatchers are written against. It exists
// purely to break the import cycle between the instruction/event library
// registries (which only need a function signature) and the VM (which
// implements the interface and necessarily depends on nearly everything
// else).
package machine

import (
	"github.com/sarchlab/signalgp/event"
	"github.com/sarchlab/signalgp/flow"
	"github.com/sarchlab/signalgp/tag"
	"github.com/sarchlab/signalgp/vmthread"
)

// Machine is everything an instruction executor or event handler/dispatcher
// may do to the hosting VM. Implementations must guarantee the currently
// executing thread's slot identity is stable across a single call.
type Machine interface {
	// CurrentThread returns the thread currently being stepped.
	CurrentThread() *vmthread.Thread
	// CurrentFrame returns the top call frame of the current thread.
	CurrentFrame() *vmthread.CallFrame
	// Memory returns the current frame's memory state.
	Memory() vmthread.MemoryState

	// OpenBlock opens a new flow of kind on the current frame, starting at
	// the frame's current (mp, ip) and running find_end_of_block to locate
	// its matching close. Used by instructions with the BlockOpen property
	// (WHILE, IF, ...) when their guard condition holds.
	OpenBlock(kind flow.Kind)
	// SkipBlock advances the current frame's top flow past the matching
	// BLOCK_CLOSE without opening a new flow. Used when a BlockOpen
	// instruction's guard condition does not hold.
	SkipBlock()
	// CloseFlow closes the current frame's top flow per its kind's close
	// semantics.
	CloseFlow()
	// BreakFlow closes the current frame's top flow per its kind's break
	// semantics.
	BreakFlow()

	// CallModule pushes a new call frame executing moduleID. circular means
	// falling off the module's end wraps to its begin instead of returning.
	CallModule(moduleID uint32, circular bool)
	// CallRoutine opens a ROUTINE flow on the current frame (no new call
	// frame; closing it resumes the flow beneath without updating its ip).
	CallRoutine(moduleID uint32)

	// FindModuleMatches resolves up to n module ids best-matching t.
	FindModuleMatches(t tag.Tag, n int) []uint32
	// SpawnByTag locates up to n modules by best match and attempts to
	// spawn a thread for each, returning the slot ids that succeeded.
	SpawnByTag(t tag.Tag, n int, priority float64) []int
	// SpawnByID marks one new thread PENDING on moduleID.
	SpawnByID(moduleID uint32, priority float64) (int, bool)

	// SetRegulator replaces a module's regulator value outright and resets
	// its decay counter.
	SetRegulator(moduleID uint32, value float64, decay uint32)
	// AdjustRegulator blends a module's regulator toward target.
	AdjustRegulator(moduleID uint32, target, budge float64, decay uint32)
	// SenseRegulator reads a module's current regulator value.
	SenseRegulator(moduleID uint32) float64

	// QueueEvent appends e to the event FIFO, handled at the start of the
	// next tick.
	QueueEvent(e event.Event)
	// TriggerEvent runs every dispatcher registered for e.EventID
	// immediately against this machine (dispatchers typically queue e on
	// peer machines instead).
	TriggerEvent(e event.Event)
}
