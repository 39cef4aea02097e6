// Package vm assembles the scheduler, flow engine, resolver, and the
// instruction/event libraries into a single tag-addressed virtual machine
// instance. It is the sole implementer of machine.Machine.
package vm

import (
	"fmt"
	"io"

	"github.com/sarchlab/signalgp/config"
	"github.com/sarchlab/signalgp/event"
	"github.com/sarchlab/signalgp/eventlib"
	"github.com/sarchlab/signalgp/flow"
	"github.com/sarchlab/signalgp/flowengine"
	"github.com/sarchlab/signalgp/instlib"
	"github.com/sarchlab/signalgp/module"
	"github.com/sarchlab/signalgp/program"
	"github.com/sarchlab/signalgp/resolver"
	"github.com/sarchlab/signalgp/scheduler"
	"github.com/sarchlab/signalgp/tag"
	"github.com/sarchlab/signalgp/vmthread"
)

// VM is one independent, single-threaded-cooperative execution instance.
// Multiple VMs may run concurrently (see package population); within one
// VM, nothing is safe to touch from more than one goroutine.
type VM struct {
	instLib  *instlib.Library
	eventLib *eventlib.Library
	memory   vmthread.MemoryModel

	program     *program.Program
	modules     []module.Module
	diagnostics []module.Diagnostic
	defaultTag  tag.Tag

	resolver  *resolver.Resolver
	scheduler *scheduler.Scheduler
	engine    *flowengine.Engine

	eventQueue []event.Event

	tick uint64

	trace io.Writer
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithTraceWriter directs per-tick diagnostic lines to w. Disabled (the
// default) when w is nil.
func WithTraceWriter(w io.Writer) Option {
	return func(v *VM) { v.trace = w }
}

// New builds a VM. cfg is cloned; a nil cfg takes config.Default().
// instLib/eventLib must outlive the VM and are never mutated by it. memory
// supplies the host-defined per-frame state and cross-frame hooks.
func New(cfg *config.Config, instLib *instlib.Library, eventLib *eventlib.Library, memory vmthread.MemoryModel, defaultTag tag.Tag, opts ...Option) *VM {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg = cfg.Clone()
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("vm: invalid config: %v", err))
	}

	v := &VM{
		instLib:    instLib,
		eventLib:   eventLib,
		memory:     memory,
		defaultTag: defaultTag,
		resolver:   resolver.New(nil, cfg.MatchCacheCapacity),
	}
	v.engine = &flowengine.Engine{
		Modules:      v.modules,
		Program:      program.New(nil),
		Lib:          instLib,
		Memory:       memory,
		MaxCallDepth: cfg.MaxCallDepth,
	}
	v.program = v.engine.Program

	v.scheduler = scheduler.New(scheduler.Hooks{
		InitThread: func(thread *vmthread.Thread, moduleID uint32) {
			v.engine.CallModule(thread, moduleID, false)
		},
		StepThread: func(thread *vmthread.Thread) {
			v.engine.Step(v, thread)
		},
	}, cfg.MaxActiveThreads, cfg.MaxThreadSpace, cfg.UseThreadPriority)

	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetProgram compiles prog into modules and rebuilds the resolver and flow
// engine over them. Any thread spawned before this call continues to
// execute against the module list it was spawned under only until its next
// step — after SetProgram every thread sees the new compilation, matching
// the coherence invariant that a program mutation invalidates the match
// cache.
func (v *VM) SetProgram(prog *program.Program) []module.Diagnostic {
	v.program = prog
	v.modules, v.diagnostics = module.Compile(prog, v.instLib, v.defaultTag)
	v.resolver.SetModules(v.modules)
	v.engine.Program = prog
	v.engine.Modules = v.modules
	return v.diagnostics
}

// Program returns the currently compiled program.
func (v *VM) Program() *program.Program { return v.program }

// Modules returns the current module list.
func (v *VM) Modules() []module.Module { return v.modules }

// Diagnostics returns the diagnostics produced by the last SetProgram.
func (v *VM) Diagnostics() []module.Diagnostic { return v.diagnostics }

// Tick runs one hardware tick: drain the event FIFO, then one scheduler
// step. Matches the ordering guarantee that events/spawns queued during
// tick T are only visible starting tick T+1.
func (v *VM) Tick() {
	v.drainEvents()
	v.resolver.Tick()
	v.scheduler.ProcessSingle()
	v.tick++
	if v.trace != nil {
		fmt.Fprintf(v.trace, "tick=%d active=%d pending=%d\n", v.tick, v.scheduler.ActiveCount(), v.scheduler.PendingCount())
	}
}

// Run executes k ticks.
func (v *VM) Run(k int) {
	for i := 0; i < k; i++ {
		v.Tick()
	}
}

// Reset clears every thread slot and the event queue and calls the
// memory model's global reset hook, without discarding the compiled
// program.
func (v *VM) Reset() {
	v.scheduler.RemoveAllPending()
	for i := 0; i < v.scheduler.ThreadCount(); i++ {
		if t := v.scheduler.Thread(i); t != nil {
			t.Reset()
		}
	}
	v.eventQueue = nil
	v.memory.ResetGlobal()
}

// TickCount returns the number of ticks run so far.
func (v *VM) TickCount() uint64 { return v.tick }

func (v *VM) drainEvents() {
	n := len(v.eventQueue)
	batch := v.eventQueue[:n]
	v.eventQueue = append([]event.Event(nil), v.eventQueue[n:]...)
	for i := range batch {
		e := batch[i]
		entry, ok := v.eventLib.Lookup(e.EventID)
		if !ok || entry.Handler == nil {
			continue
		}
		entry.Handler(v, &e)
	}
}

// --- machine.Machine ---

// CurrentThread implements machine.Machine.
func (v *VM) CurrentThread() *vmthread.Thread { return v.scheduler.CurrentThread() }

// CurrentFrame implements machine.Machine.
func (v *VM) CurrentFrame() *vmthread.CallFrame {
	t := v.scheduler.CurrentThread()
	if t == nil {
		return nil
	}
	return t.TopFrame()
}

// Memory implements machine.Machine.
func (v *VM) Memory() vmthread.MemoryState {
	f := v.CurrentFrame()
	if f == nil {
		return nil
	}
	return f.Memory
}

// OpenBlock implements machine.Machine.
func (v *VM) OpenBlock(kind flow.Kind) {
	if t := v.scheduler.CurrentThread(); t != nil {
		v.engine.OpenBlock(t, kind)
	}
}

// SkipBlock implements machine.Machine.
func (v *VM) SkipBlock() {
	if t := v.scheduler.CurrentThread(); t != nil {
		v.engine.SkipBlock(t)
	}
}

// CloseFlow implements machine.Machine.
func (v *VM) CloseFlow() {
	if t := v.scheduler.CurrentThread(); t != nil {
		v.engine.CloseFlow(t)
	}
}

// BreakFlow implements machine.Machine.
func (v *VM) BreakFlow() {
	if t := v.scheduler.CurrentThread(); t != nil {
		v.engine.BreakFlow(t)
	}
}

// CallModule implements machine.Machine.
func (v *VM) CallModule(moduleID uint32, circular bool) {
	if t := v.scheduler.CurrentThread(); t != nil {
		v.engine.CallModule(t, moduleID, circular)
	}
}

// CallRoutine implements machine.Machine.
func (v *VM) CallRoutine(moduleID uint32) {
	if t := v.scheduler.CurrentThread(); t != nil {
		v.engine.CallRoutine(t, moduleID)
	}
}

// FindModuleMatches implements machine.Machine.
func (v *VM) FindModuleMatches(t tag.Tag, n int) []uint32 {
	return v.resolver.FindModuleMatches(t, n)
}

// SpawnByTag implements machine.Machine.
func (v *VM) SpawnByTag(t tag.Tag, n int, priority float64) []int {
	ids := v.resolver.FindModuleMatches(t, n)
	slots := make([]int, 0, len(ids))
	for _, id := range ids {
		if slot, ok := v.scheduler.SpawnByID(id, priority); ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

// SpawnByID implements machine.Machine.
func (v *VM) SpawnByID(moduleID uint32, priority float64) (int, bool) {
	return v.scheduler.SpawnByID(moduleID, priority)
}

// SetRegulator implements machine.Machine.
func (v *VM) SetRegulator(moduleID uint32, value float64, decay uint32) {
	v.resolver.SetRegulator(moduleID, value, decay)
}

// AdjustRegulator implements machine.Machine.
func (v *VM) AdjustRegulator(moduleID uint32, target, budge float64, decay uint32) {
	v.resolver.AdjustRegulator(moduleID, target, budge, decay)
}

// SenseRegulator implements machine.Machine.
func (v *VM) SenseRegulator(moduleID uint32) float64 {
	return v.resolver.SenseRegulator(moduleID)
}

// QueueEvent implements machine.Machine.
func (v *VM) QueueEvent(e event.Event) {
	v.eventQueue = append(v.eventQueue, e)
}

// TriggerEvent implements machine.Machine.
func (v *VM) TriggerEvent(e event.Event) {
	entry, ok := v.eventLib.Lookup(e.EventID)
	if !ok {
		return
	}
	for _, dispatch := range entry.Dispatchers {
		dispatch(v, &e)
	}
}
