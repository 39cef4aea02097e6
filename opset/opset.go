// Package opset provides a small demonstration instruction set, registered
// against an instlib.Library, exercising all four flow kinds (basic block,
// while-loop, routine, call) and tag-based module dispatch. It plays the
// role this codebase's emu package plays for the ARM64 instruction set: a
// concrete catalog of executors, built on the register-file arithmetic in
// package memory, written against the machine.Machine seam rather than
// against a concrete VM.
package opset

import (
	"github.com/sarchlab/signalgp/flow"
	"github.com/sarchlab/signalgp/instlib"
	"github.com/sarchlab/signalgp/machine"
	"github.com/sarchlab/signalgp/memory"
	"github.com/sarchlab/signalgp/program"
)

// Opcodes holds the opcode ids Register assigns, for callers building
// programs against this set.
type Opcodes struct {
	ModuleDef uint32 // Args: none. Tags: the module's tag.

	Nop uint32 // Args: none.
	Set uint32 // Args: [reg, value].
	Inc uint32 // Args: [reg].
	Dec uint32 // Args: [reg].

	IfNonZero    uint32 // Args: [reg]. BlockOpen (BASIC).
	WhileNonZero uint32 // Args: [reg]. BlockOpen (WHILE).
	BlockClose   uint32 // Args: none. BlockClose.
	Break        uint32 // Args: none.

	CallTag         uint32 // Tags: [target]. Pushes a call frame.
	CallTagCircular uint32 // Tags: [target]. Pushes a circular call frame.
	RoutineTag      uint32 // Tags: [target]. Opens a same-frame ROUTINE flow.
	SpawnTag        uint32 // Args: [priority_x1000]. Tags: [target].
}

// regOf reads inst.Args[i] as a register index, or -1 if absent (callers
// that index with -1 through RegisterFile.Read/Write get the always-zero
// register, which is the safe default for a malformed program).
func regOf(inst *program.Instruction, i int) int {
	if i >= len(inst.Args) {
		return -1
	}
	return int(inst.Args[i])
}

func regs(m machine.Machine) *memory.RegisterFile {
	f, ok := m.Memory().(*memory.RegisterFile)
	if !ok {
		return nil
	}
	return f
}

// Register installs the full instruction catalog into lib and returns their
// assigned opcode ids.
func Register(lib *instlib.Library) Opcodes {
	var ops Opcodes

	ops.ModuleDef = lib.Register(instlib.Entry{
		Name:        "module_def",
		Properties:  instlib.ModuleDef,
		Description: "Defines a module beginning at the next instruction, named by the instruction's first tag.",
	})

	ops.Nop = lib.Register(instlib.Entry{
		Name:     "nop",
		Executor: func(m machine.Machine, inst *program.Instruction) {},
	})

	ops.Set = lib.Register(instlib.Entry{
		Name: "set",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			f := regs(m)
			if f == nil || len(inst.Args) < 2 {
				return
			}
			f.Write(regOf(inst, 0), int64(inst.Args[1]))
		},
	})

	ops.Inc = lib.Register(instlib.Entry{
		Name: "inc",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			f := regs(m)
			if f == nil {
				return
			}
			r := regOf(inst, 0)
			f.Write(r, f.Read(r)+1)
		},
	})

	ops.Dec = lib.Register(instlib.Entry{
		Name: "dec",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			f := regs(m)
			if f == nil {
				return
			}
			r := regOf(inst, 0)
			f.Write(r, f.Read(r)-1)
		},
	})

	ops.IfNonZero = lib.Register(instlib.Entry{
		Name:       "if_nonzero",
		Properties: instlib.BlockOpen,
		Executor: func(m machine.Machine, inst *program.Instruction) {
			f := regs(m)
			if f != nil && f.Read(regOf(inst, 0)) != 0 {
				m.OpenBlock(flow.Basic)
			} else {
				m.SkipBlock()
			}
		},
	})

	ops.WhileNonZero = lib.Register(instlib.Entry{
		Name:       "while_nonzero",
		Properties: instlib.BlockOpen,
		Executor: func(m machine.Machine, inst *program.Instruction) {
			f := regs(m)
			if f != nil && f.Read(regOf(inst, 0)) != 0 {
				m.OpenBlock(flow.While)
			} else {
				m.SkipBlock()
			}
		},
	})

	ops.BlockClose = lib.Register(instlib.Entry{
		Name:       "block_close",
		Properties: instlib.BlockClose,
		Executor: func(m machine.Machine, inst *program.Instruction) {
			m.CloseFlow()
		},
	})

	ops.Break = lib.Register(instlib.Entry{
		Name: "break",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			m.BreakFlow()
		},
	})

	ops.CallTag = lib.Register(instlib.Entry{
		Name: "call_tag",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			callByTag(m, inst, false)
		},
	})

	ops.CallTagCircular = lib.Register(instlib.Entry{
		Name: "call_tag_circular",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			callByTag(m, inst, true)
		},
	})

	ops.RoutineTag = lib.Register(instlib.Entry{
		Name: "routine_tag",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			if len(inst.Tags) == 0 {
				return
			}
			matches := m.FindModuleMatches(inst.Tags[0], 1)
			if len(matches) == 0 {
				return
			}
			m.CallRoutine(matches[0])
		},
	})

	ops.SpawnTag = lib.Register(instlib.Entry{
		Name: "spawn_tag",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			if len(inst.Tags) == 0 {
				return
			}
			priority := 1.0
			if len(inst.Args) > 0 {
				priority = float64(inst.Args[0]) / 1000.0
			}
			m.SpawnByTag(inst.Tags[0], 1, priority)
		},
	})

	return ops
}

func callByTag(m machine.Machine, inst *program.Instruction, circular bool) {
	if len(inst.Tags) == 0 {
		return
	}
	matches := m.FindModuleMatches(inst.Tags[0], 1)
	if len(matches) == 0 {
		return
	}
	m.CallModule(matches[0], circular)
}
