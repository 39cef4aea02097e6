// Package program provides the linear-program value types the rest of the
// runtime operates on: instructions, their arguments and tags, and the
// ordered, mutable-only-by-replacement Program sequence.
package program

import "github.com/sarchlab/signalgp/tag"

// Arg is the small-integer argument type instructions carry. Its meaning
// (a register index, an immediate, a jump distance) is entirely up to the
// host instruction library — the runtime treats it as opaque.
type Arg int32

// Instruction is a value object: (opcode id, ordered args, ordered tags).
// Instructions are copied freely and never aliased.
type Instruction struct {
	OpcodeID uint32
	Args     []Arg
	Tags     []tag.Tag
}

// Equal reports whether two instructions are elementwise equal in all three
// components.
func (i Instruction) Equal(o Instruction) bool {
	if i.OpcodeID != o.OpcodeID {
		return false
	}
	if len(i.Args) != len(o.Args) {
		return false
	}
	for k := range i.Args {
		if i.Args[k] != o.Args[k] {
			return false
		}
	}
	if len(i.Tags) != len(o.Tags) {
		return false
	}
	for k := range i.Tags {
		if !i.Tags[k].Equal(o.Tags[k]) {
			return false
		}
	}
	return true
}

// Less gives instructions a lexicographic order over (opcode, args, tags),
// used only for deterministic sorting in tests and diagnostics.
func (i Instruction) Less(o Instruction) bool {
	if i.OpcodeID != o.OpcodeID {
		return i.OpcodeID < o.OpcodeID
	}
	n := len(i.Args)
	if len(o.Args) < n {
		n = len(o.Args)
	}
	for k := 0; k < n; k++ {
		if i.Args[k] != o.Args[k] {
			return i.Args[k] < o.Args[k]
		}
	}
	if len(i.Args) != len(o.Args) {
		return len(i.Args) < len(o.Args)
	}
	m := len(i.Tags)
	if len(o.Tags) < m {
		m = len(o.Tags)
	}
	for k := 0; k < m; k++ {
		if !i.Tags[k].Equal(o.Tags[k]) {
			return i.Tags[k].Less(o.Tags[k])
		}
	}
	return len(i.Tags) < len(o.Tags)
}

// Pos is a position within a Program.
type Pos = int

// Program is an ordered sequence of instructions, indexable by position.
// It has value semantics for equality/ordering but is mutated only in bulk,
// through Set or Push — never through aliasing of its backing slice.
type Program struct {
	insts []Instruction
}

// New builds a Program from a slice of instructions, copying it so later
// mutation of the caller's slice cannot alias the Program.
func New(insts []Instruction) *Program {
	p := &Program{insts: make([]Instruction, len(insts))}
	copy(p.insts, insts)
	return p
}

// Size returns the number of instructions.
func (p *Program) Size() int {
	if p == nil {
		return 0
	}
	return len(p.insts)
}

// At returns the instruction at pos. Panics if pos is out of range — callers
// (the flow engine) are required to keep ip within module membership, which
// is always in range by construction.
func (p *Program) At(pos Pos) Instruction {
	return p.insts[pos]
}

// Set bulk-replaces the program contents.
func (p *Program) Set(insts []Instruction) {
	p.insts = make([]Instruction, len(insts))
	copy(p.insts, insts)
}

// Push appends a single instruction.
func (p *Program) Push(i Instruction) {
	p.insts = append(p.insts, i)
}

// Equal reports whether two programs contain the same instructions in the
// same order.
func (p *Program) Equal(o *Program) bool {
	if p.Size() != o.Size() {
		return false
	}
	for i := range p.insts {
		if !p.insts[i].Equal(o.insts[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep-enough copy (instructions are value types; their Args
// and Tags slices are copied so mutating the clone never aliases the
// original).
func (p *Program) Clone() *Program {
	out := &Program{insts: make([]Instruction, len(p.insts))}
	for i, inst := range p.insts {
		args := make([]Arg, len(inst.Args))
		copy(args, inst.Args)
		tags := make([]tag.Tag, len(inst.Tags))
		copy(tags, inst.Tags)
		out.insts[i] = Instruction{OpcodeID: inst.OpcodeID, Args: args, Tags: tags}
	}
	return out
}
