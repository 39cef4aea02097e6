// Package instlib provides the instruction-library registry: an append-only
// mapping from interned names to opcode ids, each bound to an executor
// closure and a small closed set of boolean properties.
//
// The catalog of concrete instruction semantics is a host concern; this
// package only owns the registry and the Machine contract executors are
// written against (package machine), not any particular opcode's behavior.
package instlib

import (
	"fmt"

	"github.com/sarchlab/signalgp/machine"
	"github.com/sarchlab/signalgp/program"
)

// Property is one of the closed set of boolean tags an instruction can
// carry. Represented as a bitmask so an instruction can carry several.
type Property uint8

const (
	// ModuleDef marks an instruction as a module-defining instruction: the
	// module compiler opens a new module immediately after it.
	ModuleDef Property = 1 << iota
	// BlockOpen marks an instruction that opens a nested flow (increments
	// block-boundary scan depth).
	BlockOpen
	// BlockClose marks an instruction that closes the innermost open flow
	// (decrements block-boundary scan depth).
	BlockClose
)

// Has reports whether p includes other.
func (p Property) Has(other Property) bool {
	return p&other == other
}

// Executor is the per-opcode behavior: it may read or mutate any VM state
// reachable through m, including the flow stack of the currently executing
// thread, except the slot identity of that thread.
type Executor func(m machine.Machine, inst *program.Instruction)

// Entry is one instruction-library record.
type Entry struct {
	Name        string
	Executor    Executor
	Properties  Property
	Description string
}

// Library is an append-only opcode registry. The zero value is ready to use.
type Library struct {
	entries []Entry
	byName  map[string]uint32
}

// NewLibrary constructs an empty Library.
func NewLibrary() *Library {
	return &Library{byName: map[string]uint32{}}
}

// Register adds entry and returns its opcode id. Panics if the name is
// already registered — a duplicate name is a programmer error, not a
// runtime condition.
func (l *Library) Register(entry Entry) uint32 {
	if l.byName == nil {
		l.byName = map[string]uint32{}
	}
	if _, exists := l.byName[entry.Name]; exists {
		panic(fmt.Sprintf("instlib: duplicate instruction name %q", entry.Name))
	}
	id := uint32(len(l.entries))
	l.entries = append(l.entries, entry)
	l.byName[entry.Name] = id
	return id
}

// Lookup returns the entry for opcodeID and whether it exists.
func (l *Library) Lookup(opcodeID uint32) (Entry, bool) {
	if int(opcodeID) >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[opcodeID], true
}

// LookupByName returns the opcode id registered under name.
func (l *Library) LookupByName(name string) (uint32, bool) {
	id, ok := l.byName[name]
	return id, ok
}

// Len returns the number of registered entries.
func (l *Library) Len() int {
	return len(l.entries)
}
