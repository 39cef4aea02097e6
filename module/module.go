// Package module provides the Module data type and the one-pass compiler
// that derives modules from a linear program.
package module

import (
	"github.com/sarchlab/signalgp/instlib"
	"github.com/sarchlab/signalgp/program"
	"github.com/sarchlab/signalgp/tag"
)

// Module is a contiguous, possibly wrapped, span of instructions named by a
// tag. Begin is the position of the first instruction after the defining
// instruction; End is the position of the last member. For the final module
// in a wrap-around program, End < Begin, and Members may straddle the wrap.
type Module struct {
	ID      uint32
	Begin   int
	End     int
	Tag     tag.Tag
	Members map[int]struct{}
}

// Contains reports whether pos is a member of the module.
func (m Module) Contains(pos int) bool {
	_, ok := m.Members[pos]
	return ok
}

// Wraps reports whether this is a wrap-around module (End < Begin).
func (m Module) Wraps() bool {
	return m.End < m.Begin
}

// Diagnostic is a non-fatal compile-time observation: ill-formed-program
// conditions are recorded here rather than raised as errors.
type Diagnostic struct {
	Position int
	Message  string
}

// Compile performs a one-pass linear scan over prog, producing a module
// list (and any diagnostics). lib supplies the
// MODULE_DEF property used to recognize module-defining instructions, and
// defaultTag names the synthetic module produced when prog has none.
func Compile(prog *program.Program, lib *instlib.Library, defaultTag tag.Tag) ([]Module, []Diagnostic) {
	size := prog.Size()
	var modules []Module
	var diags []Diagnostic
	dangling := map[int]struct{}{}

	var current *Module // module currently being built, nil until the first MODULE_DEF
	firstDefPos := -1   // position of module 0's defining instruction

	for pos := 0; pos < size; pos++ {
		inst := prog.At(pos)
		entry, known := lib.Lookup(inst.OpcodeID)
		isDef := known && entry.Properties.Has(instlib.ModuleDef)

		if isDef {
			if current != nil {
				current.End = prevEnd(pos)
				modules = append(modules, *current)
			}
			if len(inst.Tags) == 0 {
				diags = append(diags, Diagnostic{Position: pos, Message: "MODULE_DEF instruction has no tag"})
			}
			var mtag tag.Tag
			if len(inst.Tags) > 0 {
				mtag = inst.Tags[0]
			} else {
				mtag = defaultTag
			}
			if len(modules) == 0 {
				firstDefPos = pos
			}
			current = &Module{
				ID:      uint32(len(modules)),
				Begin:   (pos + 1) % maxInt(size, 1),
				Tag:     mtag,
				Members: map[int]struct{}{},
			}
			continue
		}

		if current != nil {
			current.Members[pos] = struct{}{}
		} else {
			dangling[pos] = struct{}{}
		}
	}

	if current != nil {
		modules = append(modules, *current)
		final := &modules[len(modules)-1]
		// The final module wraps back to module 0's begin, adopting every
		// dangling instruction that preceded the first MODULE_DEF. Its end
		// is therefore the last dangling position (module 0's defining
		// position minus one), or size as a non-wrap sentinel when there
		// was no dangling prefix at all (MODULE_DEF was the first
		// instruction, firstDefPos == 0).
		if firstDefPos > 0 {
			final.End = firstDefPos - 1
		} else {
			final.End = size
		}
		for pos := range dangling {
			final.Members[pos] = struct{}{}
		}
	}

	if len(modules) == 0 {
		modules = []Module{defaultModule(size, defaultTag)}
	}

	return modules, diags
}

func defaultModule(size int, defaultTag tag.Tag) Module {
	members := make(map[int]struct{}, size)
	for i := 0; i < size; i++ {
		members[i] = struct{}{}
	}
	return Module{ID: 0, Begin: 0, End: size, Tag: defaultTag, Members: members}
}

func prevEnd(pos int) int {
	if pos == 0 {
		return 0
	}
	return pos - 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
