package opset_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/signalgp/config"
	"github.com/sarchlab/signalgp/eventlib"
	"github.com/sarchlab/signalgp/instlib"
	"github.com/sarchlab/signalgp/machine"
	"github.com/sarchlab/signalgp/memory"
	"github.com/sarchlab/signalgp/opset"
	"github.com/sarchlab/signalgp/program"
	"github.com/sarchlab/signalgp/tag"
	"github.com/sarchlab/signalgp/vm"
)

func TestOpset(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Opset Suite")
}

func bt(b byte) tag.Tag { return tag.NewBitTag(8, []byte{b}) }

// newHarness wires a fresh instLib/eventLib/model plus a "store_global"
// instruction (test-only) that snapshots register 0 into the model's
// globals bank, so a value can be observed after the thread that produced
// it has died and its frame has been reclaimed.
func newHarness() (*instlib.Library, *eventlib.Library, *memory.Model, opset.Opcodes, uint32) {
	instLib := instlib.NewLibrary()
	ops := opset.Register(instLib)
	model := memory.NewModel()
	storeGlobal := instLib.Register(instlib.Entry{
		Name: "store_global",
		Executor: func(m machine.Machine, inst *program.Instruction) {
			f, ok := m.Memory().(*memory.RegisterFile)
			if !ok {
				return
			}
			model.Globals[0] = f.Read(0)
		},
	})
	return instLib, eventlib.NewLibrary(), model, ops, storeGlobal
}

var _ = Describe("opset", func() {
	It("sets and increments a register", func() {
		instLib, eventLib, model, ops, storeGlobal := newHarness()
		v := vm.New(config.Default(), instLib, eventLib, model, bt(0))
		prog := program.New([]program.Instruction{
			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(1)}},
			{OpcodeID: ops.Set, Args: []program.Arg{0, 10}},
			{OpcodeID: ops.Inc, Args: []program.Arg{0}},
			{OpcodeID: ops.Inc, Args: []program.Arg{0}},
			{OpcodeID: storeGlobal},
		})
		v.SetProgram(prog)
		v.SpawnByID(0, 1.0)
		v.Run(6)

		Expect(model.Globals[0]).To(Equal(int64(12)))
	})

	It("runs a while loop down to zero", func() {
		instLib, eventLib, model, ops, storeGlobal := newHarness()
		v := vm.New(config.Default(), instLib, eventLib, model, bt(0))
		prog := program.New([]program.Instruction{
			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(1)}},
			{OpcodeID: ops.Set, Args: []program.Arg{0, 3}},
			{OpcodeID: ops.WhileNonZero, Args: []program.Arg{0}},
			{OpcodeID: ops.Dec, Args: []program.Arg{0}},
			{OpcodeID: ops.BlockClose},
			{OpcodeID: storeGlobal},
		})
		v.SetProgram(prog)
		v.SpawnByID(0, 1.0)
		v.Run(20)

		Expect(model.Globals[0]).To(Equal(int64(0)))
	})

	It("skips an if-block whose register is zero", func() {
		instLib, eventLib, model, ops, storeGlobal := newHarness()
		v := vm.New(config.Default(), instLib, eventLib, model, bt(0))
		prog := program.New([]program.Instruction{
			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(1)}},
			{OpcodeID: ops.Set, Args: []program.Arg{1, 0}},
			{OpcodeID: ops.IfNonZero, Args: []program.Arg{1}},
			{OpcodeID: ops.Set, Args: []program.Arg{0, 99}},
			{OpcodeID: ops.BlockClose},
			{OpcodeID: storeGlobal},
		})
		v.SetProgram(prog)
		v.SpawnByID(0, 1.0)
		v.Run(10)

		Expect(model.Globals[0]).To(Equal(int64(0)))
	})

	It("enters an if-block whose register is non-zero", func() {
		instLib, eventLib, model, ops, storeGlobal := newHarness()
		v := vm.New(config.Default(), instLib, eventLib, model, bt(0))
		prog := program.New([]program.Instruction{
			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(1)}},
			{OpcodeID: ops.Set, Args: []program.Arg{1, 1}},
			{OpcodeID: ops.IfNonZero, Args: []program.Arg{1}},
			{OpcodeID: ops.Set, Args: []program.Arg{0, 99}},
			{OpcodeID: ops.BlockClose},
			{OpcodeID: storeGlobal},
		})
		v.SetProgram(prog)
		v.SpawnByID(0, 1.0)
		v.Run(10)

		Expect(model.Globals[0]).To(Equal(int64(99)))
	})

	It("calls a module resolved by tag and returns register 0 as a result", func() {
		instLib, eventLib, model, ops, storeGlobal := newHarness()
		v := vm.New(config.Default(), instLib, eventLib, model, bt(0))
		prog := program.New([]program.Instruction{
			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(1)}},
			{OpcodeID: ops.CallTag, Tags: []tag.Tag{bt(9)}},
			{OpcodeID: storeGlobal},

			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(9)}},
			{OpcodeID: ops.Set, Args: []program.Arg{0, 7}},
		})
		v.SetProgram(prog)
		v.SpawnByID(0, 1.0)
		v.Run(10)

		Expect(model.Globals[0]).To(Equal(int64(7)))
	})

	It("runs a routine in the caller's own frame", func() {
		instLib, eventLib, model, ops, storeGlobal := newHarness()
		v := vm.New(config.Default(), instLib, eventLib, model, bt(0))
		prog := program.New([]program.Instruction{
			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(1)}},
			{OpcodeID: ops.RoutineTag, Tags: []tag.Tag{bt(9)}},
			{OpcodeID: storeGlobal},

			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(9)}},
			{OpcodeID: ops.Set, Args: []program.Arg{0, 11}},
		})
		v.SetProgram(prog)
		v.SpawnByID(0, 1.0)
		v.Run(10)

		Expect(model.Globals[0]).To(Equal(int64(11)))
	})

	It("spawns a new thread by tag", func() {
		instLib, eventLib, model, ops, storeGlobal := newHarness()
		v := vm.New(config.Default(), instLib, eventLib, model, bt(0))
		prog := program.New([]program.Instruction{
			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(1)}},
			{OpcodeID: ops.SpawnTag, Args: []program.Arg{1000}, Tags: []tag.Tag{bt(9)}},

			{OpcodeID: ops.ModuleDef, Tags: []tag.Tag{bt(9)}},
			{OpcodeID: ops.Nop},
			{OpcodeID: ops.Set, Args: []program.Arg{0, 5}},
			{OpcodeID: storeGlobal},
		})
		v.SetProgram(prog)
		v.SpawnByID(0, 1.0)
		v.Run(5)

		Expect(v.Modules()).To(HaveLen(2))
		// only the spawned thread runs module 9, which stores 5
		Expect(model.Globals[0]).To(Equal(int64(5)))
	})
})
