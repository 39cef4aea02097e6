// Package loader serializes and deserializes program.Program values to a
// small length-prefixed binary wire format, the way this codebase's ELF
// loader turns a binary file into in-memory segments — except here the
// "binary file" is this runtime's own format rather than a borrowed host
// object format, since a tag-addressed linear program has no natural ELF
// analogue.
package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/signalgp/program"
	"github.com/sarchlab/signalgp/tag"
)

// Magic identifies the wire format at the start of every stream.
const Magic uint32 = 0x53474730 // "SGG0"

var order = binary.BigEndian

// Save serializes prog to path.
func Save(path string, prog *program.Program) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("loader: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	if err := Write(w, prog); err != nil {
		return fmt.Errorf("loader: write %s: %w", path, err)
	}
	return w.Flush()
}

// Load deserializes a Program previously written by Save.
func Load(path string) (*program.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return prog, nil
}

// Write serializes prog to w as: magic, instruction count, then per
// instruction (opcode id, arg count, args, tag count, tags); each tag is
// (width in bits, byte count, packed bytes). Only tag.BitTag values are
// supported — Write returns an error if prog carries any other Tag
// implementation, since the wire format has no room for an open type tag.
func Write(w io.Writer, prog *program.Program) error {
	if err := binary.Write(w, order, Magic); err != nil {
		return err
	}
	size := prog.Size()
	if err := binary.Write(w, order, uint32(size)); err != nil {
		return err
	}
	for pos := 0; pos < size; pos++ {
		inst := prog.At(pos)
		if err := writeInstruction(w, inst); err != nil {
			return fmt.Errorf("instruction %d: %w", pos, err)
		}
	}
	return nil
}

func writeInstruction(w io.Writer, inst program.Instruction) error {
	if err := binary.Write(w, order, inst.OpcodeID); err != nil {
		return err
	}
	if err := binary.Write(w, order, uint32(len(inst.Args))); err != nil {
		return err
	}
	for _, a := range inst.Args {
		if err := binary.Write(w, order, int32(a)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, order, uint32(len(inst.Tags))); err != nil {
		return err
	}
	for _, t := range inst.Tags {
		bt, ok := t.(tag.BitTag)
		if !ok {
			return fmt.Errorf("unsupported tag type %T", t)
		}
		if err := binary.Write(w, order, uint32(bt.Width())); err != nil {
			return err
		}
		packed := bt.Bytes()
		if err := binary.Write(w, order, uint32(len(packed))); err != nil {
			return err
		}
		if _, err := w.Write(packed); err != nil {
			return err
		}
	}
	return nil
}

// Read deserializes a Program from r, the inverse of Write.
func Read(r io.Reader) (*program.Program, error) {
	var magic uint32
	if err := binary.Read(r, order, &magic); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad magic %#x, want %#x", magic, Magic)
	}
	var count uint32
	if err := binary.Read(r, order, &count); err != nil {
		return nil, err
	}
	insts := make([]program.Instruction, count)
	for i := range insts {
		inst, err := readInstruction(r)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		insts[i] = inst
	}
	return program.New(insts), nil
}

func readInstruction(r io.Reader) (program.Instruction, error) {
	var inst program.Instruction
	if err := binary.Read(r, order, &inst.OpcodeID); err != nil {
		return inst, err
	}

	var argCount uint32
	if err := binary.Read(r, order, &argCount); err != nil {
		return inst, err
	}
	inst.Args = make([]program.Arg, argCount)
	for i := range inst.Args {
		var a int32
		if err := binary.Read(r, order, &a); err != nil {
			return inst, err
		}
		inst.Args[i] = program.Arg(a)
	}

	var tagCount uint32
	if err := binary.Read(r, order, &tagCount); err != nil {
		return inst, err
	}
	inst.Tags = make([]tag.Tag, tagCount)
	for i := range inst.Tags {
		var width, byteLen uint32
		if err := binary.Read(r, order, &width); err != nil {
			return inst, err
		}
		if err := binary.Read(r, order, &byteLen); err != nil {
			return inst, err
		}
		packed := make([]byte, byteLen)
		if _, err := io.ReadFull(r, packed); err != nil {
			return inst, err
		}
		inst.Tags[i] = tag.NewBitTag(int(width), packed)
	}

	return inst, nil
}
