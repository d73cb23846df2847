package forth

import (
	"fmt"
	"io"

	"github.com/forth-vm/gothird/cell"
)

// WriteDump renders a human-readable snapshot of registers, both stacks,
// and the dictionary's compiled words to out, the debug-rendering sibling
// of image's binary codec (-dump CLI support and tests).
func (vm *VM) WriteDump(out io.Writer) error {
	d := &dumper{vm: vm, out: out}
	d.dump()
	return d.err
}

type dumper struct {
	vm  *VM
	out io.Writer
	err error

	words []cell.Cell // MISC-cell addresses, most recent (PWD) first
}

func (d *dumper) printf(format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.out, format, args...)
}

func (d *dumper) dump() {
	vm := d.vm
	d.printf("# VM dump\n")
	d.printf("  I=%d f=%d S=%d\n", vm.I, vm.f, vm.S)
	d.printf("  DIC=%d RSTK=%d STATE=%d BASE=%d PWD=%d\n",
		vm.loadReg(RegDIC), vm.loadReg(RegRSTK), vm.loadReg(RegSTATE),
		vm.loadReg(RegBASE), vm.loadReg(RegPWD))

	d.scanWords()
	d.dumpStack()
	d.dumpReturnStack()
	d.dumpWords()
}

func (d *dumper) scanWords() {
	vm := d.vm
	for w := vm.loadReg(RegPWD); w != 0; {
		d.words = append(d.words, w)
		w = vm.load(w - 1)
	}
}

func (d *dumper) dumpStack() {
	vm := d.vm
	base, _ := vm.stackBounds()
	d.printf("  stack:")
	for a := base + 1; a <= vm.S; a++ {
		d.printf(" %d", vm.load(a))
	}
	d.printf(" %d(top)\n", vm.f)
}

func (d *dumper) dumpReturnStack() {
	vm := d.vm
	n := vm.mem.Len()
	ss := vm.loadReg(RegStackSize)
	base := returnStackBase(n, ss)
	r := vm.loadReg(RegRSTK)
	d.printf("  rstack:")
	for a := base; a <= r; a++ {
		d.printf(" %d", vm.load(a))
	}
	d.printf("\n")
}

func (d *dumper) dumpWords() {
	d.printf("  dict:\n")
	for i := len(d.words) - 1; i >= 0; i-- {
		d.dumpWord(d.words[i])
	}
}

// wordName reads the NUL-padded name bytes belonging to the header at
// misc (the MISC-cell address every entry in d.words points at).
func (d *dumper) wordName(misc cell.Cell) string {
	l := miscNameLength(d.vm.load(misc))
	buf, _ := d.vm.mem.ReadBytes((misc-l-1)*cell.Width, int(l)*cell.Width)
	return cstr(buf)
}

func cstr(buf []byte) string {
	i := 0
	for ; i < len(buf) && buf[i] != 0; i++ {
	}
	return string(buf[:i])
}

// dumpWord prints one dictionary entry's name and, for colon words, a
// disassembly of its body up to the next word's name bytes or DIC,
// whichever comes first. An ordinary colon word's body follows its RUN
// code cell; an immediate word's follows MISC directly, since opImmediate
// folded RUN into MISC and dropped that code cell. Named primitives and
// the hand-compiled ":"/"immediate" have no body to walk.
func (d *dumper) dumpWord(misc cell.Cell) {
	vm := d.vm
	op := miscOpcode(vm.load(misc))
	d.printf("    @%d %s", misc, d.wordName(misc))

	addr := misc + 1
	switch {
	case op == OpRun:
	case op == OpCompile && Opcode(vm.load(addr)) == OpRun:
		addr++
	case op == OpCompile:
		d.printf(" (primitive, opcode=%s)\n", Opcode(vm.load(addr)))
		return
	default:
		d.printf(" (immediate, opcode=%s)\n", op)
		return
	}
	d.printf(":")
	end := d.bodyEnd(misc)
	for addr < end {
		next := d.disasm(addr)
		if next <= addr {
			break
		}
		addr = next
	}
	d.printf("\n")
}

// bodyEnd finds the start of the next dictionary entry's name bytes in
// PWD order, or DIC if misc is the most recently defined word.
func (d *dumper) bodyEnd(misc cell.Cell) cell.Cell {
	best := d.vm.loadReg(RegDIC)
	for _, w := range d.words {
		l := miscNameLength(d.vm.load(w))
		start := w - l - 1
		if start > misc && start < best {
			best = start
		}
	}
	return best
}

// disasm prints the word one compiled body cell refers to and returns the
// address just past it. A body cell always holds the address of a code
// cell to dispatch at, never a raw opcode value, except that pushOpcodeCell
// is a bare reserved cell with no dictionary header of its own: a
// reference to it is always followed by an inline literal operand.
func (d *dumper) disasm(addr cell.Cell) cell.Cell {
	vm := d.vm
	target := vm.load(addr)
	addr++
	if target == pushOpcodeCell {
		d.printf(" push(%d)", vm.load(addr))
		return addr + 1
	}
	if w := d.wordAt(target); w != 0 {
		d.printf(" %s", d.wordName(w))
		return addr
	}
	op := Opcode(vm.load(target) & 0x7F)
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		d.printf(" <%s>", op)
		return addr
	}
	d.printf(" %d", target)
	return addr
}

// wordAt returns the dictionary entry whose code cell (misc+1) equals
// addr, the shape every COMPILE-wrapped reference in a compiled body
// points at.
func (d *dumper) wordAt(addr cell.Cell) cell.Cell {
	for _, w := range d.words {
		if w+1 == addr {
			return w
		}
	}
	return 0
}
