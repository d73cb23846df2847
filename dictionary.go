package forth

import (
	"strings"

	"github.com/forth-vm/gothird/cell"
)

const (
	miscOpcodeMask  cell.Cell = 0x7F
	miscHiddenBit   cell.Cell = 1 << 7
	miscLengthShift           = 8
)

// miscCell packs a header's MISC bitfield: bits 0-6 opcode, bit 7 hidden,
// bits 8-15 name length in cells.
func miscCell(op Opcode, length cell.Cell, hidden bool) cell.Cell {
	v := cell.Cell(op)&miscOpcodeMask | length<<miscLengthShift
	if hidden {
		v |= miscHiddenBit
	}
	return v
}

func miscOpcode(misc cell.Cell) Opcode    { return Opcode(misc & miscOpcodeMask) }
func miscHidden(misc cell.Cell) bool      { return misc&miscHiddenBit != 0 }
func miscNameLength(misc cell.Cell) cell.Cell { return misc >> miscLengthShift }

// nameCells returns how many cells a NUL-terminated, cell-aligned copy of
// name occupies.
func nameCells(name string) cell.Cell {
	n := len(name) + 1 // NUL terminator
	return (cell.Cell(n) + cell.Width - 1) / cell.Width
}

// compileHeader appends a new dictionary entry for name with the given
// opcode field: name bytes, then the PWD link, then MISC. It returns the
// offset of the new MISC cell, which callers append the code field after.
func (vm *VM) compileHeader(op Opcode, name string) cell.Cell {
	dic := vm.loadReg(RegDIC)
	l := nameCells(name)
	vm.checkDic(dic + l + 1)
	if !vm.mem.WriteBytes(dic*cell.Width, append([]byte(name), 0)) {
		vm.halt(boundsError(dic))
	}
	dic += l
	pwd := vm.loadReg(RegPWD)
	vm.store(dic, pwd)
	dic++
	misc := dic
	vm.store(dic, miscCell(op, l, false))
	dic++
	vm.storeReg(RegDIC, dic)
	vm.storeReg(RegPWD, misc)
	return misc
}

// compileCell appends a single raw cell to the dictionary at DIC, the
// primitive COMMA performs the Forth-visible version of this.
func (vm *VM) compileCell(v cell.Cell) {
	dic := vm.loadReg(RegDIC)
	vm.checkDic(dic)
	vm.store(dic, v)
	vm.storeReg(RegDIC, dic+1)
}

// checkDic halts if a dictionary write would reach addr at or past the
// variable stack's base: the dictionary may fill every cell up to
// N - 2*SS - 1 but never grow into the stack regions.
func (vm *VM) checkDic(addr cell.Cell) {
	if addr >= dataStackBase(vm.mem.Len(), vm.loadReg(RegStackSize)) {
		vm.halt(boundsError(addr))
	}
}

// find walks the dictionary from PWD toward zero, comparing names
// case-insensitively and skipping hidden headers. It returns the MISC-cell
// offset of the match, or 0.
func (vm *VM) find(name string) cell.Cell {
	for w := vm.loadReg(RegPWD); w != 0; {
		misc := vm.load(w)
		l := miscNameLength(misc)
		if !miscHidden(misc) {
			h := w - l - 1
			if have, ok := vm.mem.ReadBytes(h*cell.Width, int(l)*cell.Width); ok {
				if nameEqual(have, name) {
					return w
				}
			}
		}
		w = vm.load(w - 1)
	}
	return 0
}

// nameEqual compares a NUL-padded header name buffer against a plain Forth
// token, case-insensitively.
func nameEqual(buf []byte, name string) bool {
	i := 0
	for ; i < len(buf) && buf[i] != 0; i++ {
	}
	return strings.EqualFold(string(buf[:i]), name)
}
