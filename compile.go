package forth

import "github.com/forth-vm/gothird/cell"

// opDefine implements the DEFINE primitive, hand-installed as ":" during
// bootstrap: set STATE to compile mode, read the word being defined, emit
// its header with opcode COMPILE, then append one code cell holding
// RUN — the same two-cell shape (header + one opcode-bearing code cell)
// every other dictionary entry has, so invoking the new word later behaves
// exactly like invoking a named primitive.
func opDefine(vm *VM) {
	vm.storeReg(RegSTATE, 1)
	name, ok := vm.getWord()
	if !ok {
		panic(cleanExit{})
	}
	vm.compileHeader(OpCompile, name)
	vm.compileCell(cell.Cell(OpRun))
}

// opImmediate implements the IMMEDIATE primitive. The word most recently
// defined by ":" currently looks like any other: a header whose
// MISC opcode field is COMPILE, followed by one code cell holding RUN.
// Folding that code cell's opcode back into MISC — and dropping the cell
// itself by rewinding DIC — makes the word run unconditionally whenever
// it's found, in either command or compile mode, since READ's
// command-mode-and-COMPILE special case no longer applies to it.
func opImmediate(vm *VM) {
	dic := vm.loadReg(RegDIC)
	misc := dic - 2
	old := vm.load(misc)
	vm.store(misc, (old &^ miscOpcodeMask) | cell.Cell(OpRun))
	vm.storeReg(RegDIC, misc+1)
}
