package forth

import (
	"github.com/forth-vm/gothird/cell"
	"github.com/forth-vm/gothird/internal/ioreader"
)

// setStringInput switches the reader to string mode: SOURCE_ID<-1,
// SIN<-s, SIDX<-0, SLEN<-len(s)+1. The trailing +1 accounts for the
// sentinel byte past the end of s that getChar's bounds check treats as
// present-but-unreadable, matching get_word's "end of input" signal once
// the real bytes are exhausted.
func (vm *VM) setStringInput(s string) {
	vm.storeReg(RegSourceID, sourceString)
	vm.sin = s
	// reuse SIN's handle slot across evals rather than minting a fresh
	// handle per input string
	if h := vm.loadReg(RegSIN); h != 0 {
		vm.handles[h] = s
	} else {
		vm.storeReg(RegSIN, vm.handle(s))
	}
	vm.storeReg(RegSIDX, 0)
	vm.storeReg(RegSLEN, cell.Cell(len(s))+1)
}

// setFileInput implements set_file_input: SOURCE_ID<-0, FIN<-f. FIN's
// register value is a host-visible handle only; get_char dispatches
// through vm.in directly.
func (vm *VM) setFileInput(in *ioreader.Input) {
	vm.storeReg(RegSourceID, sourceFile)
	vm.storeReg(RegFIN, vm.handle(in))
	vm.in = in
}

// evalString is set_string_input followed by run: the shape every
// bootstrap stage and every host Eval call uses.
func (vm *VM) evalString(s string) error {
	vm.setStringInput(s)
	return vm.Run()
}
