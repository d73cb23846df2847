package forth

import (
	"fmt"

	"github.com/forth-vm/gothird/cell"
)

// bootstrap brings a zeroed core up in eight steps: it must leave the
// instance able to evaluate the prelude, and nothing more — everything a
// user-visible word needs beyond that point is defined in Forth by
// prelude.go, not hand-compiled here.
func (vm *VM) bootstrap(now cell.Cell) error {
	return panicToError(func() {
		vm.bootstrapRegisters(now)
		vm.bootstrapDriver()
		vm.bootstrapDefineAndImmediate()
		vm.bootstrapPrimitiveTable()
		vm.bootstrapSemicolon()
		vm.mustEval(vm.registerConstantsSource())
		vm.mustEval(preludeSource)
		vm.mustEval(vm.coreConstantsSource())
	})
}

// panicToError runs f and turns a vmHaltError panic into a returned error;
// bootstrap never sees a cleanExit since it never reads from a host input
// source, only vm.evalString's own strings.
func panicToError(f func()) (err error) {
	defer func() {
		if e := recover(); e != nil {
			if he, ok := e.(vmHaltError); ok {
				err = he
				return
			}
			panic(e)
		}
	}()
	f()
	return nil
}

// mustEval runs src through the normal dispatch loop (the same path Eval
// uses later) and panics on any error — a failure while compiling the
// prelude is a programming error, not a recoverable runtime condition.
func (vm *VM) mustEval(src string) {
	if err := vm.evalString(src); err != nil {
		vm.halt(err)
	}
}

// bootstrapRegisters is step 1: set every register whose default is not
// zero. It does not clear memory; cell.New hands it an already zeroed core.
func (vm *VM) bootstrapRegisters(now cell.Cell) {
	n := vm.mem.Len()
	ss := stackSize(n)

	vm.store(pushOpcodeCell, cell.Cell(OpPush))

	// The memory is freshly zeroed, so registers defaulting to zero need no
	// store; ARGC/ARGV and FOUT may already hold values written by options
	// applied before bootstrap runs and must not be clobbered here.
	vm.storeReg(RegDIC, DictionaryStart)
	vm.storeReg(RegRSTK, returnStackBase(n, ss))
	vm.storeReg(RegBASE, 10)
	vm.storeReg(RegSourceID, sourceFile)
	vm.storeReg(RegStartAddr, vm.handle(vm.mem))
	vm.storeReg(RegStackSize, ss)
	vm.storeReg(RegStartTime, now)

	vm.store(stackPtrCell, dataStackBase(n, ss)-1)
	vm.f = 0
	vm.S = dataStackBase(n, ss) - 1
	vm.I = 0
}

// bootstrapDriver is step 2: the three-cell self-referential driver
// program. Cells DIC, DIC+1, DIC+2 hold raw opcodes (TAIL, READ, RUN); DIC+3,
// +4, +5 hold address-values pointing back at DIC+1, DIC, and DIC+2
// respectively, so the outer dispatch loop tail-recurses forever:
// each pass reads one word, then tail-calls back into the same three cells.
func (vm *VM) bootstrapDriver() {
	dic := vm.loadReg(RegDIC)
	t := dic
	w := dic + 1
	run := dic + 2

	vm.store(t, cell.Cell(OpTail))
	vm.store(w, cell.Cell(OpRead))
	vm.store(run, cell.Cell(OpRun))

	instruction := dic + 3
	vm.store(dic+3, w)
	vm.store(dic+4, t)
	vm.store(dic+5, instruction-1)

	vm.storeReg(RegDIC, dic+6)
	vm.storeReg(RegInstruction, instruction)
}

// bootstrapDefineAndImmediate is step 3: hand-compile ":" and "immediate"
// themselves, since nothing can define them in Forth before they exist.
// Each gets a bare one-cell header — opcode IS the primitive, there is no
// separate RUN-wrapped code cell the way ordinary colon words get, because
// these two are never COMPILE-wrapped: they must run the instant READ finds
// them, in either mode.
func (vm *VM) bootstrapDefineAndImmediate() {
	vm.compileHeader(OpDefine, ":")
	vm.compileHeader(OpImmediate, "immediate")
}

// bootstrapPrimitiveTable is step 4: install every entry of namedPrimitives
// as a COMPILE-wrapped word (header opcode COMPILE, one code cell holding
// the raw primitive opcode) — the standard two-cell shape every ordinary
// dictionary word has.
func (vm *VM) bootstrapPrimitiveTable() {
	for _, p := range namedPrimitives {
		vm.compileHeader(OpCompile, p.Name)
		vm.compileCell(cell.Cell(p.Op))
	}
}

// bootstrapSemicolon is step 5: the minimum evaluation needed for a sane
// environment — a value-returning state word, then ";" itself. "'" here
// is the raw QUOTE primitive installed by step 4, so "' exit" compiles a
// reference that, when ;'s body runs, pushes exit's
// code-cell address as a literal rather than dispatching it. "immediate"
// folds ;'s own opcode to RUN before its body finishes compiling, so the
// trailing ";" token is not circular: by the time READ reaches it, ; is
// already callable, and calling it runs the COMMA/STORE sequence compiled
// so far against whatever definition is open — which, on this first call,
// is ; itself, closing its own body.
func (vm *VM) bootstrapSemicolon() {
	vm.mustEval(fmt.Sprintf(": state %d exit : ; immediate ' exit , 0 state ! ;\n", RegSTATE))
}
