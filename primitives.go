package forth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/forth-vm/gothird/block"
	"github.com/forth-vm/gothird/cell"
)

// init wires every opcode to its handler; the table is dense over the
// whole opcode range, and dispatchAt treats any hole as an illegal opcode.
func init() {
	dispatchTable = [opcodeCount]func(vm *VM){
		OpPush:      opPush,
		OpCompile:   opCompile,
		OpRun:       opRun,
		OpDefine:    opDefine,
		OpImmediate: opImmediate,

		OpRead:    opRead,
		OpLoad:    opLoad,
		OpStore:   opStore,
		OpSub:     binOp(func(a, b cell.Cell) cell.Cell { return a - b }),
		OpAdd:     binOp(func(a, b cell.Cell) cell.Cell { return a + b }),
		OpAnd:     binOp(func(a, b cell.Cell) cell.Cell { return a & b }),
		OpOr:      binOp(func(a, b cell.Cell) cell.Cell { return a | b }),
		OpXor:     binOp(func(a, b cell.Cell) cell.Cell { return a ^ b }),
		OpInvert:  opInvert,
		OpLshift:  binOp(func(a, b cell.Cell) cell.Cell { return a << b }),
		OpRshift:  binOp(func(a, b cell.Cell) cell.Cell { return a >> b }),
		OpMul:     binOp(func(a, b cell.Cell) cell.Cell { return a * b }),
		OpDiv:     opDiv,
		OpLess:    binOp(func(a, b cell.Cell) cell.Cell { return boolCell(a < b) }),
		OpMore:    binOp(func(a, b cell.Cell) cell.Cell { return boolCell(a > b) }),
		OpEqual:   binOp(func(a, b cell.Cell) cell.Cell { return boolCell(a == b) }),
		OpExit:    opExit,
		OpBranch:  opBranch,
		OpQBranch: opQBranch,
		OpEmit:    opEmit,
		OpKey:     opKey,
		OpToR:     opToR,
		OpFromR:   opFromR,
		OpPNum:    opPNum,
		OpQuote:   opPush,
		OpComma:   opComma,
		OpSwap:    opSwap,
		OpDup:     opDup,
		OpDrop:    opDrop,
		OpOver:    opOver,
		OpTail:    opTail,
		OpBSave:   opBSave,
		OpBLoad:   opBLoad,
		OpFind:    opFind,
		OpPrint:   opPrint,
		OpDepth:   opDepth,
		OpClock:   opClock,
	}
}

func boolCell(b bool) cell.Cell {
	if b {
		return 1
	}
	return 0
}

// binOp builds a handler for the common "f = *S-- op f" shape shared by all
// the two-operand arithmetic and compare primitives.
func binOp(op func(a, b cell.Cell) cell.Cell) func(vm *VM) {
	return func(vm *VM) {
		a := vm.memPop()
		vm.f = op(a, vm.f)
	}
}

// dpeekUnderStackTop reads the memory-resident cell just below the cached
// top, halting on underflow, without consuming it.
func (vm *VM) dpeekUnderStackTop() cell.Cell {
	base := dataStackBase(vm.mem.Len(), vm.loadReg(RegStackSize))
	if vm.S < base {
		vm.halt(stackUnderflowError{"data"})
	}
	return vm.load(vm.S)
}

// memPop reads and consumes the memory-resident cell just below the cached
// top — the "*S--" half of formulas like STORE's "m[f] = *S--; f = *S--"
// and the binary ops' "f = *S-- op f".
func (vm *VM) memPop() cell.Cell {
	v := vm.dpeekUnderStackTop()
	vm.S--
	return v
}

// opPush implements both PUSH and QUOTE: an inline literal fetch from the
// running thread's instruction stream. PUSH reads vm.I, not the dispatch
// cursor pcArg: pcArg points just past the opcode cell dispatched at
// (pushOpcodeCell, or QUOTE's code cell), not into the body being run,
// while the literal follows that reference in the body, at vm.I.
func opPush(vm *VM) {
	vm.dpush(vm.fetchProgCell())
}

// opCompile appends a reference to the word currently being looked up to
// the definition under construction.
func opCompile(vm *VM) {
	vm.compileCell(vm.pcArg)
}

// opRun calls into a word's threaded body: push the caller's resume point,
// jump to the body start (pcArg, the cell right after RUN's own opcode
// cell).
func opRun(vm *VM) {
	vm.rpush(vm.I)
	vm.I = vm.pcArg
}

func opExit(vm *VM) {
	vm.I = vm.rpop()
}

func opLoad(vm *VM) {
	vm.f = vm.load(vm.f)
}

// opStore implements STORE: "m[f] = *S--; f = *S--". f itself is the
// address (never spilled to memory), so this consumes exactly the value
// cell below it and reloads the new top from the cell below that — two
// memory pops, not three stack items.
func opStore(vm *VM) {
	addr := vm.f
	val := vm.memPop()
	vm.store(addr, val)
	vm.f = vm.memPop()
}

func opInvert(vm *VM) {
	vm.f = ^vm.f
}

// opDiv implements DIV's non-fatal divide-by-zero behavior: on
// division by zero, leave the stack untouched and emit one diagnostic.
func opDiv(vm *VM) {
	if vm.f == 0 {
		vm.diagf(`error "x/0"`)
		return
	}
	a := vm.memPop()
	vm.f = a / vm.f
}

// opBranch implements unconditional relative branch: I still addresses the
// offset cell itself when the add happens, per the dispatch loop's pc
// convention (see bootstrap.go's driver construction for the same idiom).
func opBranch(vm *VM) {
	offset := vm.load(vm.I)
	vm.I = addOffset(vm.I, offset)
}

func opQBranch(vm *VM) {
	if vm.f == 0 {
		offset := vm.load(vm.I)
		vm.I = addOffset(vm.I, offset)
	} else {
		vm.I++
	}
	vm.dpop()
}

func addOffset(i, offset cell.Cell) cell.Cell {
	return cell.Cell(int64(i) + int64(offset))
}

func opEmit(vm *VM) {
	vm.writeByte(byte(vm.f))
	vm.dpop()
}

func opKey(vm *VM) {
	c, _ := vm.getChar()
	vm.dpush(c)
}

func opToR(vm *VM) {
	v := vm.dpop()
	vm.rpush(v)
}

func opFromR(vm *VM) {
	v := vm.rpop()
	vm.dpush(v)
}

// opPNum implements PNUM: print f under the current BASE, then drop it.
// Base 16 always prints as a zero-padded, cell-width-wide hex literal
// ("0x" plus two hex digits per byte); base 10 prints signed, and so does
// base 0, under which parseNumber reads unprefixed tokens as decimal; any
// other base (2..26, matching parseNumber's range) prints the unsigned
// digit string in that radix.
func opPNum(vm *VM) {
	base := vm.loadReg(RegBASE)
	var s string
	switch base {
	case 16:
		s = fmt.Sprintf("0x%0*x", cell.Width*2, uint64(vm.f))
	case 0, 10:
		s = strconv.FormatInt(int64(vm.f), 10)
	default:
		s = strconv.FormatUint(uint64(vm.f), int(base))
	}
	vm.writeString(s)
	vm.dpop()
}

func opComma(vm *VM) {
	vm.compileCell(vm.f)
	vm.dpop()
}

func opSwap(vm *VM) {
	s := vm.dpeekUnderStackTop()
	vm.store(vm.S, vm.f)
	vm.f = s
}

func opDup(vm *VM) {
	vm.dpush(vm.f)
}

func opDrop(vm *VM) {
	vm.dpop()
}

func opOver(vm *VM) {
	vm.dpush(vm.dpeekUnderStackTop())
}

// opTail pops one return-stack frame without using its value, so a
// following EXIT in the caller returns past this call: the tail-call
// idiom.
func opTail(vm *VM) {
	r := vm.loadReg(RegRSTK)
	if r < returnStackBase(vm.mem.Len(), vm.loadReg(RegStackSize)) {
		vm.halt(stackUnderflowError{"return"})
	}
	vm.storeReg(RegRSTK, r-1)
}

// opFind implements the FIND primitive: read a token, leave its MISC-cell
// offset on the stack, or 0 if absent. End of input before any token ends
// the run gracefully, same as READ.
func opFind(vm *VM) {
	tok, ok := vm.getWord()
	if !ok {
		panic(cleanExit{})
	}
	vm.dpush(vm.find(tok))
}

// opPrint writes the NUL-terminated byte string at byte-address f to FOUT,
// then drops it.
func opPrint(vm *VM) {
	addr := vm.f
	for {
		b, ok := vm.mem.ReadByte(addr)
		if !ok {
			vm.halt(boundsError(addr / cell.Width))
		}
		if b == 0 {
			break
		}
		vm.writeByte(b)
		addr++
	}
	vm.dpop()
}

// opDepth pushes the number of cells currently on the data stack. base is
// S's idle value (set at bootstrap and restored after every pop back to
// it), so S-base is exactly the net push count: every dpush increments S by
// one and every dpop decrements it by one.
func opDepth(vm *VM) {
	base := dataStackBase(vm.mem.Len(), vm.loadReg(RegStackSize)) - 1
	vm.dpush(vm.S - base)
}

// opClock pushes milliseconds elapsed since the instance's START_TIME
// register was stamped at init.
func opClock(vm *VM) {
	now := cell.Cell(time.Now().UnixMilli())
	vm.dpush(now - vm.loadReg(RegStartTime))
}

// opBSave/opBLoad implement the BSAVE/BLOAD block I/O primitives:
// `(poffset, id) -> status`, backed by the block package.
func opBSave(vm *VM) {
	id := vm.dpop()
	poffset := vm.dpop()
	data, ok := vm.mem.ReadBytes(poffset, block.Size)
	if !ok {
		vm.dpush(statusFail)
		return
	}
	if err := block.Save(vm.blockDir, uint16(id), data); err != nil {
		vm.dpush(statusFail)
		return
	}
	vm.dpush(statusOK)
}

func opBLoad(vm *VM) {
	id := vm.dpop()
	poffset := vm.dpop()
	buf := make([]byte, block.Size)
	if err := block.Load(vm.blockDir, uint16(id), buf); err != nil {
		vm.dpush(statusFail)
		return
	}
	if !vm.mem.WriteBytes(poffset, buf) {
		vm.dpush(statusFail)
		return
	}
	vm.dpush(statusOK)
}

const (
	statusOK   cell.Cell = 0
	statusFail           = ^cell.Cell(0) // -1
)

// writeByte writes a single byte to FOUT, halting on a write error — all
// output primitives (EMIT, PRINT) funnel through here.
func (vm *VM) writeByte(b byte) {
	if vm.out == nil {
		return
	}
	if _, err := vm.out.Write([]byte{b}); err != nil {
		vm.halt(err)
	}
}

// writeString writes s to FOUT in one call; PNUM is the only primitive
// that emits more than one byte at a time.
func (vm *VM) writeString(s string) {
	if vm.out == nil {
		return
	}
	if _, err := vm.out.Write([]byte(s)); err != nil {
		vm.halt(err)
	}
}
