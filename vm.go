package forth

import (
	"fmt"
	"io"

	"github.com/forth-vm/gothird/cell"
	"github.com/forth-vm/gothird/internal/flushio"
	"github.com/forth-vm/gothird/internal/ioreader"
	"github.com/forth-vm/gothird/internal/panicerr"
)

// VM is one interpreter instance: a memory core plus the host-side state
// the dispatch loop caches while running (I, pc, f, S) and the handle
// table standing in for host pointers (FIN, FOUT, SIN, ...).
//
// Multiple VMs never share state; each owns its own core and handle table.
type VM struct {
	mem *cell.Memory

	// dispatch registers, cached host-side while Run executes and flushed
	// into RegInstruction/RegTop/stackPtrCell on exit.
	I cell.Cell
	f cell.Cell
	S cell.Cell

	// pcArg is the dispatch cursor pc, advanced past the opcode cell itself,
	// as seen by the opcode handler currently running. COMPILE and RUN read
	// it; the PUSH/QUOTE literal fetch reads I instead.
	pcArg cell.Cell

	handles    map[cell.Cell]interface{}
	nextHandle cell.Cell

	in       *ioreader.Input
	out      flushio.WriteFlusher
	errOut   io.Writer
	sin      string
	blockDir string

	invalid bool

	logf func(mark, mess string, args ...interface{})
}

// vmHaltError marks a fatal, unrecoverable error: the instance is poisoned
// and Run must return it without further dispatch.
type vmHaltError struct{ error }

func (err vmHaltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("VM halted: %v", err.error)
	}
	return "VM halted"
}
func (err vmHaltError) Unwrap() error { return err.error }

// halt poisons the instance and unwinds the current dispatch via panic;
// Run's dispatchLoop recovers it (bootstrap, Push and Pop recover it through
// panicToError) and never lets it escape.
func (vm *VM) halt(err error) {
	if vm.out != nil {
		if ferr := vm.out.Flush(); err == nil {
			err = ferr
		}
	}
	vm.invalid = true
	vm.storeReg(RegInvalid, 1)
	if vm.logf != nil {
		vm.logf("#", "halt: %v", err)
	}
	if op, ok := err.(illegalOpError); ok {
		vm.diagf("fatal 'illegal-op %d", Opcode(op))
	} else if err != nil {
		vm.diagf("fatal %v", err)
	}
	panic(vmHaltError{err})
}

// load reads a cell, halting with a bounds-violation on an out-of-range
// address: every cell index touched by the interpreter must pass 0<=i<N.
func (vm *VM) load(addr cell.Cell) cell.Cell {
	vm.traceAccess(addr)
	v, ok := vm.mem.Load(addr)
	if !ok {
		vm.halt(boundsError(addr))
	}
	return v
}

func (vm *VM) store(addr, val cell.Cell) {
	vm.traceAccess(addr)
	if !vm.mem.Store(addr, val) {
		vm.halt(boundsError(addr))
	}
}

// traceAccess emits one `( debug 0x<addr> <pc> )` line per memory touch
// while the DEBUG register is non-zero. The flag is read through the raw
// memory layer, not load, so tracing can't recurse into itself.
func (vm *VM) traceAccess(addr cell.Cell) {
	if d, _ := vm.mem.Load(RegDebug); d != 0 {
		vm.diagf("debug 0x%x %d", addr, vm.I)
	}
}

func (vm *VM) loadReg(r cell.Cell) cell.Cell { return vm.load(r) }
func (vm *VM) storeReg(r, v cell.Cell)       { vm.store(r, v) }

// dpush pushes a new top of stack, spilling the old cached top to memory.
func (vm *VM) dpush(nv cell.Cell) {
	vm.S++
	_, top := vm.stackBounds()
	if vm.S >= top {
		vm.halt(stackOverflowError{"data"})
	}
	vm.store(vm.S, vm.f)
	vm.f = nv
}

// dpop pops and returns the current top of stack, reloading the cached top
// from memory.
func (vm *VM) dpop() cell.Cell {
	old := vm.f
	base, _ := vm.stackBounds()
	if vm.S < base {
		vm.halt(stackUnderflowError{"data"})
	}
	vm.f = vm.load(vm.S)
	vm.S--
	return old
}

func (vm *VM) stackBounds() (base, top cell.Cell) {
	n := vm.mem.Len()
	ss := vm.loadReg(RegStackSize)
	base = dataStackBase(n, ss) - 1
	top = returnStackBase(n, ss)
	return base, top
}

// rpush/rpop implement TOR/FROMR/RUN/EXIT's return-stack manipulation;
// RSTK is always read live from its register, unlike the cached data stack.
func (vm *VM) rpush(v cell.Cell) {
	r := vm.loadReg(RegRSTK) + 1
	if r >= cell.Cell(vm.mem.Len()) {
		vm.halt(stackOverflowError{"return"})
	}
	vm.store(r, v)
	vm.storeReg(RegRSTK, r)
}

func (vm *VM) rpop() cell.Cell {
	r := vm.loadReg(RegRSTK)
	n := vm.mem.Len()
	ss := vm.loadReg(RegStackSize)
	if r < returnStackBase(n, ss) {
		vm.halt(stackUnderflowError{"return"})
	}
	v := vm.load(r)
	vm.storeReg(RegRSTK, r-1)
	return v
}

// handle mints a new opaque handle for a host object (an io.Writer,
// io.Reader, []string, ...) and returns the cell value standing in for it.
// The VM never dereferences a handle cell itself except through this table.
func (vm *VM) handle(obj interface{}) cell.Cell {
	vm.nextHandle++
	h := vm.nextHandle
	vm.handles[h] = obj
	return h
}

type boundsError cell.Cell

func (a boundsError) Error() string { return fmt.Sprintf("out of bounds at %d", cell.Cell(a)) }

type stackOverflowError struct{ which string }
type stackUnderflowError struct{ which string }

func (e stackOverflowError) Error() string  { return e.which + " stack overflow" }
func (e stackUnderflowError) Error() string { return e.which + " stack underflow" }

type illegalOpError Opcode

func (op illegalOpError) Error() string { return fmt.Sprintf("illegal-op %d", Opcode(op)) }

// Run drains the dispatch loop until the driver's code stream hits a zero
// cell (clean exit) or a fatal error poisons the instance. It returns nil
// on a clean exit and a non-nil error — with INVALID left set — otherwise.
//
// The dispatch loop itself runs inside panicerr.Recover, this package's
// longjmp substitute: vmHaltError and cleanExit are expected control-flow
// panics unwound right here, but any other panic — a bug, or a
// runtime.Goexit from host code the VM called into — is still isolated to
// this Run call rather than taking down a sibling instance's goroutine.
func (vm *VM) Run() (err error) {
	if vm.invalid {
		return vmHaltError{nil}
	}
	vm.I = vm.loadReg(RegInstruction)
	vm.f = vm.loadReg(RegTop)
	vm.S = vm.load(stackPtrCell)
	return panicerr.Recover("VM", vm.dispatchLoop)
}

// dispatchLoop is Run's actual body, run under panicerr.Recover: it converts
// the two expected dispatch-unwind panics into a plain error return and
// lets anything else propagate to the recoverer.
func (vm *VM) dispatchLoop() (err error) {
	defer func() {
		if e := recover(); e != nil {
			switch v := e.(type) {
			case vmHaltError:
				err = v
			case cleanExit:
				err = nil
			default:
				panic(e)
			}
		}
		vm.storeReg(RegInstruction, vm.I)
		vm.storeReg(RegTop, vm.f)
		vm.store(stackPtrCell, vm.S)
	}()
	for {
		pc := vm.load(vm.I)
		vm.I++
		if pc == 0 {
			break
		}
		vm.dispatchAt(pc)
	}
	return nil
}

// dispatchAt executes exactly one opcode found at pc. READ re-enters here
// directly to run a just-found word without going through the outer fetch.
func (vm *VM) dispatchAt(pc cell.Cell) {
	op := Opcode(vm.load(pc) & 0x7F)
	pc++
	if int(op) >= len(dispatchTable) || dispatchTable[op] == nil {
		vm.halt(illegalOpError(op))
		return
	}
	vm.pcArg = pc
	dispatchTable[op](vm)
}

var dispatchTable [opcodeCount]func(vm *VM)

func (vm *VM) fetchProgCell() cell.Cell {
	v := vm.load(vm.I)
	vm.I++
	return v
}
