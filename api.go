package forth

import (
	"fmt"
	"io"
	"time"

	"github.com/forth-vm/gothird/cell"
	"github.com/forth-vm/gothird/image"
	"github.com/forth-vm/gothird/internal/ioreader"
)

// New allocates a size-cell instance and runs bootstrap. size must be at
// least MinimumCoreSize.
func New(size int, opts ...Option) (vm *VM, err error) {
	if size < MinimumCoreSize {
		return nil, fmt.Errorf("forth: core size %d below minimum %d", size, MinimumCoreSize)
	}
	vm = &VM{
		mem:     cell.New(size),
		handles: make(map[cell.Cell]interface{}),
	}
	defaultOptions.apply(vm)
	Options(opts...).apply(vm)
	if err := vm.bootstrap(cell.Cell(time.Now().UnixMilli())); err != nil {
		return nil, err
	}
	return vm, nil
}

// Close flushes FOUT and closes every host object in the handle table that
// implements io.Closer. The reader given to SetFileInput is held inside an
// ioreader.Input, which is not one, so Close does not close it. Idempotent.
func (vm *VM) Close() error {
	var firstErr error
	for _, obj := range vm.handles {
		if cl, ok := obj.(io.Closer); ok {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if vm.out != nil {
		if err := vm.out.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SetFileInput implements set_file_input: subsequent Run calls read source
// text from r, named for diagnostics.
func (vm *VM) SetFileInput(name string, r io.Reader) {
	vm.setFileInput(ioreader.NewFile(name, r))
}

// SetStringInput implements set_string_input.
func (vm *VM) SetStringInput(s string) { vm.setStringInput(s) }

// SetFileOutput implements set_file_output: FOUT-directed primitives
// (EMIT, PRINT, PNUM) write to w from this point on.
func (vm *VM) SetFileOutput(w io.Writer) {
	WithOutput(w).apply(vm)
}

// Eval implements eval(o, s): set_string_input followed by run.
func (vm *VM) Eval(s string) error { return vm.evalString(s) }

// Push implements push(o, x): x becomes the new cached top of stack. Must
// not be called while Run is executing (there is no such instance in a
// single-threaded program; it matters only if a host embeds the VM inside
// its own coroutine-like construct).
func (vm *VM) Push(x uint64) (err error) {
	return panicToError(func() {
		vm.dpush(cell.Cell(x))
		vm.syncStackRegs()
	})
}

// Pop implements pop(o): returns the current cached top and reloads it
// from the data stack below, per push/pop(o, x)'s contract.
func (vm *VM) Pop() (x uint64, err error) {
	err = panicToError(func() {
		x = uint64(vm.dpop())
		vm.syncStackRegs()
	})
	return x, err
}

// syncStackRegs writes the cached top and stack pointer back to their
// memory homes. Run reloads both on entry, so host-side pushes and pops
// between runs are lost unless they land in memory too.
func (vm *VM) syncStackRegs() {
	vm.storeReg(RegTop, vm.f)
	vm.store(stackPtrCell, vm.S)
}

// StackDepth returns the number of cells currently on the data stack,
// matching the DEPTH primitive: S's idle value is its own baseline, so
// S-base is exactly the net push count regardless of the cached top.
func (vm *VM) StackDepth() int {
	base := dataStackBase(vm.mem.Len(), vm.loadReg(RegStackSize)) - 1
	return int(vm.S - base)
}

// DefineConstant implements define_constant(o, name, v): synthesize
// ": name v ;" and eval it.
func (vm *VM) DefineConstant(name string, v uint64) error {
	return vm.evalString(fmt.Sprintf(": %s %d ;\n", name, v))
}

// SetArgs implements set_args(o, argc, argv): stash args as an opaque host
// handle and record their count, mirroring WithArgs but usable after New.
func (vm *VM) SetArgs(args []string) {
	WithArgs(args).apply(vm)
}

// SaveCore writes the whole core to w in the tagged image format.
func (vm *VM) SaveCore(w io.Writer) error {
	cells := vm.mem.Slice()
	u64 := make([]uint64, len(cells))
	for i, c := range cells {
		u64[i] = uint64(c)
	}
	return image.Save(w, cell.Width, u64)
}

// LoadCore rebuilds an instance from a saved image. The returned instance
// shares no state with any prior VM. The persisted runtime-only registers (FIN,
// FOUT, STDIN, STDOUT, STDERR, START_TIME, START_ADDR) hold handle values
// from the previous process and are overwritten before options run; a
// persisted INVALID flag stays set, since a poisoned image stays poisoned.
func LoadCore(r io.Reader, opts ...Option) (vm *VM, err error) {
	u64, err := image.Load(r, cell.Width, MinimumCoreSize)
	if err != nil {
		return nil, err
	}
	vm = &VM{
		mem:     cell.New(len(u64)),
		handles: make(map[cell.Cell]interface{}),
	}
	for i, v := range u64 {
		vm.mem.Store(cell.Cell(i), cell.Cell(v))
	}
	vm.storeReg(RegFIN, 0)
	vm.storeReg(RegFOUT, 0)
	vm.storeReg(RegStdin, 0)
	vm.storeReg(RegStdout, 0)
	vm.storeReg(RegStderr, 0)
	vm.storeReg(RegSIN, 0)
	vm.storeReg(RegSIDX, 0)
	vm.storeReg(RegSLEN, 0)
	vm.storeReg(RegStartAddr, vm.handle(vm.mem))
	vm.storeReg(RegStartTime, cell.Cell(time.Now().UnixMilli()))
	defaultOptions.apply(vm)
	Options(opts...).apply(vm)
	vm.invalid = vm.loadReg(RegInvalid) != 0
	vm.I = vm.loadReg(RegInstruction)
	vm.f = vm.loadReg(RegTop)
	vm.S = vm.load(stackPtrCell)
	return vm, nil
}
