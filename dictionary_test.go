package forth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forth-vm/gothird/cell"
)

// newTestVM builds a freshly bootstrapped instance at the minimum core size,
// discarding output, for white-box tests that reach into unexported helpers
// like find and compileHeader.
func newTestVM(t *testing.T) *VM {
	t.Helper()
	vm, err := New(MinimumCoreSize)
	require.NoError(t, err, "New")
	return vm
}

func TestFindCaseInsensitive(t *testing.T) {
	vm := newTestVM(t)
	for _, tok := range []string{"DUP", "Dup", "dup"} {
		require.NotZero(t, vm.find(tok), "find(%q) should match", tok)
	}
	a, b, c := vm.find("DUP"), vm.find("dup"), vm.find("Dup")
	require.Equal(t, a, b, "find must resolve DUP and dup to the same header")
	require.Equal(t, b, c, "find must resolve dup and Dup to the same header")
}

func TestFindMissingWord(t *testing.T) {
	vm := newTestVM(t)
	require.Zero(t, vm.find("no-such-word"), "find of an absent word")
}

func TestFindHiddenHeaderSkipped(t *testing.T) {
	vm := newTestVM(t)
	misc := vm.compileHeader(OpRun, "secret")
	vm.compileCell(0)
	// set the hidden bit by hand, the way a hide-on-construction word would
	old := vm.load(misc)
	vm.store(misc, old|miscHiddenBit)
	require.Zero(t, vm.find("secret"), "find should skip a hidden header")
}

// TestFindEmptyDictionary: right after the driver program is written,
// before any named primitive has been installed, PWD is still 0 and find
// must report every name absent.
func TestFindEmptyDictionary(t *testing.T) {
	vm := &VM{mem: cell.New(MinimumCoreSize), handles: make(map[cell.Cell]interface{})}
	vm.bootstrapRegisters(0)
	vm.bootstrapDriver()
	for _, tok := range []string{"dup", "+", ":", "anything"} {
		require.Zero(t, vm.find(tok), "find(%q) on an empty dictionary", tok)
	}
}

func TestCompileHeaderAppendsMisc(t *testing.T) {
	vm := newTestVM(t)
	pwdBefore := vm.loadReg(RegPWD)
	misc := vm.compileHeader(OpAdd, "plus-ish")
	require.Equal(t, misc, vm.loadReg(RegPWD), "PWD should point at the new header's MISC cell")

	got := vm.load(misc)
	require.Equal(t, OpAdd, miscOpcode(got), "MISC opcode")
	require.Equal(t, nameCells("plus-ish"), miscNameLength(got), "MISC name length")

	link := vm.load(misc - 1)
	require.Equal(t, pwdBefore, link, "new header's PWD link should be the previous PWD")
}
