package forth

import "github.com/forth-vm/gothird/cell"

// Memory layout constants, per the register and layout tables: cells
// 0..5 are reserved low cells (pushOpcodeCell and stackPtrCell below live
// there), 6..28 are the named registers below, and the scratch word buffer
// starts at 32.
const (
	MaxWordLength   = 32 // bytes
	MinimumCoreSize = 32768

	// ScratchBase is where the input/scratch word buffer s begins.
	ScratchBase cell.Cell = 32
	// ScratchCells is the buffer's length in cells.
	ScratchCells = MaxWordLength / cell.Width

	// DictionaryStart is where the dictionary and compiled code begin.
	DictionaryStart = ScratchBase + ScratchCells

	// pushOpcodeCell is a reserved low cell, within the 0..5 unused range,
	// whose content is always OpPush's opcode number. It gives literal
	// compilation a stable address to reference: a compiled body entry must
	// be the address of a cell holding an opcode, and OpPush has no
	// dictionary header of its own to supply one.
	pushOpcodeCell cell.Cell = 2

	// stackPtrCell persists the data-stack pointer S across Run/Save
	// boundaries. The register file has no slot for S (it is a host-side
	// dispatch variable; only the cached top f is written to TOP on exit), but S must
	// survive between Eval calls for interactive use and for Push/Pop to
	// operate between runs. Cell 3, inside the same
	// reserved low range as pushOpcodeCell, is the natural home for it.
	stackPtrCell cell.Cell = 3
)

// Register indices (cell offsets), per the register table.
const (
	RegDIC cell.Cell = 6 + iota
	RegRSTK
	RegSTATE
	RegBASE
	RegPWD
	RegSourceID
	RegSIN
	RegSIDX
	RegSLEN
	RegStartAddr
	RegFIN
	RegFOUT
	RegStdin
	RegStdout
	RegStderr
	RegArgc
	RegArgv
	RegDebug
	RegInvalid
	RegTop
	RegInstruction
	RegStackSize
	RegStartTime
)

// SOURCE_ID values.
const (
	sourceFile   cell.Cell = 0
	sourceString cell.Cell = ^cell.Cell(0) // all bits set, i.e. -1
)

// stackSize returns SS = max(N/64, 64) for a core of n cells.
func stackSize(n int) cell.Cell {
	ss := cell.Cell(n / 64)
	if ss < 64 {
		ss = 64
	}
	return ss
}

// dataStackBase and returnStackBase compute the two stack regions'
// starting offsets for a core of n cells with the given stack size.
func dataStackBase(n int, ss cell.Cell) cell.Cell   { return cell.Cell(n) - 2*ss }
func returnStackBase(n int, ss cell.Cell) cell.Cell { return cell.Cell(n) - ss }
