package forth

import (
	"fmt"
	"strings"

	"github.com/forth-vm/gothird/cell"
)

// registerConstantsSource is bootstrap step 6: Forth-visible names for the
// registers, now that ":" and ";" both work. Every register gets a
// backtick-prefixed raw index constant (`` `h ``, `` `state ``, ...), meant
// to be composed with "@"/"!" the way the prelude's if/then/begin/until do
// it. A handful of the most commonly read-and-written registers (h, r,
// state, base, pwd) additionally get a bare alias for the same index, so
// "16 base !" sets BASE directly rather than needing the backtick spelling.
// The alias must stay an address, not a dereference: "base" has to be usable
// on both sides of "@"/"!", same as "`base" is.
func (vm *VM) registerConstantsSource() string {
	regs := []struct {
		name string
		idx  cell.Cell
	}{
		{"h", RegDIC},
		{"r", RegRSTK},
		{"state", RegSTATE},
		{"base", RegBASE},
		{"pwd", RegPWD},
		{"source-id", RegSourceID},
		{"sin", RegSIN},
		{"sidx", RegSIDX},
		{"slen", RegSLEN},
		{"start-address", RegStartAddr},
		{"fin", RegFIN},
		{"fout", RegFOUT},
		{"stdin", RegStdin},
		{"stdout", RegStdout},
		{"stderr", RegStderr},
		{"argc", RegArgc},
		{"argv", RegArgv},
		{"debug", RegDebug},
		{"invalid", RegInvalid},
		{"top", RegTop},
		{"instruction", RegInstruction},
		{"stack-size", RegStackSize},
		{"start-time", RegStartTime},
	}

	var b strings.Builder
	for _, r := range regs {
		fmt.Fprintf(&b, ": `%s %d ;\n", r.name, r.idx)
	}
	for _, alias := range []string{"h", "r", "state", "base", "pwd"} {
		fmt.Fprintf(&b, ": %s `%s ;\n", alias, alias)
	}
	return b.String()
}

// coreConstantsSource is bootstrap step 8: numeric constants describing
// this instance's memory layout. size is the cell width in bytes,
// stack-start the variable stack's base offset, max-core the cell count.
func (vm *VM) coreConstantsSource() string {
	n := vm.mem.Len()
	ss := vm.loadReg(RegStackSize)
	return fmt.Sprintf(
		": size %d ;\n: stack-start %d ;\n: max-core %d ;\n",
		cell.Width, dataStackBase(n, ss), n,
	)
}

// preludeSource is bootstrap step 7: everyday Forth words built from the
// primitive set and the register constants, none of it hand-compiled in
// Go.
//
// The compiler words lean on "'" staying the raw inline-literal primitive
// the name table installs: inside an immediate definition like until,
// "' ?branch ," compiles a quote cell followed by ?branch's code-cell
// address, so running the word pushes that address as a literal and
// comma-appends it into whatever definition is open at the time. A
// FIND-based tick would resolve the name while until itself is being
// compiled, which is a different (and here, wrong) moment.
const preludeSource = `
: here h @ ;
: [ immediate 0 ` + "`" + `state ! ;
: ] 1 ` + "`" + `state ! ;
: >mark here 0 , ;
: :noname immediate -1 , here 2 , ] ;
: if immediate ' ?branch , >mark ;
: else immediate ' branch , >mark swap dup here swap - swap ! ;
: then immediate dup here swap - swap ! ;
: 2dup over over ;
: begin immediate here ;
: until immediate ' ?branch , here - , ;
: '\n' 10 ;
: ')' 41 ;
: cr '\n' emit ;
: ( immediate begin key ')' = until ; ( now we have comments )
: \ immediate begin key '\n' = until ;
: rot >r swap r> swap ;
: -rot rot rot ;
: tuck swap over ;
: nip swap drop ;
: allot here + h ! ;
: 1+ 1 + ;
: 1- 1 - ;
: negate 0 swap - ;
: mod 2dup / * - ;
: min 2dup u> if swap then drop ;
: max 2dup u< if swap then drop ;
: space 32 emit ;
: bl 32 ;
`
