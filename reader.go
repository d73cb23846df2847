package forth

import (
	"io"
	"strconv"

	"github.com/forth-vm/gothird/cell"
)

// eofSentinel is what getChar returns, alongside ok=false, at end of input.
const eofSentinel = ^cell.Cell(0)

// getChar reads the next input byte, dispatching on SOURCE_ID: from the
// host file reader in file mode, or from the SIN/SIDX/SLEN string
// buffer in string mode.
func (vm *VM) getChar() (cell.Cell, bool) {
	if vm.loadReg(RegSourceID) == sourceString {
		idx := vm.loadReg(RegSIDX)
		if idx >= vm.loadReg(RegSLEN) {
			return eofSentinel, false
		}
		if idx >= cell.Cell(len(vm.sin)) {
			// the trailing NUL counted in SLEN but not present in sin
			vm.storeReg(RegSIDX, idx+1)
			return eofSentinel, false
		}
		vm.storeReg(RegSIDX, idx+1)
		return cell.Cell(vm.sin[idx]), true
	}

	if vm.in == nil {
		return eofSentinel, false
	}
	b, err := vm.in.ReadByte()
	if err != nil {
		if err != io.EOF {
			vm.halt(err)
		}
		return eofSentinel, false
	}
	return cell.Cell(b), true
}

// ungetChar pushes the byte getChar just returned back onto the input, so
// the next read sees it again: SIDX rolls back in string mode, the file
// reader buffers the byte otherwise. getWord uses this to leave a token's
// terminating delimiter unread, the way scanf's %s pushes back the byte
// that stopped it matching.
func (vm *VM) ungetChar(b cell.Cell) {
	if vm.loadReg(RegSourceID) == sourceString {
		vm.storeReg(RegSIDX, vm.loadReg(RegSIDX)-1)
		return
	}
	if vm.in != nil {
		vm.in.UnreadByte(byte(b))
	}
}

func isSpace(b cell.Cell) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// getWord reads a whitespace-delimited token with scanf("%Ns")
// semantics: skip leading whitespace, then collect until the next
// whitespace or end of input. The delimiter that ends the token stays
// unread — input consumed is exactly leading whitespace plus the token —
// so a following KEY sees the delimiter itself. It reports false if no
// token was read (clean end of input before any non-space byte).
func (vm *VM) getWord() (string, bool) {
	var b cell.Cell
	var ok bool
	for {
		b, ok = vm.getChar()
		if !ok {
			return "", false
		}
		if !isSpace(b) {
			break
		}
	}
	var buf []byte
	buf = append(buf, byte(b))
	for len(buf) < MaxWordLength-1 {
		b, ok = vm.getChar()
		if !ok {
			break
		}
		if isSpace(b) {
			vm.ungetChar(b)
			break
		}
		buf = append(buf, byte(b))
	}
	tok := string(buf)
	// mirror the token into the scratch string buffer s, where compiled
	// code can inspect the most recent word read
	vm.mem.WriteBytes(ScratchBase*cell.Width, append(buf, 0))
	return tok, true
}

// parseNumber converts tok under the given base, applying C-style prefix
// sniffing when base is 0: "0x"/"0X" for hex, a bare leading "0" for octal,
// otherwise decimal. Bases 2..26 use strconv's letter digits directly.
func parseNumber(tok string, base cell.Cell) (cell.Cell, bool) {
	if tok == "" {
		return 0, false
	}
	b := int(base)
	if b != 0 && (b < 2 || b > 26) {
		return 0, false
	}
	neg := false
	s := tok
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	if b == 0 {
		b, s = sniffBase(s)
	}
	v, err := strconv.ParseUint(s, b, 64)
	if err != nil {
		return 0, false
	}
	n := cell.Cell(v)
	if neg {
		n = -n
	}
	return n, true
}

// sniffBase implements strtol(3)'s base-0 prefix inference by hand: a
// "0x"/"0X" prefix selects hex and is stripped (strconv.ParseUint only
// strips such prefixes itself when passed base 0, which this deliberately
// avoids doing); a bare leading "0" selects octal, with no stripping needed
// since "0" is itself a valid octal digit; anything else is decimal.
// Go's own base-0 inference additionally treats "0b"/"0o" as valid
// prefixes; those are deliberately not recognized here, so a token like
// "0b101" is left as-is, parses as octal, and fails on the stray "b".
func sniffBase(s string) (int, string) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return 16, s[2:]
	}
	if len(s) >= 1 && s[0] == '0' {
		return 8, s
	}
	return 10, s
}
