package forth

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forth-vm/gothird/cell"
)

func TestParseNumberBases(t *testing.T) {
	cases := []struct {
		tok  string
		base cell.Cell
		want cell.Cell
		ok   bool
	}{
		{"123", 10, 123, true},
		{"ff", 16, 0xff, true},
		{"FF", 16, 0xff, true},
		{"101", 2, 5, true},
		{"-5", 10, ^cell.Cell(4), true}, // two's complement -5
		{"", 10, 0, false},
		{"12x3", 10, 0, false},
		{"z", 16, 0, false}, // 'z' is not a valid hex digit
	}
	for _, c := range cases {
		got, ok := parseNumber(c.tok, c.base)
		require.Equal(t, c.ok, ok, "parseNumber(%q, %d) ok", c.tok, c.base)
		if c.ok {
			require.Equal(t, c.want, got, "parseNumber(%q, %d)", c.tok, c.base)
		}
	}
}

// TestParseNumberRoundTrip: for each supported base and a handful of
// cells, rendering x under that base and parsing it back must reproduce x.
func TestParseNumberRoundTrip(t *testing.T) {
	values := []cell.Cell{0, 1, 42, 255, 65535, 0xdeadbeef}
	for base := cell.Cell(2); base <= 16; base++ {
		for _, v := range values {
			s := strconv.FormatUint(uint64(v), int(base))
			got, ok := parseNumber(s, base)
			require.True(t, ok, "parseNumber(%q, %d) failed to parse its own rendering of %d", s, base, v)
			require.Equal(t, v, got, "base %d: parseNumber(FormatUint(%d))", base, v)
		}
	}
}

func TestIsSpace(t *testing.T) {
	for _, b := range []cell.Cell{' ', '\t', '\n', '\r', '\v', '\f'} {
		require.True(t, isSpace(b), "isSpace(%q)", b)
	}
	for _, b := range []cell.Cell{'a', '0', '_'} {
		require.False(t, isSpace(b), "isSpace(%q)", b)
	}
}

func TestGetWordSkipsLeadingWhitespaceAndSplits(t *testing.T) {
	vm := newTestVM(t)
	vm.setStringInput("   hello world\t\tfoo\n")
	for _, want := range []string{"hello", "world", "foo"} {
		got, ok := vm.getWord()
		require.True(t, ok, "getWord() ok=false before expected %q", want)
		require.Equal(t, want, got, "getWord()")
	}
	_, ok := vm.getWord()
	require.False(t, ok, "getWord() at end of input should report false")
}

func TestGetWordStringModeSIDXAdvance(t *testing.T) {
	vm := newTestVM(t)
	src := "  ab cd"
	vm.setStringInput(src)
	vm.getWord()
	// consumed input is exactly leading whitespace plus the token; the
	// delimiting space stays unread
	require.Equal(t, cell.Cell(len("  ab")), vm.loadReg(RegSIDX), "SIDX after first getWord")

	b, ok := vm.getChar()
	require.True(t, ok, "getChar after getWord")
	require.Equal(t, cell.Cell(' '), b, "the token's delimiter should still be readable")
}

// TestGetWordLeavesDelimiterUnreadFileMode checks the same accounting on
// the file-reader path: a KEY issued right after a token read must see the
// delimiter byte itself, not the byte after it.
func TestGetWordLeavesDelimiterUnreadFileMode(t *testing.T) {
	vm := newTestVM(t)
	vm.SetFileInput("<test>", strings.NewReader("ab\ncd"))

	tok, ok := vm.getWord()
	require.True(t, ok, "getWord")
	require.Equal(t, "ab", tok, "token")

	b, ok := vm.getChar()
	require.True(t, ok, "getChar after getWord")
	require.Equal(t, cell.Cell('\n'), b, "the token's delimiter should still be readable")
}
