package image

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cells := make([]uint64, 64)
	for i := range cells {
		cells[i] = uint64(i) * 0x1111
	}
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, 8, cells), "Save")
	got, err := Load(&buf, 8, 64)
	require.NoError(t, err, "Load")
	require.Equal(t, cells, got)
}

func TestLoadRejectsWrongCellWidth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, 8, make([]uint64, 32)), "Save")
	_, err := Load(&buf, 4, 32)
	require.Equal(t, ErrIncompatible, err, "Load with mismatched cell width")
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, 8, make([]uint64, 32)), "Save")
	raw := buf.Bytes()
	raw[5] ^= 0xFF
	_, err := Load(bytes.NewReader(raw), 8, 32)
	require.Equal(t, ErrIncompatible, err, "Load with mutated version byte")
}

func TestLoadRejectsWrongEndianness(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, 8, make([]uint64, 32)), "Save")
	raw := buf.Bytes()
	raw[6] ^= 0x01
	_, err := Load(bytes.NewReader(raw), 8, 32)
	require.Equal(t, ErrIncompatible, err, "Load with flipped endianness byte")
}

func TestLoadRejectsGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xAA}, 16)
	_, err := Load(bytes.NewReader(garbage), 8, 8)
	require.Equal(t, ErrIncompatible, err, "Load of non-image bytes")
}

func TestLoadRejectsTruncatedHeader(t *testing.T) {
	short := []byte{0xFF, '4', 'T'}
	_, err := Load(bytes.NewReader(short), 8, 8)
	require.Equal(t, ErrIncompatible, err, "Load of a truncated header")
}

func TestLoadRejectsCoreBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, 8, make([]uint64, 16)), "Save")
	_, err := Load(&buf, 8, 32)
	require.Error(t, err, "Load of an undersized core should fail")
}

func TestPutGetCellWidths(t *testing.T) {
	for _, width := range []int{2, 4, 8} {
		buf := make([]byte, width)
		var v uint64 = 0x0102030405060708
		mask := uint64(1)<<(uint(width)*8) - 1
		want := v & mask
		putCell(buf, width, v)
		require.Equal(t, want, getCell(buf, width), "width %d: getCell(putCell(%#x))", width, v)
	}
}
