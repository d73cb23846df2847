// Package cell implements the VM's flat, fixed-width memory array.
//
// A Memory is allocated once, at its final size, and never grows: the
// interpreter built on top of it has no dynamic allocation after
// initialization. Everything the VM touches — registers, dictionary,
// both stacks — is a view into the same backing slice.
package cell

// Cell is the VM's native fixed-width word. The width is baked into the
// on-disk image format, so changing it invalidates old images.
type Cell uint64

// Width is the cell width in bytes.
const Width = 8

// Memory is a pre-sized array of cells. Load/Store are bounds-checked and
// report failure instead of panicking, so callers can turn an out-of-range
// access into whatever fatal-error handling their layer needs.
type Memory struct {
	cells []Cell
}

// New allocates a zeroed Memory of exactly n cells.
func New(n int) *Memory {
	return &Memory{cells: make([]Cell, n)}
}

// Len returns the number of cells in the core.
func (m *Memory) Len() int { return len(m.cells) }

// Load returns the cell at addr and whether addr was in range.
func (m *Memory) Load(addr Cell) (Cell, bool) {
	i := int(addr)
	if i < 0 || i >= len(m.cells) {
		return 0, false
	}
	return m.cells[i], true
}

// Store writes val at addr, reporting whether addr was in range.
func (m *Memory) Store(addr, val Cell) bool {
	i := int(addr)
	if i < 0 || i >= len(m.cells) {
		return false
	}
	m.cells[i] = val
	return true
}

// Slice exposes the raw backing cells, for bulk I/O: image saving walks the
// whole core through it.
func (m *Memory) Slice() []Cell { return m.cells }

// ReadByte reads the byte at byteAddr, treating the core as a flat,
// little-endian byte array laid over the cell array.
func (m *Memory) ReadByte(byteAddr Cell) (byte, bool) {
	idx, off := int(byteAddr)/Width, int(byteAddr)%Width
	if idx < 0 || idx >= len(m.cells) {
		return 0, false
	}
	return byte(m.cells[idx] >> (uint(off) * 8)), true
}

// WriteByte writes the byte at byteAddr, leaving the rest of its containing
// cell untouched.
func (m *Memory) WriteByte(byteAddr Cell, b byte) bool {
	idx, off := int(byteAddr)/Width, int(byteAddr)%Width
	if idx < 0 || idx >= len(m.cells) {
		return false
	}
	shift := uint(off) * 8
	m.cells[idx] = (m.cells[idx] &^ (Cell(0xFF) << shift)) | Cell(b)<<shift
	return true
}

// ReadBytes reads n bytes starting at byteAddr. It reports false, without
// partial results, if any byte of the range falls outside the core.
func (m *Memory) ReadBytes(byteAddr Cell, n int) ([]byte, bool) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, ok := m.ReadByte(byteAddr + Cell(i))
		if !ok {
			return nil, false
		}
		buf[i] = b
	}
	return buf, true
}

// WriteBytes writes data starting at byteAddr. It reports false, leaving
// memory unmodified, if any byte of the range falls outside the core.
func (m *Memory) WriteBytes(byteAddr Cell, data []byte) bool {
	end := byteAddr + Cell(len(data))
	if int(end)/Width >= len(m.cells) && len(data) > 0 {
		// conservative pre-check so we never write a partial prefix
		if _, ok := m.ReadByte(end - 1); !ok {
			return false
		}
	}
	for i, b := range data {
		if !m.WriteByte(byteAddr+Cell(i), b) {
			return false
		}
	}
	return true
}
