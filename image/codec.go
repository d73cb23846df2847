// Package image implements the versioned, endianness- and cell-width-tagged
// on-disk core image format: an 8-byte tagged header, 8 bytes of core
// size, then the raw memory cells, written host-endian.
//
// The header deliberately over-identifies the writing host, so Load can
// refuse anything it would misinterpret with a single byte-exact compare
// instead of per-field compatibility rules.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	magic0   byte = 0xFF
	magic1   byte = '4'
	magic2   byte = 'T'
	magic3   byte = 'H'
	magic4   byte = 0xFF
	Version  byte = 0x02
	HeaderSize = 8
)

// ErrIncompatible is returned by Load when the image's header doesn't
// byte-exact match the running host's: different cell width, version, or
// endianness, or it simply isn't a gothird image.
var ErrIncompatible = errors.New("image: incompatible or unrecognized header")

// nativeOrder is the byte order this process's cells are written in; the
// image header records which one so Load can refuse cross-endian images
// rather than silently misinterpreting them.
var nativeOrder = binary.NativeEndian

// endiannessByte is 0 on a big-endian host, 1 on little-endian.
func endiannessByte() byte {
	var buf [2]byte
	nativeOrder.PutUint16(buf[:], 1)
	if buf[0] == 1 {
		return 1
	}
	return 0
}

func header(cellWidth int) [HeaderSize]byte {
	var h [HeaderSize]byte
	h[0] = magic0
	h[1] = magic1
	h[2] = magic2
	h[3] = magic3
	h[4] = byte(cellWidth)
	h[5] = Version
	h[6] = endiannessByte()
	h[7] = magic4
	return h
}

// Save writes the image header, core size, and the cells themselves (each
// cellWidth bytes, host-endian) to w. cells holds one implementation cell
// value per element, widened to uint64.
func Save(w io.Writer, cellWidth int, cells []uint64) error {
	hdr := header(cellWidth)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	var sizeBuf [8]byte
	nativeOrder.PutUint64(sizeBuf[:], uint64(len(cells)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	buf := make([]byte, cellWidth*len(cells))
	for i, c := range cells {
		putCell(buf[i*cellWidth:(i+1)*cellWidth], cellWidth, c)
	}
	_, err := w.Write(buf)
	return err
}

// Load reads and validates the header against cellWidth and minCoreSize,
// then returns the decoded cells. Any header mismatch — magic, cell width,
// version, or endianness — is reported as ErrIncompatible without reading
// further.
func Load(r io.Reader, cellWidth int, minCoreSize int) ([]uint64, error) {
	want := header(cellWidth)
	var got [HeaderSize]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrIncompatible
		}
		return nil, err
	}
	if got != want {
		return nil, ErrIncompatible
	}
	var sizeBuf [8]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, err
	}
	coreSize := nativeOrder.Uint64(sizeBuf[:])
	if coreSize < uint64(minCoreSize) {
		return nil, fmt.Errorf("image: core size %d below minimum %d", coreSize, minCoreSize)
	}
	buf := make([]byte, int(coreSize)*cellWidth)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	cells := make([]uint64, coreSize)
	for i := range cells {
		cells[i] = getCell(buf[i*cellWidth:(i+1)*cellWidth], cellWidth)
	}
	return cells, nil
}

func putCell(dst []byte, width int, v uint64) {
	switch width {
	case 8:
		nativeOrder.PutUint64(dst, v)
	case 4:
		nativeOrder.PutUint32(dst, uint32(v))
	case 2:
		nativeOrder.PutUint16(dst, uint16(v))
	default:
		for i := 0; i < width; i++ {
			dst[i] = byte(v)
			v >>= 8
		}
	}
}

func getCell(src []byte, width int) uint64 {
	switch width {
	case 8:
		return nativeOrder.Uint64(src)
	case 4:
		return uint64(nativeOrder.Uint32(src))
	case 2:
		return uint64(nativeOrder.Uint16(src))
	default:
		var v uint64
		for i := width - 1; i >= 0; i-- {
			v = v<<8 | uint64(src[i])
		}
		return v
	}
}
