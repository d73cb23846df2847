// Package ioreader implements sequential byte reading across a queue of
// input streams, tracking line location for diagnostics.
//
// The VM's get_char primitive is byte-oriented, so this reads bytes
// directly rather than decoding UTF-8, unlike a text-editor-style rune
// reader.
package ioreader

import (
	"bytes"
	"fmt"
	"io"
)

// Location names a line in an Input stream.
type Location struct {
	Name string
	Line int
}

// Line combines a Location with the bytes scanned so far on it.
type Line struct {
	Location
	bytes.Buffer
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }
func (ln Line) String() string      { return fmt.Sprintf("%v %q", ln.Location, ln.Buffer.String()) }

// Input reads bytes sequentially from a queue of readers, switching to the
// next one on EOF. Scan tracks the line currently being read; Last holds
// the most recently completed line, for error messages that want to show
// the source context a bad token came from.
type Input struct {
	r     io.Reader
	buf   [1]byte
	Queue []io.Reader
	Last  Line
	Scan  Line

	// one byte of pushback, served by ReadByte before the stream
	pending    byte
	hasPending bool
}

// NewFile returns an Input reading a single named reader (typically an
// *os.File already opened by the caller).
func NewFile(name string, r io.Reader) *Input {
	return &Input{Queue: []io.Reader{namedReader{r, name}}}
}

// UnreadByte pushes b back so the next ReadByte returns it again. Only one
// byte of pushback is held; a second UnreadByte before a read replaces the
// first. The byte is not re-tracked by Scan when re-read, since it was
// already recorded the first time through.
func (in *Input) UnreadByte(b byte) {
	in.pending = b
	in.hasPending = true
}

// ReadByte reads one byte from the current stream, advancing Scan and
// rolling it into Last on a line feed.
func (in *Input) ReadByte() (byte, error) {
	if in.hasPending {
		in.hasPending = false
		return in.pending, nil
	}
	if in.r == nil && !in.nextIn() {
		return 0, io.EOF
	}
	n, err := in.r.Read(in.buf[:])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		if err == io.EOF && in.nextIn() {
			return in.ReadByte()
		}
		return 0, err
	}
	b := in.buf[0]
	if b == '\n' {
		in.nextLine()
	} else {
		in.Scan.WriteByte(b)
	}
	return b, nil
}

func (in *Input) nextLine() {
	in.Last.Reset()
	in.Last.Name = in.Scan.Name
	in.Last.Line = in.Scan.Line
	in.Last.Write(in.Scan.Bytes())
	in.Scan.Reset()
	in.Scan.Line++
}

func (in *Input) nextIn() bool {
	in.nextLine()
	if in.r != nil {
		if cl, ok := in.r.(io.Closer); ok {
			cl.Close()
		}
		in.r = nil
	}
	if len(in.Queue) > 0 {
		r := in.Queue[0]
		in.Queue = in.Queue[1:]
		in.r = r
		in.Scan.Name = nameOf(r)
		in.Scan.Line = 1
	}
	return in.r != nil
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }
