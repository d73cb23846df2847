package logio

import (
	"bytes"
	"sync"
)

// Writer adapts a formatted logging function into an io.Writer, so a
// stream-oriented producer — the VM's diagnostic output under -trace is the
// one here — can feed the leveled logger line by line.
type Writer struct {
	Logf func(string, ...interface{})

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write collects bytes into an internal buffer and flushes each completed
// line through Logf, under a lock so concurrent writers interleave at line
// granularity rather than mid-line.
func (lw *Writer) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	lw.flushLines(false)
	return len(p), nil
}

// Sync flushes any remaining from the internal buffer, and returns any io error.
func (lw *Writer) Sync() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.flushLines(true)
	return nil
}

// Close calls Sync.
func (lw *Writer) Close() error {
	return lw.Sync()
}

func (lw *Writer) flushLines(all bool) {
	for lw.buf.Len() > 0 {
		i := bytes.IndexByte(lw.buf.Bytes(), '\n')
		if i >= 0 {
			lw.Logf("%s", lw.buf.Next(i))
			lw.buf.Next(1)
		} else if all {
			lw.Logf("%s", lw.buf.Next(lw.buf.Len()))
		} else {
			break
		}
	}
}
