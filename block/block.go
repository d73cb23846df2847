// Package block implements the BSAVE/BLOAD block-file convention: fixed
// 1024-byte pages addressed by a 16-bit id, each its own file named
// XXXX.blk (lowercase hex) in a directory chosen by the host.
package block

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Size is the fixed block size in bytes.
const Size = 1024

// Path returns the XXXX.blk path for id within dir.
func Path(dir string, id uint16) string {
	return filepath.Join(dir, fmt.Sprintf("%04x.blk", id))
}

// Save writes exactly Size bytes of data to id's block file, creating or
// truncating it. len(data) must be Size.
func Save(dir string, id uint16, data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("block: save id %04x: want %d bytes, got %d", id, Size, len(data))
	}
	return os.WriteFile(Path(dir, id), data, 0o644)
}

// Load reads id's block file into buf, which must be Size bytes long. A
// missing file or a short read is reported as an error — the caller (the
// BLOAD primitive) turns that into a -1 on the data stack rather than a
// fatal VM error.
func Load(dir string, id uint16, buf []byte) error {
	if len(buf) != Size {
		return fmt.Errorf("block: load id %04x: want %d byte buffer, got %d", id, Size, len(buf))
	}
	f, err := os.Open(Path(dir, id))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.ReadFull(f, buf); err != nil {
		return fmt.Errorf("block: load id %04x: %w", id, err)
	}
	return nil
}
