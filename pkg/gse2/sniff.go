package gse2

import (
	"bytes"
	"io"
	"os"

	"github.com/ssargent/gse2/pkg/codec"
)

// Probe reports whether the file at path starts with the WID2 magic. Any
// failure to open or read the file is reported as false.
func Probe(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	return ProbeReader(file)
}

// ProbeReader reports whether r starts with the WID2 magic
func ProbeReader(r io.Reader) bool {
	magic, ok := readMagic(r)
	return ok && bytes.Equal(magic, []byte(codec.Magic))
}

// readMagic reads exactly len(codec.Magic) bytes
func readMagic(r io.Reader) ([]byte, bool) {
	buf := make([]byte, len(codec.Magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, false
	}
	return buf, true
}
