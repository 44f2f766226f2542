package vm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// LoadImage reads a big-endian LC-3 object file: the first word is the
// origin address, and every subsequent word is stored at consecutive
// addresses starting there, wrapping modulo 2^16. It returns the origin so
// the caller can report where the image was placed.
//
// Grounded on original_source's LC3VM::load (big-endian word stream, first
// word is the load address) generalized from a println-and-break error path
// to a returned error, and on bassosimone-risc32's LoadBytecode shape
// (read-into-machine-memory function returning an error, used directly by
// cmd/vm/main.go).
func (m *Machine) LoadImage(r io.Reader) (origin uint16, err error) {
	if err := binary.Read(r, binary.BigEndian, &origin); err != nil {
		if err == io.EOF {
			return 0, fmt.Errorf("image file is empty")
		}
		return 0, fmt.Errorf("reading origin: %w", err)
	}

	addr := origin
	for {
		var word uint16
		if err := binary.Read(r, binary.BigEndian, &word); err != nil {
			if err == io.EOF {
				return origin, nil
			}
			if err == io.ErrUnexpectedEOF {
				return 0, fmt.Errorf("image file ends mid-word at address %#04x", addr)
			}
			return 0, fmt.Errorf("reading word at address %#04x: %w", addr, err)
		}
		m.Mem.Write(addr, word)
		addr++
	}
}
