// Package memory implements the LC-3's 65,536-word address space, including
// the memory-mapped keyboard registers at 0xFE00/0xFE02.
//
// Grounded on the teacher's mem.Bus: a struct wrapping a fixed-size array
// with Read/Write methods, shared by pointer with the owning machine. Here
// the array holds 16-bit words instead of bytes, and Read gains a side
// effect on the two keyboard addresses.
package memory

// Keyboard is the host console collaborator that the keyboard-status
// register polls. Memory depends only on this narrow interface, not on the
// concrete console implementation, so it can be tested without a terminal.
type Keyboard interface {
	// Poll reports whether a byte is immediately available, consuming it
	// if so. It must never block.
	Poll() (byte, bool)
}

const (
	// KBSR is the keyboard status register address.
	KBSR uint16 = 0xFE00
	// KBDR is the keyboard data register address.
	KBDR uint16 = 0xFE02

	kbsrReady uint16 = 1 << 15
)

// Memory is the LC-3's word-addressed address space: exactly 65,536 cells of
// 16-bit unsigned words, zero-initialized.
type Memory struct {
	cells [65536]uint16
	kbd   Keyboard
}

// New constructs a zeroed Memory. kbd may be nil, in which case KBSR always
// reports no key available (useful for unit tests that never touch MMIO).
func New(kbd Keyboard) *Memory {
	return &Memory{kbd: kbd}
}

// Read returns the word at addr. Reading KBSR has a side effect: it polls
// the keyboard collaborator, and on a byte being available, sets KBSR's
// ready bit and latches the byte (zero-extended) into KBDR; otherwise it
// clears KBSR. Direct reads of KBDR are plain memory reads and never poll.
func (m *Memory) Read(addr uint16) uint16 {
	if addr == KBSR {
		if b, ok := m.pollSafe(); ok {
			m.cells[KBSR] = kbsrReady
			m.cells[KBDR] = uint16(b)
		} else {
			m.cells[KBSR] = 0
		}
	}
	return m.cells[addr]
}

// Write stores val at addr. Writes to KBSR/KBDR are permitted but carry no
// semantic effect on the keyboard model; they behave like ordinary memory
// cells per spec.
func (m *Memory) Write(addr uint16, val uint16) {
	m.cells[addr] = val
}

// pollSafe shields Read from a nil Keyboard collaborator.
func (m *Memory) pollSafe() (byte, bool) {
	if m.kbd == nil {
		return 0, false
	}
	return m.kbd.Poll()
}
