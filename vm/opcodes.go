package vm

import "lc3vm/bits"

// The 16 LC-3 opcodes, numbered by their 4-bit encoding in bits [15:12].
const (
	opBR   = 0b0000
	opADD  = 0b0001
	opLD   = 0b0010
	opST   = 0b0011
	opJSR  = 0b0100
	opAND  = 0b0101
	opLDR  = 0b0110
	opSTR  = 0b0111
	opRTI  = 0b1000
	opNOT  = 0b1001
	opLDI  = 0b1010
	opSTI  = 0b1011
	opJMP  = 0b1100
	opRES  = 0b1101
	opLEA  = 0b1110
	opTRAP = 0b1111
)

// handler implements one opcode's effect. pc is the post-increment PC, i.e.
// the address of the instruction after the one being executed (per spec.md
// §4.C: every offset calculation uses the post-increment PC).
type handler func(m *Machine, w uint16, pc uint16) error

// dispatch routes the 4-bit opcode to its handler. A dense switch or a table
// are equivalent for 16 closed opcodes; a table keeps each handler a
// standalone, independently testable function, matching the teacher's
// Opcodes map of (addressing mode, instruction func) pairs generalized down
// to (opcode -> func).
var dispatch = map[uint16]handler{
	opBR:   execBR,
	opADD:  execADD,
	opLD:   execLD,
	opST:   execST,
	opJSR:  execJSR,
	opAND:  execAND,
	opLDR:  execLDR,
	opSTR:  execSTR,
	opRTI:  execFatalPrivileged,
	opNOT:  execNOT,
	opLDI:  execLDI,
	opSTI:  execSTI,
	opJMP:  execJMP,
	opRES:  execFatalPrivileged,
	opLEA:  execLEA,
	opTRAP: execTRAP,
}

// Step fetches the word at PC, advances PC by one (wrapping mod 2^16), and
// dispatches to the matching handler. It returns ErrHalt on TRAP HALT, a
// *Fault on any fatal condition, and nil otherwise.
func (m *Machine) Step() error {
	instrPC := m.pc
	w := m.Mem.Read(m.pc)
	m.IncPC()

	op := bits.Opcode(w)
	h, ok := dispatch[op]
	if !ok {
		return fault(instrPC, "unknown opcode %#04b", op)
	}
	err := h(m, w, m.pc)
	if f, ok := err.(*Fault); ok {
		// Handlers only see the post-increment PC; report the address of
		// the instruction that faulted.
		f.PC = instrPC
	}
	return err
}

// Run steps the machine until TRAP HALT fires (nil error) or a fault occurs.
func (m *Machine) Run() error {
	for {
		if err := m.Step(); err != nil {
			if err == ErrHalt {
				m.Halted = true
				return nil
			}
			return err
		}
	}
}

func execFatalPrivileged(m *Machine, w uint16, pc uint16) error {
	if bits.Opcode(w) == opRTI {
		return fault(pc, "RTI is privileged and not supported in user mode")
	}
	return fault(pc, "reserved opcode 1101 is not defined")
}
