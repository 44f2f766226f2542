// Package vm implements the LC-3 machine state and the fetch/decode/execute
// loop: registers, program counter, condition code, the opcode dispatch
// table, and the instruction handlers themselves.
//
// Grounded on the teacher's cpu.Cpu: a single struct owning registers and
// flags, holding a pointer to the memory component, with a tick/loop pair
// driving execution. Here the flags collapse to the LC-3's one-of-three
// condition code instead of the 6502's eight independent status bits, and
// the eight general-purpose registers replace the accumulator/X/Y trio.
package vm

import (
	"fmt"

	"lc3vm/memory"
)

// Cond is the condition-code bitfield. Exactly one of Pos, Zero, Neg is set
// at any time.
type Cond uint16

const (
	FlagPos Cond = 1 << 0
	FlagZro Cond = 1 << 1
	FlagNeg Cond = 1 << 2
)

// PCStart is the conventional LC-3 user-program origin.
const PCStart uint16 = 0x3000

// numRegisters is the number of general-purpose registers, R0..R7.
const numRegisters = 8

// Console is the narrow console interface the TRAP handlers need: a
// blocking byte read, a byte write, and an explicit flush. console.Console
// satisfies this. ReadByte's ok is false only when the host input stream is
// exhausted with no byte pending — a short read on what must be a blocking
// read, per spec.md §7.2.
type Console interface {
	ReadByte() (b byte, ok bool)
	WriteByte(b byte) error
	Flush() error
}

// Machine is the single owned aggregate of all mutable VM state. It is
// created once, mutated only by Step (single-threaded), and never copied
// after construction, since Console wraps host-owned file descriptors.
type Machine struct {
	reg  [numRegisters]uint16
	pc   uint16
	cond Cond

	Mem *memory.Memory
	Con Console

	Halted bool
}

// New constructs a Machine with PC at the conventional origin and the
// condition code initialized to Zero, per spec.
func New(mem *memory.Memory, con Console) *Machine {
	return &Machine{
		pc:   PCStart,
		cond: FlagZro,
		Mem:  mem,
		Con:  con,
	}
}

// Reg reads general-purpose register r (0..7).
func (m *Machine) Reg(r uint16) uint16 { return m.reg[r&0x7] }

// SetReg writes general-purpose register r (0..7) and is the only path
// through which update_flag is meant to run right after, per spec — callers
// of SetReg for a register-writing instruction must call UpdateFlag(r)
// themselves immediately after.
func (m *Machine) SetReg(r uint16, v uint16) { m.reg[r&0x7] = v }

// PC returns the current program counter.
func (m *Machine) PC() uint16 { return m.pc }

// SetPC sets the program counter. All PC arithmetic wraps modulo 2^16
// because it is stored in a uint16.
func (m *Machine) SetPC(v uint16) { m.pc = v }

// IncPC advances PC by one, wrapping at 2^16.
func (m *Machine) IncPC() { m.pc++ }

// Cond returns the current condition code.
func (m *Machine) Cond() Cond { return m.cond }

// UpdateFlag sets the condition code from the current value of register r:
// zero maps to Z, bit 15 set maps to N, otherwise P. This is the only write
// path to the condition code besides construction.
func (m *Machine) UpdateFlag(r uint16) {
	v := m.Reg(r)
	switch {
	case v == 0:
		m.cond = FlagZro
	case v&0x8000 != 0:
		m.cond = FlagNeg
	default:
		m.cond = FlagPos
	}
}

// String renders the machine state for diagnostics (fatal-fault dumps).
func (m *Machine) String() string {
	return fmt.Sprintf(
		"PC:%#04x COND:%03b R0:%#04x R1:%#04x R2:%#04x R3:%#04x R4:%#04x R5:%#04x R6:%#04x R7:%#04x",
		m.pc, m.cond, m.reg[0], m.reg[1], m.reg[2], m.reg[3], m.reg[4], m.reg[5], m.reg[6], m.reg[7],
	)
}
