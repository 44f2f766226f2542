package vm

import "lc3vm/bits"

// Trap vector constants, per spec.md §4.D.
const (
	trapGETC  = 0x20
	trapOUT   = 0x21
	trapPUTS  = 0x22
	trapIN    = 0x23
	trapPUTSP = 0x24
	trapHALT  = 0x25
)

// execTRAP fans out to one of the six console-I/O service routines. Like
// JSR, it sets R7 to the return address before transferring control, so a
// trap service routine can hand control back with JMP R7. Beyond that, pc is
// only used to raise faults, since TRAP never does PC-relative addressing,
// only a vector lookup.
func execTRAP(m *Machine, w uint16, pc uint16) error {
	m.SetReg(7, pc)
	switch bits.TrapVect8(w) {
	case trapGETC:
		return trapGetc(m, pc)
	case trapOUT:
		return trapOut(m)
	case trapPUTS:
		return trapPuts(m)
	case trapIN:
		return trapIn(m, pc)
	case trapPUTSP:
		return trapPutsp(m)
	case trapHALT:
		return ErrHalt
	default:
		return fault(pc, "unknown trap vector %#02x", bits.TrapVect8(w))
	}
}

// trapGetc reads a single character from the keyboard into R0, with the
// upper 8 bits cleared, and sets the condition code. No echo.
func trapGetc(m *Machine, pc uint16) error {
	b, ok := m.Con.ReadByte()
	if !ok {
		return fault(pc, "short read on blocking console read (TRAP GETC)")
	}
	m.SetReg(0, uint16(b))
	m.UpdateFlag(0)
	return nil
}

// trapOut writes the low 8 bits of R0 to the console and flushes.
func trapOut(m *Machine) error {
	if err := m.Con.WriteByte(byte(m.Reg(0))); err != nil {
		return err
	}
	return m.Con.Flush()
}

// trapPuts writes the null-terminated string of one-character-per-word
// cells starting at the address in R0.
func trapPuts(m *Machine) error {
	addr := m.Reg(0)
	for {
		cell := m.Mem.Read(addr)
		if cell == 0 {
			break
		}
		if err := m.Con.WriteByte(byte(cell)); err != nil {
			return err
		}
		addr++
	}
	return m.Con.Flush()
}

// trapIn prompts, reads one character, echoes it, and stores it in R0.
func trapIn(m *Machine, pc uint16) error {
	const prompt = "Enter a character : "
	for i := 0; i < len(prompt); i++ {
		if err := m.Con.WriteByte(prompt[i]); err != nil {
			return err
		}
	}
	if err := m.Con.Flush(); err != nil {
		return err
	}
	b, ok := m.Con.ReadByte()
	if !ok {
		return fault(pc, "short read on blocking console read (TRAP IN)")
	}
	if err := m.Con.WriteByte(b); err != nil {
		return err
	}
	if err := m.Con.Flush(); err != nil {
		return err
	}
	m.SetReg(0, uint16(b))
	m.UpdateFlag(0)
	return nil
}

// trapPutsp writes a packed string: each memory cell holds two characters,
// low byte first, high byte second. The loop terminates on a zero *word*,
// not a zero byte — a packed low byte of 0x00 paired with a non-zero high
// byte is a valid embedded NUL, not an end of string, so the high byte is
// only skipped, never treated as the terminator itself.
func trapPutsp(m *Machine) error {
	addr := m.Reg(0)
	for {
		cell := m.Mem.Read(addr)
		if cell == 0 {
			break
		}
		if err := m.Con.WriteByte(byte(cell)); err != nil {
			return err
		}
		if hi := byte(cell >> 8); hi != 0 {
			if err := m.Con.WriteByte(hi); err != nil {
				return err
			}
		}
		addr++
	}
	return m.Con.Flush()
}
