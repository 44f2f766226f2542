package vm

import "lc3vm/bits"

// Every instruction that writes a general-purpose register calls
// m.UpdateFlag(dr) immediately afterward, per spec.md §4.C. Store and
// control-transfer instructions never touch the condition code.

func execADD(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	sr1 := bits.SR1(w)
	var result uint16
	if bits.ImmFlag(w) {
		result = m.Reg(sr1) + bits.Imm5(w)
	} else {
		result = m.Reg(sr1) + m.Reg(bits.SR2(w))
	}
	m.SetReg(dr, result)
	m.UpdateFlag(dr)
	return nil
}

func execAND(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	sr1 := bits.SR1(w)
	var result uint16
	if bits.ImmFlag(w) {
		result = m.Reg(sr1) & bits.Imm5(w)
	} else {
		result = m.Reg(sr1) & m.Reg(bits.SR2(w))
	}
	m.SetReg(dr, result)
	m.UpdateFlag(dr)
	return nil
}

func execNOT(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	sr1 := bits.SR1(w)
	m.SetReg(dr, ^m.Reg(sr1))
	m.UpdateFlag(dr)
	return nil
}

func execBR(m *Machine, w uint16, pc uint16) error {
	mask := bits.NZPMask(w)
	if mask&uint16(m.Cond()) != 0 {
		m.SetPC(pc + bits.PCOffset9(w))
	}
	return nil
}

func execJMP(m *Machine, w uint16, pc uint16) error {
	sr1 := bits.SR1(w)
	m.SetPC(m.Reg(sr1))
	return nil
}

func execJSR(m *Machine, w uint16, pc uint16) error {
	// R7 must be set to the return address before PC is modified,
	// regardless of variant -- this matters when SR1 == R7.
	m.SetReg(7, pc)
	if bits.LongFlag(w) {
		m.SetPC(pc + bits.PCOffset11(w))
	} else {
		sr1 := bits.SR1(w)
		m.SetPC(m.Reg(sr1))
	}
	return nil
}

func execLD(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	addr := pc + bits.PCOffset9(w)
	m.SetReg(dr, m.Mem.Read(addr))
	m.UpdateFlag(dr)
	return nil
}

func execLDI(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	addr := pc + bits.PCOffset9(w)
	ptr := m.Mem.Read(addr)
	m.SetReg(dr, m.Mem.Read(ptr))
	m.UpdateFlag(dr)
	return nil
}

func execLDR(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	sr1 := bits.SR1(w)
	addr := m.Reg(sr1) + bits.Offset6(w)
	m.SetReg(dr, m.Mem.Read(addr))
	m.UpdateFlag(dr)
	return nil
}

func execLEA(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	m.SetReg(dr, pc+bits.PCOffset9(w))
	m.UpdateFlag(dr)
	return nil
}

func execST(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	addr := pc + bits.PCOffset9(w)
	m.Mem.Write(addr, m.Reg(dr))
	return nil
}

func execSTI(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	addr := pc + bits.PCOffset9(w)
	ptr := m.Mem.Read(addr)
	m.Mem.Write(ptr, m.Reg(dr))
	return nil
}

func execSTR(m *Machine, w uint16, pc uint16) error {
	dr := bits.DR(w)
	sr1 := bits.SR1(w)
	addr := m.Reg(sr1) + bits.Offset6(w)
	m.Mem.Write(addr, m.Reg(dr))
	return nil
}
