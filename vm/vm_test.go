package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"lc3vm/memory"
)

// fakeConsole is an in-memory stand-in for console.Console: ReadByte pops
// from a preloaded queue, WriteByte appends to a buffer, Flush is a no-op.
type fakeConsole struct {
	in  []byte
	out bytes.Buffer
}

func (c *fakeConsole) ReadByte() (byte, bool) {
	if len(c.in) == 0 {
		return 0, false
	}
	b := c.in[0]
	c.in = c.in[1:]
	return b, true
}

func (c *fakeConsole) WriteByte(b byte) error {
	return c.out.WriteByte(b)
}

func (c *fakeConsole) Flush() error { return nil }

func newTestMachine() (*Machine, *fakeConsole) {
	con := &fakeConsole{}
	m := New(memory.New(nil), con)
	return m, con
}

func encodeADDImm(dr, sr1, imm5 uint16) uint16 {
	return 0b0001<<12 | dr<<9 | sr1<<6 | 1<<5 | (imm5 & 0x1F)
}

func encodeADDReg(dr, sr1, sr2 uint16) uint16 {
	return 0b0001<<12 | dr<<9 | sr1<<6 | sr2
}

func encodeAND(dr, sr1, imm5 uint16) uint16 {
	return 0b0101<<12 | dr<<9 | sr1<<6 | 1<<5 | (imm5 & 0x1F)
}

func encodeNOT(dr, sr1 uint16) uint16 {
	return 0b1001<<12 | dr<<9 | sr1<<6 | 0x3F
}

func encodeBR(n, z, p bool, pcOffset9 uint16) uint16 {
	var mask uint16
	if n {
		mask |= 0x4
	}
	if z {
		mask |= 0x2
	}
	if p {
		mask |= 0x1
	}
	return 0b0000<<12 | mask<<9 | (pcOffset9 & 0x1FF)
}

func encodeLDI(dr, pcOffset9 uint16) uint16 {
	return 0b1010<<12 | dr<<9 | (pcOffset9 & 0x1FF)
}

func encodeJSR(pcOffset11 uint16) uint16 {
	return 0b0100<<12 | 1<<11 | (pcOffset11 & 0x7FF)
}

func encodeJSRR(sr1 uint16) uint16 {
	return 0b0100<<12 | sr1<<6
}

func encodeLEA(dr, pcOffset9 uint16) uint16 {
	return 0b1110<<12 | dr<<9 | (pcOffset9 & 0x1FF)
}

func encodeTrap(vect8 uint16) uint16 {
	return 0b1111<<12 | (vect8 & 0xFF)
}

func TestADDImmediatePositive(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(1, 5)
	m.Mem.Write(m.PC(), encodeADDImm(0, 1, 3))
	a := assert.New(t)
	a.NoError(m.Step())
	a.Equal(uint16(8), m.Reg(0))
	a.Equal(FlagPos, m.Cond())
}

func TestADDImmediateNegative(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(1, 0)
	// imm5 = -1 (0b11111): result wraps to 0xFFFF, which is negative.
	m.Mem.Write(m.PC(), encodeADDImm(0, 1, 0x1F))
	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0xFFFF), m.Reg(0))
	assert.Equal(t, FlagNeg, m.Cond())
}

func TestNOTAfterANDZeroProducesAllOnesTwosComplementNegate(t *testing.T) {
	// AND #0 clears R2, NOT turns it to all ones, ADD #1 wraps it back to
	// zero (the two's-complement negation of 0); R1's value plays no part.
	m, _ := newTestMachine()
	m.SetReg(1, 5)
	base := m.PC()
	m.Mem.Write(base, encodeAND(2, 1, 0))      // R2 = R1 & 0 = 0
	m.Mem.Write(base+1, encodeNOT(2, 2))       // R2 = ~0 = 0xFFFF
	m.Mem.Write(base+2, encodeADDImm(2, 2, 1)) // R2 = 0xFFFF + 1 = 0

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0), m.Reg(2))
	assert.Equal(t, FlagZro, m.Cond())

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0xFFFF), m.Reg(2))
	assert.Equal(t, FlagNeg, m.Cond())

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0), m.Reg(2), "negating 5 via AND/NOT/ADD#1 sequence on R1=5 should leave 0, not -5")
}

func TestNegateFive(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(1, 5)
	base := m.PC()
	m.Mem.Write(base, encodeNOT(2, 1))         // R2 = ~5
	m.Mem.Write(base+1, encodeADDImm(2, 2, 1)) // R2 = ~5 + 1 = -5

	assert.NoError(t, m.Step())
	assert.NoError(t, m.Step())
	assert.Equal(t, int16(-5), int16(m.Reg(2)))
	assert.Equal(t, FlagNeg, m.Cond())
}

func TestBRTaken(t *testing.T) {
	m, _ := newTestMachine()
	m.UpdateFlag(0) // R0 == 0, sets FlagZro
	base := m.PC()
	m.Mem.Write(base, encodeBR(false, true, false, 10))
	assert.NoError(t, m.Step())
	assert.Equal(t, base+1+10, m.PC())
}

func TestBRNotTaken(t *testing.T) {
	m, _ := newTestMachine()
	m.UpdateFlag(0) // FlagZro
	base := m.PC()
	m.Mem.Write(base, encodeBR(true, false, true, 10)) // only N,P: cond is Z, not taken
	assert.NoError(t, m.Step())
	assert.Equal(t, base+1, m.PC(), "PC should only have advanced past the BR itself")
}

func TestLDIRoundTrip(t *testing.T) {
	m, _ := newTestMachine()
	base := m.PC()
	pointerAddr := base + 1 + 5
	dataAddr := uint16(0x4000)
	m.Mem.Write(base, encodeLDI(0, 5))
	m.Mem.Write(pointerAddr, dataAddr)
	m.Mem.Write(dataAddr, 0x1234)

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0x1234), m.Reg(0))
}

func TestJSRSetsR7ToReturnAddressBeforeJumping(t *testing.T) {
	m, _ := newTestMachine()
	base := m.PC()
	m.Mem.Write(base, encodeJSR(100))
	assert.NoError(t, m.Step())
	assert.Equal(t, base+1, m.Reg(7), "R7 must hold the address of the instruction after JSR")
	assert.Equal(t, base+1+100, m.PC())
}

func TestJSRRWhenSR1IsR7JumpsToReturnAddress(t *testing.T) {
	// Regression guard for the ordering invariant: R7 is overwritten with
	// the return address before PC is modified, so JSRR R7 reads the new R7.
	m, _ := newTestMachine()
	m.SetReg(7, 0x5000)
	base := m.PC()
	m.Mem.Write(base, encodeJSRR(7))
	assert.NoError(t, m.Step())
	assert.Equal(t, base+1, m.PC(), "PC should jump to the already-written return address in R7")
	assert.Equal(t, base+1, m.Reg(7), "R7 holds the return address")
}

func TestLEAEffectiveAddress(t *testing.T) {
	m, _ := newTestMachine()
	base := m.PC()
	m.Mem.Write(base, encodeLEA(3, 20))
	assert.NoError(t, m.Step())
	assert.Equal(t, base+1+20, m.Reg(3))
}

func TestPUTSEmitsExactBytes(t *testing.T) {
	m, con := newTestMachine()
	msgAddr := uint16(0x4000)
	msg := "hi\n"
	for i, r := range msg {
		m.Mem.Write(msgAddr+uint16(i), uint16(r))
	}
	m.Mem.Write(msgAddr+uint16(len(msg)), 0)
	m.SetReg(0, msgAddr)

	base := m.PC()
	m.Mem.Write(base, encodeTrap(trapPUTS))
	assert.NoError(t, m.Step())
	assert.Equal(t, msg, con.out.String())
}

func TestPUTSPEmitsEmbeddedNULAndOddLengthTail(t *testing.T) {
	// Packed words: "ab", then a zero low byte paired with a non-zero high
	// byte (an embedded NUL that must NOT end the string), then a
	// single trailing char whose high byte is zero (odd-length tail),
	// then the real zero-word terminator.
	m, con := newTestMachine()
	msgAddr := uint16(0x4000)
	m.Mem.Write(msgAddr+0, 'a'|'b'<<8)
	m.Mem.Write(msgAddr+1, 0x00|'c'<<8)
	m.Mem.Write(msgAddr+2, 'd'|0x00<<8)
	m.Mem.Write(msgAddr+3, 0x0000)
	m.SetReg(0, msgAddr)

	base := m.PC()
	m.Mem.Write(base, encodeTrap(trapPUTSP))
	assert.NoError(t, m.Step())
	assert.Equal(t, "ab\x00cd", con.out.String())
}

func TestGETCPlacesByteInR0WithoutEcho(t *testing.T) {
	m, con := newTestMachine()
	con.in = []byte{'q'}
	m.Mem.Write(m.PC(), encodeTrap(trapGETC))
	assert.NoError(t, m.Step())
	assert.Equal(t, uint16('q'), m.Reg(0))
	assert.Equal(t, FlagPos, m.Cond())
	assert.Equal(t, "", con.out.String(), "GETC must not echo")
}

func TestGETCShortReadIsFatal(t *testing.T) {
	m, _ := newTestMachine()
	m.Mem.Write(m.PC(), encodeTrap(trapGETC))
	err := m.Step()
	assert.Error(t, err)
	var f *Fault
	assert.ErrorAs(t, err, &f)
}

func TestHALTReturnsErrHaltAndRunSetsHalted(t *testing.T) {
	m, _ := newTestMachine()
	m.Mem.Write(m.PC(), encodeTrap(trapHALT))
	assert.NoError(t, m.Run())
	assert.True(t, m.Halted)
}

func TestSTNonWritingInstructionLeavesConditionCodeUnchanged(t *testing.T) {
	m, _ := newTestMachine()
	m.UpdateFlag(0) // R0 == 0 -> FlagZro, the machine's reset state anyway
	m.SetReg(1, 7)
	before := m.Cond()
	base := m.PC()
	m.Mem.Write(base, 0b0011<<12|1<<9|0) // ST R1, #0
	assert.NoError(t, m.Step())
	assert.Equal(t, before, m.Cond())
}

func TestRTIIsFatal(t *testing.T) {
	m, _ := newTestMachine()
	m.Mem.Write(m.PC(), opRTI<<12)
	err := m.Step()
	assert.Error(t, err)
	var f *Fault
	assert.ErrorAs(t, err, &f)
}

func TestReservedOpcodeIsFatal(t *testing.T) {
	m, _ := newTestMachine()
	m.Mem.Write(m.PC(), opRES<<12)
	err := m.Step()
	assert.Error(t, err)
	var f *Fault
	assert.ErrorAs(t, err, &f)
}

func TestPCAdvancesByOneOnEveryFetch(t *testing.T) {
	m, _ := newTestMachine()
	base := m.PC()
	m.Mem.Write(base, encodeADDImm(0, 0, 0))
	assert.NoError(t, m.Step())
	assert.Equal(t, base+1, m.PC())
}

func TestLoadImagePlacesWordsAtOrigin(t *testing.T) {
	m, _ := newTestMachine()
	img := []byte{0x30, 0x00, 0x12, 0x34, 0x56, 0x78}
	origin, err := m.LoadImage(bytes.NewReader(img))
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x3000), origin)
	assert.Equal(t, uint16(0x1234), m.Mem.Read(0x3000))
	assert.Equal(t, uint16(0x5678), m.Mem.Read(0x3001))
}

func TestLoadImageRejectsPartialTrailingWord(t *testing.T) {
	m, _ := newTestMachine()
	img := []byte{0x30, 0x00, 0x12, 0x34, 0x56}
	_, err := m.LoadImage(bytes.NewReader(img))
	assert.Error(t, err)
}
