// Package bits provides the pure, stateless operations needed to decode an
// LC-3 instruction word: sign extension and the handful of fixed-position
// field extractions used by every opcode handler.
//
// All inputs and outputs are 16-bit words. Signed interpretation only ever
// happens inside SignExtend; everything else is unsigned arithmetic with
// wraparound, which is what the architecture actually specifies.
package bits

// fieldWidth names the bit widths sign_extend is ever called with, for
// documentation purposes only; SignExtend accepts any width in [1,16].
type fieldWidth int

const (
	Imm5Width       fieldWidth = 5
	Offset6Width    fieldWidth = 6
	PCOffset9Width  fieldWidth = 9
	PCOffset11Width fieldWidth = 11
)

// SignExtend treats x as an n-bit two's-complement integer and returns the
// 16-bit value with the top (16-n) bits filled with the sign bit.
func SignExtend(x uint16, n int) uint16 {
	if (x>>(n-1))&0x1 != 0 {
		x |= 0xFFFF << n
	}
	return x
}

// Opcode extracts the 4-bit opcode from bits [15:12].
func Opcode(w uint16) uint16 { return w >> 12 }

// DR extracts the destination register field from bits [11:9].
func DR(w uint16) uint16 { return (w >> 9) & 0x7 }

// SR1 extracts the first source register field from bits [8:6].
func SR1(w uint16) uint16 { return (w >> 6) & 0x7 }

// SR2 extracts the second source register field from bits [2:0].
func SR2(w uint16) uint16 { return w & 0x7 }

// Imm5 extracts and sign-extends the 5-bit immediate used by ADD/AND in
// immediate mode.
func Imm5(w uint16) uint16 { return SignExtend(w&0x1F, int(Imm5Width)) }

// Offset6 extracts and sign-extends the 6-bit base+offset field used by
// LDR/STR.
func Offset6(w uint16) uint16 { return SignExtend(w&0x3F, int(Offset6Width)) }

// PCOffset9 extracts and sign-extends the 9-bit PC-relative offset used by
// BR/LD/LDI/LEA/ST/STI.
func PCOffset9(w uint16) uint16 { return SignExtend(w&0x1FF, int(PCOffset9Width)) }

// PCOffset11 extracts and sign-extends the 11-bit PC-relative offset used by
// the long form of JSR.
func PCOffset11(w uint16) uint16 { return SignExtend(w&0x7FF, int(PCOffset11Width)) }

// TrapVect8 extracts the 8-bit trap vector from the low byte of a TRAP
// instruction.
func TrapVect8(w uint16) uint16 { return w & 0xFF }

// ImmFlag reports whether bit 5 (the ADD/AND immediate-mode flag) is set.
func ImmFlag(w uint16) bool { return (w>>5)&0x1 != 0 }

// LongFlag reports whether bit 11 (the JSR long-jump flag) is set.
func LongFlag(w uint16) bool { return (w>>11)&0x1 != 0 }

// NZPMask extracts the 3-bit N/Z/P condition mask from a BR instruction,
// bits [11:9].
func NZPMask(w uint16) uint16 { return (w >> 9) & 0x7 }
