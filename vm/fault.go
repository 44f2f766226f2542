package vm

import (
	"errors"
	"fmt"
)

// ErrHalt is returned by Step when TRAP HALT fires. It is not a fault: it is
// the VM's only normal termination path.
var ErrHalt = errors.New("vm: halted")

// Fault represents an execution error per spec.md §7.2: an unknown opcode,
// RTI/RSV, an unknown trap vector, or (in principle) a short blocking read.
// These are programmer errors in the loaded image and are never recovered
// from; the dispatch loop aborts and the caller reports them.
type Fault struct {
	PC  uint16 // address of the instruction that faulted
	Msg string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fatal: %s (at pc=%#04x)", f.Msg, f.PC)
}

func fault(pc uint16, format string, args ...any) error {
	return &Fault{PC: pc, Msg: fmt.Sprintf(format, args...)}
}
