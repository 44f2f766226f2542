// Package console wraps the host terminal as the LC-3 virtual machine's
// console collaborator. It puts stdin into raw, no-echo mode for the
// lifetime of a run and exposes it as two primitives: a blocking single-byte
// read (for GETC/IN) and a non-blocking poll (for the KBSR memory-mapped
// status register). Output is an ordinary buffered byte sink that the TRAP
// handlers flush explicitly, mirroring the original's flush-on-trap-exit
// discipline.
package console

import (
	"bufio"
	"os"

	"golang.org/x/term"
)

// Console is the host terminal collaborator. The zero value is not usable;
// construct one with Open.
type Console struct {
	in  *os.File
	out *bufio.Writer

	state *term.State // nil if raw mode was never entered (e.g. piped stdin)

	pending chan byte
	done    chan struct{}
	eof     chan struct{} // closed by pump once the input stream is exhausted
}

// Open puts in into raw, no-echo mode if it is a terminal and rawMode is
// true, and starts a background reader that feeds bytes into a small buffer
// so that KBSR polling never itself blocks. If in is not a terminal (e.g. a
// pipe or file, as in scripted tests) or rawMode is false, raw-mode setup is
// skipped and reads behave the same way but without the terminal-mode side
// effect — this is what the CLI's --tty flag refuses.
func Open(in *os.File, out *os.File, rawMode bool) (*Console, error) {
	c := &Console{
		in:      in,
		out:     bufio.NewWriter(out),
		pending: make(chan byte, 256),
		done:    make(chan struct{}),
		eof:     make(chan struct{}),
	}

	if rawMode && term.IsTerminal(int(in.Fd())) {
		state, err := term.MakeRaw(int(in.Fd()))
		if err != nil {
			return nil, err
		}
		c.state = state
	}

	go c.pump()
	return c, nil
}

// pump continuously reads single bytes from the input file and forwards them
// to the pending channel. It is the one goroutine in the VM that may block on
// host I/O; everything else stays synchronous per the single-threaded
// execution model.
func (c *Console) pump() {
	buf := make([]byte, 1)
	for {
		n, err := c.in.Read(buf)
		if n > 0 {
			select {
			case c.pending <- buf[0]:
			case <-c.done:
				return
			}
		}
		if err != nil {
			close(c.eof)
			return
		}
	}
}

// Close restores the terminal to its prior mode. It is safe to call more
// than once and must run on every exit path, including a fatal error.
func (c *Console) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.Flush()
	if c.state == nil {
		return nil
	}
	return term.Restore(int(c.in.Fd()), c.state)
}

// Poll reports whether a byte is immediately available, consuming it if so.
// This backs the KBSR memory-mapped read: a poll that finds nothing simply
// means no key has been pressed yet, not an error.
func (c *Console) Poll() (byte, bool) {
	select {
	case b := <-c.pending:
		return b, true
	default:
		return 0, false
	}
}

// ReadByte blocks until a byte is available. It backs TRAP GETC and TRAP IN,
// both of which are specified as blocking reads. ok is false only once the
// input stream is exhausted and no byte was already buffered — the "short
// read on a blocking console read" execution error from spec.md §7.2.
func (c *Console) ReadByte() (b byte, ok bool) {
	select {
	case b := <-c.pending:
		return b, true
	default:
	}
	select {
	case b := <-c.pending:
		return b, true
	case <-c.eof:
		select {
		case b := <-c.pending:
			return b, true
		default:
			return 0, false
		}
	}
}

// WriteByte writes a single byte to the console's output buffer.
func (c *Console) WriteByte(b byte) error {
	return c.out.WriteByte(b)
}

// Flush flushes buffered output. TRAP OUT, PUTS, IN, and PUTSP all flush at
// the end of their effect per spec.
func (c *Console) Flush() error {
	return c.out.Flush()
}
