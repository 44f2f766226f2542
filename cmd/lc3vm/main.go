// Command lc3vm loads an LC-3 object file and runs it against the host
// terminal, per spec.md §1 and §6.
//
// Grounded on oisee-z80-optimizer's cmd/z80opt/main.go for the cobra root
// command shape (a Use/Short/RunE command built in main, flags bound with
// Flags().*Var), since the teacher repo has no cmd/ of its own.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"lc3vm/console"
	"lc3vm/memory"
	"lc3vm/vm"
)

// version is the build version, conventionally overridden with -ldflags at
// release time; the teacher repo has no release process of its own, so this
// stays a constant.
const version = "0.1.0"

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	faultStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	haltStyle   = lipgloss.NewStyle().Faint(true)
)

func main() {
	var quiet bool
	var noTTY bool

	root := &cobra.Command{
		Use:     "lc3vm <image-file>",
		Short:   "Run an LC-3 object file",
		Version: version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], quiet, noTTY)
		},
		SilenceUsage: true,
	}
	root.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the startup banner")
	root.Flags().BoolVar(&noTTY, "tty", false, "refuse raw terminal mode even if stdin is a tty (for scripted tests that pipe stdin)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, faultStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func run(path string, quiet bool, noTTY bool) error {
	fp, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer fp.Close()

	con, err := console.Open(os.Stdin, os.Stdout, !noTTY)
	if err != nil {
		return fmt.Errorf("opening console: %w", err)
	}
	defer con.Close()

	m := vm.New(memory.New(con), con)

	origin, err := m.LoadImage(fp)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	if !quiet {
		fmt.Fprintln(os.Stderr, bannerStyle.Render(fmt.Sprintf("lc3vm: loaded %s at %#04x", path, origin)))
	}

	runErr := m.Run()
	if runErr == nil {
		fmt.Fprintln(os.Stderr, haltStyle.Render("lc3vm: halted"))
		return nil
	}

	var fault *vm.Fault
	if errors.As(runErr, &fault) {
		fmt.Fprintln(os.Stderr, faultStyle.Render(fault.Error()))
		fmt.Fprintln(os.Stderr, spew.Sdump(m))
		return fmt.Errorf("execution halted abnormally")
	}
	return runErr
}
