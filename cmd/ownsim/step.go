package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"ownsim/ast"
	"ownsim/eval"
	"strings"
	"text/tabwriter"

	"github.com/peterh/liner"
)

const stepHelp = `commands:
  n, <enter>  run the next statement
  c           continue without stopping
  s           show visible bindings and their slot states
  a           show every live slot, including shadowed ones
  f           show the call stack
  q           stop the program`

var errQuit = errors.New("stopped by user")

// lineStepper pauses before each statement and reads commands from the terminal
type lineStepper struct {
	ln      *liner.State
	lines   []string
	running bool
	out     io.Writer
}

func newLineStepper(source []byte) *lineStepper {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	return &lineStepper{
		ln:    ln,
		lines: strings.Split(string(source), "\n"),
		out:   os.Stdout,
	}
}

// Close restores the terminal
func (s *lineStepper) Close() error {
	return s.ln.Close()
}

// Step implements eval.Stepper
func (s *lineStepper) Step(e *eval.Evaluator, stmt ast.Stmt) error {
	if s.running {
		return nil
	}
	s.show(e, stmt)

	for {
		cmd, err := s.ln.Prompt("(step) ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return errQuit
		}
		if err != nil {
			return err
		}
		cmd = strings.TrimSpace(cmd)
		if cmd != "" {
			s.ln.AppendHistory(cmd)
		}

		switch cmd {
		case "", "n", "next":
			return nil
		case "c", "continue":
			s.running = true
			return nil
		case "s", "slots":
			s.slots(e.Visible())
		case "a", "all":
			s.slots(e.Live())
		case "f", "frames":
			s.frames(e)
		case "q", "quit":
			return errQuit
		default:
			fmt.Fprintln(s.out, stepHelp)
		}
	}
}

// show prints the source line about to run
func (s *lineStepper) show(e *eval.Evaluator, stmt ast.Stmt) {
	pos := stmt.Position()
	text := ""
	if pos.Line > 0 && pos.Line <= len(s.lines) {
		text = strings.TrimSpace(s.lines[pos.Line-1])
	}
	fn := "main"
	if frames := e.Frames(); len(frames) > 0 {
		fn = frames[len(frames)-1].Function
	}
	fmt.Fprintf(s.out, "%s:%d  %s\n", fn, pos.Line, text)
}

func (s *lineStepper) slots(views []eval.SlotView) {
	if len(views) == 0 {
		fmt.Fprintln(s.out, "  (no bindings)")
		return
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, v := range views {
		name := v.Name
		if v.Mutable {
			name = "mut " + name
		}
		fmt.Fprintf(w, "  %s\t#%d\t%s\t[%s]\t%s\n", name, v.Slot, v.State, v.Allows, v.Value)
	}
	w.Flush()
}

func (s *lineStepper) frames(e *eval.Evaluator) {
	frames := e.Frames()
	for i := len(frames) - 1; i >= 0; i-- {
		fmt.Fprintf(s.out, "  %s, line %d\n", frames[i].Function, frames[i].Line)
	}
}
