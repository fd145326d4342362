package eval

import (
	"fmt"
	"ownsim/types"
)

// Frame is one active function call
type Frame struct {
	Function string
	Line     int // line of the statement currently executing
}

// setLine records the executing line in the innermost frame
func (e *Evaluator) setLine(line int) {
	if len(e.frames) > 0 {
		e.frames[len(e.frames)-1].Line = line
	}
}

// FormatTraceback formats a call stack and fault, most recent call first:
//
//	take, line 9:  UseAfterMove: use of moved value `s`
//	... called from main, line 14
//	(End of traceback)
func FormatTraceback(stack []Frame, kind types.FaultKind, message string) []string {
	if len(stack) == 0 {
		return []string{
			fmt.Sprintf("(no stack):  %s: %s", kind, message),
			"(End of traceback)",
		}
	}

	var lines []string
	for i := len(stack) - 1; i >= 0; i-- {
		frame := stack[i]
		if i == len(stack)-1 {
			lines = append(lines, fmt.Sprintf("%s, line %d:  %s: %s", frame.Function, frame.Line, kind, message))
		} else {
			lines = append(lines, fmt.Sprintf("... called from %s, line %d", frame.Function, frame.Line))
		}
	}
	return append(lines, "(End of traceback)")
}
