package trace

import (
	"fmt"
	"io"
	"os"
	"ownsim/types"
	"path/filepath"
	"strings"
	"sync"
)

// Tracer provides ownership tracing for debugging and teaching
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// Global tracer instance
var globalTracer *Tracer

// Init initializes the global tracer
func Init(enabled bool, filters []string, writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	globalTracer = &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// IsEnabled returns whether tracing is enabled
func IsEnabled() bool {
	if globalTracer == nil {
		return false
	}
	return globalTracer.enabled
}

// matchesFilter checks if a binding or function name matches any of the filter patterns
func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true // No filters = trace everything
	}

	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (t *Tracer) printf(name, format string, args ...interface{}) {
	if !t.enabled || !t.matchesFilter(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] "+format+"\n", args...)
}

// Alloc logs a new slot
func (t *Tracer) Alloc(name string, slot int, v types.Value) {
	t.printf(name, "ALLOC #%d %s = %s", slot, name, valueString(v))
}

// Move logs an ownership transfer out of a slot
func (t *Tracer) Move(name string, slot int) {
	t.printf(name, "MOVE #%d %s", slot, name)
}

// Borrow logs a new loan against a slot
func (t *Tracer) Borrow(name string, slot int, loan types.LoanID, exclusive bool, state string) {
	kind := "shared"
	if exclusive {
		kind = "exclusive"
	}
	t.printf(name, "BORROW #%d %s loan=%d %s -> %s", slot, name, loan, kind, state)
}

// Release logs the end of a loan
func (t *Tracer) Release(name string, slot int, loan types.LoanID, state string) {
	t.printf(name, "RELEASE #%d %s loan=%d -> %s", slot, name, loan, state)
}

// Reassign logs a value replaced in place
func (t *Tracer) Reassign(name string, slot int, v types.Value) {
	t.printf(name, "REASSIGN #%d %s = %s", slot, name, valueString(v))
}

// Drop logs the end of a slot's lifetime
func (t *Tracer) Drop(name string, slot int) {
	t.printf(name, "DROP #%d %s", slot, name)
}

// Call logs a function call
func (t *Tracer) Call(fn string, args []types.Value) {
	argStrs := make([]string, len(args))
	for i, arg := range args {
		argStrs[i] = valueString(arg)
	}
	t.printf(fn, "CALL %s args=[%s]", fn, strings.Join(argStrs, ", "))
}

// Return logs a function return value
func (t *Tracer) Return(fn string, result types.Value) {
	t.printf(fn, "RETURN %s => %s", fn, valueString(result))
}

// Fault logs a fault as it is raised
func (t *Tracer) Fault(kind types.FaultKind, message string) {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] FAULT %s %s\n", kind, message)
}

func valueString(v types.Value) string {
	if v == nil {
		return "()"
	}
	s := v.String()
	// Truncate long values for readability
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

// Global convenience functions

// Alloc logs a new slot using the global tracer
func Alloc(name string, slot int, v types.Value) {
	if globalTracer != nil {
		globalTracer.Alloc(name, slot, v)
	}
}

// Move logs an ownership transfer using the global tracer
func Move(name string, slot int) {
	if globalTracer != nil {
		globalTracer.Move(name, slot)
	}
}

// Borrow logs a new loan using the global tracer
func Borrow(name string, slot int, loan types.LoanID, exclusive bool, state string) {
	if globalTracer != nil {
		globalTracer.Borrow(name, slot, loan, exclusive, state)
	}
}

// Release logs the end of a loan using the global tracer
func Release(name string, slot int, loan types.LoanID, state string) {
	if globalTracer != nil {
		globalTracer.Release(name, slot, loan, state)
	}
}

// Reassign logs an in-place replacement using the global tracer
func Reassign(name string, slot int, v types.Value) {
	if globalTracer != nil {
		globalTracer.Reassign(name, slot, v)
	}
}

// Drop logs a slot drop using the global tracer
func Drop(name string, slot int) {
	if globalTracer != nil {
		globalTracer.Drop(name, slot)
	}
}

// Call logs a function call using the global tracer
func Call(fn string, args []types.Value) {
	if globalTracer != nil {
		globalTracer.Call(fn, args)
	}
}

// Return logs a function return using the global tracer
func Return(fn string, result types.Value) {
	if globalTracer != nil {
		globalTracer.Return(fn, result)
	}
}

// Fault logs a fault using the global tracer
func Fault(kind types.FaultKind, message string) {
	if globalTracer != nil {
		globalTracer.Fault(kind, message)
	}
}
