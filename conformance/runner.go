package conformance

import (
	"fmt"
	"ownsim/ast"
	"ownsim/eval"
	"ownsim/types"
	"strings"

	"gopkg.in/yaml.v3"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
	Run        types.RunResult
}

// Runner executes conformance tests
type Runner struct {
	ticks int64
}

// NewRunner creates a test runner with the default tick budget
func NewRunner() *Runner {
	return &Runner{ticks: types.DefaultTicks}
}

// program builds the test program: suite setup statements, then the test's own
func program(test LoadedTest) (*ast.Program, error) {
	if test.Test.Program == nil {
		return nil, fmt.Errorf("no program")
	}
	prog, err := ast.DecodeNode(test.Test.Program)
	if err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if test.Suite.Setup == nil {
		return prog, nil
	}
	setup, err := ast.DecodeNode(test.Suite.Setup)
	if err != nil {
		return nil, fmt.Errorf("decode setup: %w", err)
	}
	body := append(append([]ast.Stmt{}, setup.Body...), prog.Body...)
	return &ast.Program{Body: body}, nil
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{
			Test:       test,
			Skipped:    true,
			SkipReason: reason,
		}
	}

	prog, err := program(test)
	if err != nil {
		return TestResult{Test: test, Error: err}
	}

	ticks := r.ticks
	if test.Test.Ticks > 0 {
		ticks = test.Test.Ticks
	}
	result := eval.Run(prog, eval.WithTicks(ticks))

	err = checkExpectation(test.Test.Expect, result)
	return TestResult{
		Test:   test,
		Passed: err == nil,
		Error:  err,
		Run:    result,
	}
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

// checkExpectation checks a run against the expected outcome.
// Console output is compared on both completed and faulted runs.
func checkExpectation(expect Expectation, result types.RunResult) error {
	if expect.IsEmpty() {
		return fmt.Errorf("no expectation specified")
	}

	if expect.Stdout != nil && result.Stdout() != *expect.Stdout {
		return fmt.Errorf("expected output %q, got %q", *expect.Stdout, result.Stdout())
	}

	if expect.Fault != "" {
		kind, ok := types.FaultFromString(expect.Fault)
		if !ok {
			return fmt.Errorf("unknown fault kind: %s", expect.Fault)
		}
		if result.Status != types.Faulted {
			return fmt.Errorf("expected fault %s, got %s", expect.Fault, result)
		}
		if result.Fault != kind {
			return fmt.Errorf("expected fault %s, got %s", expect.Fault, result)
		}
		if !strings.Contains(result.Message, expect.Message) {
			return fmt.Errorf("expected message containing %q, got %q", expect.Message, result.Message)
		}
		return nil
	}

	if result.Status == types.Faulted {
		return fmt.Errorf("unexpected fault: %s\n%s", result, strings.Join(result.Traceback, "\n"))
	}

	if expect.Value != nil {
		want, err := expectedValue(expect.Value)
		if err != nil {
			return fmt.Errorf("failed to evaluate expected value: %w", err)
		}
		if !result.Value.Equal(want) || types.TypeName(result.Value) != types.TypeName(want) {
			return fmt.Errorf("expected %s (%s), got %s (%s)",
				want, types.TypeName(want), result.Value, types.TypeName(result.Value))
		}
	}

	if expect.Display != "" && result.Value.String() != expect.Display {
		return fmt.Errorf("expected %s, got %s", expect.Display, result.Value)
	}

	if expect.Type != "" && types.TypeName(result.Value) != expect.Type {
		return fmt.Errorf("expected type %s, got %s", expect.Type, types.TypeName(result.Value))
	}
	return nil
}

// expectedValue evaluates an expectation written as an expression.
// The node is wrapped so that a list is read as one array literal.
func expectedValue(n *yaml.Node) (types.Value, error) {
	wrapped := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{n}}
	prog, err := ast.DecodeNode(wrapped)
	if err != nil {
		return nil, err
	}
	r := eval.Run(prog)
	if r.Status != types.Completed {
		return nil, fmt.Errorf("%s", r)
	}
	return r.Value, nil
}
