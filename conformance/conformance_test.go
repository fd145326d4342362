package conformance

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"ownsim/types"

	"gopkg.in/yaml.v3"
)

func TestConformance(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("No tests loaded")
	}

	runner := NewRunner()
	results := runner.RunAll(tests)
	stats := ComputeStats(results)

	// Group results by file for organized output
	fileGroups := make(map[string][]TestResult)
	var files []string
	for _, result := range results {
		if _, seen := fileGroups[result.Test.File]; !seen {
			files = append(files, result.Test.File)
		}
		fileGroups[result.Test.File] = append(fileGroups[result.Test.File], result)
	}

	for _, file := range files {
		fileResults := fileGroups[file]
		t.Run(file, func(t *testing.T) {
			for _, result := range fileResults {
				result := result
				t.Run(result.Test.Test.Name, func(t *testing.T) {
					if result.Skipped {
						t.Skipf("Skipped: %s", result.SkipReason)
					} else if !result.Passed {
						if result.Error != nil {
							t.Errorf("Test failed: %v", result.Error)
						} else {
							t.Error("Test failed")
						}
					}
				})
			}
		})
	}

	t.Logf("\n=== Summary ===\n%s", FormatStats(stats))
}

func TestLoadAllTests(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	t.Logf("Loaded %d test cases from conformance suite", len(tests))

	files := make(map[string]bool)
	names := make(map[string]bool)
	for _, test := range tests {
		files[test.File] = true
		key := test.File + "/" + test.Test.Name
		if names[key] {
			t.Errorf("duplicate test name %s", key)
		}
		names[key] = true
	}

	for _, want := range []string{"borrowing.yaml", "control_flow.yaml", "demos.yaml", "errors.yaml", "matching.yaml", "ownership.yaml"} {
		if !files[want] {
			t.Errorf("suite %s not loaded", want)
		}
	}

	// Files are loaded in name order
	order := make([]string, 0, len(tests))
	for _, test := range tests {
		if len(order) == 0 || order[len(order)-1] != test.File {
			order = append(order, test.File)
		}
	}
	if !sort.StringsAreSorted(order) {
		t.Errorf("files loaded out of order: %v", order)
	}
}

func TestYAMLParsing(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("YAML parsing failed: %v", err)
	}

	for i, test := range tests {
		if test.Test.Name == "" {
			t.Errorf("Test %d in %s has no name", i, test.File)
		}
		if test.Test.Expect.IsEmpty() {
			t.Errorf("Test %s in %s has no expectation", test.Test.Name, test.File)
		}
		if test.Test.Program == nil {
			t.Errorf("Test %s in %s has no program", test.Test.Name, test.File)
		}
		if _, err := program(test); err != nil {
			t.Errorf("Test %s in %s does not decode: %v", test.Test.Name, test.File, err)
		}
	}
}

func TestSuiteSetup(t *testing.T) {
	dir := t.TempDir()
	suite := `
name: setup
setup:
  - {fn: double, params: [n], body: [{op: "*", left: n, right: 2}]}
tests:
  - name: uses_setup
    program: [{call: double, args: [21]}]
    expect: {value: 42}
  - name: skipped
    skip: "not yet"
    program: [1]
    expect: {value: 1}
`
	if err := os.WriteFile(filepath.Join(dir, "setup.yaml"), []byte(suite), 0o644); err != nil {
		t.Fatal(err)
	}

	tests, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(tests) != 2 {
		t.Fatalf("got %d tests, want 2", len(tests))
	}

	results := NewRunner().RunAll(tests)
	if !results[0].Passed {
		t.Errorf("uses_setup failed: %v", results[0].Error)
	}
	if !results[1].Skipped || results[1].SkipReason != "not yet" {
		t.Errorf("skipped = %+v", results[1])
	}

	stats := ComputeStats(results)
	if stats.Passed != 1 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if got := FormatStats(stats); got != "1 passed, 0 failed, 1 skipped (2 total)" {
		t.Errorf("FormatStats = %q", got)
	}
}

func TestLoadDirRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("tests: [{name: x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir); err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("expected an error naming bad.yaml, got %v", err)
	}
}

func node(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("bad yaml: %v", err)
	}
	return doc.Content[0]
}

func strPtr(s string) *string { return &s }

// checkExpectation must reject every kind of mismatch
func TestCheckExpectationMismatches(t *testing.T) {
	completed := types.RunResult{
		Status: types.Completed,
		Value:  types.NewInt(5),
		Output: []string{"hi\n"},
	}
	faulted := types.RunResult{
		Status:  types.Faulted,
		Fault:   types.F_USE_AFTER_MOVE,
		Message: "use of moved value `s`",
	}

	tests := []struct {
		name   string
		expect Expectation
		result types.RunResult
		ok     bool
	}{
		{"value matches", Expectation{Value: node(t, "5")}, completed, true},
		{"value differs", Expectation{Value: node(t, "6")}, completed, false},
		{"kind differs", Expectation{Value: node(t, "!i64 5")}, completed, false},
		{"display", Expectation{Display: "5"}, completed, true},
		{"type", Expectation{Type: "u8"}, completed, false},
		{"stdout matches", Expectation{Stdout: strPtr("hi\n")}, completed, true},
		{"stdout differs", Expectation{Stdout: strPtr("hi")}, completed, false},
		{"fault matches", Expectation{Fault: "UseAfterMove", Message: "`s`"}, faulted, true},
		{"fault kind differs", Expectation{Fault: "BorrowConflict"}, faulted, false},
		{"fault message differs", Expectation{Fault: "UseAfterMove", Message: "`t`"}, faulted, false},
		{"unknown fault name", Expectation{Fault: "Segfault"}, faulted, false},
		{"expected fault, completed", Expectation{Fault: "UseAfterMove"}, completed, false},
		{"expected value, faulted", Expectation{Value: node(t, "5")}, faulted, false},
		{"empty", Expectation{}, completed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkExpectation(tt.expect, tt.result)
			if tt.ok && err != nil {
				t.Errorf("unexpected mismatch: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("mismatch not detected")
			}
		})
	}
}

// BenchmarkLoadAllTests measures test loading performance
func BenchmarkLoadAllTests(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := LoadAllTests()
		if err != nil {
			b.Fatal(err)
		}
	}
}
