package conformance

import "gopkg.in/yaml.v3"

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Setup       *yaml.Node `yaml:"setup,omitempty"` // statements prepended to every program
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"`  // bool or string
	Ticks       int64       `yaml:"ticks,omitempty"` // tick budget; 0 uses the default
	Program     *yaml.Node  `yaml:"program"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test.
// A test with no fault expectation must complete.
type Expectation struct {
	Value   *yaml.Node `yaml:"value,omitempty"`   // an expression whose value must Equal the result
	Display string     `yaml:"display,omitempty"` // debug form of the result
	Type    string     `yaml:"type,omitempty"`    // i32, String, [i32; 2], ...
	Fault   string     `yaml:"fault,omitempty"`   // UseAfterMove, BorrowConflict, ...
	Message string     `yaml:"message,omitempty"` // fragment of the fault message
	Stdout  *string    `yaml:"stdout,omitempty"`  // exact console output
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}

	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}

// IsEmpty reports whether the expectation checks nothing
func (e *Expectation) IsEmpty() bool {
	return e.Value == nil && e.Display == "" && e.Type == "" && e.Fault == "" && e.Stdout == nil
}
