package models

const (
	StatusAccepted    = "Accepted"
	StatusWrongAnswer = "Wrong Answer"
	StatusError       = "Error"
	StatusFailed      = "Failed"
)

// TestCase is one input/expected-output pair plus the state of its last run.
// The harness fields hold per-language boilerplate and are never serialized
// to clients.
type TestCase struct {
	Name           string  `json:"name" yaml:"name"`
	Input          string  `json:"input" yaml:"input"`
	ExpectedOutput string  `json:"expectedOutput" yaml:"expectedOutput"`
	IsPermanent    bool    `json:"isPermanent" yaml:"isPermanent"`
	Status         string  `json:"status,omitempty" yaml:"-"`
	Output         *string `json:"output" yaml:"-"`

	JavaProgram       string `json:"-" yaml:"program"`
	CProgram          string `json:"-" yaml:"cProgram"`
	CppProgram        string `json:"-" yaml:"cppProgram"`
	PythonProgram     string `json:"-" yaml:"pythonProgram"`
	JavascriptProgram string `json:"-" yaml:"javascriptProgram"`
}

// WithResult returns a copy of tc carrying the given status and output.
func (tc TestCase) WithResult(status, output string) TestCase {
	tc.Status = status
	tc.Output = &output
	return tc
}

// InheritHarness fills missing harness templates from src.
func (tc TestCase) InheritHarness(src TestCase) TestCase {
	if tc.JavaProgram == "" {
		tc.JavaProgram = src.JavaProgram
	}
	if tc.CProgram == "" {
		tc.CProgram = src.CProgram
	}
	if tc.CppProgram == "" {
		tc.CppProgram = src.CppProgram
	}
	if tc.PythonProgram == "" {
		tc.PythonProgram = src.PythonProgram
	}
	if tc.JavascriptProgram == "" {
		tc.JavascriptProgram = src.JavascriptProgram
	}
	return tc
}

// ProblemFixture is the static test-case set of one problem.
type ProblemFixture struct {
	SlugName  string     `json:"slugName" yaml:"slugName"`
	TestCases []TestCase `json:"testCases" yaml:"testCases"`
}
