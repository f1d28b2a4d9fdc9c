// Package testrunner executes YAML page scenarios: load an HTML document,
// drive it through a sequence of interaction steps, then check expectations
// against the final DOM, console and trace state.
package testrunner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/pagejs/harness"
)

type Result int

const (
	Pass Result = iota
	Fail
	Skip
	Error
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

type TestResult struct {
	Path    string
	Name    string
	Result  Result
	Message string
	Elapsed time.Duration
}

type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int
	Elapsed time.Duration
}

type Config struct {
	Dir     string // directory scanned recursively for *.yaml scenarios
	Filter  string // substring match on scenario path
	Verbose bool
}

// Scenario is one YAML test case: a page, interaction steps, expectations.
type Scenario struct {
	Name    string          `yaml:"name"`
	Skip    string          `yaml:"skip,omitempty"` // non-empty skips with this reason
	HTML    string          `yaml:"html"`
	Options harness.Options `yaml:"options,omitempty"`
	Steps   []Step          `yaml:"steps,omitempty"`
	Expect  []Expectation   `yaml:"expect,omitempty"`
}

// Step is one interaction; exactly one field is set per entry.
type Step struct {
	Click     string        `yaml:"click,omitempty"`
	Type      *TypeStep     `yaml:"type,omitempty"`
	Check     *CheckStep    `yaml:"check,omitempty"`
	Focus     string        `yaml:"focus,omitempty"`
	Blur      string        `yaml:"blur,omitempty"`
	Submit    string        `yaml:"submit,omitempty"`
	Dispatch  *DispatchStep `yaml:"dispatch,omitempty"`
	Script    string        `yaml:"script,omitempty"`
	Advance   *int64        `yaml:"advance,omitempty"`
	AdvanceTo *int64        `yaml:"advanceTo,omitempty"`
	Flush     bool          `yaml:"flush,omitempty"`
}

type TypeStep struct {
	Sel  string `yaml:"sel"`
	Text string `yaml:"text"`
}

type CheckStep struct {
	Sel     string `yaml:"sel"`
	Checked bool   `yaml:"checked"`
}

type DispatchStep struct {
	Sel   string `yaml:"sel"`
	Event string `yaml:"event"`
}

// Expectation is one check against the finished page; exactly one field
// is set per entry.
type Expectation struct {
	Text            *SelectorExpect `yaml:"text,omitempty"`
	Value           *SelectorExpect `yaml:"value,omitempty"`
	Checked         *CheckedExpect  `yaml:"checked,omitempty"`
	Exists          *ExistsExpect   `yaml:"exists,omitempty"`
	ConsoleContains string          `yaml:"consoleContains,omitempty"`
	TraceContains   string          `yaml:"traceContains,omitempty"`
}

type SelectorExpect struct {
	Sel    string `yaml:"sel"`
	Equals string `yaml:"equals"`
}

type CheckedExpect struct {
	Sel    string `yaml:"sel"`
	Equals bool   `yaml:"equals"`
}

type ExistsExpect struct {
	Sel    string `yaml:"sel"`
	Equals bool   `yaml:"equals"`
}

// Load reads and validates one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(s.HTML) == "" {
		return nil, fmt.Errorf("%s: scenario has no html", path)
	}
	return &s, nil
}

// RunScenario drives one scenario to completion.
func RunScenario(s *Scenario) error {
	page, err := harness.LoadWithOptions(s.HTML, s.Options)
	if err != nil {
		return err
	}
	for i, step := range s.Steps {
		if err := applyStep(page, step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	for i, exp := range s.Expect {
		if err := checkExpectation(page, exp); err != nil {
			return fmt.Errorf("expectation %d: %w", i+1, err)
		}
	}
	return nil
}

func applyStep(page *harness.Page, step Step) error {
	switch {
	case step.Click != "":
		return page.Click(step.Click)
	case step.Type != nil:
		return page.TypeText(step.Type.Sel, step.Type.Text)
	case step.Check != nil:
		return page.SetChecked(step.Check.Sel, step.Check.Checked)
	case step.Focus != "":
		return page.Focus(step.Focus)
	case step.Blur != "":
		return page.Blur(step.Blur)
	case step.Submit != "":
		return page.Submit(step.Submit)
	case step.Dispatch != nil:
		return page.Dispatch(step.Dispatch.Sel, step.Dispatch.Event)
	case step.Script != "":
		return page.Script(step.Script)
	case step.Advance != nil:
		return page.AdvanceTime(*step.Advance)
	case step.AdvanceTo != nil:
		return page.AdvanceTimeTo(*step.AdvanceTo)
	case step.Flush:
		return page.Flush()
	}
	return fmt.Errorf("empty step")
}

func checkExpectation(page *harness.Page, exp Expectation) error {
	switch {
	case exp.Text != nil:
		return page.AssertText(exp.Text.Sel, exp.Text.Equals)
	case exp.Value != nil:
		return page.AssertValue(exp.Value.Sel, exp.Value.Equals)
	case exp.Checked != nil:
		return page.AssertChecked(exp.Checked.Sel, exp.Checked.Equals)
	case exp.Exists != nil:
		return page.AssertExists(exp.Exists.Sel, exp.Exists.Equals)
	case exp.ConsoleContains != "":
		for _, line := range page.Console() {
			if strings.Contains(line, exp.ConsoleContains) {
				return nil
			}
		}
		return fmt.Errorf("console does not contain %q (got %v)", exp.ConsoleContains, page.Console())
	case exp.TraceContains != "":
		for _, line := range page.TraceLog() {
			if strings.Contains(line, exp.TraceContains) {
				return nil
			}
		}
		return fmt.Errorf("trace does not contain %q", exp.TraceContains)
	}
	return fmt.Errorf("empty expectation")
}

// RunFile loads and runs one scenario file.
func RunFile(path string) TestResult {
	start := time.Now()
	s, err := Load(path)
	if err != nil {
		return TestResult{Path: path, Result: Error, Message: err.Error(), Elapsed: time.Since(start)}
	}
	tr := TestResult{Path: path, Name: s.Name}
	if s.Skip != "" {
		tr.Result = Skip
		tr.Message = s.Skip
	} else if err := RunScenario(s); err != nil {
		tr.Result = Fail
		tr.Message = err.Error()
	} else {
		tr.Result = Pass
	}
	tr.Elapsed = time.Since(start)
	return tr
}

// Run discovers scenario files under cfg.Dir and runs each in path order.
func Run(cfg Config) ([]TestResult, Summary) {
	start := time.Now()
	var paths []string
	filepath.WalkDir(cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if cfg.Filter != "" && !strings.Contains(path, cfg.Filter) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)

	var results []TestResult
	var summary Summary
	for _, path := range paths {
		tr := RunFile(path)
		results = append(results, tr)

		summary.Total++
		switch tr.Result {
		case Pass:
			summary.Passed++
		case Fail:
			summary.Failed++
		case Skip:
			summary.Skipped++
		case Error:
			summary.Errors++
		}

		if cfg.Verbose {
			msg := ""
			if tr.Message != "" {
				msg = " " + tr.Message
			}
			fmt.Printf("%s %s%s\n", tr.Result, path, msg)
		}
	}
	summary.Elapsed = time.Since(start)
	return results, summary
}
