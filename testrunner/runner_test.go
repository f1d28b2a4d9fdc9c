package testrunner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadScenario(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "counter.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "counter increments on click", s.Name)
	assert.Len(t, s.Steps, 2)
	assert.Len(t, s.Expect, 1)
	require.NotEmpty(t, s.Expect[0].Text)
	assert.Equal(t, "#count", s.Expect[0].Text.Sel)
}

func TestLoadRejectsMissingHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	writeFile(t, path, "name: no page\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no html")
}

func TestRunScenarioPasses(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "counter.yaml"))
	require.NoError(t, err)
	require.NoError(t, RunScenario(s))
}

func TestRunScenarioReportsFailedExpectation(t *testing.T) {
	s := &Scenario{
		HTML:   `<html><body><p id="x">actual</p></body></html>`,
		Expect: []Expectation{{Text: &SelectorExpect{Sel: "#x", Equals: "wanted"}}},
	}
	err := RunScenario(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expectation 1")
	assert.Contains(t, err.Error(), `"wanted"`)
}

func TestRunScenarioReportsFailingStep(t *testing.T) {
	s := &Scenario{
		HTML:  `<html><body></body></html>`,
		Steps: []Step{{Click: "#missing"}},
	}
	err := RunScenario(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
}

func TestRunDirectory(t *testing.T) {
	results, summary := Run(Config{Dir: "testdata"})
	require.Equal(t, summary.Total, len(results))
	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Errors)
	for _, r := range results {
		if r.Result == Pass {
			assert.NotEmpty(t, r.Name, "scenario %s should carry its name", r.Path)
		}
	}
}

func TestRunFilter(t *testing.T) {
	_, summary := Run(Config{Dir: "testdata", Filter: "timers"})
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Passed)
}

func TestRunFileMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "name: [unclosed\n")
	tr := RunFile(path)
	assert.Equal(t, Error, tr.Result)
	assert.NotEmpty(t, tr.Message)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "PASS", Pass.String())
	assert.Equal(t, "FAIL", Fail.String())
	assert.Equal(t, "SKIP", Skip.String())
	assert.Equal(t, "ERROR", Error.String())
}
