package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingSuiteYAML = `
name: sum_pipeline
description: "Adds two numbers"
script: |
  x = 10
  y = 20
  z = x + y
assertions:
  - type: final_binding
    name: z
    value: 30
`

const failingSuiteYAML = `
name: wrong_sum
description: "Expects an event count the trace cannot satisfy"
script: |
  x = 10
  y = 20
  z = x + y
assertions:
  - type: trace_count
    kind: assign
    count: 99
`

const crashSuiteYAML = `
name: crasher
description: "Divides by zero without expecting it"
script: |
  x = 1 / 0
assertions:
  - type: trace_count
    kind: assign
    count: 0
`

const scriptFileSuiteYAML = `
name: double_from_file
description: "Runs a script loaded from disk"
script_file: double.hsl
assertions:
  - type: final_binding
    name: y
    value: 8
`

func writeSuiteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunDir_MixedResults(t *testing.T) {
	dir := t.TempDir()
	writeSuiteFile(t, dir, "01_passing.yaml", passingSuiteYAML)
	failingPath := writeSuiteFile(t, dir, "02_failing.yaml", failingSuiteYAML)
	brokenPath := writeSuiteFile(t, dir, "03_broken.yaml", "name: [\n")

	suite, err := RunDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 2, suite.Failed)
	require.Len(t, suite.Scenarios, 3)

	assert.True(t, suite.Scenarios[0].Pass)
	assert.Equal(t, "sum_pipeline", suite.Scenarios[0].Name)

	assert.False(t, suite.Scenarios[1].Pass)
	assert.Equal(t, failingPath, suite.Scenarios[1].Path)
	assert.Equal(t, "wrong_sum", suite.Scenarios[1].Name)
	require.NotEmpty(t, suite.Scenarios[1].Errors)
	assert.Contains(t, suite.Scenarios[1].Errors[0], "Assertion failed: trace_count")

	assert.False(t, suite.Scenarios[2].Pass)
	assert.Equal(t, brokenPath, suite.Scenarios[2].Path)
	assert.Empty(t, suite.Scenarios[2].Name)
	require.NotEmpty(t, suite.Scenarios[2].Errors)
	assert.Contains(t, suite.Scenarios[2].Errors[0], "failed to load scenario")

	assert.Len(t, suite.Failures(), 2)
}

func TestRunDir_Empty(t *testing.T) {
	dir := t.TempDir()

	suite, err := RunDir(dir)
	assert.Nil(t, suite)

	var noScenarios *NoScenariosError
	require.ErrorAs(t, err, &noScenarios)
	assert.Equal(t, dir, noScenarios.Dir)
	assert.Contains(t, err.Error(), "no scenario files")
}

func TestRunDir_ExecutionError(t *testing.T) {
	dir := t.TempDir()
	writeSuiteFile(t, dir, "crash.yaml", crashSuiteYAML)

	suite, err := RunDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, suite.Total)
	assert.Equal(t, 0, suite.Passed)
	require.Len(t, suite.Scenarios, 1)
	assert.Equal(t, "crasher", suite.Scenarios[0].Name)
	require.NotEmpty(t, suite.Scenarios[0].Errors)
	assert.Contains(t, suite.Scenarios[0].Errors[0], "scenario execution failed")
	assert.Contains(t, suite.Scenarios[0].Errors[0], "division by zero")
}

func TestRunDir_ScriptFileScenario(t *testing.T) {
	dir := t.TempDir()
	script := "x = 4\ny = x * 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "double.hsl"), []byte(script), 0o644))
	writeSuiteFile(t, dir, "double.yaml", scriptFileSuiteYAML)

	suite, err := RunDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Empty(t, suite.Failures())
}

func TestRunSuite_Filter(t *testing.T) {
	dir := t.TempDir()
	writeSuiteFile(t, dir, "alpha_sum.yaml", passingSuiteYAML)
	writeSuiteFile(t, dir, "beta_crash.yaml", crashSuiteYAML)

	suite, err := RunSuite(dir, SuiteOptions{Filter: "alpha*"})
	require.NoError(t, err)
	assert.Equal(t, 1, suite.Total)
	assert.Equal(t, 1, suite.Passed)

	suite, err = RunSuite(dir, SuiteOptions{Filter: "gamma*"})
	require.NoError(t, err)
	assert.Zero(t, suite.Total)
	assert.Empty(t, suite.Scenarios)
}

func TestRunSuite_InvalidFilter(t *testing.T) {
	dir := t.TempDir()
	writeSuiteFile(t, dir, "alpha_sum.yaml", passingSuiteYAML)

	_, err := RunSuite(dir, SuiteOptions{Filter: "[bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestRunSuite_GoldenUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeSuiteFile(t, dir, "golden_sum.yaml", passingSuiteYAML)
	goldenPath := filepath.Join(dir, "golden", "golden_sum.golden")

	suite, err := RunSuite(dir, SuiteOptions{Update: true})
	require.NoError(t, err)
	require.Len(t, suite.Scenarios, 1)
	assert.True(t, suite.Scenarios[0].Pass)
	assert.True(t, suite.Scenarios[0].GoldenUpdated)
	require.FileExists(t, goldenPath)

	// The harness clock is pinned, so a second run reproduces the
	// snapshot byte for byte.
	suite, err = RunSuite(dir, SuiteOptions{})
	require.NoError(t, err)
	assert.True(t, suite.Scenarios[0].Pass)
	assert.False(t, suite.Scenarios[0].GoldenUpdated)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}"), 0o644))
	suite, err = RunSuite(dir, SuiteOptions{})
	require.NoError(t, err)
	assert.False(t, suite.Scenarios[0].Pass)
	require.NotEmpty(t, suite.Scenarios[0].Errors)
	assert.Contains(t, suite.Scenarios[0].Errors[0], "does not match golden snapshot")
}
