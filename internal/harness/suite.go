package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NoScenariosError is returned when a suite directory contains no
// scenario files.
type NoScenariosError struct {
	Dir string
}

// Error implements the error interface.
func (e *NoScenariosError) Error() string {
	return fmt.Sprintf("no scenario files (*.yaml) found in %s", e.Dir)
}

// SuiteOptions configures a suite run.
type SuiteOptions struct {
	// Filter is a glob matched against the scenario file's base name
	// without extension. Empty matches every file.
	Filter string

	// Update rewrites golden trace snapshots instead of comparing
	// against them. Assertions still run.
	Update bool
}

// SuiteResult contains results from running a directory of scenarios.
type SuiteResult struct {
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Scenarios []ScenarioOutcome `json:"scenarios"`
}

// ScenarioOutcome is the result of one scenario file.
type ScenarioOutcome struct {
	Path string `json:"path"`

	// Name is the scenario's declared name. Empty when the file failed
	// to load.
	Name string `json:"name,omitempty"`

	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	// GoldenUpdated reports that this run rewrote the scenario's golden
	// snapshot.
	GoldenUpdated bool `json:"golden_updated,omitempty"`
}

// Failures returns the outcomes that did not pass, in suite order.
func (s *SuiteResult) Failures() []ScenarioOutcome {
	out := []ScenarioOutcome{}
	for _, sc := range s.Scenarios {
		if !sc.Pass {
			out = append(out, sc)
		}
	}
	return out
}

// RunDir loads and runs every scenario in dir with default options.
func RunDir(dir string) (*SuiteResult, error) {
	return RunSuite(dir, SuiteOptions{})
}

// RunSuite loads and runs every *.yaml / *.yml scenario in dir, in name
// order. A scenario that fails to load, fails to execute, fails its
// assertions or mismatches its golden snapshot counts as failed; the
// suite keeps going and reports all outcomes together.
//
// Golden snapshots live in dir/golden/{base}.golden. A scenario without
// one is judged on assertions alone; with Update set the snapshot is
// rewritten from the current run.
//
// Returns NoScenariosError when the directory holds no scenario files
// at all. A filter that matches none of the present files yields an
// empty result instead.
func RunSuite(dir string, opts SuiteOptions) (*SuiteResult, error) {
	paths, err := scenarioPaths(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &NoScenariosError{Dir: dir}
	}

	suite := &SuiteResult{Scenarios: []ScenarioOutcome{}}
	for _, path := range paths {
		base := scenarioBase(path)
		if opts.Filter != "" {
			matched, err := filepath.Match(opts.Filter, base)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}

		suite.Total++
		outcome := runOne(dir, path, base, opts)
		if outcome.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
		suite.Scenarios = append(suite.Scenarios, outcome)
	}

	return suite, nil
}

func runOne(dir, path, base string, opts SuiteOptions) ScenarioOutcome {
	outcome := ScenarioOutcome{Path: path}

	scenario, err := LoadScenario(path)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return outcome
	}
	outcome.Name = scenario.Name

	result, err := Run(scenario)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("scenario execution failed: %v", err)}
		return outcome
	}
	errs := append([]string{}, result.Errors...)

	goldenPath := filepath.Join(dir, "golden", base+".golden")
	switch {
	case opts.Update:
		if err := writeGolden(goldenPath, scenario.Name, result); err != nil {
			errs = append(errs, fmt.Sprintf("update golden snapshot: %v", err))
		} else {
			outcome.GoldenUpdated = true
		}
	default:
		want, err := os.ReadFile(goldenPath)
		if err == nil {
			got, snapErr := Snapshot(scenario.Name, result)
			if snapErr != nil {
				errs = append(errs, fmt.Sprintf("snapshot trace: %v", snapErr))
			} else if !bytes.Equal(want, got) {
				errs = append(errs, "trace does not match golden snapshot (re-run with --update)")
			}
		}
	}

	outcome.Errors = errs
	outcome.Pass = len(errs) == 0
	return outcome
}

func writeGolden(path, name string, result *Result) error {
	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func scenarioPaths(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

func scenarioBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
