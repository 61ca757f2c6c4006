package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wirecontract/internal/ir"
)

// Snapshot captures every descriptor built for a scenario.
// It is serialized with canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string                    `json:"scenario_name"`
	Operations   []*ir.OperationDescriptor `json:"operations"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization.
func (s *Snapshot) toCanonicalMap() map[string]any {
	ops := make([]any, len(s.Operations))
	for i, op := range s.Operations {
		ops[i] = op
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"operations":    ops,
	}
}

// MarshalSnapshot returns the canonical JSON snapshot of a result.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Operations:   result.Descriptors,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its descriptors against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if descriptors don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's descriptors against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
