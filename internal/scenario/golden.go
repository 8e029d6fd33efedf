package scenario

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string   `json:"scenario_name"`
	Pass         bool     `json:"pass"`
	Trace        []Event  `json:"trace"`
	Errors       []string `json:"errors,omitempty"`
}

// AssertGolden compares result's trace against
// testdata/golden/{scenarioName}.golden.
//
// Runs must use deterministic keys (cache.SequenceGenerator) for the
// comparison to be stable. To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Pass:         result.Pass,
		Trace:        result.Trace,
		Errors:       result.Errors,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace snapshot: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
}
