package harness

import (
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
)

// Snapshot summarizes a scenario result for golden comparison.
// Element ids of side results depend on write interleaving, so only their
// counts are kept.
type Snapshot struct {
	ScenarioName string             `json:"scenario_name"`
	Pass         bool               `json:"pass"`
	Exchanges    []ExchangeSnapshot `json:"exchanges"`
}

// ExchangeSnapshot is the stable part of an ExchangeResult.
type ExchangeSnapshot struct {
	Index      int            `json:"index"`
	ExchangeID int64          `json:"exchange_id"`
	Side       map[string]int `json:"side"`
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(name string, result *Result) Snapshot {
	snap := Snapshot{
		ScenarioName: name,
		Pass:         result.Pass,
		Exchanges:    make([]ExchangeSnapshot, len(result.Exchanges)),
	}
	for i, ex := range result.Exchanges {
		side := make(map[string]int, len(ex.Side))
		for name, ids := range ex.Side {
			side[name] = len(ids)
		}
		snap.Exchanges[i] = ExchangeSnapshot{Index: ex.Index, ExchangeID: ex.ExchangeID, Side: side}
	}
	sort.SliceStable(snap.Exchanges, func(i, j int) bool {
		return snap.Exchanges[i].ExchangeID < snap.Exchanges[j].ExchangeID
	})
	return snap
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapJSON, err := ir.MarshalCanonical(NewSnapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapJSON)
	return nil
}
