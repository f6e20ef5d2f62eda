package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func strp(s string) *string { return &s }

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/full_capture.yaml")
	require.NoError(t, err)

	assert.Equal(t, "full_capture", scenario.Name)
	assert.NotEmpty(t, scenario.Description)
	require.Len(t, scenario.Fixtures, 1)
	assert.Equal(t, filepath.Join("testdata", "fixtures", "site.yaml"), scenario.Fixtures[0])

	require.Len(t, scenario.Steps, 3)
	for i, step := range scenario.Steps {
		require.NotNil(t, step.Record)
		assert.Equal(t, i, *step.Record)
	}

	require.NotEmpty(t, scenario.Assertions)
	first := scenario.Assertions[0]
	assert.Equal(t, AssertHeaderOrder, first.Type)
	assert.Equal(t, PartRequest, first.Part)
	assert.Equal(t, []string{"Host", "Accept"}, first.Names)
}

func TestLoadScenario_AbsoluteFixtureKept(t *testing.T) {
	abs, err := filepath.Abs("testdata/fixtures/site.yaml")
	require.NoError(t, err)

	path := writeScenario(t, "name: abs\nfixtures:\n  - "+abs+"\nsteps:\n  - record: 0\n")
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, abs, scenario.Fixtures[0])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, "name: typo\nfixtures: [a.yaml]\nsteps:\n  - record: 0\nassertion:\n  - type: round_trip\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidateScenario(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Name:     "s",
			Fixtures: []string{"f.yaml"},
			Steps:    []Step{{Record: intp(0)}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(s *Scenario) { s.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "no fixtures",
			mutate:  func(s *Scenario) { s.Fixtures = nil },
			wantErr: "at least one fixture",
		},
		{
			name:    "no steps",
			mutate:  func(s *Scenario) { s.Steps = nil },
			wantErr: "at least one step",
		},
		{
			name:    "empty step",
			mutate:  func(s *Scenario) { s.Steps = []Step{{}} },
			wantErr: "exactly one of record, begin, deliver, interrupt",
		},
		{
			name:    "two fields in a step",
			mutate:  func(s *Scenario) { s.Steps = []Step{{Record: intp(0), Interrupt: true}} },
			wantErr: "exactly one of record, begin, deliver, interrupt",
		},
		{
			name:    "negative index",
			mutate:  func(s *Scenario) { s.Steps = []Step{{Record: intp(-1)}} },
			wantErr: "non-negative",
		},
		{
			name:    "written twice",
			mutate:  func(s *Scenario) { s.Steps = []Step{{Record: intp(0)}, {Record: intp(0)}} },
			wantErr: "written twice",
		},
		{
			name:    "deliver without begin",
			mutate:  func(s *Scenario) { s.Steps = []Step{{Record: intp(0)}, {Deliver: intp(0)}} },
			wantErr: "is not pending",
		},
		{
			name:    "never settled",
			mutate:  func(s *Scenario) { s.Steps = []Step{{Begin: intp(0)}} },
			wantErr: "never delivered or interrupted",
		},
		{
			name: "assertion without type",
			mutate: func(s *Scenario) {
				s.Assertions = []Assertion{{}}
			},
			wantErr: "type is required",
		},
		{
			name: "unknown assertion",
			mutate: func(s *Scenario) {
				s.Assertions = []Assertion{{Type: "trace_contains"}}
			},
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "header order without part",
			mutate: func(s *Scenario) {
				s.Assertions = []Assertion{{Type: AssertHeaderOrder}}
			},
			wantErr: "part must be",
		},
		{
			name: "body equals with both forms",
			mutate: func(s *Scenario) {
				s.Assertions = []Assertion{{Type: AssertBodyEquals, Part: PartRequest, Body: strp("a"), BodyBase64: strp("YQ==")}}
			},
			wantErr: "exactly one of body, body_base64",
		},
		{
			name: "table count without table",
			mutate: func(s *Scenario) {
				s.Assertions = []Assertion{{Type: AssertTableCount}}
			},
			wantErr: "table is required",
		},
		{
			name: "negative count",
			mutate: func(s *Scenario) {
				s.Assertions = []Assertion{{Type: AssertTableCount, Table: "urls", Count: -1}}
			},
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateScenario_InterruptSettlesPending(t *testing.T) {
	s := &Scenario{
		Name:     "s",
		Fixtures: []string{"f.yaml"},
		Steps: []Step{
			{Begin: intp(0)},
			{Interrupt: true},
			{Record: intp(1)},
		},
	}
	assert.NoError(t, validateScenario(s))
}

func TestValidateScenario_OverlappingExchanges(t *testing.T) {
	s := &Scenario{
		Name:     "s",
		Fixtures: []string{"f.yaml"},
		Steps: []Step{
			{Begin: intp(0)},
			{Begin: intp(2)},
			{Record: intp(1)},
			{Deliver: intp(2)},
			{Deliver: intp(0)},
		},
	}
	assert.NoError(t, validateScenario(s))
}
