package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a capture scenario: which exchanges to write, in what
// order, and what the store must hand back afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixtures lists exchange fixture files. Paths are relative to the
	// scenario file once loaded with LoadScenario.
	Fixtures []string `yaml:"fixtures"`

	// Steps run in order against one session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the stored exchanges.
	Assertions []Assertion `yaml:"assertions"`

	// Label is the session label. Defaults to the scenario name.
	Label string `yaml:"label,omitempty"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	// Record writes fixture exchange Record with all of its parts.
	Record *int `yaml:"record,omitempty"`

	// Begin starts fixture exchange Begin without response or cache entry.
	Begin *int `yaml:"begin,omitempty"`

	// Deliver hands a begun exchange its response and cache entry.
	Deliver *int `yaml:"deliver,omitempty"`

	// Interrupt interrupts the session.
	Interrupt bool `yaml:"interrupt,omitempty"`
}

// Assertion validates a stored exchange or the store itself.
type Assertion struct {
	// Type specifies the assertion type:
	// - "header_order": header names in order (exchange, part, names)
	// - "body_equals": body content (exchange, part, body or body_base64)
	// - "security_decoded": security info stored decoded (exchange, decoded)
	// - "null_response": exchange has no response (exchange)
	// - "round_trip": stored exchange digests equal to its fixture (exchange)
	// - "table_count": row count of a table (table, count)
	Type string `yaml:"type"`

	// Exchange is the fixture index of the exchange under test.
	Exchange int `yaml:"exchange"`

	// Part selects "request" or "response" (header_order, body_equals).
	Part string `yaml:"part,omitempty"`

	// Names are the expected header names (header_order).
	Names []string `yaml:"names,omitempty"`

	// Body is the expected body text (body_equals).
	Body *string `yaml:"body,omitempty"`

	// BodyBase64 is the expected body, base64 encoded (body_equals).
	BodyBase64 *string `yaml:"body_base64,omitempty"`

	// Decoded is the expected storage form (security_decoded).
	Decoded bool `yaml:"decoded,omitempty"`

	// Table is the table to count (table_count).
	Table string `yaml:"table,omitempty"`

	// Count is the expected row count (table_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertHeaderOrder     = "header_order"
	AssertBodyEquals      = "body_equals"
	AssertSecurityDecoded = "security_decoded"
	AssertNullResponse    = "null_response"
	AssertRoundTrip       = "round_trip"
	AssertTableCount      = "table_count"
)

// Message parts.
const (
	PartRequest  = "request"
	PartResponse = "response"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Fixture paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, fixture := range scenario.Fixtures {
		if !filepath.IsAbs(fixture) {
			scenario.Fixtures[i] = filepath.Join(base, fixture)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that all required fields are present and that
// every begun exchange is eventually delivered or interrupted.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Fixtures) == 0 {
		return fmt.Errorf("at least one fixture file is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	seen := make(map[int]bool)
	pending := make(map[int]bool)
	for i, step := range s.Steps {
		set := 0
		for _, b := range []bool{step.Record != nil, step.Begin != nil, step.Deliver != nil, step.Interrupt} {
			if b {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of record, begin, deliver, interrupt is required", i)
		}

		switch {
		case step.Record != nil, step.Begin != nil:
			idx := stepIndex(step)
			if idx < 0 {
				return fmt.Errorf("steps[%d]: exchange index must be non-negative", i)
			}
			if seen[idx] {
				return fmt.Errorf("steps[%d]: exchange %d is written twice", i, idx)
			}
			seen[idx] = true
			if step.Begin != nil {
				pending[idx] = true
			}
		case step.Deliver != nil:
			if !pending[*step.Deliver] {
				return fmt.Errorf("steps[%d]: exchange %d is not pending", i, *step.Deliver)
			}
			delete(pending, *step.Deliver)
		case step.Interrupt:
			clear(pending)
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("exchange %d is never delivered or interrupted", anyKey(pending))
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func stepIndex(step Step) int {
	switch {
	case step.Record != nil:
		return *step.Record
	case step.Begin != nil:
		return *step.Begin
	case step.Deliver != nil:
		return *step.Deliver
	default:
		return -1
	}
}

func anyKey(m map[int]bool) int {
	for k := range m {
		return k
	}
	return -1
}

// validateAssertion checks that an assertion has required fields for its type.
func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertHeaderOrder:
		if err := validatePart(index, a); err != nil {
			return err
		}
	case AssertBodyEquals:
		if err := validatePart(index, a); err != nil {
			return err
		}
		if (a.Body == nil) == (a.BodyBase64 == nil) {
			return fmt.Errorf("assertions[%d]: exactly one of body, body_base64 is required for body_equals", index)
		}
	case AssertSecurityDecoded, AssertNullResponse, AssertRoundTrip:
	case AssertTableCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for table_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for table_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validatePart(index int, a Assertion) error {
	if a.Part != PartRequest && a.Part != PartResponse {
		return fmt.Errorf("assertions[%d]: part must be %q or %q for %s", index, PartRequest, PartResponse, a.Type)
	}
	return nil
}
