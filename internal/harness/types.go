package harness

import "github.com/Mirraz/http-replay-sub000/internal/graph"

// ExchangeResult describes one exchange written by a scenario.
type ExchangeResult struct {
	// Index is the exchange's position in the scenario fixtures.
	Index int `json:"index"`

	ExchangeID int64 `json:"exchange_id"`

	// Side holds the list element ids reported when the exchange committed.
	Side graph.SideResults `json:"side"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion holds.
	Pass bool `json:"pass"`

	// Exchanges are in commit order.
	Exchanges []ExchangeResult `json:"exchanges"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Exchanges: []ExchangeResult{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Exchange returns the result for fixture index, or nil if it was not written.
func (r *Result) Exchange(index int) *ExchangeResult {
	for i := range r.Exchanges {
		if r.Exchanges[i].Index == index {
			return &r.Exchanges[i]
		}
	}
	return nil
}
