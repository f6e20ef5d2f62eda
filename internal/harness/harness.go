package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/Mirraz/http-replay-sub000/internal/capture"
	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/store"
	"github.com/Mirraz/http-replay-sub000/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with deterministic session identifiers.
type Harness struct {
	recorder *capture.Recorder
	replayer *capture.Replayer

	fixtures []*capture.Exchange
	session  *capture.Session
	pending  map[int]*pendingExchange
	result   *Result
}

type pendingExchange struct {
	inflight *capture.InFlight
	done     chan commitOutcome
}

type commitOutcome struct {
	rec *capture.Recorded
	err error
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load fixture exchanges
// 3. Start a session and run the steps
// 4. Evaluate assertions against the stored exchanges
func Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	var fixtures []*capture.Exchange
	for _, path := range scenario.Fixtures {
		exchanges, err := capture.LoadFixtures(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixtures: %w", err)
		}
		fixtures = append(fixtures, exchanges...)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	eng, err := capture.NewEngine(st, graph.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	ids := testutil.NewSequentialIDs()
	h := &Harness{
		recorder: capture.NewRecorder(eng,
			capture.WithLogger(logger),
			capture.WithIDGenerator(func() (uuid.UUID, error) { return ids.Next(), nil }),
		),
		replayer: capture.NewReplayer(eng),
		fixtures: fixtures,
		pending:  make(map[int]*pendingExchange),
		result:   NewResult(),
	}

	ctx := context.Background()
	label := scenario.Label
	if label == "" {
		label = scenario.Name
	}
	h.session, err = h.recorder.StartSession(ctx, label)
	if err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}
	sort.SliceStable(h.result.Exchanges, func(i, j int) bool {
		return h.result.Exchanges[i].ExchangeID < h.result.Exchanges[j].ExchangeID
	})

	actx := &AssertionContext{
		Ctx:      ctx,
		Store:    st,
		Replayer: h.replayer,
		Fixtures: fixtures,
		Result:   h.result,
	}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		h.result.AddError(errMsg)
	}
	return h.result, nil
}

func (h *Harness) fixture(index int) (*capture.Exchange, error) {
	if index < 0 || index >= len(h.fixtures) {
		return nil, fmt.Errorf("exchange %d out of range (%d fixtures)", index, len(h.fixtures))
	}
	return h.fixtures[index], nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) error {
	switch {
	case step.Record != nil:
		ex, err := h.fixture(*step.Record)
		if err != nil {
			return err
		}
		rec, err := h.recorder.Record(ctx, h.session, ex)
		if err != nil {
			return err
		}
		h.addResult(*step.Record, rec)
		return nil

	case step.Begin != nil:
		ex, err := h.fixture(*step.Begin)
		if err != nil {
			return err
		}
		f := h.recorder.Begin(h.session, ex.Request)
		if ex.SecurityInfoRaw != nil {
			f.SetSecurityInfoRaw(ex.SecurityInfoRaw)
		} else {
			f.SetSecurityInfo(ex.SecurityInfo)
		}
		p := &pendingExchange{inflight: f, done: make(chan commitOutcome, 1)}
		go func() {
			rec, err := f.Commit(ctx)
			p.done <- commitOutcome{rec, err}
		}()
		h.pending[*step.Begin] = p
		return nil

	case step.Deliver != nil:
		p, ok := h.pending[*step.Deliver]
		if !ok {
			return fmt.Errorf("exchange %d is not pending", *step.Deliver)
		}
		ex, _ := h.fixture(*step.Deliver)
		p.inflight.SetResponse(ex.Response)
		p.inflight.SetCache(ex.Cache)
		return h.settle(*step.Deliver)

	case step.Interrupt:
		if err := h.recorder.Interrupt(ctx, h.session); err != nil {
			return err
		}
		return h.settleAll()

	default:
		return fmt.Errorf("empty step")
	}
}

func (h *Harness) settle(index int) error {
	p := h.pending[index]
	delete(h.pending, index)
	out := <-p.done
	if out.err != nil {
		return fmt.Errorf("exchange %d: %w", index, out.err)
	}
	h.addResult(index, out.rec)
	return nil
}

func (h *Harness) settleAll() error {
	indexes := make([]int, 0, len(h.pending))
	for idx := range h.pending {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		if err := h.settle(idx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) addResult(index int, rec *capture.Recorded) {
	h.result.Exchanges = append(h.result.Exchanges, ExchangeResult{
		Index:      index,
		ExchangeID: rec.ExchangeID,
		Side:       rec.Side,
	})
}
