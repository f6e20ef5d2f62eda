package harness

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/Mirraz/http-replay-sub000/internal/capture"
	"github.com/Mirraz/http-replay-sub000/internal/querysql"
	"github.com/Mirraz/http-replay-sub000/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Exchange int    // Fixture index, -1 for store-wide assertions
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Exchange >= 0 {
		fmt.Fprintf(&buf, " (exchange %d)", e.Exchange)
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// AssertionContext provides access to the store and the scenario's inputs.
type AssertionContext struct {
	Ctx      context.Context
	Store    *store.Store
	Replayer *capture.Replayer
	Fixtures []*capture.Exchange
	Result   *Result
}

// load returns the stored exchange for a fixture index.
func (actx *AssertionContext) load(index int) (*capture.Exchange, error) {
	er := actx.Result.Exchange(index)
	if er == nil {
		return nil, fmt.Errorf("exchange %d was not written", index)
	}
	return actx.Replayer.Load(actx.Ctx, er.ExchangeID)
}

func assertHeaderOrder(ex *capture.Exchange, a Assertion) error {
	var headers []capture.Header
	switch a.Part {
	case PartRequest:
		headers = ex.Request.Headers
	case PartResponse:
		if ex.Response == nil {
			return &AssertionError{
				Type:     AssertHeaderOrder,
				Exchange: a.Exchange,
				Expected: fmt.Sprintf("response headers %v", a.Names),
				Actual:   "no response",
			}
		}
		headers = ex.Response.Headers
	}
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = h.Name
	}
	want := a.Names
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(names, want) {
		return &AssertionError{
			Type:     AssertHeaderOrder,
			Exchange: a.Exchange,
			Expected: fmt.Sprintf("%s headers %v", a.Part, want),
			Actual:   fmt.Sprintf("%v", names),
		}
	}
	return nil
}

func assertBodyEquals(ex *capture.Exchange, a Assertion) error {
	var want []byte
	if a.Body != nil {
		want = []byte(*a.Body)
	} else {
		b, err := base64.StdEncoding.DecodeString(*a.BodyBase64)
		if err != nil {
			return fmt.Errorf("body_base64: %w", err)
		}
		want = b
	}

	var got []byte
	switch a.Part {
	case PartRequest:
		got = ex.Request.Body
	case PartResponse:
		if ex.Response != nil {
			got = ex.Response.Body
		}
	}
	if !bytes.Equal(got, want) {
		return &AssertionError{
			Type:     AssertBodyEquals,
			Exchange: a.Exchange,
			Expected: fmt.Sprintf("%s body %q", a.Part, want),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertSecurityDecoded(ex *capture.Exchange, a Assertion) error {
	decoded := ex.SecurityInfo != nil
	if decoded != a.Decoded {
		actual := "no security info"
		switch {
		case decoded:
			actual = "decoded"
		case ex.SecurityInfoRaw != nil:
			actual = fmt.Sprintf("raw (%d bytes)", len(ex.SecurityInfoRaw))
		}
		return &AssertionError{
			Type:     AssertSecurityDecoded,
			Exchange: a.Exchange,
			Expected: fmt.Sprintf("decoded=%v", a.Decoded),
			Actual:   actual,
		}
	}
	return nil
}

func assertNullResponse(ex *capture.Exchange, a Assertion) error {
	if ex.Response != nil {
		return &AssertionError{
			Type:     AssertNullResponse,
			Exchange: a.Exchange,
			Expected: "no response",
			Actual:   fmt.Sprintf("response with status %d", ex.Response.StatusCode),
		}
	}
	return nil
}

func assertRoundTrip(actx *AssertionContext, ex *capture.Exchange, a Assertion) error {
	if a.Exchange < 0 || a.Exchange >= len(actx.Fixtures) {
		return fmt.Errorf("exchange %d out of range", a.Exchange)
	}
	want, err := capture.ExchangeDigest(actx.Fixtures[a.Exchange])
	if err != nil {
		return fmt.Errorf("fixture digest: %w", err)
	}
	got, err := capture.ExchangeDigest(ex)
	if err != nil {
		return fmt.Errorf("stored digest: %w", err)
	}
	if got != want {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Exchange: a.Exchange,
			Expected: want,
			Actual:   got,
		}
	}
	return nil
}

func assertTableCount(actx *AssertionContext, a Assertion) error {
	if err := querysql.ValidateIdent(a.Table); err != nil {
		return fmt.Errorf("table_count: %w", err)
	}
	var n int
	if err := actx.Store.DB().QueryRowContext(actx.Ctx, querysql.Count(a.Table)).Scan(&n); err != nil {
		return fmt.Errorf("table_count %s: %w", a.Table, err)
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertTableCount,
			Exchange: -1,
			Expected: fmt.Sprintf("%d rows in %s", a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the stored exchanges.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTableCount:
			err = assertTableCount(actx, assertion)
		case AssertHeaderOrder, AssertBodyEquals, AssertSecurityDecoded, AssertNullResponse, AssertRoundTrip:
			var ex *capture.Exchange
			ex, err = actx.load(assertion.Exchange)
			if err != nil {
				break
			}
			switch assertion.Type {
			case AssertHeaderOrder:
				err = assertHeaderOrder(ex, assertion)
			case AssertBodyEquals:
				err = assertBodyEquals(ex, assertion)
			case AssertSecurityDecoded:
				err = assertSecurityDecoded(ex, assertion)
			case AssertNullResponse:
				err = assertNullResponse(ex, assertion)
			case AssertRoundTrip:
				err = assertRoundTrip(actx, ex, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}

	return errors
}
