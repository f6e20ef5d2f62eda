// Package harness runs capture scenarios end to end.
//
// A scenario replays fixture exchanges through a capture.Recorder against a
// fresh in-memory store, then checks what the store hands back.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: interrupted_capture
//	description: "A pending exchange keeps its request when the session stops"
//	fixtures:
//	  - exchanges.yaml
//	steps:
//	  - record: 0
//	  - begin: 1
//	  - interrupt: true
//	assertions:
//	  - type: header_order
//	    exchange: 0
//	    part: response
//	    names: [Content-Type]
//	  - type: null_response
//	    exchange: 1
//
// Fixture paths are relative to the scenario file. Exchanges of all fixture
// files are numbered from 0 in file order.
//
// # Steps
//
//   - record: write the exchange with all of its parts
//   - begin: start the exchange, holding back its response and cache entry
//   - deliver: hand a begun exchange its response and cache entry
//   - interrupt: interrupt the session
//
// Begun exchanges may overlap with any other step; each is written once it
// is delivered or the session is interrupted. Interrupting also marks the
// session row interrupted.
//
// # Assertion Types
//
//   - header_order: header names of a request or response, in order
//   - body_equals: request or response body, as text or base64
//   - security_decoded: whether security info was stored decoded
//   - null_response: the exchange has no response
//   - round_trip: the stored exchange digests equal to its fixture
//   - table_count: number of rows in a table
//
// # Golden Files
//
// RunWithGolden compares a canonical JSON summary of the result against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
