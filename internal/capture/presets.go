package capture

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Mirraz/http-replay-sub000/internal/compiler"
	"github.com/Mirraz/http-replay-sub000/internal/graph"
)

//go:embed presets.cue
var presetsCUE []byte

var (
	defaultOnce    sync.Once
	defaultPresets graph.PresetSet
	defaultErr     error
)

// DefaultPresets returns the presets for the capture schema. The result is
// shared; callers must not modify it.
func DefaultPresets() (graph.PresetSet, error) {
	defaultOnce.Do(func() {
		defaultPresets, defaultErr = compiler.CompilePresetsSource("presets.cue", presetsCUE)
		if defaultErr != nil {
			defaultErr = fmt.Errorf("capture presets: %w", defaultErr)
		}
	})
	return defaultPresets, defaultErr
}

// Lists of the capture schema.
var (
	headerList = graph.ListSpec{
		Head:   "header_lists",
		Assoc:  "header_list_entries",
		Parent: "parent_id",
		Child:  "child_id",
	}
	certList = graph.ListSpec{
		Head:   "cert_lists",
		Assoc:  "cert_list_entries",
		Parent: "parent_id",
		Child:  "child_id",
	}
	cacheMetaList = graph.ListSpec{
		Head:   "cache_meta_lists",
		Assoc:  "cache_meta_list_entries",
		Parent: "parent_id",
		Child:  "child_id",
	}
)

// Side result names reported by Recorder.
const (
	SideRequestHeaders  = "request_headers"
	SideResponseHeaders = "response_headers"
	SideCacheMeta       = "cache_meta"
	SideServerCert      = "server_cert"
	SideFailedChain     = "failed_chain"
)
