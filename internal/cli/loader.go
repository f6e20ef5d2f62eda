package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Mirraz/http-replay-sub000/internal/capture"
	"github.com/Mirraz/http-replay-sub000/internal/compiler"
	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/store"
)

// Error codes used in CLI responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Database, exchange or session not found
	ErrCodeDecode      = "E003" // Security info does not decode
	ErrCodeRoundTrip   = "E004" // Security info decodes but re-encodes differently
	ErrCodePresets     = "E005" // Presets file does not compile
	ErrCodeCaptureFail = "E006" // An exchange could not be recorded
)

// workspace is an open database with an engine over it.
type workspace struct {
	store    *store.Store
	engine   *graph.Engine
	recorder *capture.Recorder
	replayer *capture.Replayer
}

func (w *workspace) Close() {
	if err := w.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// loadPresets returns the presets named by --presets, or the built-in
// capture presets.
func loadPresets(opts *RootOptions) (graph.PresetSet, error) {
	if opts.Presets == "" {
		return capture.DefaultPresets()
	}
	presets, err := compiler.CompilePresetsFile(opts.Presets)
	if err != nil {
		return nil, err
	}
	slog.Debug("presets compiled", "file", opts.Presets, "tables", len(presets))
	return presets, nil
}

// openWorkspace opens the database named by --db. Unless create is set the
// database must already exist.
func openWorkspace(opts *RootOptions, create bool) (*workspace, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if !create {
		if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s (run init first)", opts.Database))
		}
	}

	presets, err := loadPresets(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load presets", err)
	}

	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	eng, err := graph.New(st, presets, graph.WithLogger(slog.Default()))
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create engine", err)
	}
	return &workspace{
		store:    st,
		engine:   eng,
		recorder: capture.NewRecorder(eng),
		replayer: capture.NewReplayer(eng),
	}, nil
}
