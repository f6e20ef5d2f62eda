// Package compiler turns CUE table declarations into graph presets.
//
// A preset file declares every table the graph engine may write:
//
//	tables: {
//		header_names: {kind: "enum"}
//		header_lists: {kind: "insert"}
//		headers: {kind: "insert", columns: ["name_id", "value"]}
//	}
//
// Enum tables default to id column "id" and value column "value".
// Uses CUE SDK's Go API directly (not CLI subprocess).
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
)

// Preset kinds.
const (
	KindInsert = "insert"
	KindEnum   = "enum"
)

// CompilePresetsFile reads and compiles a CUE preset file.
func CompilePresetsFile(path string) (graph.PresetSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return CompilePresetsSource(path, src)
}

// CompilePresetsSource compiles CUE source text. filename is used in error positions.
func CompilePresetsSource(filename string, src []byte) (graph.PresetSet, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompilePresets(v)
}

// CompilePresets parses the "tables" struct of v into a PresetSet.
func CompilePresets(v cue.Value) (graph.PresetSet, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "tables",
			Message: "tables is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	presets := graph.PresetSet{}
	for iter.Next() {
		name := iter.Label()
		preset, err := parseTable(name, iter.Value())
		if err != nil {
			return nil, err
		}
		presets[name] = preset
	}

	if len(presets) == 0 {
		return nil, &CompileError{
			Field:   "tables",
			Message: "at least one table is required",
			Pos:     tablesVal.Pos(),
		}
	}
	if err := presets.Validate(); err != nil {
		return nil, &CompileError{
			Field:   "tables",
			Message: err.Error(),
			Pos:     tablesVal.Pos(),
		}
	}
	return presets, nil
}

// parseTable parses one table declaration.
func parseTable(name string, v cue.Value) (graph.TablePreset, error) {
	field := "tables." + name

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   field,
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	switch kind {
	case KindInsert:
		if err := checkFields(field, v, "kind", "columns"); err != nil {
			return nil, err
		}
		columns, err := parseColumns(field, v)
		if err != nil {
			return nil, err
		}
		return graph.InsertPreset{Columns: columns}, nil

	case KindEnum:
		if err := checkFields(field, v, "kind", "id", "value"); err != nil {
			return nil, err
		}
		idCol, err := optionalString(v, "id", graph.DefaultIDColumn)
		if err != nil {
			return nil, err
		}
		valueCol, err := optionalString(v, "value", "value")
		if err != nil {
			return nil, err
		}
		return graph.EnumPreset{IDColumn: idCol, ValueColumn: valueCol}, nil

	default:
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown kind %q (want %q or %q)", kind, KindInsert, KindEnum),
			Pos:     kindVal.Pos(),
		}
	}
}

// checkFields rejects fields other than allowed.
func checkFields(field string, v cue.Value, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		ok := false
		for _, a := range allowed {
			if label == a {
				ok = true
				break
			}
		}
		if !ok {
			return &CompileError{
				Field:   field + "." + label,
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func parseColumns(field string, v cue.Value) ([]string, error) {
	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, nil
	}
	list, err := colsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var columns []string
	for list.Next() {
		col, err := list.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".columns",
				Message: "column names must be strings",
				Pos:     list.Value().Pos(),
			}
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func optionalString(v cue.Value, path, def string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return def, nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
