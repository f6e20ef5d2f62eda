package graph

import (
	"fmt"
	"slices"

	"github.com/Mirraz/http-replay-sub000/internal/querysql"
)

// DefaultIDColumn is the id column of every insert table.
const DefaultIDColumn = "id"

// TablePreset is the declared write/read strategy for one table.
// Only InsertPreset and EnumPreset implement it.
type TablePreset interface {
	idColumn() string
}

// InsertPreset always appends a new row and returns its id.
// Columns lists the writable columns; a literal may set any subset of them.
// An empty Columns list is valid: each insert still yields a fresh id.
type InsertPreset struct {
	Columns []string
}

func (InsertPreset) idColumn() string { return DefaultIDColumn }

// EnumPreset looks a row up by ValueColumn, inserting it on a miss, and
// returns the found or new IDColumn.
type EnumPreset struct {
	IDColumn    string
	ValueColumn string
}

func (p EnumPreset) idColumn() string { return p.IDColumn }

// PresetSet maps table names to their presets.
type PresetSet map[string]TablePreset

// Validate checks every table and column name.
func (p PresetSet) Validate() error {
	for _, table := range p.Tables() {
		if err := querysql.ValidateIdent(table); err != nil {
			return fmt.Errorf("preset table: %w", err)
		}
		switch preset := p[table].(type) {
		case InsertPreset:
			seen := make(map[string]bool, len(preset.Columns))
			for _, col := range preset.Columns {
				if err := querysql.ValidateIdent(col); err != nil {
					return fmt.Errorf("preset %s: %w", table, err)
				}
				if col == DefaultIDColumn {
					return fmt.Errorf("preset %s: column %q is assigned by the store", table, col)
				}
				if seen[col] {
					return fmt.Errorf("preset %s: duplicate column %q", table, col)
				}
				seen[col] = true
			}
		case EnumPreset:
			if err := querysql.ValidateIdent(preset.IDColumn); err != nil {
				return fmt.Errorf("preset %s id column: %w", table, err)
			}
			if err := querysql.ValidateIdent(preset.ValueColumn); err != nil {
				return fmt.Errorf("preset %s value column: %w", table, err)
			}
			if preset.IDColumn == preset.ValueColumn {
				return fmt.Errorf("preset %s: id and value column are both %q", table, preset.IDColumn)
			}
		case nil:
			return fmt.Errorf("preset %s: nil preset", table)
		default:
			return fmt.Errorf("preset %s: unknown preset type %T", table, preset)
		}
	}
	return nil
}

// Tables returns the declared table names in sorted order.
func (p PresetSet) Tables() []string {
	tables := make([]string, 0, len(p))
	for t := range p {
		tables = append(tables, t)
	}
	slices.Sort(tables)
	return tables
}

// lookup returns the preset for table or a shape violation.
func (p PresetSet) lookup(table string) (TablePreset, error) {
	preset, ok := p[table]
	if !ok || preset == nil {
		return nil, newShapeError(table, "undeclared table")
	}
	return preset, nil
}

// IDColumn returns the id column of a declared table.
func (p PresetSet) IDColumn(table string) (string, error) {
	preset, err := p.lookup(table)
	if err != nil {
		return "", err
	}
	return preset.idColumn(), nil
}
