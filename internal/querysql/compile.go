// Package querysql builds the parameterized SQLite statements issued by the
// graph engine.
//
// CRITICAL: Identifiers are always quoted, values are always bound as
// parameters (never interpolated), and every multi-row SELECT carries an
// ORDER BY so results are deterministic.
package querysql

import (
	"fmt"
	"strings"
)

// QuoteIdent quotes a table or column name as an SQLite identifier.
// Embedded double quotes are doubled.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ValidateIdent rejects names that are not plain identifiers: a letter or
// underscore followed by letters, digits, or underscores.
func ValidateIdent(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}

// Insert builds an INSERT for the given columns, in the given order.
// With no columns the row is created from column defaults, which still
// assigns a fresh rowid.
func Insert(table string, columns []string) string {
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", QuoteIdent(table))
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
		marks[i] = "?"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "))
}

// Update builds a keyed UPDATE setting the given columns, in the given
// order. The id is bound after the column values.
func Update(table, idColumn string, columns []string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = QuoteIdent(c) + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		QuoteIdent(table),
		strings.Join(sets, ", "),
		QuoteIdent(idColumn))
}

// InsertEnum builds the insert half of a lookup-or-insert. A duplicate value
// is silently ignored so the caller can re-select the winning row.
func InsertEnum(table, valueColumn string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (?) ON CONFLICT DO NOTHING",
		QuoteIdent(table), QuoteIdent(valueColumn))
}

// SelectEnum builds the lookup half of a lookup-or-insert.
// The id tiebreaker keeps the result stable if the value column lacks a
// UNIQUE constraint.
func SelectEnum(table, idColumn, valueColumn string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s ASC LIMIT 1",
		QuoteIdent(idColumn),
		QuoteIdent(table),
		QuoteIdent(valueColumn),
		QuoteIdent(idColumn))
}

// SelectRow builds a keyed single-row lookup returning every column.
func SelectRow(table, idColumn string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = ?",
		QuoteIdent(table), QuoteIdent(idColumn))
}

// SelectChildren builds the association-table expansion for one parent.
// Rows come back in insertion order of the association rows, which is the
// order of the source list.
func SelectChildren(assocTable, idColumn, parentColumn, childColumn string) string {
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ? ORDER BY %s ASC",
		QuoteIdent(idColumn),
		QuoteIdent(childColumn),
		QuoteIdent(assocTable),
		QuoteIdent(parentColumn),
		QuoteIdent(idColumn))
}

// SelectIDs builds a scan of every id in a table, in id order.
// An optional filter column restricts the scan to rows equal to one value.
func SelectIDs(table, idColumn, filterColumn string) string {
	if filterColumn == "" {
		return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC",
			QuoteIdent(idColumn), QuoteIdent(table), QuoteIdent(idColumn))
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s ASC",
		QuoteIdent(idColumn),
		QuoteIdent(table),
		QuoteIdent(filterColumn),
		QuoteIdent(idColumn))
}

// Count builds a row count for one table.
func Count(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdent(table))
}
