package store

import (
	"context"
	"fmt"

	"github.com/Mirraz/http-replay-sub000/internal/querysql"
)

// TableCount is the number of rows in one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Tables returns the user tables of the database in name order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

// Counts returns the row count of every user table, in table name order.
func (s *Store) Counts(ctx context.Context) ([]TableCount, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]TableCount, 0, len(tables))
	for _, table := range tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, querysql.Count(table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
