package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InTx runs fn inside one transaction. The transaction commits if fn returns
// nil and rolls back otherwise, so a failed fn leaves no partial rows behind.
//
// Only one transaction can be open at a time: the pool has a single
// connection, so a second InTx (or any query on DB()) blocks until the first
// finishes. fn must issue its statements on tx, never on DB().
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
