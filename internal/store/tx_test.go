package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestInTx_Commits(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO urls (value) VALUES ('https://example.com/')`)
		return err
	})
	if err != nil {
		t.Fatalf("InTx() failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM urls`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO urls (value) VALUES ('https://example.com/')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() error = %v, want %v", err, boom)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM urls`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d after rollback, want 0", count)
	}
}

func TestInTx_TxSatisfiesQuerier(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *sql.Tx) error {
		var q Querier = tx
		var n int
		return q.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&n)
	})
	if err != nil {
		t.Fatalf("InTx() failed: %v", err)
	}

	var _ Querier = s.DB()
}
