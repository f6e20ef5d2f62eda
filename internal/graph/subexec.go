package graph

import (
	"context"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
)

// SubExecutor is handed to a Deferred column. Everything submitted through it
// joins the enclosing transaction and commits or rolls back with it.
type SubExecutor struct {
	t      *txn
	table  string
	column string
}

// Table returns the table of the row whose column is being produced.
func (s *SubExecutor) Table() string { return s.table }

// Column returns the column being produced.
func (s *SubExecutor) Column() string { return s.column }

// Execute writes lit and returns its id.
func (s *SubExecutor) Execute(ctx context.Context, lit *Literal) (Ref, error) {
	return s.t.resolve(ctx, lit)
}

// Go writes lit in the background. The promise resolves with lit's id, or
// with no ids when lit resolves to null. The submission does not commit
// before the write settles, and a failed write fails the submission.
func (s *SubExecutor) Go(lit *Literal) *Promise {
	p := NewPromise()
	s.t.track(p)
	go func() {
		ref, err := s.t.resolve(s.t.ctx, lit)
		if err != nil {
			p.Reject(err)
			return
		}
		if ref.Valid {
			p.Resolve(ref.ID)
			return
		}
		p.Resolve()
	}()
	return p
}

// ObtainEnumID is the lookup-or-insert primitive inside the enclosing transaction.
func (s *SubExecutor) ObtainEnumID(ctx context.Context, table, idCol, valueCol string, value ir.Value) (Ref, error) {
	if err := validateEnumTarget(table, idCol, valueCol); err != nil {
		return NullRef, err
	}
	return s.t.obtainEnum(ctx, table, idCol, valueCol, value)
}

// AddSideResult registers p under name. The submission commits only after p
// settles, and its ids appear in Result.Side.
func (s *SubExecutor) AddSideResult(name string, p *Promise) {
	s.t.addSide(name, p)
}
