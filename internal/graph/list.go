package graph

import "context"

// ListSpec names the tables of an ordered list: a head row with no columns
// and an association table linking the head to each element in order.
type ListSpec struct {
	Head   string
	Assoc  string
	Parent string
	Child  string
}

// Join returns the read-side join expanding a list head into its elements.
func (l ListSpec) Join(elem Join) ListJoin {
	return ListJoin{
		Table:  l.Assoc,
		Parent: l.Parent,
		Child:  l.Child,
		Elem:   elem,
	}
}

// OrderedList returns a Deferred writing items as an ordered list and
// producing the head's id. Elements and their association rows are written
// one at a time, so association ids follow the order of items.
//
// If side is non-empty the element ids are registered as a side result
// under that name.
func OrderedList(l ListSpec, side string, items []*Literal) Deferred {
	return func(ctx context.Context, sub *SubExecutor) (Ref, error) {
		var p *Promise
		if side != "" {
			p = NewPromise()
			sub.AddSideResult(side, p)
		}
		fail := func(err error) (Ref, error) {
			if p != nil {
				p.Reject(err)
			}
			return NullRef, err
		}

		head, err := sub.Execute(ctx, NewLiteral(l.Head, nil))
		if err != nil {
			return fail(err)
		}
		ids := make([]int64, 0, len(items))
		for _, item := range items {
			elem, err := sub.Execute(ctx, item)
			if err != nil {
				return fail(err)
			}
			_, err = sub.Execute(ctx, NewLiteral(l.Assoc, Columns{
				l.Parent: RefValue(head),
				l.Child:  RefValue(elem),
			}))
			if err != nil {
				return fail(err)
			}
			ids = append(ids, elem.ID)
		}
		if p != nil {
			p.Resolve(ids...)
		}
		return head, nil
	}
}
