package graph

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
	"github.com/Mirraz/http-replay-sub000/internal/querysql"
)

// maxEnumAttempts bounds lookup-or-insert rounds before reporting ENUM_RACE.
const maxEnumAttempts = 3

// obtainEnum returns the id of the row holding value, inserting it on a miss.
//
// The insert is ON CONFLICT DO NOTHING against the value column's UNIQUE
// constraint; a conflict means another writer got there first, so the lookup
// runs again. Ids seen here are cached per transaction and only reach the
// engine cache after commit.
func (t *txn) obtainEnum(ctx context.Context, table, idCol, valueCol string, value ir.Value) (Ref, error) {
	if ir.IsNull(value) {
		return NullRef, nil
	}
	key := enumKey(table, idCol, valueCol, value)
	lookups := t.e.metrics.EnumLookups

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.pending[key]; ok {
		lookups.WithLabelValues(table, enumHitCache).Inc()
		return RefTo(id), nil
	}
	if id, ok := t.e.cache.get(key); ok {
		lookups.WithLabelValues(table, enumHitCache).Inc()
		return RefTo(id), nil
	}

	arg := ir.Arg(value)
	sctx := context.WithoutCancel(ctx)
	for attempt := 1; attempt <= maxEnumAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return NullRef, err
		}

		var id int64
		err := t.tx.QueryRowContext(sctx, querysql.SelectEnum(table, idCol, valueCol), arg).Scan(&id)
		if err == nil {
			t.pending[key] = id
			lookups.WithLabelValues(table, enumHitStore).Inc()
			return RefTo(id), nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return NullRef, newTableOpError(table, "enum lookup", err)
		}

		res, err := t.tx.ExecContext(sctx, querysql.InsertEnum(table, valueCol), arg)
		if err != nil {
			return NullRef, newTableOpError(table, "enum insert", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return NullRef, newTableOpError(table, "enum insert", err)
		}
		if n == 1 {
			id, err := res.LastInsertId()
			if err != nil {
				return NullRef, newTableOpError(table, "enum insert id", err)
			}
			t.pending[key] = id
			t.written[table]++
			lookups.WithLabelValues(table, enumHitInserted).Inc()
			return RefTo(id), nil
		}

		t.e.logger.Debug("enum insert conflicted, retrying lookup",
			"table", table,
			"attempt", attempt)
	}
	return NullRef, newEnumRaceError(table, value, maxEnumAttempts)
}
