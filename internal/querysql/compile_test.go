package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"headers"`, QuoteIdent("headers"))
	assert.Equal(t, `"odd""name"`, QuoteIdent(`odd"name`))
}

func TestValidateIdent(t *testing.T) {
	assert.NoError(t, ValidateIdent("table01"))
	assert.Error(t, ValidateIdent(""))
	assert.NoError(t, ValidateIdent("_private2"))
	assert.Error(t, ValidateIdent("a\x00b"))
	assert.Error(t, ValidateIdent("bad name"))
	assert.Error(t, ValidateIdent("1st"))
	assert.Error(t, ValidateIdent(`x"; DROP TABLE y; --`))
}

func TestInsert(t *testing.T) {
	sql := Insert("requests", []string{"method_id", "url_id"})
	assert.Equal(t, `INSERT INTO "requests" ("method_id", "url_id") VALUES (?, ?)`, sql)
}

func TestInsert_NoColumns(t *testing.T) {
	sql := Insert("header_lists", nil)
	assert.Equal(t, `INSERT INTO "header_lists" DEFAULT VALUES`, sql)
}

func TestUpdate(t *testing.T) {
	sql := Update("sessions", "id", []string{"interrupted", "label"})
	assert.Equal(t, `UPDATE "sessions" SET "interrupted" = ?, "label" = ? WHERE "id" = ?`, sql)
}

func TestInsertEnum(t *testing.T) {
	sql := InsertEnum("header_names", "value")
	assert.Equal(t, `INSERT INTO "header_names" ("value") VALUES (?) ON CONFLICT DO NOTHING`, sql)
}

func TestSelectEnum(t *testing.T) {
	sql := SelectEnum("header_names", "id", "value")
	assert.Equal(t, `SELECT "id" FROM "header_names" WHERE "value" = ? ORDER BY "id" ASC LIMIT 1`, sql)
	assert.Contains(t, sql, "ORDER BY")
}

func TestSelectRow(t *testing.T) {
	sql := SelectRow("responses", "id")
	assert.Equal(t, `SELECT * FROM "responses" WHERE "id" = ?`, sql)
}

func TestSelectChildren(t *testing.T) {
	sql := SelectChildren("header_list_entries", "id", "parent_id", "child_id")
	assert.Equal(t,
		`SELECT "id", "child_id" FROM "header_list_entries" WHERE "parent_id" = ? ORDER BY "id" ASC`,
		sql)
}

func TestSelectIDs(t *testing.T) {
	assert.Equal(t, `SELECT "id" FROM "exchanges" ORDER BY "id" ASC`, SelectIDs("exchanges", "id", ""))
	assert.Equal(t,
		`SELECT "id" FROM "exchanges" WHERE "session_id" = ? ORDER BY "id" ASC`,
		SelectIDs("exchanges", "id", "session_id"))
}

func TestCount(t *testing.T) {
	assert.Equal(t, `SELECT COUNT(*) FROM "urls"`, Count("urls"))
}

func TestStatementsNeverInterpolateValues(t *testing.T) {
	for _, sql := range []string{
		Insert("t", []string{"a"}),
		InsertEnum("t", "value"),
		SelectEnum("t", "id", "value"),
		SelectRow("t", "id"),
		SelectChildren("t", "id", "p", "c"),
	} {
		assert.Contains(t, sql, "?", sql)
	}
}
