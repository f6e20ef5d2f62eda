// Package graph persists nested row graphs into the relational store and
// reads them back.
//
// A graph is described by a Literal: one table name and a map of columns.
// Each column is a Primitive scalar, a nested *Literal whose row is written
// first and replaced by its id, or a Deferred production that runs inside
// the same transaction with a SubExecutor and yields an id once its own
// writes are done.
//
// # Presets
//
// Every table a literal names must be declared in the engine's PresetSet:
//
//   - InsertPreset appends a row and returns its new id
//   - EnumPreset looks a row up by its value column and inserts it on a miss
//
// Enum ids are cached by the engine. Ids first seen in a submission enter
// the cache only when that submission commits.
//
// # Execution
//
// Engine.Execute resolves sibling columns concurrently with errgroup, but
// every statement is serialized onto the submission's transaction. Row
// insert order of independent siblings is unspecified. Ordered lists are
// written by OrderedList one element at a time, so association ids follow
// list order and Load returns elements in that order.
//
// Deferred productions may register named side results with
// SubExecutor.AddSideResult. Execute waits for all of them before it
// commits and returns them in Result.Side.
//
// # Reading
//
// Engine.Load reads one row by id and follows the foreign keys and list
// associations named by a JoinSpec. It runs outside any submission and must
// not be called from a Deferred.
package graph
