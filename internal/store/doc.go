// Package store provides SQLite-backed durable storage for captured HTTP
// exchanges.
//
// The schema (schema.sql) has three table shapes:
//   - Enum tables: (id, value UNIQUE) for scalars that recur across records
//   - Association tables: (id, parent_id, child_id) for ordered lists
//   - Fact tables: requests, responses, bodies, security info, exchanges
//
// # Critical Patterns
//
// Single writer:
//   - The pool holds exactly one connection
//   - A graph submission runs entirely inside one InTx call
//
// List ordering:
//   - Association rows are appended in source-list order
//   - Readers sort by the association row id, never by child id
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
