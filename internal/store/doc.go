// Package store provides the record store instivault backs up from and
// restores into.
//
// The dashboard's hosted database is consumed through the RecordStore
// interface (select, insert, update, delete, upsert), always scoped to an
// owner identity. SQLStore is the bundled implementation: a single
// `records` table keyed by (collection, owner, id) with the record body kept
// as JSON, on SQLite (modernc.org/sqlite, the default) or MySQL.
//
// Record bodies are opaque. The store only reads the "id" and "ownerEmail"
// fields; numbers are decoded as json.Number so values survive a round trip
// unchanged.
//
// Upsert writes a whole collection in one transaction. Nothing spans
// collections.
package store
