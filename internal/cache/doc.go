// Package cache stores conversion results in SQLite so that a document that
// has not changed since the last run is not converted again.
//
// Entries are keyed by a BLAKE2b-256 digest of the conversion options and
// the raw document, so a change to either produces a new key. The database
// is a single file (modernc.org/sqlite, no CGO) in WAL mode.
package cache
