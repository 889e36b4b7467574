// Package store provides SQLite-backed durable storage for reconstructed
// runs.
//
// A run is one parse of one trace. Persisting its commands together with
// their measured durations makes build performance queryable after the fact:
// which translation units are slowest, how compile time changes between runs.
// Writing a compilation database needs none of this; the store only comes
// into play with --db.
//
// Storage uses WAL mode with a single-connection pool, since writes are
// strictly single-writer.
package store
