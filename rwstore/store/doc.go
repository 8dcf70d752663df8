// Package store provides an in-memory, multi-reader/single-writer keyed store.
//
// Every record is guarded by its own RecordLock, a fair reader/writer
// admission gate: up to MaxReaders concurrent readers or exactly one writer,
// never both. Requests for one record are admitted in arrival order across
// both kinds, so neither a stream of readers nor a stream of writers can
// starve the other.
//
// Callers never touch record content directly. Store.Open admits the caller
// and hands out a Handle holding a private copy of the content; Handle.Read and
// Handle.Write work on that copy without any synchronization. Store.Close
// commits the copy of a writer handle back into the record and releases the
// admission. Distinct keys never block each other.
//
// The store is process-local and memory-resident: nothing is persisted.
package store
