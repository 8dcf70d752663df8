// Package rwstore exposes a multi-reader/single-writer record store to k6 scripts.
//
// High-level behavior:
//   - The first call to openStore() lazily creates a single store shared by all VUs.
//     Its options (reader capacity, shard count, open timeout, content size cap)
//     are fixed for the rest of the test run; reopening with different options throws.
//   - create(), open() and close() return Promises: admission may block, so the work
//     runs off the VU event loop.
//   - open() resolves to a handle whose read() and write() work on a private copy of
//     the record; close() commits a writer's copy and releases the admission.
//   - The store is memory-resident and disappears with the k6 process.
package rwstore
