// Package store provides SQLite-backed history of finished runs.
//
// Every run is one row in the runs table: its identity, scenario, server,
// verdict, digest and the compressed canonical report. Nothing about world
// state is stored.
//
// # Ordering
//
// Runs are ordered by seq, an integer assigned at insert. Timestamps are
// never used for ordering, so listings are stable across machines.
//
// # Payload
//
// The report is stored as canonical JSON compressed with zstd. Reading a
// run decompresses and decodes it; the digest column lets callers compare
// runs without decoding.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
