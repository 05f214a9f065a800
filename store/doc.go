// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the durable document store behind every persisted record.

Records are opaque JSON blobs addressed either by a single key (Get, Set,
Delete) or by an append-only collection (Append, List). Callers own the
record shapes; the shared ones live in the models package.

Writes are single-key overwrites or single-row inserts, so a failed
operation can be retried on the next trigger without corrupting state.
The lifecycle mutex in the challenge package guarantees one logical writer
per slot; reads need no coordination.
*/
package store
