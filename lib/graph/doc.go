// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

// Package graph holds loom's content-addressed graph: immutable node
// and edge records, the store that contains the current graph value,
// the canonical commit digest over its full content, and the
// deterministic per-tick ID allocator.
//
// Identity is content: a record's ID is the BLAKE3 hash of the
// canonical encoding of its defining fields, never of where or when
// it was inserted. Two graphs holding the same set of records have
// the same [CommitDigest] no matter how they were assembled, and the
// digest never depends on map iteration order because every
// digest-participating traversal goes through [Store.NodesSorted] and
// [Store.EdgesSorted].
//
// The store models "current graph content" as a plain set: records
// are created once and never mutated, and removal is absence, not an
// edit. Which logical view a store represents (system truth or a
// speculative overlay), when digests are materialized, and whether
// removals are tombstoned elsewhere are all concerns of the caller.
//
// [CommitDigest] is the slow, authoritative O(N) fingerprint. The
// incremental acceleration structure lives in lib/smt and is defined
// to always agree with it.
package graph
