// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

// Package smt maintains loom's incremental commitment index: two
// fixed-height sparse Merkle trees (one over node keys, one over edge
// keys) whose combined root commits to the same logical graph content
// as graph.CommitDigest, updatable in O(256) hashes per record change
// and able to produce compact inclusion proofs.
//
// The index is strictly an acceleration and proof layer, never an
// alternate notion of truth: a verifier can always recompute the
// commit digest from plain records without consulting any tree, and
// the tree's root must be consistent with what those records imply.
// Nothing in this package is allowed to diverge from that ground
// truth; the tests cross-check every mutation against a digest
// recomputed from scratch.
//
// Each tree has 257 levels (depths 0 through 256). A record's
// position is a 256-bit path derived by domain-separated keyed BLAKE3
// over its ID, so a node and an edge can never land on the same
// position even if their IDs were equal. Absent keys are represented
// by precomputed per-depth empty-subtree constants and are never
// materialized; interior hashes fold in their depth so a subtree
// cannot be replayed at a different height.
//
// All hashing is keyed BLAKE3 with fixed 32-byte ASCII domain keys.
// Changing any key invalidates every root ever produced.
package smt
