// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"sort"

	"github.com/flyingrobots/loom/lib/digest"
)

// Allocator assigns identifiers to records created within one atomic
// batch (one tick) such that the assignment is invariant to the
// batch's internal processing order: swapping two independent
// operations never changes either operation's IDs.
//
// Construction sorts the declared operation hashes before hashing
// them into the tick hash, which removes supply-order sensitivity.
// Each operation then gets its own counter, so interleaving
// allocations for other operations never shifts an operation's
// sequence positions. An allocated ID is
//
//	HashCanonical([tick_hash, operation_hash, counter])
//
// which is pure hash arithmetic: no clock, no randomness, no memory
// addresses.
//
// An Allocator is scoped to exactly one tick and must be owned
// exclusively by whatever assembles that batch. It must never be
// shared across two concurrent ticks.
type Allocator struct {
	tickHash digest.Hash
	counters map[digest.Hash]uint64
}

// NewAllocator builds the allocator for one tick from the hashes of
// the operations the batch will process. The same set of hashes, in
// any order, yields the same tick hash.
func NewAllocator(operations []digest.Hash) (*Allocator, error) {
	sorted := make([]digest.Hash, len(operations))
	copy(sorted, operations)
	sort.Slice(sorted, func(i, j int) bool {
		return digest.Compare(sorted[i], sorted[j]) < 0
	})

	value := make([]any, len(sorted))
	for i := range sorted {
		value[i] = sorted[i][:]
	}
	tickHash, err := digest.HashCanonical(value)
	if err != nil {
		return nil, fmt.Errorf("computing tick hash: %w", err)
	}

	return &Allocator{
		tickHash: tickHash,
		counters: make(map[digest.Hash]uint64),
	}, nil
}

// AllocID returns the next identifier for the given operation and
// advances that operation's counter. Repeated calls for the same
// operation (multi-output operations) yield distinct IDs; calls for
// other operations in between change nothing.
func (a *Allocator) AllocID(operation digest.Hash) (digest.Hash, error) {
	counter := a.counters[operation]
	id, err := digest.HashCanonical([]any{a.tickHash[:], operation[:], counter})
	if err != nil {
		return digest.Hash{}, fmt.Errorf("allocating id: %w", err)
	}
	a.counters[operation] = counter + 1
	return id, nil
}

// TickHash returns the normalized hash of this tick's operation set.
func (a *Allocator) TickHash() digest.Hash {
	return a.tickHash
}

// Reset clears all per-operation counters, returning the allocator to
// its just-constructed state.
func (a *Allocator) Reset() {
	clear(a.counters)
}
