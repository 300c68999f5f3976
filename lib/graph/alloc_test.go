// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/flyingrobots/loom/lib/digest"
)

func operationHashes(count int) []digest.Hash {
	hashes := make([]digest.Hash, count)
	for i := range hashes {
		hashes[i] = digest.Sum([]byte(fmt.Sprintf("operation %d", i)))
	}
	return hashes
}

func TestTickHashOrderInvariant(t *testing.T) {
	operations := operationHashes(3)

	orderings := [][]digest.Hash{
		{operations[0], operations[1], operations[2]},
		{operations[2], operations[0], operations[1]},
		{operations[1], operations[2], operations[0]},
	}

	var reference digest.Hash
	for i, ordering := range orderings {
		allocator, err := NewAllocator(ordering)
		if err != nil {
			t.Fatalf("NewAllocator: %v", err)
		}
		if i == 0 {
			reference = allocator.TickHash()
			continue
		}
		if allocator.TickHash() != reference {
			t.Errorf("ordering %d produced tick hash %s, want %s", i, allocator.TickHash(), reference)
		}
	}
}

func TestTickHashDependsOnOperationSet(t *testing.T) {
	operations := operationHashes(3)

	full, err := NewAllocator(operations)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	partial, err := NewAllocator(operations[:2])
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	if full.TickHash() == partial.TickHash() {
		t.Error("different operation sets produced the same tick hash")
	}
}

func TestAllocationCallOrderIndependence(t *testing.T) {
	// The key antichain property: the order AllocID is called for
	// independent operations must not affect any operation's IDs.
	operations := operationHashes(2)

	first, err := NewAllocator(operations)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	firstA, err := first.AllocID(operations[0])
	if err != nil {
		t.Fatalf("AllocID: %v", err)
	}
	firstB, err := first.AllocID(operations[1])
	if err != nil {
		t.Fatalf("AllocID: %v", err)
	}

	second, err := NewAllocator(operations)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	secondB, err := second.AllocID(operations[1])
	if err != nil {
		t.Fatalf("AllocID: %v", err)
	}
	secondA, err := second.AllocID(operations[0])
	if err != nil {
		t.Fatalf("AllocID: %v", err)
	}

	if firstA != secondA {
		t.Error("operation 0 got a different ID when allocation order was swapped")
	}
	if firstB != secondB {
		t.Error("operation 1 got a different ID when allocation order was swapped")
	}
}

func TestRepeatedAllocationsAreDistinct(t *testing.T) {
	operations := operationHashes(1)
	allocator, err := NewAllocator(operations)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}

	seen := make(map[digest.Hash]int)
	for i := 0; i < 100; i++ {
		id, err := allocator.AllocID(operations[0])
		if err != nil {
			t.Fatalf("AllocID: %v", err)
		}
		if previous, duplicate := seen[id]; duplicate {
			t.Fatalf("allocation %d repeated the ID from allocation %d", i, previous)
		}
		seen[id] = i
	}
}

func TestAntichainInvarianceAcross1000Permutations(t *testing.T) {
	operations := operationHashes(5)

	// Reference mapping from the identity ordering.
	reference := allocateAll(t, operations, operations)

	random := rand.New(rand.NewSource(42))
	for trial := 0; trial < 1000; trial++ {
		constructionOrder := make([]digest.Hash, len(operations))
		copy(constructionOrder, operations)
		random.Shuffle(len(constructionOrder), func(i, j int) {
			constructionOrder[i], constructionOrder[j] = constructionOrder[j], constructionOrder[i]
		})

		mapping := allocateAll(t, constructionOrder, operations)
		for _, operation := range operations {
			if mapping[operation] != reference[operation] {
				t.Fatalf("trial %d: operation %s allocated %s, want %s",
					trial, operation.Short(), mapping[operation], reference[operation])
			}
		}
	}
}

// allocateAll builds an allocator with the given construction order,
// allocates one ID per operation, and returns the operation-to-ID
// mapping.
func allocateAll(t *testing.T, constructionOrder, operations []digest.Hash) map[digest.Hash]digest.Hash {
	t.Helper()
	allocator, err := NewAllocator(constructionOrder)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	mapping := make(map[digest.Hash]digest.Hash, len(operations))
	for _, operation := range operations {
		id, err := allocator.AllocID(operation)
		if err != nil {
			t.Fatalf("AllocID: %v", err)
		}
		mapping[operation] = id
	}
	return mapping
}

func TestResetRestoresCounters(t *testing.T) {
	operations := operationHashes(1)
	allocator, err := NewAllocator(operations)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}

	first, err := allocator.AllocID(operations[0])
	if err != nil {
		t.Fatalf("AllocID: %v", err)
	}
	if _, err := allocator.AllocID(operations[0]); err != nil {
		t.Fatalf("AllocID: %v", err)
	}

	allocator.Reset()
	afterReset, err := allocator.AllocID(operations[0])
	if err != nil {
		t.Fatalf("AllocID: %v", err)
	}
	if afterReset != first {
		t.Error("Reset did not restore the per-operation counter")
	}
}
