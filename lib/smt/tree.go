// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package smt

import (
	"github.com/flyingrobots/loom/lib/digest"
)

// Key is a 256-bit tree path. Bit 0 is the most significant bit of
// byte 0; descending from depth d follows bit d of the key.
type Key [32]byte

// pathRef addresses one tree position: the node at the given depth
// whose path prefix is the first depth bits of path (remaining bits
// zero).
type pathRef struct {
	depth uint16
	path  Key
}

// Tree is one fixed-height sparse Merkle tree. It stores the leaf
// value for every present key plus every interior hash on the path
// from a present leaf to the root; all other positions are the
// per-depth empty constants and are never materialized.
//
// The root depends only on the set of present (key, value) pairs,
// never on update order, and a single update touches exactly the
// O(256) interior nodes above its leaf.
//
// A Tree is not safe for concurrent mutation.
type Tree struct {
	leaves   map[Key]digest.Hash
	interior map[pathRef]digest.Hash
}

// NewTree returns an empty tree. Its root is EmptyAt(0).
func NewTree() *Tree {
	return &Tree{
		leaves:   make(map[Key]digest.Hash),
		interior: make(map[pathRef]digest.Hash),
	}
}

// Update sets the leaf value at key and recomputes the ancestor path
// to the root. Setting the value to [EmptyLeaf] removes the key.
func (t *Tree) Update(key Key, leaf digest.Hash) {
	if leaf == emptyAt[KeyBits] {
		delete(t.leaves, key)
	} else {
		t.leaves[key] = leaf
	}

	current := leaf
	for depth := KeyBits - 1; depth >= 0; depth-- {
		childDepth := depth + 1
		sibling := t.hashAt(childDepth, siblingPath(key, childDepth))

		var left, right digest.Hash
		if bitAt(key, depth) == 0 {
			left, right = current, sibling
		} else {
			left, right = sibling, current
		}
		current = interiorHash(uint16(depth), left, right)

		ref := pathRef{depth: uint16(depth), path: prefix(key, depth)}
		if current == emptyAt[depth] {
			delete(t.interior, ref)
		} else {
			t.interior[ref] = current
		}
	}
}

// Delete removes the key. Equivalent to updating it to [EmptyLeaf].
func (t *Tree) Delete(key Key) {
	t.Update(key, emptyAt[KeyBits])
}

// Root returns the current root hash. O(1): the root is maintained
// incrementally by [Tree.Update].
func (t *Tree) Root() digest.Hash {
	return t.hashAt(0, Key{})
}

// Get returns the leaf value at key, if the key is present.
func (t *Tree) Get(key Key) (digest.Hash, bool) {
	leaf, ok := t.leaves[key]
	return leaf, ok
}

// Len returns the number of present keys.
func (t *Tree) Len() int {
	return len(t.leaves)
}

// Prove returns the inclusion proof for key: the sibling hash at
// every level of the key's path. For an absent key the proof carries
// the empty-leaf constant and proves non-membership against the same
// root.
func (t *Tree) Prove(key Key) Proof {
	leaf, ok := t.leaves[key]
	if !ok {
		leaf = emptyAt[KeyBits]
	}

	proof := Proof{
		Key:    append([]byte(nil), key[:]...),
		Leaf:   append([]byte(nil), leaf[:]...),
		Bitmap: make([]byte, KeyBits/8),
	}
	// Non-empty siblings only, parent-depth ascending; empty ones are
	// reconstructed from the depth constants on verification.
	for depth := 0; depth < KeyBits; depth++ {
		childDepth := depth + 1
		sibling := t.hashAt(childDepth, siblingPath(key, childDepth))
		if sibling == emptyAt[childDepth] {
			continue
		}
		proof.Bitmap[depth/8] |= 1 << (7 - depth%8)
		proof.Siblings = append(proof.Siblings, append([]byte(nil), sibling[:]...))
	}
	return proof
}

// hashAt returns the hash at a tree position, whether materialized or
// empty.
func (t *Tree) hashAt(depth int, path Key) digest.Hash {
	if depth == KeyBits {
		if leaf, ok := t.leaves[path]; ok {
			return leaf
		}
		return emptyAt[KeyBits]
	}
	if h, ok := t.interior[pathRef{depth: uint16(depth), path: path}]; ok {
		return h
	}
	return emptyAt[depth]
}

// bitAt returns bit i of the key, MSB-first.
func bitAt(key Key, i int) byte {
	return key[i/8] >> (7 - i%8) & 1
}

// prefix returns the key with every bit at index >= depth zeroed.
func prefix(key Key, depth int) Key {
	var p Key
	full := depth / 8
	copy(p[:full], key[:full])
	if remainder := depth % 8; remainder != 0 {
		p[full] = key[full] & (0xff << (8 - remainder))
	}
	return p
}

// siblingPath returns the path of the sibling of the depth-childDepth
// node on the key's path: the prefix with its last bit flipped.
func siblingPath(key Key, childDepth int) Key {
	p := prefix(key, childDepth)
	bit := childDepth - 1
	p[bit/8] ^= 1 << (7 - bit%8)
	return p
}
