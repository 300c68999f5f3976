// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package smt

import (
	"github.com/zeebo/blake3"

	"github.com/flyingrobots/loom/lib/digest"
)

// KeyBits is the fixed tree height: every path is a 256-bit key, and
// depths run 0 (root) through KeyBits (leaves).
const KeyBits = 256

// domainKey is a 32-byte key for BLAKE3 keyed hashing. The byte
// values are the ASCII domain name zero-padded to 32 bytes: readable
// in hex dumps, opaque to the hash.
type domainKey [32]byte

// Domain separation keys. Fixed constants — changing any of them
// invalidates every existing root.
var (
	// emptyDomainKey derives the depth-256 empty-leaf constant.
	emptyDomainKey = domainKey{
		'l', 'o', 'o', 'm', '.', 's', 'm', 't', '.', 'e', 'm', 'p', 't', 'y', 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// interiorDomainKey combines two children with their depth.
	interiorDomainKey = domainKey{
		'l', 'o', 'o', 'm', '.', 's', 'm', 't', '.', 'n', 'o', 'd', 'e', 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// leafDomainKey hashes a present record into its leaf value.
	leafDomainKey = domainKey{
		'l', 'o', 'o', 'm', '.', 's', 'm', 't', '.', 'l', 'e', 'a', 'f', 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// rootDomainKey combines the node-tree and edge-tree roots.
	rootDomainKey = domainKey{
		'l', 'o', 'o', 'm', '.', 's', 'm', 't', '.', 'r', 'o', 'o', 't', 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// nodeKeyDomainKey maps a node ID into the node-tree key space.
	nodeKeyDomainKey = domainKey{
		'l', 'o', 'o', 'm', '.', 'g', 'r', 'a', 'p', 'h', '.', 'n', 'o', 'd', 'e', 'k',
		'e', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// edgeKeyDomainKey maps an edge ID into the edge-tree key space.
	edgeKeyDomainKey = domainKey{
		'l', 'o', 'o', 'm', '.', 'g', 'r', 'a', 'p', 'h', '.', 'e', 'd', 'g', 'e', 'k',
		'e', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// emptyAt[d] is the hash of an entirely empty subtree rooted at depth
// d, derived bottom-up from the depth-256 empty-leaf constant. A
// zero-key tree's root is emptyAt[0].
var emptyAt [KeyBits + 1]digest.Hash

func init() {
	emptyAt[KeyBits] = keyedSum(emptyDomainKey, nil)
	for depth := KeyBits - 1; depth >= 0; depth-- {
		emptyAt[depth] = interiorHash(uint16(depth), emptyAt[depth+1], emptyAt[depth+1])
	}
}

// EmptyLeaf returns the empty-leaf constant. Updating a key to this
// value removes it from the tree.
func EmptyLeaf() digest.Hash {
	return emptyAt[KeyBits]
}

// EmptyAt returns the empty-subtree constant for the given depth
// (0 through 256).
func EmptyAt(depth int) digest.Hash {
	return emptyAt[depth]
}

func keyedSum(key domainKey, data []byte) digest.Hash {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("smt: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var result digest.Hash
	copy(result[:], hasher.Sum(nil))
	return result
}

// interiorHash combines two child hashes at the given depth. The
// depth is folded into the input so a subtree hash cannot be
// confused with the same bytes at a different height.
func interiorHash(depth uint16, left, right digest.Hash) digest.Hash {
	var combined [66]byte
	copy(combined[:32], left[:])
	copy(combined[32:64], right[:])
	combined[64] = byte(depth >> 8)
	combined[65] = byte(depth)
	return keyedSum(interiorDomainKey, combined[:])
}

// leafHash hashes a record's canonical bytes into a leaf value.
func leafHash(canonicalRecord []byte) digest.Hash {
	return keyedSum(leafDomainKey, canonicalRecord)
}
