// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package smt

import (
	"fmt"

	"github.com/flyingrobots/loom/lib/codec"
	"github.com/flyingrobots/loom/lib/digest"
)

// Proof is a compact (non-)membership proof for one key against one
// tree root. Sibling hashes equal to the per-depth empty constant are
// elided: Bitmap has bit d set when the sibling at parent depth d is
// present in Siblings, and verification reconstructs the elided ones
// from the constants. A proof for an absent key carries the
// empty-leaf constant as its Leaf.
//
// A proof is bound to the root it was generated under. Verifying
// against any other root — including a later root of the same tree —
// fails; tracking which root a proof corresponds to is the caller's
// job.
type Proof struct {
	Key      []byte   `cbor:"key"`
	Leaf     []byte   `cbor:"leaf"`
	Bitmap   []byte   `cbor:"bitmap"`
	Siblings [][]byte `cbor:"siblings"`
}

// Verify recomputes the root implied by the proof and compares it to
// root. A true result means the tree whose root is root holds exactly
// proof.Leaf at proof.Key (the empty-leaf constant meaning the key is
// absent).
func Verify(root digest.Hash, proof Proof) bool {
	siblings, key, leaf, err := expandProof(proof)
	if err != nil {
		return false
	}

	current := leaf
	for depth := KeyBits - 1; depth >= 0; depth-- {
		sibling := siblings[depth]
		if bitAt(key, depth) == 0 {
			current = interiorHash(uint16(depth), current, sibling)
		} else {
			current = interiorHash(uint16(depth), sibling, current)
		}
	}
	return current == root
}

// expandProof validates the proof's shape and expands the compressed
// sibling list into one hash per level.
func expandProof(proof Proof) (siblings [KeyBits]digest.Hash, key Key, leaf digest.Hash, err error) {
	if len(proof.Key) != 32 {
		return siblings, key, leaf, fmt.Errorf("proof key is %d bytes, want 32", len(proof.Key))
	}
	if len(proof.Leaf) != 32 {
		return siblings, key, leaf, fmt.Errorf("proof leaf is %d bytes, want 32", len(proof.Leaf))
	}
	if len(proof.Bitmap) != KeyBits/8 {
		return siblings, key, leaf, fmt.Errorf("proof bitmap is %d bytes, want %d", len(proof.Bitmap), KeyBits/8)
	}
	copy(key[:], proof.Key)
	copy(leaf[:], proof.Leaf)

	next := 0
	for depth := 0; depth < KeyBits; depth++ {
		if proof.Bitmap[depth/8]>>(7-depth%8)&1 == 0 {
			siblings[depth] = emptyAt[depth+1]
			continue
		}
		if next >= len(proof.Siblings) {
			return siblings, key, leaf, fmt.Errorf("proof bitmap names %d siblings, only %d present", next+1, len(proof.Siblings))
		}
		if len(proof.Siblings[next]) != 32 {
			return siblings, key, leaf, fmt.Errorf("proof sibling %d is %d bytes, want 32", next, len(proof.Siblings[next]))
		}
		copy(siblings[depth][:], proof.Siblings[next])
		next++
	}
	if next != len(proof.Siblings) {
		return siblings, key, leaf, fmt.Errorf("proof carries %d siblings, bitmap names %d", len(proof.Siblings), next)
	}
	return siblings, key, leaf, nil
}

// IsMembership reports whether the proof asserts presence (a leaf
// value other than the empty-leaf constant).
func (p Proof) IsMembership() bool {
	if len(p.Leaf) != 32 {
		return false
	}
	var leaf digest.Hash
	copy(leaf[:], p.Leaf)
	return leaf != emptyAt[KeyBits]
}

// EncodeProof serializes a proof as a CBOR envelope for transport or
// checkpointing. Proofs are derived data, not identity-bearing, so
// they use the protocol codec rather than the canonical identity
// format.
func EncodeProof(proof Proof) ([]byte, error) {
	data, err := codec.Marshal(proof)
	if err != nil {
		return nil, fmt.Errorf("encoding proof: %w", err)
	}
	return data, nil
}

// DecodeProof parses a CBOR proof envelope.
func DecodeProof(data []byte) (Proof, error) {
	var proof Proof
	if err := codec.Unmarshal(data, &proof); err != nil {
		return Proof{}, fmt.Errorf("decoding proof: %w", err)
	}
	return proof, nil
}
