// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest provides loom's 32-byte BLAKE3 hash type and content
// addressing. A record's identifier is the BLAKE3 digest of its
// canonical encoding, so identical logical content always yields an
// identical identifier on every platform.
//
// [HashCanonical] is the only sanctioned route from a structured
// value to a hash. Hashing hand-assembled bytes bypasses the
// canonical-form guarantees and must never be done for anything
// identity-bearing.
package digest

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/flyingrobots/loom/lib/canonical"
)

// Hash is a 32-byte BLAKE3 digest. The external representation is 64
// lowercase hex characters with no prefix; libraries pass the raw
// bytes and only the boundary formats them.
type Hash [32]byte

// Sum computes the plain BLAKE3 digest of data.
func Sum(data []byte) Hash {
	return blake3.Sum256(data)
}

// HashCanonical canonically encodes value and returns the BLAKE3
// digest of the encoding. Fails only when value has no canonical
// form; the error is the canonical.EncodeError describing why.
func HashCanonical(value any) (Hash, error) {
	data, err := canonical.Encode(value)
	if err != nil {
		return Hash{}, fmt.Errorf("hashing canonical encoding: %w", err)
	}
	return Sum(data), nil
}

// Compare orders two hashes bytewise. Every digest-participating
// iteration in loom sorts by this order.
func Compare(a, b Hash) int {
	return bytes.Compare(a[:], b[:])
}

// IsZero reports whether h is the all-zero hash. The zero hash is
// never a valid digest of anything; it marks "unset".
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Format returns the 64-character lowercase hex representation.
func Format(h Hash) string {
	return hex.EncodeToString(h[:])
}

// Parse parses a 64-character hex string into a Hash.
func Parse(hexString string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return h, fmt.Errorf("parsing hash: %w", err)
	}
	if len(decoded) != 32 {
		return h, fmt.Errorf("hash is %d bytes, want 32", len(decoded))
	}
	copy(h[:], decoded)
	return h, nil
}

// Short returns the first 12 hex characters, for logs and human
// output where the full digest is noise.
func (h Hash) Short() string {
	return Format(h)[:12]
}

func (h Hash) String() string {
	return Format(h)
}
