// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

// Package canonical implements loom's identity-bearing byte format: a
// strict canonical subset of CBOR (RFC 8949 §4.2.1 core deterministic
// encoding, further restricted) in which every logical value has
// exactly one encoding and every encoding has exactly one logical
// value. Every node ID, edge ID, commit digest, and Merkle leaf in
// the system is a BLAKE3 hash of bytes produced by this package, so
// any encoder-dependent choice here would fork identities across
// platforms.
//
// The restrictions beyond core deterministic encoding:
//
//   - Map keys are sorted by the lexicographic order of their own
//     encoded bytes, so heterogeneous key types order consistently.
//   - All lengths are definite. Tags, undefined, and simple values
//     other than false/true/null are rejected.
//   - Floats are 64-bit only; 16- and 32-bit encodings are rejected
//     outright. A float whose fractional part is zero and whose value
//     lies in [-2^63, 2^64) encodes as an integer instead. NaN
//     normalizes to the quiet bit pattern 0x7FF8000000000000,
//     negative zero to positive zero, and subnormals to zero.
//     Infinities keep their sign.
//
// [Decode] is as strict as [Encode] is deterministic: bytes that are
// well-formed CBOR but not canonical (unsorted or duplicate map keys,
// non-minimal heads, a forbidden float width, trailing bytes) fail
// with a [DecodeError] rather than being accepted best-effort.
// Accepting non-canonical input would let two byte sequences name the
// same logical value, which is exactly the divergence this package
// exists to prevent.
//
// The value universe is Go-native: nil, bool, int64/uint64, float64,
// string (valid UTF-8), []byte, []any, and maps with comparable
// scalar keys. Integers are bounded to [-2^63, 2^64-1]; CBOR-legal
// negative integers below -2^63 have no Go representation and are
// rejected on decode.
//
// This package is distinct from lib/codec, which wraps fxamacker/cbor
// for protocol envelopes. Anything that feeds a hash goes through
// this package; anything that is merely transported may use lib/codec.
package canonical
