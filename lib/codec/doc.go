// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides loom's standard CBOR configuration for
// protocol envelopes: inclusion proofs, tool output, and any other
// derived data that is transported or checkpointed but never hashed
// into an identity.
//
// loom draws a hard line between two serialization layers:
//
//   - lib/canonical is the identity format. Anything whose bytes feed
//     a hash — record identities, commit digests, Merkle leaves —
//     goes through it, because its decoder rejects every
//     non-canonical byte sequence outright.
//   - lib/codec (this package) is the envelope format. It wraps
//     fxamacker/cbor with Core Deterministic Encoding (RFC 8949
//     §4.2), which makes encoding reproducible, but its decoder
//     accepts standard CBOR for forward compatibility. That leniency
//     is fine for envelopes and would be a correctness bug for
//     identities.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Envelope types carry `cbor` struct tags and string field names.
package codec
