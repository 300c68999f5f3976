// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package canonical

import "fmt"

// EncodeError reports a value with no canonical representation, such
// as an unsupported Go type or a map whose keys collide after float
// normalization. Encoding is deterministic, so retrying an encode
// that failed reproduces the same error.
type EncodeError struct {
	Reason string
}

func (e *EncodeError) Error() string {
	return "canonical encode: " + e.Reason
}

// DecodeError reports bytes that are not a canonical encoding: either
// malformed CBOR or well-formed CBOR that violates a canonical-form
// rule. Offset is the byte position at which the violation was
// detected.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("canonical decode at byte %d: %s", e.Offset, e.Reason)
}

func encodeErrorf(format string, args ...any) error {
	return &EncodeError{Reason: fmt.Sprintf(format, args...)}
}
