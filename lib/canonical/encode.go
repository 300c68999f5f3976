// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package canonical

import (
	"bytes"
	"math"
	"sort"
	"unicode/utf8"
)

// CBOR major types (RFC 8949 §3).
const (
	majorUint      = 0
	majorNegInt    = 1
	majorBytes     = 2
	majorText      = 3
	majorArray     = 4
	majorMap       = 5
	majorTag       = 6
	majorPrimitive = 7
)

// quietNaN is the single permitted NaN bit pattern.
const quietNaN = 0x7FF8000000000000

// maxUint64Float is 2^64 as a float64 (exactly representable). Floats
// strictly below this (and integral, and non-negative) reduce to
// unsigned integers.
const maxUint64Float = 18446744073709551616.0

// minInt64Float is -2^63 as a float64 (exactly representable).
const minInt64Float = -9223372036854775808.0

// Encode returns the canonical encoding of value. It fails with an
// *EncodeError if value contains a type outside the canonical value
// universe, a string that is not valid UTF-8, or map keys that
// collide after normalization.
func Encode(value any) ([]byte, error) {
	return appendValue(nil, value)
}

func appendValue(dst []byte, value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return append(dst, 0xf6), nil
	case bool:
		if v {
			return append(dst, 0xf5), nil
		}
		return append(dst, 0xf4), nil
	case int:
		return appendInt(dst, int64(v)), nil
	case int64:
		return appendInt(dst, v), nil
	case uint:
		return appendHead(dst, majorUint, uint64(v)), nil
	case uint64:
		return appendHead(dst, majorUint, v), nil
	case float32:
		return appendFloat(dst, float64(v)), nil
	case float64:
		return appendFloat(dst, v), nil
	case string:
		if !utf8.ValidString(v) {
			return nil, encodeErrorf("string is not valid UTF-8")
		}
		dst = appendHead(dst, majorText, uint64(len(v)))
		return append(dst, v...), nil
	case []byte:
		dst = appendHead(dst, majorBytes, uint64(len(v)))
		return append(dst, v...), nil
	case []any:
		var err error
		dst = appendHead(dst, majorArray, uint64(len(v)))
		for _, element := range v {
			dst, err = appendValue(dst, element)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case map[string]any:
		entries := make([]mapEntry, 0, len(v))
		for key, element := range v {
			entries = append(entries, mapEntry{key: key, value: element})
		}
		return appendMap(dst, entries)
	case map[any]any:
		entries := make([]mapEntry, 0, len(v))
		for key, element := range v {
			entries = append(entries, mapEntry{key: key, value: element})
		}
		return appendMap(dst, entries)
	default:
		return nil, encodeErrorf("unsupported type %T", value)
	}
}

type mapEntry struct {
	key   any
	value any

	encodedKey   []byte
	encodedValue []byte
}

// appendMap encodes every key/value pair, sorts the pairs by the
// lexicographic order of their encoded key bytes, rejects duplicates,
// and appends the result. Sorting by encoded bytes (rather than
// logical key value) is what makes heterogeneous key types order
// consistently on every platform.
func appendMap(dst []byte, entries []mapEntry) ([]byte, error) {
	for i := range entries {
		if err := checkMapKey(entries[i].key); err != nil {
			return nil, err
		}
		encodedKey, err := appendValue(nil, entries[i].key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := appendValue(nil, entries[i].value)
		if err != nil {
			return nil, err
		}
		entries[i].encodedKey = encodedKey
		entries[i].encodedValue = encodedValue
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].encodedKey, entries[j].encodedKey) < 0
	})

	// Distinct Go keys can normalize to the same encoding (for
	// example int64(2) and float64(2.0)); the result would be an
	// ambiguous document, so it is an error rather than a silent
	// merge.
	for i := 1; i < len(entries); i++ {
		if bytes.Equal(entries[i-1].encodedKey, entries[i].encodedKey) {
			return nil, encodeErrorf("duplicate map key after normalization")
		}
	}

	dst = appendHead(dst, majorMap, uint64(len(entries)))
	for _, entry := range entries {
		dst = append(dst, entry.encodedKey...)
		dst = append(dst, entry.encodedValue...)
	}
	return dst, nil
}

// checkMapKey restricts map keys to comparable scalars. Composite
// keys (arrays, maps, byte strings) have no Go map representation in
// the value universe, so encodings containing them could never round
// trip.
func checkMapKey(key any) error {
	switch key.(type) {
	case nil, bool, int, int64, uint, uint64, float32, float64, string:
		return nil
	default:
		return encodeErrorf("unsupported map key type %T", key)
	}
}

func appendInt(dst []byte, v int64) []byte {
	if v >= 0 {
		return appendHead(dst, majorUint, uint64(v))
	}
	return appendHead(dst, majorNegInt, uint64(-1-v))
}

// appendFloat applies the float canonicalization rules: NaN collapses
// to the quiet pattern, negative zero and subnormals collapse to
// zero, integral values in the native integer range become integers,
// and everything else is a 64-bit float.
func appendFloat(dst []byte, v float64) []byte {
	if math.IsNaN(v) {
		return appendFloat64Bits(dst, quietNaN)
	}
	if isSubnormal(v) || v == 0 {
		v = 0
	}
	if !math.IsInf(v, 0) && v == math.Trunc(v) {
		if v >= 0 && v < maxUint64Float {
			return appendHead(dst, majorUint, uint64(v))
		}
		if v < 0 && v >= minInt64Float {
			return appendInt(dst, int64(v))
		}
	}
	return appendFloat64Bits(dst, math.Float64bits(v))
}

func appendFloat64Bits(dst []byte, bits uint64) []byte {
	return append(dst, 0xfb,
		byte(bits>>56), byte(bits>>48), byte(bits>>40), byte(bits>>32),
		byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits))
}

func isSubnormal(v float64) bool {
	bits := math.Float64bits(v)
	exponent := bits >> 52 & 0x7ff
	mantissa := bits & 0xfffffffffffff
	return exponent == 0 && mantissa != 0
}

// appendHead writes a major type and its argument using the smallest
// head width that can represent the argument.
func appendHead(dst []byte, major byte, n uint64) []byte {
	base := major << 5
	switch {
	case n < 24:
		return append(dst, base|byte(n))
	case n <= math.MaxUint8:
		return append(dst, base|24, byte(n))
	case n <= math.MaxUint16:
		return append(dst, base|25, byte(n>>8), byte(n))
	case n <= math.MaxUint32:
		return append(dst, base|26, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	default:
		return append(dst, base|27,
			byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
			byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
}
