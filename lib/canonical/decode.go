// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package canonical

import (
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"
)

// maxNesting bounds recursion depth so crafted input cannot overflow
// the stack. 512 is far beyond any legitimate record structure.
const maxNesting = 512

// Decode parses exactly one canonical value from data. It fails with
// a *DecodeError for malformed CBOR, for well-formed CBOR that is not
// canonical, and for trailing bytes after the value.
//
// Integers decode to int64, or to uint64 when the value exceeds
// math.MaxInt64. Maps decode to map[any]any.
func Decode(data []byte) (any, error) {
	d := &decoder{data: data}
	value, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.off != len(d.data) {
		return nil, d.failf("%d trailing bytes after value", len(d.data)-d.off)
	}
	return value, nil
}

type decoder struct {
	data []byte
	off  int
}

func (d *decoder) failf(format string, args ...any) error {
	return &DecodeError{Offset: d.off, Reason: fmt.Sprintf(format, args...)}
}

func (d *decoder) value(depth int) (any, error) {
	if depth > maxNesting {
		return nil, d.failf("nesting deeper than %d levels", maxNesting)
	}
	if d.off >= len(d.data) {
		return nil, d.failf("unexpected end of input")
	}

	initial := d.data[d.off]
	major := initial >> 5
	info := initial & 0x1f

	switch major {
	case majorUint:
		n, err := d.argument(info)
		if err != nil {
			return nil, err
		}
		if n > math.MaxInt64 {
			return uint64(n), nil
		}
		return int64(n), nil

	case majorNegInt:
		n, err := d.argument(info)
		if err != nil {
			return nil, err
		}
		if n > math.MaxInt64 {
			// -1-n is below -2^63, outside the value universe.
			return nil, d.failf("negative integer below -2^63")
		}
		return -1 - int64(n), nil

	case majorBytes:
		raw, err := d.lengthPrefixed(info)
		if err != nil {
			return nil, err
		}
		result := make([]byte, len(raw))
		copy(result, raw)
		return result, nil

	case majorText:
		raw, err := d.lengthPrefixed(info)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, d.failf("text string is not valid UTF-8")
		}
		return string(raw), nil

	case majorArray:
		n, err := d.argument(info)
		if err != nil {
			return nil, err
		}
		if n > uint64(len(d.data)-d.off) {
			return nil, d.failf("array length %d exceeds remaining input", n)
		}
		result := make([]any, 0, n)
		for i := uint64(0); i < n; i++ {
			element, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			result = append(result, element)
		}
		return result, nil

	case majorMap:
		return d.mapValue(info, depth)

	case majorTag:
		return nil, d.failf("tags are not canonical")

	default: // majorPrimitive
		return d.primitive(info)
	}
}

// mapValue decodes a map, enforcing strictly ascending encoded key
// order. Keys are compared by their raw encoded bytes, the same order
// the encoder sorts by.
func (d *decoder) mapValue(info byte, depth int) (any, error) {
	n, err := d.argument(info)
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.data)-d.off) {
		return nil, d.failf("map length %d exceeds remaining input", n)
	}

	result := make(map[any]any, n)
	var previousKey []byte
	for i := uint64(0); i < n; i++ {
		keyStart := d.off
		key, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		encodedKey := d.data[keyStart:d.off]

		switch key.(type) {
		case nil, bool, int64, uint64, float64, string:
		default:
			return nil, d.failf("unsupported map key type %T", key)
		}

		if previousKey != nil {
			switch bytes.Compare(previousKey, encodedKey) {
			case 0:
				return nil, d.failf("duplicate map key")
			case 1:
				return nil, d.failf("map keys not in canonical order")
			}
		}
		previousKey = encodedKey

		value, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

func (d *decoder) primitive(info byte) (any, error) {
	switch info {
	case 20:
		d.off++
		return false, nil
	case 21:
		d.off++
		return true, nil
	case 22:
		d.off++
		return nil, nil
	case 23:
		return nil, d.failf("undefined is not canonical")
	case 24:
		return nil, d.failf("simple values are not canonical")
	case 25:
		return nil, d.failf("half-precision floats are forbidden")
	case 26:
		return nil, d.failf("single-precision floats are forbidden")
	case 27:
		return d.float64Value()
	case 28, 29, 30:
		return nil, d.failf("reserved additional information %d", info)
	case 31:
		return nil, d.failf("indefinite-length break outside container")
	default:
		return nil, d.failf("simple values are not canonical")
	}
}

// float64Value reads a 64-bit float and rejects every encoding whose
// value has a different canonical form: non-quiet NaN payloads,
// negative zero, subnormals, and integral values in the native
// integer range (which must be encoded as integers).
func (d *decoder) float64Value() (any, error) {
	if len(d.data)-d.off < 9 {
		return nil, d.failf("truncated 64-bit float")
	}
	raw := d.data[d.off+1 : d.off+9]
	bits := uint64(raw[0])<<56 | uint64(raw[1])<<48 | uint64(raw[2])<<40 | uint64(raw[3])<<32 |
		uint64(raw[4])<<24 | uint64(raw[5])<<16 | uint64(raw[6])<<8 | uint64(raw[7])

	value := math.Float64frombits(bits)
	switch {
	case math.IsNaN(value) && bits != quietNaN:
		return nil, d.failf("NaN payload is not the canonical quiet NaN")
	case bits == math.Float64bits(math.Copysign(0, -1)):
		return nil, d.failf("negative zero must encode as integer 0")
	case isSubnormal(value):
		return nil, d.failf("subnormal float must encode as integer 0")
	case value == 0 && !math.IsNaN(value):
		return nil, d.failf("float zero must encode as integer 0")
	case !math.IsInf(value, 0) && !math.IsNaN(value) && value == math.Trunc(value) &&
		value < maxUint64Float && value >= minInt64Float:
		return nil, d.failf("float with integer canonical form")
	}

	d.off += 9
	return value, nil
}

// argument reads a head argument for major types 0-5, enforcing
// minimal-width encoding.
func (d *decoder) argument(info byte) (uint64, error) {
	d.off++ // initial byte
	switch {
	case info < 24:
		return uint64(info), nil
	case info == 24:
		n, err := d.readArgumentBytes(1)
		if err != nil {
			return 0, err
		}
		if n < 24 {
			return 0, d.failf("non-minimal head: %d in one-byte argument", n)
		}
		return n, nil
	case info == 25:
		n, err := d.readArgumentBytes(2)
		if err != nil {
			return 0, err
		}
		if n <= math.MaxUint8 {
			return 0, d.failf("non-minimal head: %d in two-byte argument", n)
		}
		return n, nil
	case info == 26:
		n, err := d.readArgumentBytes(4)
		if err != nil {
			return 0, err
		}
		if n <= math.MaxUint16 {
			return 0, d.failf("non-minimal head: %d in four-byte argument", n)
		}
		return n, nil
	case info == 27:
		n, err := d.readArgumentBytes(8)
		if err != nil {
			return 0, err
		}
		if n <= math.MaxUint32 {
			return 0, d.failf("non-minimal head: %d in eight-byte argument", n)
		}
		return n, nil
	case info == 31:
		return 0, d.failf("indefinite lengths are forbidden")
	default:
		return 0, d.failf("reserved additional information %d", info)
	}
}

func (d *decoder) readArgumentBytes(width int) (uint64, error) {
	if len(d.data)-d.off < width {
		return 0, d.failf("truncated head argument")
	}
	var n uint64
	for i := 0; i < width; i++ {
		n = n<<8 | uint64(d.data[d.off+i])
	}
	d.off += width
	return n, nil
}

func (d *decoder) lengthPrefixed(info byte) ([]byte, error) {
	n, err := d.argument(info)
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.data)-d.off) {
		return nil, d.failf("string length %d exceeds remaining input", n)
	}
	raw := d.data[d.off : d.off+int(n)]
	d.off += int(n)
	return raw, nil
}
