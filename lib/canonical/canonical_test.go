// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package canonical

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"
)

func mustEncode(t *testing.T, value any) []byte {
	t.Helper()
	data, err := Encode(value)
	if err != nil {
		t.Fatalf("Encode(%v): %v", value, err)
	}
	return data
}

func TestEncodeDeterministicAcrossConstructionPaths(t *testing.T) {
	// Structurally equal maps built through different code paths must
	// produce bit-identical bytes.
	first := map[string]any{
		"kind":    "demo",
		"payload": []byte("hello"),
		"v":       int64(1),
	}

	second := map[string]any{}
	second["v"] = int64(1)
	second["payload"] = append([]byte(nil), 'h', 'e', 'l', 'l', 'o')
	second["kind"] = "de" + "mo"

	third := map[any]any{
		"payload": []byte("hello"),
		"v":       int64(1),
		"kind":    "demo",
	}

	a := mustEncode(t, first)
	b := mustEncode(t, second)
	c := mustEncode(t, third)
	if !bytes.Equal(a, b) {
		t.Errorf("same logical map encoded differently:\n%x\n%x", a, b)
	}
	if !bytes.Equal(a, c) {
		t.Errorf("map[string]any and map[any]any encoded differently:\n%x\n%x", a, c)
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []byte
	}{
		{"null", nil, []byte{0xf6}},
		{"false", false, []byte{0xf4}},
		{"true", true, []byte{0xf5}},
		{"zero", int64(0), []byte{0x00}},
		{"small_int", int64(23), []byte{0x17}},
		{"one_byte_int", int64(24), []byte{0x18, 24}},
		{"negative_one", int64(-1), []byte{0x20}},
		{"negative_hundred", int64(-100), []byte{0x38, 0x63}},
		{"uint64_max", uint64(math.MaxUint64), []byte{0x1b, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"int64_min", int64(math.MinInt64), []byte{0x3b, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"empty_bytes", []byte{}, []byte{0x40}},
		{"bytes", []byte{1, 2, 3}, []byte{0x43, 1, 2, 3}},
		{"empty_text", "", []byte{0x60}},
		{"text", "abc", []byte{0x63, 'a', 'b', 'c'}},
		{"empty_array", []any{}, []byte{0x80}},
		{"array", []any{int64(1), "a"}, []byte{0x82, 0x01, 0x61, 'a'}},
		{"empty_map", map[string]any{}, []byte{0xa0}},
		{"half", 0.5, []byte{0xfb, 0x3f, 0xe0, 0, 0, 0, 0, 0, 0}},
		{"pos_inf", math.Inf(1), []byte{0xfb, 0x7f, 0xf0, 0, 0, 0, 0, 0, 0}},
		{"neg_inf", math.Inf(-1), []byte{0xfb, 0xff, 0xf0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEncode(t, tt.value)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%v) = %x, want %x", tt.value, got, tt.want)
			}
		})
	}
}

func TestMapKeysSortByEncodedBytes(t *testing.T) {
	// Heterogeneous keys: integer keys encode with major type 0/1
	// heads (0x00..), text keys with major type 3 heads (0x60..), so
	// integers sort before strings regardless of logical value.
	data := mustEncode(t, map[any]any{
		"a":       int64(1),
		int64(10): int64(2),
		"b":       int64(3),
		int64(2):  int64(4),
	})
	want := []byte{
		0xa4,
		0x02, 0x04, // 2: 4
		0x0a, 0x02, // 10: 2
		0x61, 'a', 0x01, // "a": 1
		0x61, 'b', 0x03, // "b": 3
	}
	if !bytes.Equal(data, want) {
		t.Errorf("map encoding = %x, want %x", data, want)
	}
}

func TestFloatCanonicalization(t *testing.T) {
	// NaN always encodes to the one quiet bit pattern, whatever
	// payload the input NaN carried.
	nanWant := []byte{0xfb, 0x7f, 0xf8, 0, 0, 0, 0, 0, 0}
	for _, bits := range []uint64{
		0x7FF8000000000000, // canonical quiet NaN
		0x7FF0000000000001, // signaling NaN
		0xFFF8000000000000, // negative quiet NaN
		0x7FFDEADBEEFDEADB, // payload-carrying NaN
	} {
		got := mustEncode(t, math.Float64frombits(bits))
		if !bytes.Equal(got, nanWant) {
			t.Errorf("Encode(NaN %016x) = %x, want %x", bits, got, nanWant)
		}
	}

	// Negative zero normalizes to positive zero, which in turn has an
	// integer canonical form.
	if !bytes.Equal(mustEncode(t, math.Copysign(0, -1)), mustEncode(t, 0.0)) {
		t.Error("Encode(-0.0) != Encode(0.0)")
	}
	if !bytes.Equal(mustEncode(t, 0.0), []byte{0x00}) {
		t.Errorf("Encode(0.0) = %x, want 00", mustEncode(t, 0.0))
	}

	// Subnormals normalize to zero.
	subnormal := math.Float64frombits(0x0000000000000001)
	if !bytes.Equal(mustEncode(t, subnormal), []byte{0x00}) {
		t.Errorf("Encode(subnormal) = %x, want 00", mustEncode(t, subnormal))
	}

	// Integral floats in the native range reduce to integers.
	if !bytes.Equal(mustEncode(t, 42.0), mustEncode(t, int64(42))) {
		t.Error("Encode(42.0) != Encode(42)")
	}
	if !bytes.Equal(mustEncode(t, -17.0), mustEncode(t, int64(-17))) {
		t.Error("Encode(-17.0) != Encode(-17)")
	}

	// Integral floats outside the native range stay 64-bit floats.
	huge := math.Ldexp(1, 100)
	got := mustEncode(t, huge)
	if got[0] != 0xfb {
		t.Errorf("Encode(2^100) = %x, want 64-bit float encoding", got)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []any{
		nil,
		true,
		false,
		int64(0),
		int64(-1),
		int64(math.MaxInt64),
		int64(math.MinInt64),
		uint64(math.MaxUint64),
		"hello",
		"héllo wörld",
		[]byte{0, 1, 2, 255},
		3.25,
		math.Inf(1),
		math.Inf(-1),
		[]any{int64(1), []any{int64(2), "three"}, []byte{4}},
		map[any]any{
			"kind":    "demo",
			"payload": []byte("hello"),
			"v":       int64(1),
			int64(7):  []any{"nested", map[any]any{"x": nil}},
		},
	}

	for _, value := range values {
		data := mustEncode(t, value)
		decoded, err := Decode(data)
		if err != nil {
			t.Errorf("Decode(Encode(%v)): %v", value, err)
			continue
		}
		reencoded, err := Encode(decoded)
		if err != nil {
			t.Errorf("Encode(Decode(%x)): %v", data, err)
			continue
		}
		if !bytes.Equal(data, reencoded) {
			t.Errorf("encode(decode(b)) != b for %v: %x vs %x", value, data, reencoded)
		}
		if !reflect.DeepEqual(normalizeForCompare(value), decoded) {
			t.Errorf("decode(encode(v)) != v: got %#v, want %#v", decoded, value)
		}
	}
}

// normalizeForCompare maps an input value onto the decoder's
// representation: map[string]any becomes map[any]any.
func normalizeForCompare(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[any]any, len(v))
		for key, element := range v {
			result[key] = normalizeForCompare(element)
		}
		return result
	case map[any]any:
		result := make(map[any]any, len(v))
		for key, element := range v {
			result[key] = normalizeForCompare(element)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, element := range v {
			result[i] = normalizeForCompare(element)
		}
		return result
	default:
		return value
	}
}

func TestDecodeRejectsNonCanonical(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty_input", []byte{}},
		{"trailing_bytes", []byte{0x00, 0x00}},
		{"nonminimal_uint_1byte", []byte{0x18, 0x17}},              // 23 in one-byte head
		{"nonminimal_uint_2byte", []byte{0x19, 0x00, 0xff}},       // 255 in two-byte head
		{"nonminimal_uint_4byte", []byte{0x1a, 0x00, 0x00, 0xff, 0xff}},
		{"nonminimal_length", []byte{0x58, 0x02, 0x01, 0x02}},     // 2-byte string with one-byte length head
		{"indefinite_bytes", []byte{0x5f, 0x41, 0x01, 0xff}},
		{"indefinite_array", []byte{0x9f, 0x01, 0xff}},
		{"indefinite_map", []byte{0xbf, 0x61, 'a', 0x01, 0xff}},
		{"tag", []byte{0xc2, 0x41, 0x01}},
		{"undefined", []byte{0xf7}},
		{"simple_value", []byte{0xf8, 0x20}},
		{"float16", []byte{0xf9, 0x3c, 0x00}},
		{"float32", []byte{0xfa, 0x3f, 0x80, 0x00, 0x00}},
		{"float64_integral", []byte{0xfb, 0x40, 0x45, 0, 0, 0, 0, 0, 0}}, // 42.0
		{"float64_neg_zero", []byte{0xfb, 0x80, 0, 0, 0, 0, 0, 0, 0}},
		{"float64_pos_zero", []byte{0xfb, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"float64_subnormal", []byte{0xfb, 0, 0, 0, 0, 0, 0, 0, 1}},
		{"float64_signaling_nan", []byte{0xfb, 0x7f, 0xf0, 0, 0, 0, 0, 0, 1}},
		{"unsorted_map_keys", []byte{0xa2, 0x61, 'b', 0x01, 0x61, 'a', 0x02}},
		{"duplicate_map_keys", []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}},
		{"length_first_sorted_keys", []byte{0xa2, 0x62, 'a', 'a', 0x01, 0x61, 'b', 0x02}}, // CTAP2 order, not bytewise
		{"negative_below_int64", []byte{0x3b, 0x80, 0, 0, 0, 0, 0, 0, 0}},
		{"invalid_utf8", []byte{0x62, 0xff, 0xfe}},
		{"bytes_map_key", []byte{0xa1, 0x41, 0x01, 0x02}},
		{"truncated_string", []byte{0x45, 0x01, 0x02}},
		{"truncated_array", []byte{0x82, 0x01}},
		{"truncated_float", []byte{0xfb, 0x3f, 0xe0}},
		{"reserved_info", []byte{0x1c}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if err == nil {
				t.Fatalf("Decode(%x) succeeded, want error", tt.data)
			}
			var decodeError *DecodeError
			if !errors.As(err, &decodeError) {
				t.Errorf("Decode(%x) error type %T, want *DecodeError", tt.data, err)
			}
		})
	}
}

func TestDecodeWellFormedVariantOfCanonicalValue(t *testing.T) {
	// The canonical encoding of the value decodes; the well-formed
	// but non-canonical variant of the same value does not.
	canonical := mustEncode(t, map[string]any{"a": int64(1), "b": int64(2)})
	if _, err := Decode(canonical); err != nil {
		t.Fatalf("Decode(canonical map): %v", err)
	}

	swapped := []byte{0xa2, 0x61, 'b', 0x02, 0x61, 'a', 0x01}
	if _, err := Decode(swapped); err == nil {
		t.Error("Decode accepted a key-swapped encoding of a canonical map")
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"unsupported_type", struct{}{}},
		{"channel", make(chan int)},
		{"invalid_utf8_string", string([]byte{0xff, 0xfe})},
		{"composite_map_key", map[any]any{struct{ X int }{1}: "v"}},
		{"colliding_keys", map[any]any{int64(2): "a", 2.0: "b"}},
		{"nested_unsupported", []any{int64(1), struct{}{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.value)
			if err == nil {
				t.Fatalf("Encode(%v) succeeded, want error", tt.value)
			}
			var encodeError *EncodeError
			if !errors.As(err, &encodeError) {
				t.Errorf("Encode error type %T, want *EncodeError", err)
			}
		})
	}
}

func TestIntAndUintEncodeIdentically(t *testing.T) {
	// The same logical non-negative integer must encode identically
	// whatever Go integer type carries it.
	a := mustEncode(t, int64(1000))
	b := mustEncode(t, uint64(1000))
	c := mustEncode(t, 1000)
	d := mustEncode(t, 1000.0)
	for i, other := range [][]byte{b, c, d} {
		if !bytes.Equal(a, other) {
			t.Errorf("integer 1000 representation %d encoded as %x, want %x", i, other, a)
		}
	}
}

func BenchmarkEncodeRecord(b *testing.B) {
	record := map[string]any{
		"v":       int64(1),
		"kind":    "demo",
		"payload": bytes.Repeat([]byte{0xab}, 256),
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(record); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeRecord(b *testing.B) {
	record := map[string]any{
		"v":       int64(1),
		"kind":    "demo",
		"payload": bytes.Repeat([]byte{0xab}, 256),
	}
	data, err := Encode(record)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}
