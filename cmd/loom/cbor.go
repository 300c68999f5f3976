// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/flyingrobots/loom/lib/codec"
)

// runDiag converts CBOR input to RFC 8949 extended diagnostic
// notation, one line per item. Diagnostic notation preserves CBOR type
// information (byte strings, integer keys, tags), which JSON output
// cannot.
func runDiag(args []string) error {
	flags := flag.NewFlagSet("diag", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	path, err := inputPath(flags.Args())
	if err != nil {
		return err
	}
	data, err := readInput(path)
	if err != nil {
		return err
	}
	return diagCBOR(data, os.Stdout)
}

// runDecode converts CBOR input to JSON. Byte strings are rendered as
// hex, since in loom data they are almost always 32-byte digests.
func runDecode(args []string) error {
	flags := flag.NewFlagSet("decode", flag.ContinueOnError)
	compact := flags.Bool("compact", false, "compact output (no indentation)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	path, err := inputPath(flags.Args())
	if err != nil {
		return err
	}
	data, err := readInput(path)
	if err != nil {
		return err
	}
	return decodeCBOR(data, os.Stdout, *compact)
}

// diagCBOR writes diagnostic notation for data to w. Input is treated
// as a CBOR sequence: one output line per item.
func diagCBOR(data []byte, w io.Writer) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}
	remaining := data
	for len(remaining) > 0 {
		notation, rest, err := codec.DiagnoseFirst(remaining)
		if err != nil {
			offset := len(data) - len(remaining)
			return fmt.Errorf("diagnose CBOR at byte %d: %w", offset, err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		remaining = rest
	}
	return nil
}

// decodeCBOR decodes a single CBOR item from data and writes it to w
// as JSON.
func decodeCBOR(data []byte, w io.Writer, compact bool) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}
	var value any
	if err := codec.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode CBOR: %w", err)
	}

	var output []byte
	var err error
	if compact {
		output, err = json.Marshal(normalizeValue(value))
	} else {
		output, err = json.MarshalIndent(normalizeValue(value), "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// normalizeValue recursively converts CBOR-decoded values to
// JSON-friendly types: map[any]any keys become strings, and byte
// strings become hex.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case map[any]any:
		result := make(map[string]any, len(value))
		for key, element := range value {
			result[fmt.Sprint(key)] = normalizeValue(element)
		}
		return result

	case map[string]any:
		for key, element := range value {
			value[key] = normalizeValue(element)
		}
		return value

	case []any:
		for index, element := range value {
			value[index] = normalizeValue(element)
		}
		return value

	case []byte:
		return hex.EncodeToString(value)

	default:
		return v
	}
}
