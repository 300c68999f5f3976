// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/flyingrobots/loom/lib/graph"
)

// zstdMagic is the zstandard frame magic number (little-endian on the
// wire), used to sniff compressed record-set files.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// readInput reads a record-set file, or stdin when path is "-",
// transparently decompressing zstd frames. The returned bytes are the
// canonical record-set encoding that digests are computed over.
func readInput(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening zstd frame in %s: %w", path, err)
	}
	defer decoder.Close()
	decompressed, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	slog.Debug("decompressed record set",
		"path", path,
		"compressed", len(data),
		"size", len(decompressed))
	return decompressed, nil
}

// loadRecordSet reads and decodes a record-set file, returning both
// the canonical bytes (the digest pre-image) and the decoded store.
func loadRecordSet(path string) ([]byte, *graph.Store, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := graph.DecodeRecordSet(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding record set %s: %w", path, err)
	}
	slog.Debug("loaded record set",
		"path", path,
		"nodes", len(store.NodesSorted()),
		"edges", len(store.EdgesSorted()))
	return data, store, nil
}
