// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	flag "github.com/spf13/pflag"

	"github.com/flyingrobots/loom/lib/digest"
	"github.com/flyingrobots/loom/lib/graph"
)

// runPack validates a record-set file and rewrites it zstd-compressed
// (or plain with --decompress). The canonical bytes are unique per
// graph value, so packing changes only the container, never the
// commit digest. The digest of the validated content goes to stderr.
func runPack(args []string) error {
	flags := flag.NewFlagSet("pack", flag.ContinueOnError)
	var (
		outputPath = flags.String("output", "", "write to file instead of stdout")
		decompress = flags.Bool("decompress", false, "write plain canonical bytes instead of zstd")
	)
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

	data, store, err := loadRecordSet(path)
	if err != nil {
		return err
	}
	// Re-encode from the decoded store and require byte identity:
	// a pack that silently rewrote content would change the digest.
	reencoded, err := graph.EncodeRecordSet(store)
	if err != nil {
		return err
	}
	if string(reencoded) != string(data) {
		return fmt.Errorf("record set re-encoded to different bytes; input is not canonical")
	}
	fmt.Fprintf(os.Stderr, "commit digest %s\n", digest.Sum(data))

	output := data
	if !*decompress {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("initializing zstd: %w", err)
		}
		output = encoder.EncodeAll(data, nil)
		encoder.Close()
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, output, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", *outputPath, err)
		}
		return nil
	}
	if _, err := os.Stdout.Write(output); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
