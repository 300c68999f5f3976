// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/flyingrobots/loom/lib/digest"
	"github.com/flyingrobots/loom/lib/smt"
)

// runDigest prints the commit digest of a record-set file. The digest
// is the BLAKE3 hash of the canonical record-set bytes, so it is
// computed over the file content directly after decompression and
// validation.
func runDigest(args []string) error {
	flags := flag.NewFlagSet("digest", flag.ContinueOnError)
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

	data, _, err := loadRecordSet(path)
	if err != nil {
		return err
	}
	fmt.Println(digest.Format(digest.Sum(data)))
	return nil
}

// runRoot prints the Merkle root of a record-set file, rebuilding the
// commitment index from the records. With --full it also prints the
// per-tree roots.
func runRoot(args []string) error {
	flags := flag.NewFlagSet("root", flag.ContinueOnError)
	full := flags.Bool("full", false, "print node and edge tree roots as well")
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

	_, store, err := loadRecordSet(path)
	if err != nil {
		return err
	}
	index, err := smt.FromStore(store)
	if err != nil {
		return err
	}
	if *full {
		fmt.Printf("root:      %s\n", index.Root())
		fmt.Printf("node-root: %s\n", index.NodeRoot())
		fmt.Printf("edge-root: %s\n", index.EdgeRoot())
		return nil
	}
	fmt.Println(index.Root())
	return nil
}

// runVerify recomputes a record-set file's commit digest and Merkle
// root and compares them against expected values. At least one of
// --digest and --root must be given; any mismatch exits 1.
func runVerify(args []string) error {
	flags := flag.NewFlagSet("verify", flag.ContinueOnError)
	var (
		expectedDigest = flags.String("digest", "", "expected commit digest (64 hex chars)")
		expectedRoot   = flags.String("root", "", "expected Merkle root (64 hex chars)")
	)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *expectedDigest == "" && *expectedRoot == "" {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", flags.Name())
		flags.PrintDefaults()
		return fmt.Errorf("at least one of --digest and --root is required")
	}
	path, err := inputPath(flags.Args())
	if err != nil {
		return err
	}

	data, store, err := loadRecordSet(path)
	if err != nil {
		return err
	}

	if *expectedDigest != "" {
		want, err := digest.Parse(*expectedDigest)
		if err != nil {
			return fmt.Errorf("--digest: %w", err)
		}
		got := digest.Sum(data)
		if got != want {
			return fmt.Errorf("%w: commit digest is %s, want %s", errVerificationFailed, got, want)
		}
		fmt.Printf("digest ok: %s\n", got.Short())
	}

	if *expectedRoot != "" {
		want, err := digest.Parse(*expectedRoot)
		if err != nil {
			return fmt.Errorf("--root: %w", err)
		}
		index, err := smt.FromStore(store)
		if err != nil {
			return err
		}
		got := index.Root()
		if got != want {
			return fmt.Errorf("%w: merkle root is %s, want %s", errVerificationFailed, got, want)
		}
		fmt.Printf("root ok:   %s\n", got.Short())
	}
	return nil
}

// inputPath extracts the single optional positional file argument,
// defaulting to stdin.
func inputPath(positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return "-", nil
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("expected at most one file argument, got %d", len(positional))
	}
}
