// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

// Command loom inspects and verifies loom graph commitments from the
// command line: computing commit digests and Merkle roots of
// record-set files, generating and checking inclusion proofs, and
// decoding the underlying CBOR.
//
// Exit codes follow the check-tool convention: 0 success, 1 a
// verification condition not met, 2 usage or input errors.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/flyingrobots/loom/lib/canonical"
	"github.com/flyingrobots/loom/lib/graph"
	"github.com/flyingrobots/loom/lib/version"
)

// errVerificationFailed marks a clean "condition not met" outcome, as
// opposed to bad input or an internal failure.
var errVerificationFailed = errors.New("verification failed")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		fmt.Fprintln(os.Stderr, "error: subcommand required")
		return 2
	}

	configureLogging()

	var err error
	switch subcommand := args[0]; subcommand {
	case "digest":
		err = runDigest(args[1:])
	case "root":
		err = runRoot(args[1:])
	case "verify":
		err = runVerify(args[1:])
	case "prove":
		err = runProve(args[1:])
	case "pack":
		err = runPack(args[1:])
	case "diag":
		err = runDiag(args[1:])
	case "decode":
		err = runDecode(args[1:])
	case "version":
		fmt.Printf("loom %s\n", version.Info())
		return 0
	case "-h", "--help", "help":
		printUsage()
		return 0
	default:
		printUsage()
		fmt.Fprintf(os.Stderr, "error: unknown subcommand %q\n", subcommand)
		return 2
	}

	if err == nil {
		return 0
	}
	if errors.Is(err, errVerificationFailed) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "error: %s\n", classify(err))
	return 2
}

// classify maps the error taxonomy onto operator-facing wording:
// canonical-form violations are invalid input, consistency violations
// are fatal internal state.
func classify(err error) string {
	var decodeError *canonical.DecodeError
	if errors.As(err, &decodeError) {
		return fmt.Sprintf("invalid input: %v", err)
	}
	var encodeError *canonical.EncodeError
	if errors.As(err, &encodeError) {
		return fmt.Sprintf("invalid input: %v", err)
	}
	var consistency *graph.ConsistencyError
	if errors.As(err, &consistency) {
		return fmt.Sprintf("fatal: %v", err)
	}
	return err.Error()
}

func configureLogging() {
	level := slog.LevelWarn
	if os.Getenv("LOOM_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: loom <subcommand> [flags]

Subcommands:
  digest    Print the commit digest of a record-set file
  root      Print the Merkle roots of a record-set file
  verify    Recompute digest/roots and compare against expected values
  prove     Emit an inclusion proof for a record
  pack      Validate a record-set file and rewrite it zstd-compressed
  diag      Convert CBOR on stdin to diagnostic notation
  decode    Convert CBOR on stdin to JSON
  version   Print version information

Record-set files are canonical CBOR, optionally zstd-compressed.
Set LOOM_DEBUG=1 for debug logging.
`)
}
