// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/flyingrobots/loom/lib/digest"
	"github.com/flyingrobots/loom/lib/graph"
	"github.com/flyingrobots/loom/lib/smt"
)

// runProve emits a (non-)membership proof for one record against the
// record set's Merkle root. The CBOR proof envelope goes to stdout as
// hex, or to --output as raw bytes; the root it verifies against goes
// to stderr, since a proof is meaningless without knowing which root
// it was generated under.
func runProve(args []string) error {
	flags := flag.NewFlagSet("prove", flag.ContinueOnError)
	var (
		nodeID     = flags.String("node", "", "node ID to prove (64 hex chars)")
		edgeID     = flags.String("edge", "", "edge ID to prove (64 hex chars)")
		outputPath = flags.String("output", "", "write proof to file instead of stdout")
	)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if (*nodeID == "") == (*edgeID == "") {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", flags.Name())
		flags.PrintDefaults()
		return fmt.Errorf("exactly one of --node and --edge is required")
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

	var proof smt.Proof
	var treeRoot digest.Hash
	if *nodeID != "" {
		id, err := digest.Parse(*nodeID)
		if err != nil {
			return fmt.Errorf("--node: %w", err)
		}
		proof = index.ProveNode(graph.NodeID(id))
		treeRoot = index.NodeRoot()
	} else {
		id, err := digest.Parse(*edgeID)
		if err != nil {
			return fmt.Errorf("--edge: %w", err)
		}
		proof = index.ProveEdge(graph.EdgeID(id))
		treeRoot = index.EdgeRoot()
	}

	// A proof that does not verify against the root it was just
	// generated under means the index is broken, not the input.
	if !smt.Verify(treeRoot, proof) {
		return fmt.Errorf("generated proof does not verify against tree root %s", treeRoot)
	}

	envelope, err := smt.EncodeProof(proof)
	if err != nil {
		return err
	}

	membership := "non-membership"
	if proof.IsMembership() {
		membership = "membership"
	}
	fmt.Fprintf(os.Stderr, "%s proof against tree root %s\n", membership, treeRoot)

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, envelope, 0o644); err != nil {
			return fmt.Errorf("writing proof: %w", err)
		}
		return nil
	}
	fmt.Println(hex.EncodeToString(envelope))
	return nil
}
