// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package smt

import (
	"fmt"

	"github.com/flyingrobots/loom/lib/canonical"
	"github.com/flyingrobots/loom/lib/digest"
	"github.com/flyingrobots/loom/lib/graph"
)

// Index is the incremental commitment over one graph value: a tree of
// node records and a tree of edge records, combined into one root. It
// commits to exactly the content graph.CommitDigest fingerprints,
// with O(256) updates per record change instead of a full O(N)
// recomputation.
//
// The index carries no authority of its own. Callers that maintain an
// Index alongside a graph.Store must apply the same membership
// changes to both; the tests in this package verify that doing so
// keeps root and digest in agreement, and a verifier can always
// bypass the index entirely by recomputing the digest from records.
type Index struct {
	nodes *Tree
	edges *Tree
}

// NewIndex returns the index of an empty graph.
func NewIndex() *Index {
	return &Index{nodes: NewTree(), edges: NewTree()}
}

// FromStore builds the index of an existing graph value.
func FromStore(s *graph.Store) (*Index, error) {
	index := NewIndex()
	for _, node := range s.NodesSorted() {
		if err := index.PutNode(node); err != nil {
			return nil, err
		}
	}
	for _, edge := range s.EdgesSorted() {
		if err := index.PutEdge(edge); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// NodeKey maps a node ID into the node-tree key space. The two key
// derivations use different domain keys, so a node and an edge can
// never occupy the same tree position.
func NodeKey(id graph.NodeID) Key {
	return Key(keyedSum(nodeKeyDomainKey, id[:]))
}

// EdgeKey maps an edge ID into the edge-tree key space.
func EdgeKey(id graph.EdgeID) Key {
	return Key(keyedSum(edgeKeyDomainKey, id[:]))
}

// PutNode sets the node's leaf in the node tree.
func (x *Index) PutNode(node graph.Node) error {
	leaf, err := nodeLeafHash(node)
	if err != nil {
		return err
	}
	x.nodes.Update(NodeKey(node.ID), leaf)
	return nil
}

// RemoveNode clears the node's leaf, removing it from the committed
// set.
func (x *Index) RemoveNode(id graph.NodeID) {
	x.nodes.Delete(NodeKey(id))
}

// PutEdge sets the edge's leaf in the edge tree.
func (x *Index) PutEdge(edge graph.Edge) error {
	leaf, err := edgeLeafHash(edge)
	if err != nil {
		return err
	}
	x.edges.Update(EdgeKey(edge.ID), leaf)
	return nil
}

// RemoveEdge clears the edge's leaf.
func (x *Index) RemoveEdge(id graph.EdgeID) {
	x.edges.Delete(EdgeKey(id))
}

// Root returns the combined commitment over both trees.
func (x *Index) Root() digest.Hash {
	nodeRoot := x.nodes.Root()
	edgeRoot := x.edges.Root()
	var combined [64]byte
	copy(combined[:32], nodeRoot[:])
	copy(combined[32:], edgeRoot[:])
	return keyedSum(rootDomainKey, combined[:])
}

// NodeRoot returns the node tree's root.
func (x *Index) NodeRoot() digest.Hash {
	return x.nodes.Root()
}

// EdgeRoot returns the edge tree's root.
func (x *Index) EdgeRoot() digest.Hash {
	return x.edges.Root()
}

// NodeCount returns the number of nodes committed.
func (x *Index) NodeCount() int {
	return x.nodes.Len()
}

// EdgeCount returns the number of edges committed.
func (x *Index) EdgeCount() int {
	return x.edges.Len()
}

// ProveNode returns a proof of the node ID's (non-)membership,
// verifiable against [Index.NodeRoot].
func (x *Index) ProveNode(id graph.NodeID) Proof {
	return x.nodes.Prove(NodeKey(id))
}

// ProveEdge returns a proof of the edge ID's (non-)membership,
// verifiable against [Index.EdgeRoot].
func (x *Index) ProveEdge(id graph.EdgeID) Proof {
	return x.edges.Prove(EdgeKey(id))
}

// NodeLeafHash returns the leaf value a present node commits to. The
// record-kind tag is folded into the hashed value so a node record
// and an edge record can never produce interchangeable leaves.
func NodeLeafHash(node graph.Node) (digest.Hash, error) {
	return nodeLeafHash(node)
}

// EdgeLeafHash returns the leaf value a present edge commits to.
func EdgeLeafHash(edge graph.Edge) (digest.Hash, error) {
	return edgeLeafHash(edge)
}

func nodeLeafHash(node graph.Node) (digest.Hash, error) {
	value := node.Record()
	value["record"] = "node"
	return recordLeafHash(value)
}

func edgeLeafHash(edge graph.Edge) (digest.Hash, error) {
	value := edge.Record()
	value["record"] = "edge"
	return recordLeafHash(value)
}

func recordLeafHash(value map[string]any) (digest.Hash, error) {
	data, err := canonical.Encode(value)
	if err != nil {
		return digest.Hash{}, fmt.Errorf("encoding leaf record: %w", err)
	}
	return leafHash(data), nil
}
