// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"sort"

	"github.com/flyingrobots/loom/lib/digest"
)

// ConsistencyError reports a cryptographic-assumption violation: a
// computed ID collided with an existing record holding different
// content. This is unrecoverable — continuing would commit an
// unverifiable state — so callers should treat it as fatal and abort
// rather than retry or mask it.
type ConsistencyError struct {
	ID     digest.Hash
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency violation on %s: %s", e.ID.Short(), e.Detail)
}

// Store holds one graph value: a set of nodes and a set of edges,
// each keyed by content ID. Internal storage order is arbitrary;
// anything that feeds a digest must iterate via [Store.NodesSorted]
// or [Store.EdgesSorted].
//
// A Store is not safe for concurrent mutation. Serializing access is
// the single-writer loop's job, outside this package.
type Store struct {
	nodes map[NodeID]Node
	edges map[EdgeID]Edge
}

// NewStore returns an empty graph value.
func NewStore() *Store {
	return &Store{
		nodes: make(map[NodeID]Node),
		edges: make(map[EdgeID]Edge),
	}
}

// InsertNode computes the node's content ID and inserts it. Inserting
// a record identical to one already present is an idempotent no-op
// returning the same ID. If node.ID is already set it must match the
// computed ID. A computed ID that collides with a different existing
// record returns a *ConsistencyError.
func (s *Store) InsertNode(node Node) (NodeID, error) {
	id, err := node.computeID()
	if err != nil {
		return NodeID{}, err
	}
	if !node.ID.IsZero() && node.ID != id {
		return NodeID{}, fmt.Errorf("node id %s does not match content id %s", node.ID, id)
	}
	node.ID = id

	if existing, ok := s.nodes[id]; ok {
		if !existing.equal(node) {
			return NodeID{}, &ConsistencyError{
				ID:     digest.Hash(id),
				Detail: "node id collides with a different existing record",
			}
		}
		return id, nil
	}
	s.nodes[id] = node
	return id, nil
}

// InsertEdge computes the edge's content ID and inserts it, with the
// same idempotence and collision semantics as [Store.InsertNode].
func (s *Store) InsertEdge(edge Edge) (EdgeID, error) {
	id, err := edge.computeID()
	if err != nil {
		return EdgeID{}, err
	}
	if !edge.ID.IsZero() && edge.ID != id {
		return EdgeID{}, fmt.Errorf("edge id %s does not match content id %s", edge.ID, id)
	}
	edge.ID = id

	if existing, ok := s.edges[id]; ok {
		if !existing.equal(edge) {
			return EdgeID{}, &ConsistencyError{
				ID:     digest.Hash(id),
				Detail: "edge id collides with a different existing record",
			}
		}
		return id, nil
	}
	s.edges[id] = edge
	return id, nil
}

// RemoveNode removes the node from the current graph value. Returns
// false when the node was not present. Removal is membership change,
// not record mutation; whether a removal should instead be tombstoned
// is the external collapse/WAL layer's policy.
func (s *Store) RemoveNode(id NodeID) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	return true
}

// RemoveEdge removes the edge from the current graph value. Returns
// false when the edge was not present.
func (s *Store) RemoveEdge(id EdgeID) bool {
	if _, ok := s.edges[id]; !ok {
		return false
	}
	delete(s.edges, id)
	return true
}

// Node returns the node with the given ID, if present.
func (s *Store) Node(id NodeID) (Node, bool) {
	node, ok := s.nodes[id]
	return node, ok
}

// Edge returns the edge with the given ID, if present.
func (s *Store) Edge(id EdgeID) (Edge, bool) {
	edge, ok := s.edges[id]
	return edge, ok
}

// NodeCount returns the number of nodes in the graph.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// NodesSorted returns the nodes ascending by ID bytes. This order is
// independent of insertion order and identical on every platform;
// every digest-participating traversal must use it.
func (s *Store) NodesSorted() []Node {
	nodes := make([]Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return digest.Compare(digest.Hash(nodes[i].ID), digest.Hash(nodes[j].ID)) < 0
	})
	return nodes
}

// EdgesSorted returns the edges ascending by ID bytes.
func (s *Store) EdgesSorted() []Edge {
	edges := make([]Edge, 0, len(s.edges))
	for _, edge := range s.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		return digest.Compare(digest.Hash(edges[i].ID), digest.Hash(edges[j].ID)) < 0
	})
	return edges
}

// Clone returns an independent copy of the graph value. Records are
// immutable, so their payload slices are shared.
func (s *Store) Clone() *Store {
	clone := &Store{
		nodes: make(map[NodeID]Node, len(s.nodes)),
		edges: make(map[EdgeID]Edge, len(s.edges)),
	}
	for id, node := range s.nodes {
		clone.nodes[id] = node
	}
	for id, edge := range s.edges {
		clone.edges[id] = edge
	}
	return clone
}
