// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"bytes"
	"fmt"

	"github.com/flyingrobots/loom/lib/digest"
)

// recordVersion is the version tag folded into every record identity.
// Bumping it changes every ID in the system; it exists so a future
// record-shape change cannot collide with today's records.
const recordVersion = int64(1)

// NodeID identifies a node: the BLAKE3 hash of the canonical encoding
// of the node's defining fields. It never includes itself.
type NodeID digest.Hash

func (id NodeID) String() string {
	return digest.Hash(id).String()
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return digest.Hash(id).IsZero()
}

// EdgeID identifies an edge, derived the same way as NodeID from the
// edge's defining fields.
type EdgeID digest.Hash

func (id EdgeID) String() string {
	return digest.Hash(id).String()
}

// IsZero reports whether id is unset.
func (id EdgeID) IsZero() bool {
	return digest.Hash(id).IsZero()
}

// Node is an immutable content-addressed record. Kind is an opaque
// tag and Payload opaque bytes; loom hashes them but never interprets
// them. Attachment optionally references another graph value by hash
// (reference, never structural embedding, so sub-graphs cannot form
// ownership cycles).
type Node struct {
	ID         NodeID
	Kind       string
	Payload    []byte
	Attachment *digest.Hash
}

// Edge is an immutable directed relation between two node IDs.
// Payload is optional; a nil payload is absent, not empty. Endpoints
// are not checked for existence here — referential integrity is a
// kernel-layer contract, not a store invariant.
type Edge struct {
	ID         EdgeID
	From       NodeID
	To         NodeID
	Kind       string
	Payload    []byte
	Attachment *digest.Hash
}

// NewNode builds a node and computes its content ID.
func NewNode(kind string, payload []byte, attachment *digest.Hash) (Node, error) {
	node := Node{Kind: kind, Payload: payload, Attachment: attachment}
	id, err := node.computeID()
	if err != nil {
		return Node{}, err
	}
	node.ID = id
	return node, nil
}

// NewEdge builds an edge and computes its content ID.
func NewEdge(from, to NodeID, kind string, payload []byte, attachment *digest.Hash) (Edge, error) {
	edge := Edge{From: from, To: to, Kind: kind, Payload: payload, Attachment: attachment}
	id, err := edge.computeID()
	if err != nil {
		return Edge{}, err
	}
	edge.ID = id
	return edge, nil
}

// identity returns the canonical value a node's ID is derived from.
// The ID itself is excluded: an identifier never includes itself.
func (n Node) identity() map[string]any {
	value := map[string]any{
		"v":       recordVersion,
		"kind":    n.Kind,
		"payload": n.Payload,
	}
	if n.Attachment != nil {
		value["attachment"] = n.Attachment[:]
	}
	return value
}

func (n Node) computeID() (NodeID, error) {
	h, err := digest.HashCanonical(n.identity())
	if err != nil {
		return NodeID{}, fmt.Errorf("computing node id: %w", err)
	}
	return NodeID(h), nil
}

// Record returns the full canonical record value including the ID.
// This is the form sorted into the commit digest, serialized into
// record sets, and hashed into Merkle leaves.
func (n Node) Record() map[string]any {
	value := n.identity()
	value["id"] = append([]byte(nil), n.ID[:]...)
	return value
}

// equal reports full field equality. Used by the store to distinguish
// an idempotent re-insert from a hash collision.
func (n Node) equal(other Node) bool {
	return n.Kind == other.Kind &&
		bytes.Equal(n.Payload, other.Payload) &&
		hashPointerEqual(n.Attachment, other.Attachment)
}

// identity returns the canonical value an edge's ID is derived from.
// Edges always carry from/to, so a node identity and an edge identity
// can never encode to the same bytes.
func (e Edge) identity() map[string]any {
	value := map[string]any{
		"v":    recordVersion,
		"from": e.From[:],
		"to":   e.To[:],
		"kind": e.Kind,
	}
	if e.Payload != nil {
		value["payload"] = e.Payload
	}
	if e.Attachment != nil {
		value["attachment"] = e.Attachment[:]
	}
	return value
}

func (e Edge) computeID() (EdgeID, error) {
	h, err := digest.HashCanonical(e.identity())
	if err != nil {
		return EdgeID{}, fmt.Errorf("computing edge id: %w", err)
	}
	return EdgeID(h), nil
}

// Record returns the full canonical record value including the ID.
func (e Edge) Record() map[string]any {
	value := e.identity()
	value["id"] = append([]byte(nil), e.ID[:]...)
	return value
}

func (e Edge) equal(other Edge) bool {
	// Edge payloads are optional: nil is absent, not empty, and the
	// two derive different IDs.
	return e.From == other.From &&
		e.To == other.To &&
		e.Kind == other.Kind &&
		(e.Payload == nil) == (other.Payload == nil) &&
		bytes.Equal(e.Payload, other.Payload) &&
		hashPointerEqual(e.Attachment, other.Attachment)
}

func hashPointerEqual(a, b *digest.Hash) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
