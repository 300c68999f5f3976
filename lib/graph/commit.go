// Copyright 2026 The Loom Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	"github.com/flyingrobots/loom/lib/canonical"
	"github.com/flyingrobots/loom/lib/digest"
)

// recordSetVersion tags the record-set envelope so future layout
// changes cannot produce today's digests.
const recordSetVersion = int64(1)

// CommitDigest computes the authoritative fingerprint of the graph's
// full logical content: the BLAKE3 digest of the canonical encoding
// of {version, nodes sorted by ID, edges sorted by ID}.
//
// The digest depends only on the set of records present. It is
// intentionally O(N); callers needing bounded-time updates maintain
// an smt.Index alongside, which is defined to always be refinable
// back to this value.
//
// Well-formed records always encode; an encoding failure here means a
// record was corrupted after construction and is returned as an
// error rather than skipped — a digest over a partial graph would be
// worse than no digest.
func CommitDigest(s *Store) (digest.Hash, error) {
	data, err := EncodeRecordSet(s)
	if err != nil {
		return digest.Hash{}, err
	}
	return digest.Sum(data), nil
}

// EncodeRecordSet serializes the graph's full content as one
// canonical value: the commit digest is exactly the BLAKE3 digest of
// these bytes, so a record-set file is self-verifying.
func EncodeRecordSet(s *Store) ([]byte, error) {
	data, err := canonical.Encode(recordSetValue(s))
	if err != nil {
		return nil, fmt.Errorf("encoding record set: %w", err)
	}
	return data, nil
}

func recordSetValue(s *Store) map[string]any {
	nodes := s.NodesSorted()
	nodeRecords := make([]any, len(nodes))
	for i, node := range nodes {
		nodeRecords[i] = node.Record()
	}

	edges := s.EdgesSorted()
	edgeRecords := make([]any, len(edges))
	for i, edge := range edges {
		edgeRecords[i] = edge.Record()
	}

	return map[string]any{
		"v":     recordSetVersion,
		"nodes": nodeRecords,
		"edges": edgeRecords,
	}
}

// DecodeRecordSet parses canonical record-set bytes back into a
// store. Every record's embedded ID is recomputed from its content
// and must match; a mismatch means the bytes do not describe the
// graph they claim to.
func DecodeRecordSet(data []byte) (*Store, error) {
	decoded, err := canonical.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding record set: %w", err)
	}

	envelope, ok := decoded.(map[any]any)
	if !ok {
		return nil, fmt.Errorf("record set is %T, want map", decoded)
	}
	version, ok := envelope["v"].(int64)
	if !ok || version != recordSetVersion {
		return nil, fmt.Errorf("unsupported record set version %v", envelope["v"])
	}

	store := NewStore()

	nodeRecords, err := recordList(envelope, "nodes")
	if err != nil {
		return nil, err
	}
	for i, record := range nodeRecords {
		node, declaredID, err := nodeFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("node record %d: %w", i, err)
		}
		id, err := store.InsertNode(node)
		if err != nil {
			return nil, fmt.Errorf("node record %d: %w", i, err)
		}
		if digest.Hash(id) != declaredID {
			return nil, fmt.Errorf("node record %d: declared id %s does not match content id %s",
				i, declaredID, id)
		}
	}

	edgeRecords, err := recordList(envelope, "edges")
	if err != nil {
		return nil, err
	}
	for i, record := range edgeRecords {
		edge, declaredID, err := edgeFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("edge record %d: %w", i, err)
		}
		id, err := store.InsertEdge(edge)
		if err != nil {
			return nil, fmt.Errorf("edge record %d: %w", i, err)
		}
		if digest.Hash(id) != declaredID {
			return nil, fmt.Errorf("edge record %d: declared id %s does not match content id %s",
				i, declaredID, id)
		}
	}

	return store, nil
}

func recordList(envelope map[any]any, field string) ([]map[any]any, error) {
	raw, ok := envelope[field].([]any)
	if !ok {
		return nil, fmt.Errorf("record set field %q is %T, want array", field, envelope[field])
	}
	records := make([]map[any]any, len(raw))
	for i, element := range raw {
		record, ok := element.(map[any]any)
		if !ok {
			return nil, fmt.Errorf("record set %s[%d] is %T, want map", field, i, element)
		}
		records[i] = record
	}
	return records, nil
}

func nodeFromRecord(record map[any]any) (Node, digest.Hash, error) {
	declaredID, err := hashField(record, "id")
	if err != nil {
		return Node{}, digest.Hash{}, err
	}
	kind, ok := record["kind"].(string)
	if !ok {
		return Node{}, digest.Hash{}, fmt.Errorf("kind is %T, want string", record["kind"])
	}
	payload, ok := record["payload"].([]byte)
	if !ok {
		return Node{}, digest.Hash{}, fmt.Errorf("payload is %T, want bytes", record["payload"])
	}
	attachment, err := optionalHashField(record, "attachment")
	if err != nil {
		return Node{}, digest.Hash{}, err
	}
	return Node{Kind: kind, Payload: payload, Attachment: attachment}, declaredID, nil
}

func edgeFromRecord(record map[any]any) (Edge, digest.Hash, error) {
	declaredID, err := hashField(record, "id")
	if err != nil {
		return Edge{}, digest.Hash{}, err
	}
	from, err := hashField(record, "from")
	if err != nil {
		return Edge{}, digest.Hash{}, err
	}
	to, err := hashField(record, "to")
	if err != nil {
		return Edge{}, digest.Hash{}, err
	}
	kind, ok := record["kind"].(string)
	if !ok {
		return Edge{}, digest.Hash{}, fmt.Errorf("kind is %T, want string", record["kind"])
	}
	var payload []byte
	if raw, present := record["payload"]; present {
		payload, ok = raw.([]byte)
		if !ok {
			return Edge{}, digest.Hash{}, fmt.Errorf("payload is %T, want bytes", raw)
		}
	}
	attachment, err := optionalHashField(record, "attachment")
	if err != nil {
		return Edge{}, digest.Hash{}, err
	}
	return Edge{
		From:       NodeID(from),
		To:         NodeID(to),
		Kind:       kind,
		Payload:    payload,
		Attachment: attachment,
	}, declaredID, nil
}

func hashField(record map[any]any, field string) (digest.Hash, error) {
	raw, ok := record[field].([]byte)
	if !ok {
		return digest.Hash{}, fmt.Errorf("%s is %T, want bytes", field, record[field])
	}
	if len(raw) != 32 {
		return digest.Hash{}, fmt.Errorf("%s is %d bytes, want 32", field, len(raw))
	}
	var h digest.Hash
	copy(h[:], raw)
	return h, nil
}

func optionalHashField(record map[any]any, field string) (*digest.Hash, error) {
	raw, present := record[field]
	if !present {
		return nil, nil
	}
	value, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("%s is %T, want bytes", field, raw)
	}
	if len(value) != 32 {
		return nil, fmt.Errorf("%s is %d bytes, want 32", field, len(value))
	}
	var h digest.Hash
	copy(h[:], value)
	return &h, nil
}
