// Package vde implements spec.md §4.E: Verifiable Delay Encoding, the
// serial per-node labeling pass that turns plaintext into a replica and
// back. Each node's key is derived from the replica ID and its parents'
// current values via a Hasher's KDF, then combined with the node's own
// value through the Hasher's sloth permutation — a construction that
// cannot be parallelized across nodes because node i's key depends on its
// parents, all of which must already be encoded.
//
// Named and shaped after create_key/sloth_encode/sloth_decode in
// original_source/storage-proofs/benches/encode.rs, the Rust benchmark
// this spec was distilled from.
package vde

import (
	"fmt"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/pkg/drgraph"
	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/hasher"
)

// CreateKey builds the KDF input for node i: replica_id followed by the
// current (already-encoded, for ascending passes) values of i's parents,
// in graph order. For node 0 (no parents) the key input is replica_id alone.
func CreateKey(h hasher.Hasher, replicaID field.Domain, graph *drgraph.Graph, buf []byte, i int) (field.Domain, error) {
	parents, err := graph.Parents(i)
	if err != nil {
		return field.Domain{}, fmt.Errorf("vde: create_key: %w", err)
	}

	rid := replicaID.IntoBytes()
	input := make([]byte, 0, (1+len(parents))*config.NodeSize)
	input = append(input, rid[:]...)

	for _, p := range parents {
		pb, err := field.DataAtNode(buf, p)
		if err != nil {
			return field.Domain{}, fmt.Errorf("vde: create_key: reading parent %d of node %d: %w", p, i, err)
		}
		input = append(input, pb...)
	}

	return h.KDF(input, graph.Degree())
}

// Encode mutates buf in place, replacing each node's plaintext value with
// its replica-encoded value, node 1 first through node N-1 last. Node 0 is
// left untouched: it is both key-less (no parents to draw a KDF input from)
// and never challenged, so spec.md §4.E and §8 require it to survive
// replication as its original plaintext value.
func Encode(h hasher.Hasher, graph *drgraph.Graph, replicaID field.Domain, slothIter int, buf []byte) error {
	n := graph.Size()
	want := n * config.NodeSize
	if len(buf) != want {
		return fmt.Errorf("vde: buffer length %d does not match %d nodes of %d bytes", len(buf), n, config.NodeSize)
	}

	for i := 1; i < n; i++ {
		key, err := CreateKey(h, replicaID, graph, buf, i)
		if err != nil {
			return fmt.Errorf("vde: encode node %d: %w", i, err)
		}

		raw, err := field.DataAtNode(buf, i)
		if err != nil {
			return fmt.Errorf("vde: encode node %d: %w", i, err)
		}
		node, err := field.TryFromBytes(raw)
		if err != nil {
			return fmt.Errorf("vde: encode node %d: %w", i, err)
		}

		encoded := h.SlothEncode(key, node, slothIter)
		encoded.WriteBytes(buf[field.DataAtNodeOffset(i) : field.DataAtNodeOffset(i)+config.NodeSize])
	}
	return nil
}

// Decode mutates buf in place, replacing each node's replica-encoded value
// with its plaintext value, in the reverse order Encode used: node N-1
// first, node 1 last. Node 0 is left untouched, matching Encode. Descending
// order is required because CreateKey reads a node's parents from buf, and
// those parents must still hold their encoded (replica) values, as they did
// when Encode derived the same key — since indices only reference strictly
// smaller indices, processing from the top down means every parent read
// happens before that parent's own decode step overwrites it, matching the single-pass in-place decode
// original_source/drgporep.rs performs.
func Decode(h hasher.Hasher, graph *drgraph.Graph, replicaID field.Domain, slothIter int, buf []byte) error {
	n := graph.Size()
	want := n * config.NodeSize
	if len(buf) != want {
		return fmt.Errorf("vde: buffer length %d does not match %d nodes of %d bytes", len(buf), n, config.NodeSize)
	}

	for i := n - 1; i >= 1; i-- {
		key, err := CreateKey(h, replicaID, graph, buf, i)
		if err != nil {
			return fmt.Errorf("vde: decode node %d: %w", i, err)
		}

		raw, err := field.DataAtNode(buf, i)
		if err != nil {
			return fmt.Errorf("vde: decode node %d: %w", i, err)
		}
		encoded, err := field.TryFromBytes(raw)
		if err != nil {
			return fmt.Errorf("vde: decode node %d: %w", i, err)
		}

		decoded := h.SlothDecode(key, encoded, slothIter)
		decoded.WriteBytes(buf[field.DataAtNodeOffset(i) : field.DataAtNodeOffset(i)+config.NodeSize])
	}
	return nil
}

// DecodeBlock decodes a single node i without mutating buf, returning its
// plaintext value. It reads i's parents directly out of buf, which must
// therefore hold the parents in their encoded (replica) form — callers
// decoding an isolated challenge (rather than the whole replica) rely on
// this: the replica itself, not a partially-decoded scratch copy, is the
// only source DecodeBlock consults for parent values. Node 0 was never
// encoded, so it is read back as-is rather than run through SlothDecode.
func DecodeBlock(h hasher.Hasher, graph *drgraph.Graph, replicaID field.Domain, slothIter int, buf []byte, i int) (field.Domain, error) {
	if i == 0 {
		raw, err := field.DataAtNode(buf, 0)
		if err != nil {
			return field.Domain{}, fmt.Errorf("vde: decode_block node 0: %w", err)
		}
		return field.TryFromBytes(raw)
	}

	key, err := CreateKey(h, replicaID, graph, buf, i)
	if err != nil {
		return field.Domain{}, fmt.Errorf("vde: decode_block node %d: %w", i, err)
	}

	raw, err := field.DataAtNode(buf, i)
	if err != nil {
		return field.Domain{}, fmt.Errorf("vde: decode_block node %d: %w", i, err)
	}
	encoded, err := field.TryFromBytes(raw)
	if err != nil {
		return field.Domain{}, fmt.Errorf("vde: decode_block node %d: %w", i, err)
	}

	return h.SlothDecode(key, encoded, slothIter), nil
}
