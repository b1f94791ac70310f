// Package porep implements spec.md §4.F: the setup/replicate/extract/
// prove/verify driver tying the field, hasher, graph, merkle, and vde
// packages together into the DrgPoRep protocol.
//
// Translated directly from original_source/storage-proofs/src/drgporep.rs
// (SetupParams, DrgParams, PublicParams, DataProof, Proof, PublicInputs,
// PrivateInputs, and the ProofScheme/PoRep trait methods), simplified per
// spec.md §9's design notes: the hasher is a regular struct field rather
// than a type-level phantom marker, and errors are explicit return values
// rather than a Result type.
package porep

import (
	"errors"
	"fmt"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/pkg/drgraph"
	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/hasher"
	"github.com/MuriData/drgporep/pkg/merkle"
	"github.com/MuriData/drgporep/pkg/vde"
)

// ErrSizeMismatch is returned when a buffer or proof-vector length does not
// match the expected count (spec.md §7's SizeMismatch error kind).
var ErrSizeMismatch = errors.New("porep: size mismatch")

// SetupParams is the caller-supplied configuration passed to Setup.
type SetupParams struct {
	DrgParams DrgParams
	SlothIter int
}

// DrgParams configures the underlying graph: node count, base and
// expansion degree, and the seed determining parent assignment.
type DrgParams struct {
	Nodes           int
	BaseDegree      int
	ExpansionDegree int
	Seed            drgraph.Seed
}

// PublicParams is the immutable, fully-determining configuration of one
// DrgPoRep instance: node size, graph, sloth iteration count, and hash
// family. Safe to share across concurrent Prove/Verify calls.
type PublicParams struct {
	L         int
	Graph     *drgraph.Graph
	SlothIter int
	Hasher    hasher.Hasher
}

// Setup constructs PublicParams from params. Pure: performs no I/O and
// mutates nothing.
func Setup(params SetupParams, h hasher.Hasher) (*PublicParams, error) {
	g, err := drgraph.New(params.DrgParams.Nodes, params.DrgParams.BaseDegree, params.DrgParams.ExpansionDegree, params.DrgParams.Seed)
	if err != nil {
		return nil, fmt.Errorf("porep: setup: %w", err)
	}
	return &PublicParams{
		L:         config.NodeSize,
		Graph:     g,
		SlothIter: params.SlothIter,
		Hasher:    h,
	}, nil
}

// ParameterSetIdentifier returns a stable human-readable identifier
// embedding L, the graph's own identifier, sloth_iter, and hash family —
// a cache key for external parameter storage (spec.md §6).
func (pp *PublicParams) ParameterSetIdentifier() string {
	return fmt.Sprintf("porep{l:%d,sloth_iter:%d,hasher:%s,graph:%s}",
		pp.L, pp.SlothIter, pp.Hasher.Name(), pp.Graph.ParameterSetIdentifier())
}

// Tau is the pair of Merkle roots committing to plaintext and replica.
type Tau struct {
	CommD field.Domain
	CommR field.Domain
}

// ProverAux retains both Merkle trees so a prover can answer challenges
// without rebuilding them from the buffer.
type ProverAux struct {
	TreeD *merkle.Tree
	TreeR *merkle.Tree
}

// Replicate turns buf from plaintext into a replica in place, returning
// the commitment pair and the trees needed to answer later challenges.
//
// Failure modes (spec.md §4.F): invalid byte length, or a non-canonical
// field element encountered mid-stream, abort with an error and leave buf
// in an undefined, partially-encoded state — callers must discard it.
func Replicate(pp *PublicParams, replicaID field.Domain, buf []byte) (*Tau, *ProverAux, error) {
	n := pp.Graph.Size()
	if len(buf) != n*pp.L {
		return nil, nil, fmt.Errorf("%w: buffer length %d does not match %d nodes of %d bytes", ErrSizeMismatch, len(buf), n, pp.L)
	}

	treeD, err := pp.Graph.MerkleTree(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("porep: replicate: committing plaintext: %w", err)
	}
	commD := treeD.Root()

	if err := vde.Encode(pp.Hasher, pp.Graph, replicaID, pp.SlothIter, buf); err != nil {
		return nil, nil, fmt.Errorf("porep: replicate: encoding: %w", err)
	}

	treeR, err := pp.Graph.MerkleTree(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("porep: replicate: committing replica: %w", err)
	}
	commR := treeR.Root()

	return &Tau{CommD: commD, CommR: commR}, &ProverAux{TreeD: treeD, TreeR: treeR}, nil
}

// CheckpointedProverAux is the low-memory alternative to ProverAux: instead
// of retaining both full Merkle trees, it retains only the checkpoint
// levels merkle.Checkpoint extracts from each, at the cost of rebuilding
// the intervening hashes (and, for the plaintext tree, re-running
// vde.DecodeBlock) whenever a proof is requested — the "regenerate
// subtrees on demand" tradeoff spec.md §9 calls out as a valid ProverAux
// shape alongside the always-retain-everything one.
type CheckpointedProverAux struct {
	TreeD *merkle.CheckpointedTree
	TreeR *merkle.CheckpointedTree
}

// ReplicateCheckpointed is Replicate's low-memory counterpart: it builds
// both full trees exactly as Replicate does, but returns only their
// checkpointed views (scheme applied identically to both), letting the
// full trees be garbage-collected once Checkpoint has extracted them.
func ReplicateCheckpointed(pp *PublicParams, replicaID field.Domain, buf []byte, scheme merkle.CheckpointScheme) (*Tau, *CheckpointedProverAux, error) {
	n := pp.Graph.Size()
	if len(buf) != n*pp.L {
		return nil, nil, fmt.Errorf("%w: buffer length %d does not match %d nodes of %d bytes", ErrSizeMismatch, len(buf), n, pp.L)
	}

	treeD, err := pp.Graph.MerkleTree(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("porep: replicate_checkpointed: committing plaintext: %w", err)
	}
	commD := treeD.Root()
	cpD, err := merkle.Checkpoint(treeD, scheme)
	if err != nil {
		return nil, nil, fmt.Errorf("porep: replicate_checkpointed: checkpointing plaintext tree: %w", err)
	}

	if err := vde.Encode(pp.Hasher, pp.Graph, replicaID, pp.SlothIter, buf); err != nil {
		return nil, nil, fmt.Errorf("porep: replicate_checkpointed: encoding: %w", err)
	}

	treeR, err := pp.Graph.MerkleTree(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("porep: replicate_checkpointed: committing replica: %w", err)
	}
	commR := treeR.Root()
	cpR, err := merkle.Checkpoint(treeR, scheme)
	if err != nil {
		return nil, nil, fmt.Errorf("porep: replicate_checkpointed: checkpointing replica tree: %w", err)
	}

	return &Tau{CommD: commD, CommR: commR}, &CheckpointedProverAux{TreeD: cpD, TreeR: cpR}, nil
}

// Extract recovers the plaintext value of a single node i without
// decoding the whole replica, delegating to vde.DecodeBlock.
func Extract(pp *PublicParams, replicaID field.Domain, buf []byte, i int) (field.Domain, error) {
	return vde.DecodeBlock(pp.Hasher, pp.Graph, replicaID, pp.SlothIter, buf, i)
}

// ExtractAll recovers the full plaintext buffer from a replica, leaving
// buf untouched and returning a freshly decoded copy.
func ExtractAll(pp *PublicParams, replicaID field.Domain, buf []byte) ([]byte, error) {
	n := pp.Graph.Size()
	if len(buf) != n*pp.L {
		return nil, fmt.Errorf("%w: buffer length %d does not match %d nodes of %d bytes", ErrSizeMismatch, len(buf), n, pp.L)
	}

	out := make([]byte, len(buf))
	copy(out, buf)
	if err := vde.Decode(pp.Hasher, pp.Graph, replicaID, pp.SlothIter, out); err != nil {
		return nil, fmt.Errorf("porep: extract_all: %w", err)
	}
	return out, nil
}
