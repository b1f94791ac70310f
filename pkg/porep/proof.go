package porep

import (
	"fmt"

	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/merkle"
)

// DataProof pairs a Merkle inclusion proof with the Domain value it proves
// inclusion of (spec.md §3's DataProof: "Merkle inclusion of challenged
// node + its domain value").
type DataProof struct {
	Proof *merkle.Proof
	Data  field.Domain
}

// ProvesChallenge reports whether the embedded path's orientation bits
// agree with challenge's binary decomposition.
func (d DataProof) ProvesChallenge(challenge int) bool {
	return d.Proof.ProvesChallenge(challenge)
}

// Validate checks the proof's own Data against root (spec.md §4.D's
// validate(i)).
func (d DataProof) Validate(challenge int, root field.Domain) bool {
	return d.Proof.Validate(challenge, d.Data, root)
}

// ValidateData checks an externally supplied leaf value against root
// instead of the proof's own Data (spec.md §4.D's validate_data(value)) —
// used for the plaintext side, where the value being checked is a freshly
// decoded node rather than anything stored in the proof itself.
func (d DataProof) ValidateData(challenge int, leaf field.Domain, root field.Domain) bool {
	return d.Proof.Validate(challenge, leaf, root)
}

// ParentProof is one (parent_index, DataProof) pair under tree_r.
type ParentProof struct {
	Index int
	Proof DataProof
}

// Proof holds, for k challenges, three equal-length vectors: the
// challenged node's replica-side proof, its parents' replica-side proofs,
// and its plaintext-side proof (spec.md §3).
type Proof struct {
	ReplicaNodes   []DataProof
	ReplicaParents [][]ParentProof
	Nodes          []DataProof
}

// PublicInputs is everything the verifier needs besides the proof itself:
// the replica identifier, the challenge list, and the commitment pair the
// proof must validate against.
type PublicInputs struct {
	ReplicaID  field.Domain
	Challenges []int
	Tau        Tau
}

// PrivateInputs is everything the prover needs besides PublicParams: the
// replica buffer (read-only during Prove) and the retained trees.
type PrivateInputs struct {
	Buf []byte
	Aux *ProverAux
}

// Prove answers every challenge in pub.Challenges against priv's replica
// buffer and retained trees (spec.md §4.F's prove). Every challenge must
// satisfy 0 < c < N; node 0 is never challenged.
func Prove(pp *PublicParams, pub PublicInputs, priv PrivateInputs) (*Proof, error) {
	n := pp.Graph.Size()

	proof := &Proof{
		ReplicaNodes:   make([]DataProof, len(pub.Challenges)),
		ReplicaParents: make([][]ParentProof, len(pub.Challenges)),
		Nodes:          make([]DataProof, len(pub.Challenges)),
	}

	for i, c := range pub.Challenges {
		if c <= 0 || c >= n {
			return nil, fmt.Errorf("porep: prove: challenge %d out of range (0, %d)", c, n)
		}
		cc := c % n // defensive; c is already known to be < n

		rProof, err := priv.Aux.TreeR.GenProof(cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove: replica proof for challenge %d: %w", cc, err)
		}
		rLeaf, err := priv.Aux.TreeR.Leaf(cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove: replica leaf for challenge %d: %w", cc, err)
		}
		proof.ReplicaNodes[i] = DataProof{Proof: rProof, Data: rLeaf}

		parents, err := pp.Graph.Parents(cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove: parents of %d: %w", cc, err)
		}
		parentProofs := make([]ParentProof, len(parents))
		for j, p := range parents {
			pProof, err := priv.Aux.TreeR.GenProof(p)
			if err != nil {
				return nil, fmt.Errorf("porep: prove: replica proof for parent %d of %d: %w", p, cc, err)
			}
			pLeaf, err := priv.Aux.TreeR.Leaf(p)
			if err != nil {
				return nil, fmt.Errorf("porep: prove: replica leaf for parent %d of %d: %w", p, cc, err)
			}
			parentProofs[j] = ParentProof{Index: p, Proof: DataProof{Proof: pProof, Data: pLeaf}}
		}
		proof.ReplicaParents[i] = parentProofs

		dProof, err := priv.Aux.TreeD.GenProof(cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove: plaintext proof for challenge %d: %w", cc, err)
		}
		decoded, err := Extract(pp, pub.ReplicaID, priv.Buf, cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove: decoding challenge %d: %w", cc, err)
		}
		proof.Nodes[i] = DataProof{Proof: dProof, Data: decoded}
	}

	return proof, nil
}

// CheckpointedPrivateInputs is PrivateInputs' counterpart for
// ProveCheckpointed: the replica buffer plus the checkpointed trees
// ReplicateCheckpointed produced.
type CheckpointedPrivateInputs struct {
	Buf []byte
	Aux *CheckpointedProverAux
}

// ProveCheckpointed is Prove's low-memory counterpart: it answers the same
// challenges against checkpointed trees instead of fully-retained ones,
// rebuilding each inclusion path's missing levels on demand via
// merkle.CheckpointedTree.RebuildProof. It returns the same Proof type
// Prove does, so Verify needs no checkpointed-specific variant.
func ProveCheckpointed(pp *PublicParams, pub PublicInputs, priv CheckpointedPrivateInputs) (*Proof, error) {
	n := pp.Graph.Size()

	readReplicaLeaf := func(i int) ([]byte, error) {
		return field.DataAtNode(priv.Buf, i)
	}
	readPlainLeaf := func(i int) ([]byte, error) {
		d, err := Extract(pp, pub.ReplicaID, priv.Buf, i)
		if err != nil {
			return nil, err
		}
		b := d.IntoBytes()
		return b[:], nil
	}

	proof := &Proof{
		ReplicaNodes:   make([]DataProof, len(pub.Challenges)),
		ReplicaParents: make([][]ParentProof, len(pub.Challenges)),
		Nodes:          make([]DataProof, len(pub.Challenges)),
	}

	for i, c := range pub.Challenges {
		if c <= 0 || c >= n {
			return nil, fmt.Errorf("porep: prove_checkpointed: challenge %d out of range (0, %d)", c, n)
		}
		cc := c % n

		rProof, err := priv.Aux.TreeR.RebuildProof(cc, readReplicaLeaf)
		if err != nil {
			return nil, fmt.Errorf("porep: prove_checkpointed: replica proof for challenge %d: %w", cc, err)
		}
		rRaw, err := readReplicaLeaf(cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove_checkpointed: replica leaf for challenge %d: %w", cc, err)
		}
		rLeaf, err := field.TryFromBytes(rRaw)
		if err != nil {
			return nil, fmt.Errorf("porep: prove_checkpointed: decoding replica leaf for challenge %d: %w", cc, err)
		}
		proof.ReplicaNodes[i] = DataProof{Proof: rProof, Data: rLeaf}

		parents, err := pp.Graph.Parents(cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove_checkpointed: parents of %d: %w", cc, err)
		}
		parentProofs := make([]ParentProof, len(parents))
		for j, p := range parents {
			pProof, err := priv.Aux.TreeR.RebuildProof(p, readReplicaLeaf)
			if err != nil {
				return nil, fmt.Errorf("porep: prove_checkpointed: replica proof for parent %d of %d: %w", p, cc, err)
			}
			pRaw, err := readReplicaLeaf(p)
			if err != nil {
				return nil, fmt.Errorf("porep: prove_checkpointed: replica leaf for parent %d of %d: %w", p, cc, err)
			}
			pLeaf, err := field.TryFromBytes(pRaw)
			if err != nil {
				return nil, fmt.Errorf("porep: prove_checkpointed: decoding replica leaf for parent %d of %d: %w", p, cc, err)
			}
			parentProofs[j] = ParentProof{Index: p, Proof: DataProof{Proof: pProof, Data: pLeaf}}
		}
		proof.ReplicaParents[i] = parentProofs

		dProof, err := priv.Aux.TreeD.RebuildProof(cc, readPlainLeaf)
		if err != nil {
			return nil, fmt.Errorf("porep: prove_checkpointed: plaintext proof for challenge %d: %w", cc, err)
		}
		decoded, err := Extract(pp, pub.ReplicaID, priv.Buf, cc)
		if err != nil {
			return nil, fmt.Errorf("porep: prove_checkpointed: decoding challenge %d: %w", cc, err)
		}
		proof.Nodes[i] = DataProof{Proof: dProof, Data: decoded}
	}

	return proof, nil
}

// Verify checks proof against pub, returning false (not an error) on any
// cryptographic mismatch — only malformed inputs raise an error (spec.md
// §7's failure semantics). Checks run in order and short-circuit on the
// first failure, matching spec.md §4.F's verify steps 1-8.
func Verify(pp *PublicParams, pub PublicInputs, proof *Proof) (bool, error) {
	k := len(pub.Challenges)
	if len(proof.ReplicaNodes) != k || len(proof.ReplicaParents) != k || len(proof.Nodes) != k {
		return false, fmt.Errorf("%w: proof has %d/%d/%d entries for %d challenges",
			ErrSizeMismatch, len(proof.ReplicaNodes), len(proof.ReplicaParents), len(proof.Nodes), k)
	}

	n := pp.Graph.Size()

	for i, c := range pub.Challenges {
		if c <= 0 || c >= n {
			return false, nil
		}
		cc := c % n

		if !proof.Nodes[i].ProvesChallenge(cc) || !proof.ReplicaNodes[i].ProvesChallenge(cc) {
			return false, nil
		}

		parents, err := pp.Graph.Parents(cc)
		if err != nil {
			return false, fmt.Errorf("porep: verify: parents of %d: %w", cc, err)
		}
		claimed := proof.ReplicaParents[i]
		if len(claimed) != len(parents) {
			return false, nil
		}
		for j, p := range claimed {
			if p.Index != parents[j] {
				return false, nil
			}
		}

		if !proof.ReplicaNodes[i].Validate(cc, pub.Tau.CommR) {
			return false, nil
		}
		for _, p := range claimed {
			if !p.Proof.Validate(p.Index, pub.Tau.CommR) {
				return false, nil
			}
		}

		keyInput := buildKeyInput(pub.ReplicaID, claimed)
		key, err := pp.Hasher.KDF(keyInput, pp.Graph.Degree())
		if err != nil {
			return false, fmt.Errorf("porep: verify: kdf for challenge %d: %w", cc, err)
		}

		unsealed := pp.Hasher.SlothDecode(key, proof.ReplicaNodes[i].Data, pp.SlothIter)
		if !unsealed.Equal(proof.Nodes[i].Data) {
			return false, nil
		}

		if !proof.Nodes[i].ValidateData(cc, unsealed, pub.Tau.CommD) {
			return false, nil
		}
	}

	return true, nil
}

// buildKeyInput reconstructs replica_id ‖ concat(parent.data) in parent
// order, the same byte layout vde.CreateKey produces at encode time.
func buildKeyInput(replicaID field.Domain, parents []ParentProof) []byte {
	rid := replicaID.IntoBytes()
	out := make([]byte, 0, len(rid)+len(parents)*len(rid))
	out = append(out, rid[:]...)
	for _, p := range parents {
		b := p.Proof.Data.IntoBytes()
		out = append(out, b[:]...)
	}
	return out
}
