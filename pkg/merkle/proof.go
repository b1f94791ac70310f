package merkle

import (
	"fmt"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/hasher"
)

// Proof is a Merkle inclusion path: one (sibling, is-right-child) pair per
// level, leaf to root. IsRight[l] is true when the queried node is the
// right child at level l, i.e. bit l of its leaf index is 1 — this is the
// same bit proves_challenge below checks the path against.
//
// Proof carries no leaf value or index of its own; spec.md's DataProof
// (pkg/porep) pairs a Proof with the domain value it is a proof of, and
// supplies the challenge index at validation time.
type Proof struct {
	Siblings []field.Domain
	IsRight  []bool
}

// PathElem is one level of a Proof, as returned by Path().
type PathElem struct {
	Sibling field.Domain
	IsRight bool
}

// Path returns the proof's levels as (sibling, is_right) pairs.
func (p *Proof) Path() []PathElem {
	out := make([]PathElem, len(p.Siblings))
	for i := range p.Siblings {
		out[i] = PathElem{Sibling: p.Siblings[i], IsRight: p.IsRight[i]}
	}
	return out
}

// ProvesChallenge checks that the path's per-level orientation bits agree
// with challenge's binary decomposition: bit l of challenge must equal
// IsRight[l] for every level. A mismatched path belongs to a different
// leaf index than the one being challenged.
func (p *Proof) ProvesChallenge(challenge int) bool {
	c := challenge
	for _, isRight := range p.IsRight {
		bit := c&1 == 1
		if bit != isRight {
			return false
		}
		c >>= 1
	}
	return true
}

// Validate recomputes the root from leaf upward using the proof's own
// siblings and orientation bits, and checks both that the recomputed root
// matches root and that the path's orientation agrees with challenge.
//
// Used for both of spec.md §4.D's named checks: validate(i) (leaf is the
// DataProof's own embedded value) and validate_data(leaf_value) (leaf is
// an independently supplied value, e.g. a decoded plaintext node) — the
// two differ only in which value the caller passes as leaf.
func (p *Proof) Validate(challenge int, leaf field.Domain, root field.Domain) bool {
	if !p.ProvesChallenge(challenge) {
		return false
	}

	cur := leaf
	for l, sib := range p.Siblings {
		if p.IsRight[l] {
			cur = hasher.HashNodes(sib, cur)
		} else {
			cur = hasher.HashNodes(cur, sib)
		}
	}
	return cur.Equal(root)
}

// Serialize encodes the proof as spec.md §6's wire layout: for each level,
// a 32-byte little-endian sibling followed by a single orientation byte
// (0x01 = right child, 0x00 = left child).
func (p *Proof) Serialize() []byte {
	out := make([]byte, 0, len(p.Siblings)*(config.NodeSize+1))
	for i, sib := range p.Siblings {
		b := sib.IntoBytes()
		out = append(out, b[:]...)
		if p.IsRight[i] {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	return out
}

// DeserializeProof decodes bytes produced by Serialize.
func DeserializeProof(b []byte) (*Proof, error) {
	const stride = config.NodeSize + 1
	if len(b)%stride != 0 {
		return nil, fmt.Errorf("merkle: proof length %d is not a multiple of %d", len(b), stride)
	}

	levels := len(b) / stride
	p := &Proof{
		Siblings: make([]field.Domain, levels),
		IsRight:  make([]bool, levels),
	}
	for i := 0; i < levels; i++ {
		off := i * stride
		d, err := field.TryFromBytes(b[off : off+config.NodeSize])
		if err != nil {
			return nil, fmt.Errorf("merkle: decoding sibling at level %d: %w", i, err)
		}
		p.Siblings[i] = d
		p.IsRight[i] = b[off+config.NodeSize] == 1
	}
	return p, nil
}
