// Package merkle implements spec.md §4.D and the Merkle tree data model in
// §3: a complete binary tree over node-indexed leaves, odd-leaf
// duplication, and inclusion proofs with leaf/path/root validation.
//
// Adapted from the teacher's pkg/merkle/merkle.go (GenerateMerkleTree,
// padToPowerOfTwo, GetMerkleProof, VerifyMerkleProof) — its complete-binary,
// duplicate-to-power-of-two tree shape already matches spec.md's Merkle
// tree exactly, so node hashing is reused verbatim (Poseidon2 pairing) and
// generalized from content chunks to field.Domain node values.
package merkle

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/hasher"
)

// ErrOutOfRange is returned when a leaf index is outside [0, N).
var ErrOutOfRange = errors.New("merkle: leaf index out of range")

// Tree is a complete binary Merkle tree over N real leaves, padded by
// round-robin duplication of existing leaves up to the next power of two
// (matching the teacher's padToPowerOfTwo), so that every level past the
// leaves has an even length and no further odd-duplication is needed.
//
// The full level structure is retained (O(N) field elements), matching
// spec.md §9's note that ProverAux may retain the whole tree; see
// checkpoint.go for a variant that retains only a handful of levels.
type Tree struct {
	levels [][]field.Domain // levels[0] = padded leaves ... levels[last] = [root]
	n      int              // real (unpadded) leaf count
}

// BuildTree reads n leaves from buf (config.NodeSize bytes each, via
// pkg/field) and builds the complete binary tree over them.
func BuildTree(buf []byte, n int) (*Tree, error) {
	if n <= 0 {
		return nil, fmt.Errorf("merkle: node count must be positive, got %d", n)
	}

	leaves := make([]field.Domain, n)
	for i := 0; i < n; i++ {
		b, err := field.DataAtNode(buf, i)
		if err != nil {
			return nil, fmt.Errorf("merkle: reading leaf %d: %w", i, err)
		}
		d, err := field.TryFromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("merkle: decoding leaf %d: %w", i, err)
		}
		leaves[i] = d
	}

	return buildFromLeaves(leaves, n)
}

// BuildTreeFromDomains builds a tree directly from already-decoded leaf
// values, for callers that already have Domain values rather than raw
// bytes.
func BuildTreeFromDomains(leaves []field.Domain) (*Tree, error) {
	n := len(leaves)
	if n == 0 {
		return nil, fmt.Errorf("merkle: no leaves provided")
	}
	cp := make([]field.Domain, n)
	copy(cp, leaves)
	return buildFromLeaves(cp, n)
}

func buildFromLeaves(leaves []field.Domain, n int) (*Tree, error) {
	padded := padToPowerOfTwo(leaves)

	levels := make([][]field.Domain, 0, bitsLen(len(padded))+1)
	levels = append(levels, padded)

	cur := padded
	for len(cur) > 1 {
		next, err := combineLevel(cur)
		if err != nil {
			return nil, err
		}
		levels = append(levels, next)
		cur = next
	}

	return &Tree{levels: levels, n: n}, nil
}

// padToPowerOfTwo duplicates existing leaves, round-robin, until the slice
// length is at least two and then the next power of two. Real leaf indices
// [0, n) are left untouched; only the tail is padding, so challenged
// indices (always < n, per spec.md's "never challenge node 0 and
// challenges < N" invariants) never land on a duplicated entry.
func padToPowerOfTwo(leaves []field.Domain) []field.Domain {
	n := len(leaves)
	nextPow := 1
	for nextPow < n {
		nextPow <<= 1
	}
	if nextPow < 2 {
		nextPow = 2
	}

	out := make([]field.Domain, n, nextPow)
	copy(out, leaves)
	for i := 0; len(out) < nextPow; i++ {
		out = append(out, leaves[i%n])
	}
	return out
}

// combineLevel pairs up a level's entries into parent hashes, duplicating
// the last entry if the level has odd length (the "odd leaves are
// duplicated" rule in spec.md §3 — a safety net that padToPowerOfTwo
// normally makes unreachable past the leaf level). Pairs are hashed in
// parallel across a worker pool, matching spec.md §5's "Merkle tree
// construction MAY be parallelized across subtrees".
func combineLevel(level []field.Domain) ([]field.Domain, error) {
	pairCount := (len(level) + 1) / 2
	next := make([]field.Domain, pairCount)

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())

	for p := 0; p < pairCount; p++ {
		p := p
		g.Go(func() error {
			li := p * 2
			ri := li + 1
			left := level[li]
			right := left
			if ri < len(level) {
				right = level[ri]
			}
			next[p] = hasher.HashNodes(left, right)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

func bitsLen(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

// Root returns the tree's root commitment.
func (t *Tree) Root() field.Domain {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Depth is the number of levels above the leaves, i.e. the proof length.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// Size returns the real (unpadded) leaf count.
func (t *Tree) Size() int {
	return t.n
}

// Leaf returns the real leaf value at index i.
func (t *Tree) Leaf(i int) (field.Domain, error) {
	if i < 0 || i >= t.n {
		return field.Domain{}, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return t.levels[0][i], nil
}

// GenProof returns the inclusion proof for leaf i: a sibling and
// is-right-child flag per level, from leaf to root.
func (t *Tree) GenProof(i int) (*Proof, error) {
	if i < 0 || i >= t.n {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}

	depth := t.Depth()
	siblings := make([]field.Domain, depth)
	isRight := make([]bool, depth)

	idx := i
	for l := 0; l < depth; l++ {
		level := t.levels[l]
		var sibIdx int
		if idx%2 == 0 {
			// Current node is the left child at this level.
			sibIdx = idx + 1
			isRight[l] = false
		} else {
			// Current node is the right child at this level.
			sibIdx = idx - 1
			isRight[l] = true
		}
		if sibIdx >= len(level) {
			sibIdx = idx // degenerate odd-level duplication safety net
		}
		siblings[l] = level[sibIdx]
		idx /= 2
	}

	return &Proof{Siblings: siblings, IsRight: isRight}, nil
}
