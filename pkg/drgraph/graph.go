// Package drgraph implements spec.md §4.C: a Depth-Robust Graph over N
// node indices, with deterministic bucket-sampling parent assignment.
//
// Grounded on original_source/storage-proofs/src/drgporep.rs's DrgParams
// (nodes, degree, expansion_degree, seed: [u32; 7]) and on the teacher's
// reliance on gnark-crypto/xorshift-shaped deterministic fixtures for
// reproducible tests; bucket sampling itself has no teacher analogue (the
// teacher has no graph layer), so its shape follows spec.md §4.C directly:
// base parents favor nearby nodes at exponentially increasing distances
// (the depth-robustness property), expansion parents are drawn uniformly.
package drgraph

import (
	"fmt"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/internal/xorshift"
)

// Seed is the graph's 7x32-bit randomness source, matching the shape of
// original_source/drgporep.rs's DrgParams.seed.
type Seed [7]uint32

// Graph is a Depth-Robust Graph over N node indices. It is immutable once
// constructed: Parents(i) always returns the same list for the same i.
type Graph struct {
	n               int
	baseDegree      int
	expansionDegree int
	seed            Seed
}

// New constructs a Graph. n must be positive, baseDegree non-negative, and
// expansionDegree non-negative.
func New(n, baseDegree, expansionDegree int, seed Seed) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("drgraph: node count must be positive, got %d", n)
	}
	if baseDegree < 0 || expansionDegree < 0 {
		return nil, fmt.Errorf("drgraph: degrees must be non-negative, got base=%d expansion=%d", baseDegree, expansionDegree)
	}
	return &Graph{n: n, baseDegree: baseDegree, expansionDegree: expansionDegree, seed: seed}, nil
}

// Size returns N, the number of node indices in the graph.
func (g *Graph) Size() int { return g.n }

// Degree returns the total parent-list length for any node but 0:
// BaseDegree + ExpansionDegree.
func (g *Graph) Degree() int { return g.baseDegree + g.expansionDegree }

// BaseDegree returns the number of bucket-sampled parents.
func (g *Graph) BaseDegree() int { return g.baseDegree }

// ExpansionDegree returns the number of uniformly-sampled parents.
func (g *Graph) ExpansionDegree() int { return g.expansionDegree }

// ParameterSetIdentifier returns a string uniquely identifying this
// graph's shape and randomness, suitable for inclusion in a
// PublicParams.ParameterSetIdentifier (spec.md §4.F).
func (g *Graph) ParameterSetIdentifier() string {
	return fmt.Sprintf("drgraph{n:%d,base:%d,exp:%d,seed:%08x%08x%08x%08x%08x%08x%08x}",
		g.n, g.baseDegree, g.expansionDegree,
		g.seed[0], g.seed[1], g.seed[2], g.seed[3], g.seed[4], g.seed[5], g.seed[6])
}

// seedToXorshift folds the graph's 7-word seed down into the 4-word seed
// internal/xorshift expects.
func (g *Graph) seedToXorshift() xorshift.Seed {
	return xorshift.Seed{
		g.seed[0] ^ g.seed[4],
		g.seed[1] ^ g.seed[5],
		g.seed[2] ^ g.seed[6],
		g.seed[3],
	}
}

// Parents returns the ordered list of parent node indices for i: the empty
// list for i == 0 (spec.md §4.C: "node 0 has no parents and is never
// challenged"), otherwise BaseDegree bucket-sampled parents followed by
// ExpansionDegree uniformly-sampled parents, all strictly less than i.
func (g *Graph) Parents(i int) ([]int, error) {
	if i < 0 || i >= g.n {
		return nil, fmt.Errorf("drgraph: node index %d out of range [0, %d)", i, g.n)
	}
	if i == 0 {
		return nil, nil
	}

	base := g.seedToXorshift()
	parents := make([]int, 0, g.Degree())

	for slot := 0; slot < g.baseDegree; slot++ {
		tag := uint64(i)<<20 | uint64(slot)
		rng := xorshift.New(xorshift.DeriveSeed(base, tag))
		parents = append(parents, bucketSample(rng, i))
	}

	for slot := 0; slot < g.expansionDegree; slot++ {
		tag := uint64(i)<<20 | uint64(g.baseDegree+slot) | (1 << 40)
		rng := xorshift.New(xorshift.DeriveSeed(base, tag))
		parents = append(parents, int(rng.Uintn(uint64(i))))
	}

	return parents, nil
}

// bucketSample draws one parent index from [0, i) using bucket sampling:
// the bucket index is chosen uniformly among the log2(i)+1 exponentially
// sized distance buckets behind i, then a specific offset is chosen
// uniformly within that bucket. This guarantees a spread of connections
// across distance scales rather than concentrating on nearby nodes (the
// "depth-robust realization" spec.md §4.C names). A bucket's width is
// widened to config.MinBucketSize when the exponential split would
// otherwise hand it only a single candidate offset, keeping early buckets
// from degenerating to one fixed parent.
func bucketSample(rng *xorshift.RNG, i int) int {
	numBuckets := bitsLen(i)
	bucket := int(rng.Uintn(uint64(numBuckets)))

	offsetLow := 1 << bucket
	offsetHigh := 1 << (bucket + 1)
	if offsetHigh > i+1 {
		offsetHigh = i + 1
	}
	if offsetHigh-offsetLow < config.MinBucketSize {
		offsetHigh = offsetLow + config.MinBucketSize
	}
	if offsetHigh > i+1 {
		offsetHigh = i + 1
	}
	if offsetHigh <= offsetLow {
		offsetHigh = offsetLow + 1
	}

	offset := offsetLow + int(rng.Uintn(uint64(offsetHigh-offsetLow)))
	parent := i - offset
	if parent < 0 {
		parent = 0
	}
	return parent
}

// bitsLen returns the number of bits needed to represent n (n > 0),
// i.e. floor(log2(n)) + 1.
func bitsLen(n int) int {
	l := 0
	for n > 0 {
		n >>= 1
		l++
	}
	return l
}
