package drgraph

import (
	"fmt"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/pkg/merkle"
)

// MerkleTree builds the Merkle commitment over buf, which must hold
// exactly Size() nodes of config.NodeSize bytes each — the dispatch point
// spec.md §4.C names from the graph to the Merkle layer, used identically
// to build both comm_d (over plaintext) and comm_r (over the replica).
func (g *Graph) MerkleTree(buf []byte) (*merkle.Tree, error) {
	want := g.n * config.NodeSize
	if len(buf) != want {
		return nil, fmt.Errorf("drgraph: buffer length %d does not match %d nodes of %d bytes", len(buf), g.n, config.NodeSize)
	}
	return merkle.BuildTree(buf, g.n)
}
