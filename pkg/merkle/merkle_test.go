package merkle_test

import (
	"math/big"
	"testing"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/merkle"
)

func buildTestBuffer(n int) []byte {
	buf := make([]byte, n*config.NodeSize)
	for i := 0; i < n; i++ {
		d := field.FromBigInt(big.NewInt(int64(1000 + i)))
		d.WriteBytes(buf[i*config.NodeSize : (i+1)*config.NodeSize])
	}
	return buf
}

func TestBuildTreeAndProofRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7, 16} {
		buf := buildTestBuffer(n)
		tree, err := merkle.BuildTree(buf, n)
		if err != nil {
			t.Fatalf("n=%d: BuildTree: %v", n, err)
		}

		root := tree.Root()
		for i := 0; i < n; i++ {
			proof, err := tree.GenProof(i)
			if err != nil {
				t.Fatalf("n=%d i=%d: GenProof: %v", n, i, err)
			}
			leaf, err := tree.Leaf(i)
			if err != nil {
				t.Fatalf("n=%d i=%d: Leaf: %v", n, i, err)
			}
			if !proof.ProvesChallenge(i) {
				t.Fatalf("n=%d i=%d: proof does not prove its own challenge", n, i)
			}
			if !proof.Validate(i, leaf, root) {
				t.Fatalf("n=%d i=%d: proof failed to validate against root", n, i)
			}
		}
	}
}

func TestProofRejectsWrongChallenge(t *testing.T) {
	n := 8
	buf := buildTestBuffer(n)
	tree, err := merkle.BuildTree(buf, n)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	proof, err := tree.GenProof(3)
	if err != nil {
		t.Fatalf("GenProof: %v", err)
	}
	if proof.ProvesChallenge(4) {
		t.Fatalf("proof for leaf 3 should not prove challenge 4")
	}
}

func TestProofRejectsTamperedLeaf(t *testing.T) {
	n := 8
	buf := buildTestBuffer(n)
	tree, err := merkle.BuildTree(buf, n)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	proof, err := tree.GenProof(2)
	if err != nil {
		t.Fatalf("GenProof: %v", err)
	}
	other := field.FromBigInt(big.NewInt(999999))
	if proof.Validate(2, other, tree.Root()) {
		t.Fatalf("proof validated against a tampered leaf value")
	}
}

func TestGenProofOutOfRange(t *testing.T) {
	buf := buildTestBuffer(4)
	tree, err := merkle.BuildTree(buf, 4)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if _, err := tree.GenProof(-1); err == nil {
		t.Fatalf("expected error for negative index")
	}
	if _, err := tree.GenProof(4); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
}

func TestProofSerializeRoundTrip(t *testing.T) {
	buf := buildTestBuffer(8)
	tree, err := merkle.BuildTree(buf, 8)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	proof, err := tree.GenProof(5)
	if err != nil {
		t.Fatalf("GenProof: %v", err)
	}

	encoded := proof.Serialize()
	decoded, err := merkle.DeserializeProof(encoded)
	if err != nil {
		t.Fatalf("DeserializeProof: %v", err)
	}

	leaf, err := tree.Leaf(5)
	if err != nil {
		t.Fatalf("Leaf: %v", err)
	}
	if !decoded.Validate(5, leaf, tree.Root()) {
		t.Fatalf("deserialized proof failed to validate")
	}
}

func TestCheckpointedTreeMatchesFullProof(t *testing.T) {
	n := 16
	buf := buildTestBuffer(n)
	tree, err := merkle.BuildTree(buf, n)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	scheme := merkle.BalancedScheme(tree.Depth())
	ck, err := merkle.Checkpoint(tree, scheme)
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	readLeaf := func(i int) ([]byte, error) {
		return buf[i*config.NodeSize : (i+1)*config.NodeSize], nil
	}

	for i := 0; i < n; i++ {
		want, err := tree.GenProof(i)
		if err != nil {
			t.Fatalf("i=%d: GenProof: %v", i, err)
		}
		got, err := ck.RebuildProof(i, readLeaf)
		if err != nil {
			t.Fatalf("i=%d: RebuildProof: %v", i, err)
		}
		if len(got.Siblings) != len(want.Siblings) {
			t.Fatalf("i=%d: sibling count mismatch: got %d want %d", i, len(got.Siblings), len(want.Siblings))
		}
		for l := range want.Siblings {
			if !got.Siblings[l].Equal(want.Siblings[l]) {
				t.Fatalf("i=%d level=%d: sibling mismatch", i, l)
			}
			if got.IsRight[l] != want.IsRight[l] {
				t.Fatalf("i=%d level=%d: orientation mismatch", i, l)
			}
		}
	}
}
