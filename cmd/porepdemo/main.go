// Command porepdemo exercises setup → replicate → prove → verify against
// randomly generated data. Not part of the library's public contract (the
// core exposes no CLI); this mirrors the teacher's own cmd/test/main.go
// shape, with the PoI-circuit steps replaced by the DrgPoRep driver.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/pkg/drgraph"
	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/hasher"
	"github.com/MuriData/drgporep/pkg/merkle"
	"github.com/MuriData/drgporep/pkg/porep"
)

func main() {
	nodes := flag.Int("nodes", 64, "number of nodes in the graph")
	degree := flag.Int("degree", config.DefaultBaseDegree, "base in-degree of the graph")
	expansion := flag.Int("expansion-degree", config.DefaultExpansionDegree, "expansion in-degree of the graph")
	slothIter := flag.Int("sloth-iter", config.DefaultSlothIterations, "sloth permutation rounds per node")
	challenge := flag.Int("challenge", 1, "node index to challenge (must satisfy 0 < challenge < nodes)")
	useBlake2s := flag.Bool("blake2s", false, "use the Blake2s hasher variant instead of Poseidon2")
	checkpointed := flag.Bool("checkpointed", false, "use the checkpointed, low-memory ProverAux instead of retaining full Merkle trees")
	flag.Parse()

	var h hasher.Hasher = hasher.Poseidon2Hasher{}
	if *useBlake2s {
		h = hasher.Blake2sHasher{}
	}

	seed, err := randomGraphSeed()
	if err != nil {
		log.Fatal("Failed to generate graph seed:", err)
	}

	pp, err := porep.Setup(porep.SetupParams{
		DrgParams: porep.DrgParams{
			Nodes:           *nodes,
			BaseDegree:      *degree,
			ExpansionDegree: *expansion,
			Seed:            seed,
		},
		SlothIter: *slothIter,
	}, h)
	if err != nil {
		log.Fatal("Setup failed:", err)
	}
	fmt.Printf("Parameter set identifier: %s\n", pp.ParameterSetIdentifier())

	data, err := generateRandomData(*nodes * config.NodeSize)
	if err != nil {
		log.Fatal("Failed to generate random data:", err)
	}

	replicaID, err := randomDomain()
	if err != nil {
		log.Fatal("Failed to generate replica id:", err)
	}

	buf := append([]byte(nil), data...)

	fmt.Println("\n=== Replicate ===")
	var tau *porep.Tau
	var aux *porep.ProverAux
	var cpAux *porep.CheckpointedProverAux
	if *checkpointed {
		depth := treeDepth(*nodes)
		scheme := merkle.CompactScheme(depth)
		if depth >= 4 {
			scheme = merkle.BalancedScheme(depth)
		}
		tau, cpAux, err = porep.ReplicateCheckpointed(pp, replicaID, buf, scheme)
		if err != nil {
			log.Fatal("ReplicateCheckpointed failed:", err)
		}
		fmt.Println("using checkpointed ProverAux")
	} else {
		tau, aux, err = porep.Replicate(pp, replicaID, buf)
		if err != nil {
			log.Fatal("Replicate failed:", err)
		}
	}
	fmt.Printf("comm_d: 0x%x\n", tau.CommD.IntoBytes())
	fmt.Printf("comm_r: 0x%x\n", tau.CommR.IntoBytes())

	fmt.Println("\n=== Extract all ===")
	recovered, err := porep.ExtractAll(pp, replicaID, buf)
	if err != nil {
		log.Fatal("ExtractAll failed:", err)
	}
	if string(recovered) == string(data) {
		fmt.Println("extract_all recovered the original data")
	} else {
		fmt.Println("extract_all MISMATCH: recovered data differs from the original")
	}

	fmt.Println("\n=== Prove / Verify ===")
	if *challenge <= 0 || *challenge >= *nodes {
		log.Fatalf("challenge %d must satisfy 0 < challenge < %d", *challenge, *nodes)
	}
	pub := porep.PublicInputs{ReplicaID: replicaID, Challenges: []int{*challenge}, Tau: *tau}

	var proof *porep.Proof
	if *checkpointed {
		proof, err = porep.ProveCheckpointed(pp, pub, porep.CheckpointedPrivateInputs{Buf: buf, Aux: cpAux})
		if err != nil {
			log.Fatal("ProveCheckpointed failed:", err)
		}
	} else {
		proof, err = porep.Prove(pp, pub, porep.PrivateInputs{Buf: buf, Aux: aux})
		if err != nil {
			log.Fatal("Prove failed:", err)
		}
	}

	ok, err := porep.Verify(pp, pub, proof)
	if err != nil {
		log.Fatal("Verify failed:", err)
	}
	if ok {
		fmt.Printf("verify(challenge=%d): PASS\n", *challenge)
	} else {
		fmt.Printf("verify(challenge=%d): FAIL\n", *challenge)
	}
}

// treeDepth returns the Merkle tree depth BuildTree would produce for n
// leaves: the power-of-two padding exponent, floored at 1 so a single-leaf
// tree still has a well-formed (empty) checkpoint scheme to build from.
func treeDepth(n int) int {
	depth := 0
	size := 1
	for size < n {
		size <<= 1
		depth++
	}
	if depth < 1 {
		depth = 1
	}
	return depth
}

func generateRandomData(size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return nil, err
	}
	// Each node must decode to a canonical field element: reduce every
	// config.NodeSize-byte chunk modulo the field before use.
	for off := 0; off+config.NodeSize <= len(data); off += config.NodeSize {
		v := new(big.Int).SetBytes(reverseBytes(data[off : off+config.NodeSize]))
		v.Mod(v, fr.Modulus())
		field.FromBigInt(v).WriteBytes(data[off : off+config.NodeSize])
	}
	return data, nil
}

func randomDomain() (field.Domain, error) {
	v, err := rand.Int(rand.Reader, fr.Modulus())
	if err != nil {
		return field.Domain{}, err
	}
	return field.FromBigInt(v), nil
}

func randomGraphSeed() (drgraph.Seed, error) {
	var seed drgraph.Seed
	for i := range seed {
		v, err := rand.Int(rand.Reader, big.NewInt(1<<32))
		if err != nil {
			return seed, err
		}
		seed[i] = uint32(v.Uint64())
	}
	return seed, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
