package hasher

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2s"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/MuriData/drgporep/config"
	"github.com/MuriData/drgporep/pkg/field"
)

// Blake2sHasher derives KDF keys with golang.org/x/crypto/blake2s — the
// second hash-family variant spec.md §4.B names ({Blake2s, Pedersen}).
// Concrete Blake2s internals are explicitly out of scope (spec.md §1); this
// simply drives the external library's standard 256-bit hash over the raw
// little-endian node bytes.
type Blake2sHasher struct{}

var _ Hasher = Blake2sHasher{}

// KDF hashes input (a multiple of config.NodeSize bytes) with unkeyed
// Blake2s-256 and reduces the digest modulo the field.
func (Blake2sHasher) KDF(input []byte, _ int) (field.Domain, error) {
	if len(input)%config.NodeSize != 0 {
		return field.Domain{}, fmt.Errorf("hasher: kdf input length %d is not a multiple of node size %d", len(input), config.NodeSize)
	}

	h, err := blake2s.New256(nil)
	if err != nil {
		return field.Domain{}, fmt.Errorf("hasher: blake2s init: %w", err)
	}
	if _, err := h.Write(input); err != nil {
		return field.Domain{}, fmt.Errorf("hasher: blake2s write: %w", err)
	}

	sum := h.Sum(nil)
	v := new(big.Int).SetBytes(sum)
	v.Mod(v, fr.Modulus())

	return field.FromBigInt(v), nil
}

// SlothEncode delegates to the shared sloth permutation (sloth.go).
func (Blake2sHasher) SlothEncode(key, node field.Domain, iterations int) field.Domain {
	return slothEncode(key, node, iterations)
}

// SlothDecode delegates to the shared sloth permutation (sloth.go).
func (Blake2sHasher) SlothDecode(key, encoded field.Domain, iterations int) field.Domain {
	return slothDecode(key, encoded, iterations)
}

// Name identifies this hash family for PublicParams.ParameterSetIdentifier.
func (Blake2sHasher) Name() string { return "blake2s" }
