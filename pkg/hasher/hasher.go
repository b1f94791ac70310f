// Package hasher implements spec.md §4.B's Hasher capability: a keyed
// derivation function (KDF) plus a slow, invertible per-node permutation
// (sloth). Two concrete hash families are provided, matching the
// {Blake2s, Pedersen}-shaped polymorphism spec.md calls for — concrete
// Blake2s/Pedersen internals are themselves out of scope (spec.md §1), so
// Blake2s here is backed by the external golang.org/x/crypto/blake2s
// package rather than reimplemented, and Poseidon2 (the teacher's own
// domain hash, via gnark-crypto) stands in as the second variant.
package hasher

import "github.com/MuriData/drgporep/pkg/field"

// Hasher is the capability every DrgPoRep component depends on: a KDF and a
// sloth permutation pair, bound to one concrete hash family. Implementations
// must satisfy: same KDF input bytes => same output, and
// SlothDecode(key, SlothEncode(key, x, n), n) == x for all key, x, n.
type Hasher interface {
	// KDF derives a node's sloth key from input = replica_id ‖ parent0 ‖ ...
	// ‖ parent_{d-1}, each component config.NodeSize bytes. degree is
	// informational (spec.md §4.B) and carried only so a concrete hasher may
	// domain-separate on it if it chooses; neither variant here does.
	KDF(input []byte, degree int) (field.Domain, error)

	// SlothEncode applies the per-node permutation iterations times.
	SlothEncode(key, node field.Domain, iterations int) field.Domain

	// SlothDecode strictly inverts SlothEncode.
	SlothDecode(key, encoded field.Domain, iterations int) field.Domain

	// Name identifies the hash family, for PublicParams' identifier string.
	Name() string
}
