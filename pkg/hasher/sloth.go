package hasher

import (
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/MuriData/drgporep/pkg/field"
)

// sloth is the shared slow, invertible permutation both Hasher variants use
// for SlothEncode/SlothDecode. It is independent of the KDF's hash family —
// spec.md §4.B only requires that encode/decode be mutual inverses, not that
// they be tied to a specific hash — so both Poseidon2Hasher and
// Blake2sHasher delegate to it directly.
//
// The permutation is the classic "sloth" construction (Lenstra & Wesolowski):
// an odd-power modular exponentiation that is cheap to iterate forward and
// requires a matching modular root to invert, iterated sloth_iter times to
// make its total cost tunable. It does not reproduce rust-fil-proofs' own
// Tonelli-Shanks-based sloth bit-for-bit (that lives in the out-of-scope
// external collaborator); it satisfies the same contract spec.md states:
// "implementations follow their existing definition; the contract is
// invertibility."
var (
	slothOnce sync.Once
	slothExp  *big.Int // encode exponent e, gcd(e, p-1) == 1
	slothInv  *big.Int // decode exponent e^-1 mod (p-1)
	slothMod  *big.Int // field modulus p
)

func slothParams() (p, e, d *big.Int) {
	slothOnce.Do(func() {
		slothMod = fr.Modulus()
		pMinus1 := new(big.Int).Sub(slothMod, big.NewInt(1))

		for _, candidate := range []int64{5, 7, 11, 13, 17, 19, 23} {
			e := big.NewInt(candidate)
			g := new(big.Int).GCD(nil, nil, e, pMinus1)
			if g.Cmp(big.NewInt(1)) == 0 {
				slothExp = e
				slothInv = new(big.Int).ModInverse(e, pMinus1)
				return
			}
		}
		panic("hasher: no small odd exponent coprime to p-1 found")
	})
	return slothMod, slothExp, slothInv
}

// slothEncode computes e_key(x) = ((x + key) mod p) ^ e mod p, iterated
// iterations times.
func slothEncode(key, node field.Domain, iterations int) field.Domain {
	p, e, _ := slothParams()

	x := new(big.Int).Set(node.BigInt())
	k := key.BigInt()

	for i := 0; i < iterations; i++ {
		x.Add(x, k)
		x.Mod(x, p)
		x.Exp(x, e, p)
	}

	return field.FromBigInt(x)
}

// slothDecode strictly inverts slothEncode: y ^ (e^-1 mod (p-1)) mod p,
// minus key, iterated in reverse order.
func slothDecode(key, encoded field.Domain, iterations int) field.Domain {
	p, _, d := slothParams()

	x := new(big.Int).Set(encoded.BigInt())
	k := key.BigInt()

	for i := 0; i < iterations; i++ {
		x.Exp(x, d, p)
		x.Sub(x, k)
		x.Mod(x, p) // big.Int.Mod is Euclidean: always returns a value in [0, p)
	}

	return field.FromBigInt(x)
}
