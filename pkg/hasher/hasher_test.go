package hasher_test

import (
	"math/big"
	"testing"

	"github.com/MuriData/drgporep/pkg/field"
	"github.com/MuriData/drgporep/pkg/hasher"
)

func variants() map[string]hasher.Hasher {
	return map[string]hasher.Hasher{
		"poseidon2": hasher.Poseidon2Hasher{},
		"blake2s":   hasher.Blake2sHasher{},
	}
}

func TestSlothRoundTrip(t *testing.T) {
	for name, h := range variants() {
		t.Run(name, func(t *testing.T) {
			key := field.FromBigInt(big.NewInt(424242))
			node := field.FromBigInt(big.NewInt(123456789))

			for _, iters := range []int{0, 1, 3} {
				encoded := h.SlothEncode(key, node, iters)
				decoded := h.SlothDecode(key, encoded, iters)
				if !decoded.Equal(node) {
					t.Fatalf("iters=%d: decode(encode(x)) = %v, want %v", iters, decoded.BigInt(), node.BigInt())
				}
			}
		})
	}
}

func TestSlothEncodeChangesValue(t *testing.T) {
	for name, h := range variants() {
		t.Run(name, func(t *testing.T) {
			key := field.FromBigInt(big.NewInt(7))
			node := field.FromBigInt(big.NewInt(99))
			encoded := h.SlothEncode(key, node, 1)
			if encoded.Equal(node) {
				t.Fatalf("sloth encode did not change the value")
			}
		})
	}
}

func TestKDFDeterministic(t *testing.T) {
	for name, h := range variants() {
		t.Run(name, func(t *testing.T) {
			replicaID := field.FromBigInt(big.NewInt(1))
			p0 := field.FromBigInt(big.NewInt(2))
			p1 := field.FromBigInt(big.NewInt(3))

			rb := replicaID.IntoBytes()
			b0 := p0.IntoBytes()
			b1 := p1.IntoBytes()
			input := append(append(append([]byte{}, rb[:]...), b0[:]...), b1[:]...)

			k1, err := h.KDF(input, 2)
			if err != nil {
				t.Fatalf("KDF: %v", err)
			}
			k2, err := h.KDF(input, 2)
			if err != nil {
				t.Fatalf("KDF: %v", err)
			}
			if !k1.Equal(k2) {
				t.Fatalf("KDF not deterministic: %v != %v", k1.BigInt(), k2.BigInt())
			}
		})
	}
}

func TestKDFRejectsMisalignedInput(t *testing.T) {
	h := hasher.Poseidon2Hasher{}
	if _, err := h.KDF(make([]byte, 5), 1); err == nil {
		t.Fatalf("expected error for misaligned KDF input")
	}
}
