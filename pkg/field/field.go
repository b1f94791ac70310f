// Package field implements the canonical on-disk representation of a node:
// a fixed-width, little-endian encoding of one BN254 scalar-field element
// (spec.md §4.A). Domain is the in-memory form; it round-trips losslessly to
// and from config.NodeSize bytes, and rejects anything outside the field's
// canonical range.
package field

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/MuriData/drgporep/config"
)

// ErrInvalidEncoding is returned when bytes do not decode to a canonical
// field element (wrong length, or value >= the field modulus).
var ErrInvalidEncoding = errors.New("field: invalid encoding")

// ErrOutOfRange is returned when a node index or byte range falls outside
// the addressable buffer.
var ErrOutOfRange = errors.New("field: out of range")

// Domain is a single node value: a field element reduced modulo the BN254
// scalar field, stored as a big.Int for convenient little-endian conversion.
type Domain struct {
	val *big.Int
}

// modulus returns the BN254 scalar field's modulus via fr.Modulus.
func modulus() *big.Int {
	return fr.Modulus()
}

// Zero is the additive identity.
func Zero() Domain {
	return Domain{val: new(big.Int)}
}

// FromBigInt wraps an already-reduced big.Int. The caller must guarantee
// 0 <= v < modulus; used internally by packages that compute field values
// directly (e.g. hasher).
func FromBigInt(v *big.Int) Domain {
	return Domain{val: new(big.Int).Set(v)}
}

// BigInt returns the element's value as a big.Int. The returned value must
// not be mutated by the caller.
func (d Domain) BigInt() *big.Int {
	if d.val == nil {
		return new(big.Int)
	}
	return d.val
}

// Equal reports whether two domain elements hold the same value.
func (d Domain) Equal(other Domain) bool {
	return d.BigInt().Cmp(other.BigInt()) == 0
}

// TryFromBytes decodes exactly config.NodeSize little-endian bytes into a
// Domain, rejecting any value >= the field modulus.
func TryFromBytes(b []byte) (Domain, error) {
	if len(b) != config.NodeSize {
		return Domain{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidEncoding, config.NodeSize, len(b))
	}

	// Reverse little-endian bytes into a big-endian buffer for big.Int.
	be := make([]byte, config.NodeSize)
	for i, c := range b {
		be[config.NodeSize-1-i] = c
	}

	v := new(big.Int).SetBytes(be)
	if v.Cmp(modulus()) >= 0 {
		return Domain{}, fmt.Errorf("%w: value exceeds field modulus", ErrInvalidEncoding)
	}

	return Domain{val: v}, nil
}

// IntoBytes returns the canonical config.NodeSize little-endian encoding.
func (d Domain) IntoBytes() [config.NodeSize]byte {
	var out [config.NodeSize]byte
	d.WriteBytes(out[:])
	return out
}

// WriteBytes writes the canonical little-endian encoding into buf, which
// must be at least config.NodeSize bytes long.
func (d Domain) WriteBytes(buf []byte) {
	be := d.BigInt().FillBytes(make([]byte, config.NodeSize))
	for i, c := range be {
		buf[config.NodeSize-1-i] = c
	}
}

// DataAtNodeOffset returns the byte offset of node i: i * config.NodeSize.
func DataAtNodeOffset(i int) int {
	return i * config.NodeSize
}

// DataAtNode returns the config.NodeSize-byte slice of buf holding node i,
// or ErrOutOfRange if it would read past the end of buf.
func DataAtNode(buf []byte, i int) ([]byte, error) {
	start := DataAtNodeOffset(i)
	end := start + config.NodeSize
	if start < 0 || end > len(buf) {
		return nil, fmt.Errorf("%w: node %d (bytes [%d,%d)) outside buffer of length %d", ErrOutOfRange, i, start, end, len(buf))
	}
	return buf[start:end], nil
}
