// Package xorshift is a small deterministic PRNG used two places: seeding
// pkg/drgraph's bucket-sampling parent assignment, and generating the
// reproducible test fixtures original_source/drgporep.rs drives its own
// tests with via Rust's XorShiftRng. Go has no equivalent in the standard
// library, and spec.md only requires that parent assignment be
// "deterministic in (N,d,e,seed)" and "reproduce the same assignment
// byte-for-byte across runs and platforms" — it does not require bit
// compatibility with the original Rust PRNG, so this is a from-scratch,
// self-consistent construction rather than a port.
package xorshift

// Seed is the four 32-bit words a generator is keyed from, mirroring the
// shape of the seed fixtures in original_source/drgporep.rs's tests
// ([0x3dbe6259, 0x8d313d76, 0x3237db17, 0xe5bc0654]).
type Seed [4]uint32

// RNG is a 128-bit xorshift generator (Marsaglia's xorshift128).
type RNG struct {
	x, y, z, w uint32
}

// New constructs a generator from a seed. An all-zero seed is perturbed so
// the generator never gets stuck at the fixed point 0.
func New(seed Seed) *RNG {
	r := &RNG{x: seed[0], y: seed[1], z: seed[2], w: seed[3]}
	if r.x|r.y|r.z|r.w == 0 {
		r.w = 1
	}
	return r
}

// Next returns the next pseudo-random uint32.
func (r *RNG) Next() uint32 {
	t := r.x ^ (r.x << 11)
	r.x, r.y, r.z = r.y, r.z, r.w
	r.w = r.w ^ (r.w >> 19) ^ t ^ (t >> 8)
	return r.w
}

// Uint64 returns a pseudo-random uint64 built from two Next() calls.
func (r *RNG) Uint64() uint64 {
	hi := uint64(r.Next())
	lo := uint64(r.Next())
	return hi<<32 | lo
}

// Uintn returns a pseudo-random value in [0, n). n must be > 0.
func (r *RNG) Uintn(n uint64) uint64 {
	if n == 0 {
		panic("xorshift: Uintn(0)")
	}
	// Small modulo bias is immaterial here: this generator only drives
	// deterministic graph construction and test fixtures, not a protocol
	// that needs uniformity guarantees.
	return r.Uint64() % n
}

// DeriveSeed mixes a base seed with an integer tag (e.g. a node index) to
// produce an independent sub-seed, so pkg/drgraph can draw a fresh,
// reproducible stream per (node, slot) pair without re-seeding a shared
// generator in a way that would make parent sets order-dependent.
func DeriveSeed(base Seed, tag uint64) Seed {
	var out Seed
	t0 := uint32(tag)
	t1 := uint32(tag >> 32)
	out[0] = base[0] ^ t0
	out[1] = base[1] ^ t1
	out[2] = base[2] ^ (t0 * 2654435761)
	out[3] = base[3] ^ (t1*2246822519 + 1)
	if out[0]|out[1]|out[2]|out[3] == 0 {
		out[3] = 1
	}
	return out
}
