// Package hashring implements the consistent-hash router: a bit-exact FNV
// derivative for mapping keys to partitions, and the ring walk that turns a
// partition→node table into an ordered, distinct-node preference list.
package hashring

// fnvOffset and fnvPrime are the custom 64-bit accumulator seed and
// multiplier used by the reference hash. They are not the standard FNV-1a
// constants; the multiplier in particular is derived as 2^24 + 0x193 to
// match a legacy implementation this router must stay bit-compatible with.
const (
	fnvOffset uint64 = 0x811C9DC5
	fnvPrime  uint64 = (1 << 24) + 0x193
)

// Hash computes the reference 32-bit signed hash of key. The algorithm is
// bit-exact with the legacy implementation this router is compatible with:
// a 64-bit FNV-style accumulator, reduced to signed 32-bit, then saturated
// to a non-negative value (INT32_MIN maps to INT32_MAX rather than
// overflowing).
func Hash(key []byte) int32 {
	var acc uint64 = fnvOffset
	for _, b := range key {
		acc = (acc ^ uint64(b)) * fnvPrime
	}
	// Reduce to signed 32-bit by truncation, matching a two's-complement
	// narrowing cast.
	v := int32(uint32(acc))
	return saturatingAbs(v)
}

// saturatingAbs returns |v|, except for math.MinInt32 which has no positive
// counterpart in int32 — that case saturates to math.MaxInt32 instead of
// overflowing back to itself.
func saturatingAbs(v int32) int32 {
	if v == -(1 << 31) {
		return (1 << 31) - 1
	}
	if v < 0 {
		return -v
	}
	return v
}
