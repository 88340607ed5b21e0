package numeric

import (
	"math/big"

	"golang.org/x/exp/constraints"
)

// fits reports whether v (of any signed integer type machine-narrow
// enough for Go's generics) is representable as an int64 without
// truncation. No code in this module calls it.
func fits[T constraints.Integer](v T) bool {
	return (v < 0) == (int64(v) < 0)
}

// FromHostInt lifts any Go signed/unsigned integer into a Fixnum by a
// direct, non-promoting int conversion: an unsigned value above
// math.MaxInt wraps to a negative Fixnum rather than becoming a Bignum.
func FromHostInt[T constraints.Integer](v T) Fixnum {
	return Fixnum(int(v))
}

// FromBigInt canonicalises an externally-constructed *big.Int the way
// every internal arithmetic result is canonicalised.
func FromBigInt(i *big.Int) Number {
	return canonicalizeInt(i)
}

// FromFloat lifts a host float64 into a Flonum.
func FromFloat[T constraints.Float](v T) Flonum {
	return Flonum(float64(v))
}
