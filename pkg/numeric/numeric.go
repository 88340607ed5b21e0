// Package numeric implements the closed numeric tower described in
// spec.md §4.1: Fixnum, Bignum, Flonum, and Complex, with binary and
// unary operators that promote across the Fixnum ⊑ Bignum ⊑ Flonum
// lattice (Complex orthogonal and contagious) and canonicalise every
// exact result back down to the smallest representation that holds
// it.
//
// Dispatch follows the re-architecture in spec.md §9: rather than the
// original's per-pair method expansion (pycket's arithmetic.py defines
// one arith_add_bigint/arith_add_float/... method per left-operand
// class), every binary operation is one Go function that tests the
// operands' tags in a fixed order: Complex first, then Flonum, then
// the exact Fixnum/Bignum case. Each (T1, T2) pair has exactly one
// implementation, matching spec.md's tie-break rule.
package numeric

import (
	"math/big"

	"github.com/racketcore/valuecore/pkg/value"
)

// Tag identifies a Number's concrete representation.
type Tag int

const (
	TagFixnum Tag = iota
	TagBignum
	TagFlonum
	TagComplex
)

// Number is satisfied by every numeric value kind.
type Number interface {
	value.Value
	Tag() Tag
}

// Fixnum is a machine-sized signed integer. Go's int is assumed to be
// the "machine int" width spec.md refers to throughout (64 bits on
// every platform this module targets).
type Fixnum int

func (Fixnum) IsValue()     {}
func (Fixnum) Tag() Tag     { return TagFixnum }
func (f Fixnum) Print() string {
	return big.NewInt(int64(f)).String()
}

// Bignum is an arbitrary-precision integer. Invariant (canonicalisation
// rule, §4.1): a Bignum is never produced by normalisation when it
// would fit in a Fixnum — see canonicalizeInt.
type Bignum struct {
	*big.Int
}

func NewBignum(i *big.Int) Bignum { return Bignum{i} }

func (Bignum) IsValue() {}
func (Bignum) Tag() Tag { return TagBignum }
func (b Bignum) Print() string { return b.Int.String() }

// Flonum is a double-precision float.
type Flonum float64

func (Flonum) IsValue() {}
func (Flonum) Tag() Tag { return TagFlonum }
func (f Flonum) Print() string {
	return big.NewFloat(float64(f)).Text('g', -1)
}

// Complex carries two real components, each itself a Fixnum, Bignum,
// or Flonum. Invariant: neither Re nor Im is itself Complex.
type Complex struct {
	Re, Im Number
}

func NewComplex(re, im Number) Complex {
	if re.Tag() == TagComplex || im.Tag() == TagComplex {
		panic("numeric: Complex component must not itself be Complex")
	}
	return Complex{Re: re, Im: im}
}

func (Complex) IsValue() {}
func (Complex) Tag() Tag { return TagComplex }
func (c Complex) Print() string {
	return c.Re.(value.Printable).Print() + "+" + c.Im.(value.Printable).Print() + "i"
}

// canonicalizeInt returns a Fixnum if i fits in Go's int, otherwise a
// Bignum. This is the canonicalisation rule from §4.1: "any Bignum
// produced by an operation that is representable as a Fixnum must be
// returned as a Fixnum."
func canonicalizeInt(i *big.Int) Number {
	if i.IsInt64() {
		v := i.Int64()
		if int64(int(v)) == v {
			return Fixnum(int(v))
		}
	}
	return NewBignum(i)
}

func fixToBig(f Fixnum) *big.Int {
	return big.NewInt(int64(f))
}

// toFloat converts any non-complex number to a float64, per the
// "any-integer op Flonum → Flonum" promotion rule.
func toFloat(n Number) float64 {
	switch v := n.(type) {
	case Fixnum:
		return float64(v)
	case Bignum:
		f := new(big.Float).SetInt(v.Int)
		r, _ := f.Float64()
		return r
	case Flonum:
		return float64(v)
	default:
		panic("numeric: toFloat of non-real number")
	}
}

func toBig(n Number) *big.Int {
	switch v := n.(type) {
	case Fixnum:
		return fixToBig(v)
	case Bignum:
		return v.Int
	default:
		panic("numeric: toBig of non-integer number")
	}
}

// isExact reports whether n is Fixnum or Bignum (i.e. not Flonum, and
// not a Complex with an inexact component).
func isExact(n Number) bool {
	switch v := n.(type) {
	case Fixnum, Bignum:
		return true
	case Flonum:
		return false
	case Complex:
		return isExact(v.Re) && isExact(v.Im)
	}
	return false
}

func isZeroReal(n Number) bool {
	switch v := n.(type) {
	case Fixnum:
		return v == 0
	case Bignum:
		return v.Sign() == 0
	case Flonum:
		return float64(v) == 0
	}
	return false
}

func wrapComplexResult(re, im Number) Number {
	if isZeroReal(im) && isExact(im) {
		return re
	}
	return Complex{Re: re, Im: im}
}
