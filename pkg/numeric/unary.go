package numeric

import (
	"math"
	"math/big"
)

// UnaryAdd is unary `+` (identity). Carried forward from
// original_source/pycket/arithmetic.py's arith_unaryadd, which
// spec.md's operation list omits but the original implements on every
// number (see SPEC_FULL.md's C1 section).
func UnaryAdd(a Number) (Number, error) { return a, nil }

func Neg(a Number) (Number, error) {
	switch v := a.(type) {
	case Fixnum:
		if v == math.MinInt {
			return canonicalizeInt(new(big.Int).Neg(fixToBig(v))), nil
		}
		return -v, nil
	case Bignum:
		return canonicalizeInt(new(big.Int).Neg(v.Int)), nil
	case Flonum:
		return -v, nil
	case Complex:
		re, err := Neg(v.Re)
		if err != nil {
			return nil, err
		}
		im, err := Neg(v.Im)
		if err != nil {
			return nil, err
		}
		return Complex{Re: re, Im: im}, nil
	}
	return nil, newErr("neg", DomainError, "unsupported operand")
}

func Abs(a Number) (Number, error) {
	switch v := a.(type) {
	case Fixnum:
		if v < 0 {
			return Neg(v)
		}
		return v, nil
	case Bignum:
		return canonicalizeInt(new(big.Int).Abs(v.Int)), nil
	case Flonum:
		return Flonum(math.Abs(float64(v))), nil
	}
	return nil, newErr("abs", DomainError, "abs is undefined on complex numbers")
}

func Sub1(a Number) (Number, error) { return Sub(a, Fixnum(1)) }

// Not is bitwise complement; see BitNot.
func Not(a Number) (Number, error) { return BitNot(a) }

func Round(a Number) (Number, error) {
	switch v := a.(type) {
	case Fixnum, Bignum:
		return v, nil
	case Flonum:
		return Flonum(roundHalfAwayFromZero(float64(v))), nil
	}
	return nil, newErr("round", DomainError, "round is undefined on complex numbers")
}

// roundHalfAwayFromZero implements §4.1's "round-half-away-from-zero
// (not banker's rounding)" rule. It is math.Round, which already rounds
// half away from zero (unlike math.RoundToEven); the wrapper documents
// the choice rather than reimplementing it.
func roundHalfAwayFromZero(f float64) float64 {
	return math.Round(f)
}

func Floor(a Number) (Number, error) {
	switch v := a.(type) {
	case Fixnum, Bignum:
		return v, nil
	case Flonum:
		return Flonum(math.Floor(float64(v))), nil
	}
	return nil, newErr("floor", DomainError, "floor is undefined on complex numbers")
}

func Ceiling(a Number) (Number, error) {
	switch v := a.(type) {
	case Fixnum, Bignum:
		return v, nil
	case Flonum:
		return Flonum(math.Ceil(float64(v))), nil
	}
	return nil, newErr("ceiling", DomainError, "ceiling is undefined on complex numbers")
}

func FloatIntegerPart(a Number) (Number, error) {
	f, ok := a.(Flonum)
	if !ok {
		return nil, newErr("float-integer-part", DomainError, "operand must be a flonum")
	}
	return Flonum(math.Trunc(float64(f))), nil
}

func FloatFractionalPart(a Number) (Number, error) {
	f, ok := a.(Flonum)
	if !ok {
		return nil, newErr("float-fractional-part", DomainError, "operand must be a flonum")
	}
	return Flonum(float64(f) - math.Trunc(float64(f))), nil
}

func Sin(a Number) (Number, error)  { return Flonum(math.Sin(toFloat(a))), nil }
func Cos(a Number) (Number, error)  { return Flonum(math.Cos(toFloat(a))), nil }
func Atan(a Number) (Number, error) { return Flonum(math.Atan(toFloat(a))), nil }

func Log(a Number) (Number, error) {
	f := toFloat(a)
	if f < 0 {
		return nil, newErr("log", DomainError, "log of a negative real (complex log unimplemented)")
	}
	return Flonum(math.Log(f)), nil
}

func Sqrt(a Number) (Number, error) {
	switch v := a.(type) {
	case Fixnum, Bignum:
		b := toBig(v)
		if b.Sign() < 0 {
			neg := new(big.Int).Neg(b)
			r := new(big.Int).Sqrt(neg)
			check := new(big.Int).Mul(r, r)
			if check.Cmp(neg) == 0 {
				return Complex{Re: Fixnum(0), Im: canonicalizeInt(r)}, nil
			}
			return Complex{Re: Fixnum(0), Im: Flonum(math.Sqrt(float64(-toFloat(v))))}, nil
		}
		r := new(big.Int).Sqrt(b)
		check := new(big.Int).Mul(r, r)
		if check.Cmp(b) == 0 {
			return canonicalizeInt(r), nil
		}
		return Flonum(math.Sqrt(float64(toFloat(v)))), nil
	case Flonum:
		f := float64(v)
		if f < 0 {
			return Complex{Re: Flonum(0), Im: Flonum(math.Sqrt(-f))}, nil
		}
		return Flonum(math.Sqrt(f)), nil
	}
	return nil, newErr("sqrt", DomainError, "sqrt of complex numbers is unimplemented")
}

// InexactToExact converts a Flonum with zero fractional part to an
// exact integer; any other Flonum fails with UnsupportedExactRational (the core
// has no rational type to represent e.g. 0.5 exactly, per spec.md's
// Non-goals).
func InexactToExact(a Number) (Number, error) {
	f, ok := a.(Flonum)
	if !ok {
		return a, nil
	}
	if float64(f) != math.Trunc(float64(f)) {
		return nil, newErr("inexact->exact", UnsupportedExactRational, "fractional flonum has no exact rational representation")
	}
	bi, _ := big.NewFloat(float64(f)).Int(nil)
	return canonicalizeInt(bi), nil
}

func ExactToInexact(a Number) (Number, error) {
	switch v := a.(type) {
	case Fixnum:
		return Flonum(float64(v)), nil
	case Bignum:
		return Flonum(toFloat(v)), nil
	case Flonum:
		return v, nil
	case Complex:
		re, err := ExactToInexact(v.Re)
		if err != nil {
			return nil, err
		}
		im, err := ExactToInexact(v.Im)
		if err != nil {
			return nil, err
		}
		return Complex{Re: re, Im: im}, nil
	}
	return nil, newErr("exact->inexact", DomainError, "unsupported operand")
}
