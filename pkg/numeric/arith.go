package numeric

import (
	"math"
	"math/big"
)

func isExactInt(n Number) bool {
	switch n.(type) {
	case Fixnum, Bignum:
		return true
	}
	return false
}

func isFlonum(n Number) bool {
	_, ok := n.(Flonum)
	return ok
}

func zeroLike(n Number) Number {
	if isFlonum(n) {
		return Flonum(0)
	}
	return Fixnum(0)
}

func asComplexParts(n Number) (re, im Number) {
	if c, ok := n.(Complex); ok {
		return c.Re, c.Im
	}
	return n, zeroLike(n)
}

// dispatchComplex handles the "any-non-complex op Complex → Complex"
// contagion rule (§4.1) uniformly for every commutative-in-shape
// binary op: it splits both operands into real/imaginary parts
// (lifting non-complex operands with a zero imaginary component of
// matching exactness) and recombines with combine.
func dispatchComplex(a, b Number, combine func(are, aim, bre, bim Number) (Number, Number, error)) (Number, error) {
	are, aim := asComplexParts(a)
	bre, bim := asComplexParts(b)
	re, im, err := combine(are, aim, bre, bim)
	if err != nil {
		return nil, err
	}
	return wrapComplexResult(re, im), nil
}

// --- addition ---

func addFixnum(a, b Fixnum) (Fixnum, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}
	return sum, true
}

func addExact(a, b Number) Number {
	if af, ok := a.(Fixnum); ok {
		if bf, ok := b.(Fixnum); ok {
			if sum, ok := addFixnum(af, bf); ok {
				return sum
			}
		}
	}
	return canonicalizeInt(new(big.Int).Add(toBig(a), toBig(b)))
}

func Add(a, b Number) (Number, error) {
	if a.Tag() == TagComplex || b.Tag() == TagComplex {
		return dispatchComplex(a, b, func(are, aim, bre, bim Number) (Number, Number, error) {
			re, err := Add(are, bre)
			if err != nil {
				return nil, nil, err
			}
			im, err := Add(aim, bim)
			return re, im, err
		})
	}
	if isFlonum(a) || isFlonum(b) {
		return Flonum(toFloat(a) + toFloat(b)), nil
	}
	return addExact(a, b), nil
}

// --- subtraction ---

func subFixnum(a, b Fixnum) (Fixnum, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, false
	}
	return diff, true
}

func subExact(a, b Number) Number {
	if af, ok := a.(Fixnum); ok {
		if bf, ok := b.(Fixnum); ok {
			if diff, ok := subFixnum(af, bf); ok {
				return diff
			}
		}
	}
	return canonicalizeInt(new(big.Int).Sub(toBig(a), toBig(b)))
}

func Sub(a, b Number) (Number, error) {
	if a.Tag() == TagComplex || b.Tag() == TagComplex {
		return dispatchComplex(a, b, func(are, aim, bre, bim Number) (Number, Number, error) {
			re, err := Sub(are, bre)
			if err != nil {
				return nil, nil, err
			}
			im, err := Sub(aim, bim)
			return re, im, err
		})
	}
	if isFlonum(a) || isFlonum(b) {
		return Flonum(toFloat(a) - toFloat(b)), nil
	}
	return subExact(a, b), nil
}

// --- multiplication ---

func mulFixnum(a, b Fixnum) (Fixnum, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/a != b {
		return 0, false
	}
	return p, true
}

func mulExact(a, b Number) Number {
	if af, ok := a.(Fixnum); ok {
		if bf, ok := b.(Fixnum); ok {
			if p, ok := mulFixnum(af, bf); ok {
				return p
			}
		}
	}
	return canonicalizeInt(new(big.Int).Mul(toBig(a), toBig(b)))
}

func Mul(a, b Number) (Number, error) {
	if a.Tag() == TagComplex || b.Tag() == TagComplex {
		// (a+bi)(c+di) = (ac-bd) + (ad+bc)i
		return dispatchComplex(a, b, func(are, aim, bre, bim Number) (Number, Number, error) {
			ac, err := Mul(are, bre)
			if err != nil {
				return nil, nil, err
			}
			bd, err := Mul(aim, bim)
			if err != nil {
				return nil, nil, err
			}
			ad, err := Mul(are, bim)
			if err != nil {
				return nil, nil, err
			}
			bc, err := Mul(aim, bre)
			if err != nil {
				return nil, nil, err
			}
			re, err := Sub(ac, bd)
			if err != nil {
				return nil, nil, err
			}
			im, err := Add(ad, bc)
			return re, im, err
		})
	}
	if isFlonum(a) || isFlonum(b) {
		return Flonum(toFloat(a) * toFloat(b)), nil
	}
	return mulExact(a, b), nil
}

// --- division ---

// reciprocal computes 1/(a+bi) = (a-bi)/(a^2+b^2), per §4.1.
func reciprocal(c Complex) (Complex, error) {
	aa, err := Mul(c.Re, c.Re)
	if err != nil {
		return Complex{}, err
	}
	bb, err := Mul(c.Im, c.Im)
	if err != nil {
		return Complex{}, err
	}
	denom, err := Add(aa, bb)
	if err != nil {
		return Complex{}, err
	}
	if isZeroReal(denom) {
		return Complex{}, newErr("/", ZeroDivisor, "reciprocal of zero complex number")
	}
	negIm, err := Neg(c.Im)
	if err != nil {
		return Complex{}, err
	}
	re, err := Div(c.Re, denom)
	if err != nil {
		return Complex{}, err
	}
	im, err := Div(negIm, denom)
	if err != nil {
		return Complex{}, err
	}
	return Complex{Re: re, Im: im}, nil
}

func Div(a, b Number) (Number, error) {
	if a.Tag() == TagComplex || b.Tag() == TagComplex {
		are, aim := asComplexParts(a)
		bre, bim := asComplexParts(b)
		recip, err := reciprocal(Complex{Re: bre, Im: bim})
		if err != nil {
			return nil, err
		}
		return Mul(Complex{Re: are, Im: aim}, recip)
	}
	if isFlonum(a) || isFlonum(b) {
		fb := toFloat(b)
		if fb == 0 {
			return nil, newErr("/", ZeroDivisor, "division by inexact zero")
		}
		return Flonum(toFloat(a) / fb), nil
	}
	// exact / exact
	bb := toBig(b)
	if bb.Sign() == 0 {
		return nil, newErr("/", ZeroDivisor, "division by exact zero")
	}
	q, r := new(big.Int).QuoRem(toBig(a), bb, new(big.Int))
	if r.Sign() != 0 {
		return nil, newErr("/", UnsupportedExactRational, "exact division did not produce an integer")
	}
	return canonicalizeInt(q), nil
}

// --- quotient / modulo ---

func requireExactInts(op string, a, b Number) error {
	if !isExactInt(a) || !isExactInt(b) {
		return newErr(op, DomainError, "operands must be exact integers")
	}
	return nil
}

// Quotient truncates toward zero, per Racket's quotient. Unlike the
// original's unconditional stub (arith_quotient raises
// "not fully implemented" for every receiver), this is a full
// implementation.
func Quotient(a, b Number) (Number, error) {
	if isFlonum(a) || isFlonum(b) {
		fb := toFloat(b)
		if fb == 0 {
			return nil, newErr("quotient", ZeroDivisor, "")
		}
		return Flonum(math.Trunc(toFloat(a) / fb)), nil
	}
	if err := requireExactInts("quotient", a, b); err != nil {
		return nil, err
	}
	bb := toBig(b)
	if bb.Sign() == 0 {
		return nil, newErr("quotient", ZeroDivisor, "")
	}
	q := new(big.Int).Quo(toBig(a), bb)
	return canonicalizeInt(q), nil
}

// Mod implements Racket's modulo: the result's sign matches the
// divisor's (unlike big.Int.Mod, which is always non-negative, or
// big.Int.Rem, which matches the dividend).
func Mod(a, b Number) (Number, error) {
	if isFlonum(a) || isFlonum(b) {
		fb := toFloat(b)
		if fb == 0 {
			return nil, newErr("modulo", ZeroDivisor, "")
		}
		r := math.Mod(toFloat(a), fb)
		if r != 0 && (r < 0) != (fb < 0) {
			r += fb
		}
		return Flonum(r), nil
	}
	if err := requireExactInts("modulo", a, b); err != nil {
		return nil, err
	}
	bb := toBig(b)
	if bb.Sign() == 0 {
		return nil, newErr("modulo", ZeroDivisor, "")
	}
	r := new(big.Int).Rem(toBig(a), bb)
	if r.Sign() != 0 && (r.Sign() < 0) != (bb.Sign() < 0) {
		r.Add(r, bb)
	}
	return canonicalizeInt(r), nil
}

// --- exponentiation ---

func isExactZeroExponent(b Number) bool {
	return isExactInt(b) && isZeroReal(b)
}

// Pow implements expt. pow(a,0) == 1 for any a (§8 invariant),
// including inexact or complex a per Racket's own (expt 5.0 0) => 1.
func Pow(a, b Number) (Number, error) {
	if isExactZeroExponent(b) {
		return Fixnum(1), nil
	}
	if a.Tag() == TagComplex {
		return powComplexInt(a.(Complex), b)
	}
	if isFlonum(a) || isFlonum(b) {
		return Flonum(math.Pow(toFloat(a), toFloat(b))), nil
	}
	// both exact, non-complex
	if !isExactInt(b) {
		return nil, newErr("expt", DomainError, "exponent must be an integer for exact base")
	}
	be := toBig(b)
	if be.Sign() >= 0 {
		return canonicalizeInt(new(big.Int).Exp(toBig(a), be, nil)), nil
	}
	// negative exponent: only exact for base ±1 (or base 0 is an error)
	ba := toBig(a)
	if ba.Sign() == 0 {
		return nil, newErr("expt", ZeroDivisor, "zero to a negative power")
	}
	if ba.CmpAbs(big.NewInt(1)) == 0 {
		posExp := new(big.Int).Neg(be)
		result := new(big.Int).Exp(ba, posExp, nil)
		return canonicalizeInt(result), nil
	}
	return nil, newErr("expt", UnsupportedExactRational, "negative exponent of exact base would be a rational")
}

func powComplexInt(base Complex, exp Number) (Number, error) {
	if !isExactInt(exp) {
		return nil, newErr("expt", DomainError, "complex base requires an exact integer exponent")
	}
	n := toBig(exp)
	if n.Sign() < 0 {
		return nil, newErr("expt", UnsupportedExactRational, "negative exponent of complex base")
	}
	result := Number(Fixnum(1))
	count := n.Int64()
	var err error
	for i := int64(0); i < count; i++ {
		result, err = Mul(result, base)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// --- bitwise ---

func BitAnd(a, b Number) (Number, error) {
	if err := requireExactInts("bitwise-and", a, b); err != nil {
		return nil, err
	}
	if af, ok := a.(Fixnum); ok {
		if bf, ok := b.(Fixnum); ok {
			return af & bf, nil
		}
	}
	return canonicalizeInt(new(big.Int).And(toBig(a), toBig(b))), nil
}

func BitOr(a, b Number) (Number, error) {
	if err := requireExactInts("bitwise-or", a, b); err != nil {
		return nil, err
	}
	if af, ok := a.(Fixnum); ok {
		if bf, ok := b.(Fixnum); ok {
			return af | bf, nil
		}
	}
	return canonicalizeInt(new(big.Int).Or(toBig(a), toBig(b))), nil
}

func BitXor(a, b Number) (Number, error) {
	if err := requireExactInts("bitwise-xor", a, b); err != nil {
		return nil, err
	}
	if af, ok := a.(Fixnum); ok {
		if bf, ok := b.(Fixnum); ok {
			return af ^ bf, nil
		}
	}
	return canonicalizeInt(new(big.Int).Xor(toBig(a), toBig(b))), nil
}

func BitNot(a Number) (Number, error) {
	if !isExactInt(a) {
		return nil, newErr("bitwise-not", DomainError, "operand must be an exact integer")
	}
	if af, ok := a.(Fixnum); ok {
		return ^af, nil
	}
	return canonicalizeInt(new(big.Int).Not(toBig(a))), nil
}

// --- shifts ---

func shiftAmount(op string, b Number) (uint, error) {
	switch v := b.(type) {
	case Fixnum:
		if v < 0 {
			return 0, newErr(op, DomainError, "negative shift amount")
		}
		return uint(v), nil
	case Bignum:
		if !v.IsInt64() {
			return 0, newErr(op, ShiftAmountTooLarge, "shift amount does not fit a machine int")
		}
		iv := v.Int64()
		if iv < 0 {
			return 0, newErr(op, DomainError, "negative shift amount")
		}
		return uint(iv), nil
	default:
		return 0, newErr(op, DomainError, "shift amount must be an exact integer")
	}
}

// Shl implements arithmetic-shift's left-shift case. A fixnum shifted
// by a fixnum amount masks to machine-int width (wrap-around); if
// either operand is a Bignum the result is exact-width (§4.1).
func Shl(a, b Number) (Number, error) {
	amt, err := shiftAmount("arithmetic-shift", b)
	if err != nil {
		return nil, err
	}
	switch v := a.(type) {
	case Fixnum:
		if _, ok := b.(Fixnum); ok {
			return Fixnum(int(uint64(v) << amt)), nil
		}
		return canonicalizeInt(new(big.Int).Lsh(fixToBig(v), amt)), nil
	case Bignum:
		return canonicalizeInt(new(big.Int).Lsh(v.Int, amt)), nil
	default:
		return nil, newErr("arithmetic-shift", DomainError, "shift of a non-integer")
	}
}

// Shr implements arithmetic-shift's right-shift case (arithmetic
// shift, sign-extending).
func Shr(a, b Number) (Number, error) {
	amt, err := shiftAmount("arithmetic-shift", b)
	if err != nil {
		return nil, err
	}
	switch v := a.(type) {
	case Fixnum:
		return v >> amt, nil
	case Bignum:
		return canonicalizeInt(new(big.Int).Rsh(v.Int, amt)), nil
	default:
		return nil, newErr("arithmetic-shift", DomainError, "shift of a non-integer")
	}
}

// ArithmeticShift is the single `arithmetic-shift` surface operation:
// a positive count shifts left, negative shifts right by the
// magnitude.
func ArithmeticShift(a, count Number) (Number, error) {
	cf, ok := count.(Fixnum)
	if ok && cf < 0 {
		neg, err := Neg(count)
		if err != nil {
			return nil, err
		}
		return Shr(a, neg)
	}
	if cb, ok := count.(Bignum); ok && cb.Sign() < 0 {
		neg, err := Neg(count)
		if err != nil {
			return nil, err
		}
		return Shr(a, neg)
	}
	return Shl(a, count)
}

// --- max / min ---

func compareReal(a, b Number) int {
	if isFlonum(a) || isFlonum(b) {
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return toBig(a).Cmp(toBig(b))
}

func Max(a, b Number) (Number, error) {
	if a.Tag() == TagComplex || b.Tag() == TagComplex {
		return nil, newErr("max", DomainError, "max is undefined on complex numbers")
	}
	var winner Number
	if compareReal(a, b) >= 0 {
		winner = a
	} else {
		winner = b
	}
	if isFlonum(a) || isFlonum(b) {
		return Flonum(toFloat(winner)), nil
	}
	return winner, nil
}

func Min(a, b Number) (Number, error) {
	if a.Tag() == TagComplex || b.Tag() == TagComplex {
		return nil, newErr("min", DomainError, "min is undefined on complex numbers")
	}
	var winner Number
	if compareReal(a, b) <= 0 {
		winner = a
	} else {
		winner = b
	}
	if isFlonum(a) || isFlonum(b) {
		return Flonum(toFloat(winner)), nil
	}
	return winner, nil
}
