package numeric

import (
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var cmpOpts = cmp.Options{
	cmp.Comparer(func(a, b Bignum) bool { return a.Cmp(b.Int) == 0 }),
	cmpopts.EquateApprox(0, 1e-9),
}

func mustNumber(t *testing.T) func(Number, error) Number {
	t.Helper()
	return func(n Number, err error) Number {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return n
	}
}

func TestAddFixnumOverflowPromotesToBignum(t *testing.T) {
	n := mustNumber(t)(Add(Fixnum(math.MaxInt), Fixnum(1)))
	bn, ok := n.(Bignum)
	if !ok {
		t.Fatalf("expected Bignum, got %T", n)
	}
	want := new(big.Int).Add(big.NewInt(math.MaxInt), big.NewInt(1))
	if bn.Cmp(want) != 0 {
		t.Errorf("got %v want %v", bn, want)
	}
}

func TestBignumCanonicalizesBackToFixnum(t *testing.T) {
	huge := NewBignum(new(big.Int).SetInt64(1 << 40))
	n := mustNumber(t)(Sub(huge, NewBignum(new(big.Int).SetInt64((1<<40)-1))))
	if _, ok := n.(Fixnum); !ok {
		t.Fatalf("expected canonicalisation to Fixnum, got %T", n)
	}
}

func TestDivExactNonIntegerFails(t *testing.T) {
	_, err := Div(Fixnum(10), Fixnum(3))
	nerr, ok := err.(*Error)
	if !ok || nerr.Kind != UnsupportedExactRational {
		t.Fatalf("expected UnsupportedExactRational, got %v", err)
	}
}

func TestDivExactInteger(t *testing.T) {
	n := mustNumber(t)(Div(Fixnum(10), Fixnum(2)))
	if n != Number(Fixnum(5)) {
		t.Errorf("got %v want Fixnum(5)", n)
	}
}

func TestDivByZero(t *testing.T) {
	_, err := Div(Fixnum(1), Fixnum(0))
	nerr, ok := err.(*Error)
	if !ok || nerr.Kind != ZeroDivisor {
		t.Fatalf("expected ZeroDivisor, got %v", err)
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   Flonum
		want Flonum
	}{
		{2.5, 3},
		{-2.5, -3},
		{0.5, 1},
		{-0.5, -1},
	}
	for _, c := range cases {
		n := mustNumber(t)(Round(c.in))
		if n != Number(c.want) {
			t.Errorf("Round(%v) = %v want %v", c.in, n, c.want)
		}
	}
}

func TestPowZeroExponent(t *testing.T) {
	n := mustNumber(t)(Pow(Fixnum(7), Fixnum(0)))
	if n != Number(Fixnum(1)) {
		t.Errorf("got %v want 1", n)
	}
}

func TestInexactExactRoundTrip(t *testing.T) {
	orig := Fixnum(42)
	inexact := mustNumber(t)(ExactToInexact(orig))
	back := mustNumber(t)(InexactToExact(inexact))
	if back != Number(orig) {
		t.Errorf("round trip got %v want %v", back, orig)
	}
}

func TestComplexMultiplication(t *testing.T) {
	a := Complex{Re: Fixnum(1), Im: Fixnum(2)}
	b := Complex{Re: Fixnum(3), Im: Fixnum(4)}
	got := mustNumber(t)(Mul(a, b))
	want := Complex{Re: Fixnum(1*3 - 2*4), Im: Fixnum(1*4 + 2*3)}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Errorf("complex mul mismatch (-want +got):\n%s", diff)
	}
}

func TestComplexDivisionByZeroDenominator(t *testing.T) {
	_, err := Div(Complex{Re: Fixnum(1), Im: Fixnum(1)}, Complex{Re: Fixnum(0), Im: Fixnum(0)})
	nerr, ok := err.(*Error)
	if !ok || nerr.Kind != ZeroDivisor {
		t.Fatalf("expected ZeroDivisor, got %v", err)
	}
}

func TestShiftAmountTooLargeFromBignum(t *testing.T) {
	hugeShift := NewBignum(new(big.Int).Lsh(big.NewInt(1), 100))
	_, err := Shl(Fixnum(1), hugeShift)
	nerr, ok := err.(*Error)
	if !ok || nerr.Kind != ShiftAmountTooLarge {
		t.Fatalf("expected ShiftAmountTooLarge, got %v", err)
	}
}

func TestLeftShiftFixnumWrapsAtMachineWidth(t *testing.T) {
	n := mustNumber(t)(Shl(Fixnum(1), Fixnum(63)))
	if _, ok := n.(Fixnum); !ok {
		t.Fatalf("expected a masked Fixnum result, got %T", n)
	}
}

func TestLeftShiftWithBignumOperandIsExactWidth(t *testing.T) {
	n := mustNumber(t)(Shl(NewBignum(big.NewInt(1)), Fixnum(100)))
	bn, ok := n.(Bignum)
	if !ok {
		t.Fatalf("expected Bignum, got %T", n)
	}
	want := new(big.Int).Lsh(big.NewInt(1), 100)
	if bn.Cmp(want) != 0 {
		t.Errorf("got %v want %v", bn, want)
	}
}

func TestAddCommutativeAndAssociativeExact(t *testing.T) {
	a, b, c := Fixnum(17), Fixnum(-5), Fixnum(1000003)
	ab := mustNumber(t)(Add(a, b))
	ba := mustNumber(t)(Add(b, a))
	if ab != ba {
		t.Errorf("addition not commutative: %v vs %v", ab, ba)
	}
	abc1 := mustNumber(t)(Add(mustNumber(t)(Add(a, b)), c))
	abc2 := mustNumber(t)(Add(a, mustNumber(t)(Add(b, c))))
	if abc1 != abc2 {
		t.Errorf("addition not associative: %v vs %v", abc1, abc2)
	}
}

func TestAddInverseIsZero(t *testing.T) {
	a := Fixnum(123456)
	neg := mustNumber(t)(Neg(a))
	sum := mustNumber(t)(Add(a, neg))
	if !IsZero(sum) {
		t.Errorf("a + (-a) = %v, want zero", sum)
	}
}

func TestModuloSignFollowsDivisor(t *testing.T) {
	n := mustNumber(t)(Mod(Fixnum(-7), Fixnum(3)))
	if n != Number(Fixnum(2)) {
		t.Errorf("got %v want 2", n)
	}
	n2 := mustNumber(t)(Mod(Fixnum(7), Fixnum(-3)))
	if n2 != Number(Fixnum(-2)) {
		t.Errorf("got %v want -2", n2)
	}
}
