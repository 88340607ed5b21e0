package hashtable

import (
	"hash/maphash"
	"reflect"

	"github.com/racketcore/valuecore/pkg/numeric"
	"github.com/racketcore/valuecore/pkg/structs"
	"github.com/racketcore/valuecore/pkg/value"
)

// uintptrOf gives a reference-typed value a stable, cheap-to-hash
// identity for eq?/eqv? tables without importing unsafe.
func uintptrOf(v any) uintptr {
	return reflect.ValueOf(v).Pointer()
}

// seed is process-wide and fixed at startup: two tables in the same
// process must agree on a key's hash, but cross-process stability is
// not required (equal-hash-code has no documented wire format).
var seed = maphash.MakeSeed()

func eqHash(v value.Value) uint64 {
	if ptr, ok := referenceIdentity(v); ok {
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteByte('#')
		writeUint(&h, ptr)
		return h.Sum64()
	}
	return scalarHash(v)
}

func eqvHash(v value.Value) uint64 {
	if ptr, ok := referenceIdentity(v); ok {
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteByte('#')
		writeUint(&h, ptr)
		return h.Sum64()
	}
	return scalarHash(v)
}

// equalHash is equal-hash-code: a full structural digest, grounded on
// pkg/search/fingerprint.go's Fingerprint (snapshot the observable
// state into bytes, hash those bytes) generalized from a fixed-size
// register snapshot to a recursive value walk.
func equalHash(v value.Value) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	writeEqualHash(&h, v)
	return h.Sum64()
}

// referenceIdentity returns a stable per-object integer for the value
// kinds eq?/eqv? treat as reference types (mutable containers, struct
// instances, procedures) — everything else is an immediate compared
// by content (fixnums, characters, booleans, symbols, the empty list).
func referenceIdentity(v value.Value) (uint64, bool) {
	switch x := v.(type) {
	case *value.Cons:
		return uint64(uintptrOf(x)), true
	case *value.Vector:
		return uint64(uintptrOf(x)), true
	case *value.Box:
		return uint64(uintptrOf(x)), true
	case *value.ContinuationMarkKey:
		return uint64(uintptrOf(x)), true
	case *value.Procedure:
		return uint64(uintptrOf(x)), true
	case *structs.Struct:
		return uint64(uintptrOf(x)), true
	}
	return 0, false
}

func scalarHash(v value.Value) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteByte('s')
	if p, ok := v.(value.Printable); ok {
		h.WriteString(p.Print())
	}
	return h.Sum64()
}

func writeUint(h *maphash.Hash, n uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(n >> (8 * i))
	}
	h.Write(buf[:])
}

func writeEqualHash(h *maphash.Hash, v value.Value) {
	base := value.GetBaseObject(v)
	switch x := base.(type) {
	case *value.Cons:
		h.WriteByte('c')
		writeEqualHash(h, x.Car)
		writeEqualHash(h, x.Cdr)
	case *value.Vector:
		h.WriteByte('v')
		for i := 0; i < x.Len(); i++ {
			writeEqualHash(h, x.Ref(i))
		}
	case *value.Box:
		h.WriteByte('b')
		writeEqualHash(h, x.Unbox())
	case *structs.Struct:
		h.WriteByte('t')
		h.WriteString(string(x.Type.Name))
		for _, f := range x.Fields {
			writeEqualHash(h, f)
		}
	case value.Null:
		h.WriteByte('n')
	case numeric.Bignum:
		h.WriteByte('i')
		h.WriteString(x.Int.String())
	case numeric.Complex:
		h.WriteByte('z')
		writeEqualHash(h, x.Re)
		writeEqualHash(h, x.Im)
	default:
		h.WriteByte('p')
		if p, ok := base.(value.Printable); ok {
			h.WriteString(p.Print())
		}
	}
}

// Eq implements eq?, exported so callers outside this package (the
// evaluator, internal/valuetest) get the same identity notion the
// KindEq table uses internally rather than reimplementing it.
func Eq(a, b value.Value) bool { return eqValues(a, b) }

// Eqv implements eqv?.
func Eqv(a, b value.Value) bool { return eqvValues(a, b) }

// Equal implements equal?, the full structural comparison KindEqual
// tables use for bucket confirmation.
func Equal(a, b value.Value) bool { return equalValues(a, b) }

func eqValues(a, b value.Value) bool {
	return identityOrScalarEqual(a, b)
}

// eqvValues differs from eq? only in that it treats numbers and
// characters of the same exactness/value as equivalent even across
// distinct allocations, matching Racket's eqv? (§4.1/§4.5 boundary).
func eqvValues(a, b value.Value) bool {
	if an, ok := a.(numeric.Number); ok {
		bn, ok := b.(numeric.Number)
		return ok && numericEqual(an, bn)
	}
	return identityOrScalarEqual(a, b)
}

func identityOrScalarEqual(a, b value.Value) bool {
	if pa, ok := referenceIdentity(a); ok {
		pb, ok := referenceIdentity(b)
		return ok && pa == pb
	}
	if _, ok := referenceIdentity(b); ok {
		return false
	}
	return a == b
}

func numericEqual(a, b numeric.Number) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	switch x := a.(type) {
	case numeric.Bignum:
		return x.Cmp(b.(numeric.Bignum).Int) == 0
	case numeric.Complex:
		y := b.(numeric.Complex)
		return numericEqual(x.Re, y.Re) && numericEqual(x.Im, y.Im)
	default:
		return a == b
	}
}

// equalValues is equal?: full structural comparison, impersonators
// transparent (§4.4's "equal? sees through wrapper chains" rule).
func equalValues(a, b value.Value) bool {
	a, b = value.GetBaseObject(a), value.GetBaseObject(b)
	switch x := a.(type) {
	case *value.Cons:
		y, ok := b.(*value.Cons)
		return ok && equalValues(x.Car, y.Car) && equalValues(x.Cdr, y.Cdr)
	case *value.Vector:
		y, ok := b.(*value.Vector)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			if !equalValues(x.Ref(i), y.Ref(i)) {
				return false
			}
		}
		return true
	case *value.Box:
		y, ok := b.(*value.Box)
		return ok && equalValues(x.Unbox(), y.Unbox())
	case *structs.Struct:
		y, ok := b.(*structs.Struct)
		if !ok || x.Type != y.Type || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if !equalValues(x.Fields[i], y.Fields[i]) {
				return false
			}
		}
		return true
	case value.Null:
		_, ok := b.(value.Null)
		return ok
	case numeric.Number:
		y, ok := b.(numeric.Number)
		return ok && numericEqual(x, y)
	default:
		return a == b
	}
}
