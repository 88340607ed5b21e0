// Package hashtable implements eq/eqv/equal hash tables (§4.5's C5):
// ref/set!/remove!/clear!/count plus a CPS for-each ported from
// original_source/pycket/prims/hash.py's continuation chain, and the
// structural hashing equal-hash-code needs, built the way the teacher
// builds a fingerprint-keyed lookup table
// (pkg/search/fingerprint.go's FingerprintMap) rather than relying on
// Go's map equality, since Value keys are not comparable in general
// (under equal a *value.Cons or *structs.Struct compares structurally,
// not by pointer; eq and eqv compare such references by identity).
package hashtable

import (
	"sort"
	"sync"

	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/value"
)

// Kind selects which of Racket's three key-equivalence notions a
// table uses.
type Kind int

const (
	KindEq Kind = iota
	KindEqv
	KindEqual
)

// entry carries an insertion sequence number alongside the key/value
// pair so items() can recover insertion order from buckets, whose Go
// map iteration order is randomized per call.
type entry struct {
	key value.Value
	val value.Value
	seq uint64
}

// Table is a separate-chaining hash map: Table.hashOf groups keys
// that MIGHT be equivalent under the table's Kind, and bucket
// membership is then resolved with the exact equivalence predicate —
// the same two-phase shape as FingerprintMap (bucket by cheap digest,
// then confirm with the real comparison) adapted from a fixed-width
// byte array key to a uint64 bucket index since Value shapes, unlike
// cpu.State snapshots, vary in size.
type Table struct {
	mu        sync.Mutex
	kind      Kind
	immutable bool
	weak      bool
	buckets   map[uint64][]entry
	count     int
	// nextSeq is the insertion sequence counter items() sorts by, so
	// iteration order matches insertion order (§3) instead of Go's
	// randomized map order. Overwriting an existing key's value keeps
	// its original seq — only a brand new key advances the counter.
	nextSeq uint64
}

func New(kind Kind, immutable bool) *Table {
	return &Table{kind: kind, immutable: immutable, buckets: make(map[uint64][]entry)}
}

// NewWeakEq implements make-weak-hasheq. Non-weak: this core has no GC
// hook to drop entries whose key becomes unreachable, so weak tables
// behave as ordinary eq tables (labeled Non-goal in spec.md §6/§9 — see
// DESIGN.md).
func NewWeakEq() *Table {
	t := New(KindEq, false)
	t.weak = true
	return t
}

func (t *Table) IsValue()       {}
func (t *Table) Immutable() bool { return t.immutable }
func (t *Table) Kind() Kind      { return t.kind }

func (t *Table) equivalent(a, b value.Value) bool {
	switch t.kind {
	case KindEq:
		return eqValues(a, b)
	case KindEqv:
		return eqvValues(a, b)
	default:
		return equalValues(a, b)
	}
}

func (t *Table) hashOf(v value.Value) uint64 {
	switch t.kind {
	case KindEq:
		return eqHash(v)
	case KindEqv:
		return eqvHash(v)
	default:
		return equalHash(v)
	}
}

// Count implements hash-count.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Ref implements hash-ref's lookup half (the default-thunk-or-error
// half lives in ops.go's Ref, which wraps this).
func (t *Table) lookup(key value.Value) (value.Value, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bucket := t.buckets[t.hashOf(key)]
	for _, e := range bucket {
		if t.equivalent(e.key, key) {
			return e.val, true
		}
	}
	return nil, false
}

// set is the unconditional write hash-set!/hash-set use (after the
// immutability + chaperone-interposition checks in ops.go).
func (t *Table) set(key, val value.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.hashOf(key)
	bucket := t.buckets[h]
	for i, e := range bucket {
		if t.equivalent(e.key, key) {
			bucket[i].val = val
			return
		}
	}
	t.buckets[h] = append(bucket, entry{key: key, val: val, seq: t.nextSeq})
	t.nextSeq++
	t.count++
}

func (t *Table) remove(key value.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.hashOf(key)
	bucket := t.buckets[h]
	for i, e := range bucket {
		if t.equivalent(e.key, key) {
			t.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			t.count--
			return
		}
	}
}

func (t *Table) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets = make(map[uint64][]entry)
	t.count = 0
	t.nextSeq = 0
}

// items is a stable snapshot of (key, value) pairs in insertion order
// (§3: "order of iteration is insertion order for mutable tables"),
// the same shape hash.py's hash_for_each takes a snapshot of before
// walking it — mutating the table mid-iteration must not perturb an
// in-flight for-each/map/copy. Go's map iteration order is randomized
// per call, so the flattened buckets are sorted by each entry's
// insertion seq rather than handed back in bucket order.
func (t *Table) items() []entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]entry, 0, t.count)
	for _, bucket := range t.buckets {
		out = append(out, bucket...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (t *Table) requireMutable(op string) error {
	if t.immutable {
		return corerr.New(op, corerr.ImmutableFieldMutation, "hash table is immutable")
	}
	return nil
}
