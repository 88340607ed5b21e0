package structs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/value"
)

func mustType(t *testing.T, r *Registry, name string, super *StructType, initCnt, autoCnt int, immutables []int) *StructTypeResult {
	t.Helper()
	res, err := r.MakeStructType(value.Symbol(name), super, initCnt, autoCnt, value.Bool(false), nil, nil, immutables, nil, value.Symbol(name))
	if err != nil {
		t.Fatalf("MakeStructType(%s) failed: %v", name, err)
	}
	return res
}

func TestConstructorAccessorRoundTrip(t *testing.T) {
	r := NewRegistry()
	point := mustType(t, r, "point", nil, 2, 0, nil)

	s, err := point.Constructor.Construct([]value.Value{numFixnum(3), numFixnum(4)})
	if err != nil {
		t.Fatalf("Construct failed: %v", err)
	}

	xAcc := &FieldAccessor{Type: point.Type, FieldIndex: 0}
	yAcc := &FieldAccessor{Type: point.Type, FieldIndex: 1}

	x, err := xAcc.Read(s)
	if err != nil || x != numFixnum(3) {
		t.Fatalf("x accessor = %v, %v, want 3, nil", x, err)
	}
	y, err := yAcc.Read(s)
	if err != nil || y != numFixnum(4) {
		t.Fatalf("y accessor = %v, %v, want 4, nil", y, err)
	}
}

func TestPredicateRespectsSubtyping(t *testing.T) {
	r := NewRegistry()
	animal := mustType(t, r, "animal", nil, 1, 0, nil)
	dog := mustType(t, r, "dog", animal.Type, 1, 0, nil)

	a, _ := animal.Constructor.Construct([]value.Value{value.Symbol("generic")})
	d, _ := dog.Constructor.Construct([]value.Value{value.Symbol("generic"), value.Symbol("fido")})

	if !animal.Predicate.predicateBool(a) {
		t.Error("animal? on animal instance should be true")
	}
	if !animal.Predicate.predicateBool(d) {
		t.Error("animal? on dog instance should be true (subtype)")
	}
	if dog.Predicate.predicateBool(a) {
		t.Error("dog? on animal instance should be false")
	}
}

func TestImmutableFieldMutationFails(t *testing.T) {
	r := NewRegistry()
	p := mustType(t, r, "posn", nil, 2, 0, []int{0})

	s, _ := p.Constructor.Construct([]value.Value{numFixnum(1), numFixnum(2)})
	mut := &FieldMutator{Type: p.Type, FieldIndex: 0}

	err := mut.Write(s, numFixnum(99))
	if err == nil {
		t.Fatal("expected ImmutableFieldMutation error")
	}
	if ce, ok := err.(*corerr.Error); !ok || ce.Kind != corerr.ImmutableFieldMutation {
		t.Fatalf("got %v, want ImmutableFieldMutation", err)
	}

	mut2 := &FieldMutator{Type: p.Type, FieldIndex: 1}
	if err := mut2.Write(s, numFixnum(7)); err != nil {
		t.Fatalf("mutable field mutation failed: %v", err)
	}
	v, _ := (&FieldAccessor{Type: p.Type, FieldIndex: 1}).Read(s)
	if v != numFixnum(7) {
		t.Fatalf("field 1 = %v, want 7", v)
	}
}

func TestInheritedFieldsLayoutSuperFirst(t *testing.T) {
	r := NewRegistry()
	base := mustType(t, r, "base", nil, 1, 0, nil)
	derived := mustType(t, r, "derived", base.Type, 2, 0, nil)

	s, err := derived.Constructor.Construct([]value.Value{numFixnum(1), numFixnum(2), numFixnum(3)})
	if err != nil {
		t.Fatalf("Construct failed: %v", err)
	}
	if len(s.Fields) != 3 {
		t.Fatalf("len(Fields) = %d, want 3", len(s.Fields))
	}
	if s.Fields[0] != numFixnum(1) {
		t.Errorf("Fields[0] = %v, want the super's field first", s.Fields[0])
	}
}

func TestConstructorWrongArityFails(t *testing.T) {
	r := NewRegistry()
	p := mustType(t, r, "posn", nil, 2, 0, nil)
	if _, err := p.Constructor.Construct([]value.Value{numFixnum(1)}); err == nil {
		t.Fatal("expected arity error")
	}
}

func TestPrefabInterning(t *testing.T) {
	r := NewRegistry()
	a, err := r.MakePrefabStructType(value.Symbol("pt"), nil, 2, 0, value.Bool(false), nil)
	if err != nil {
		t.Fatalf("first MakePrefabStructType failed: %v", err)
	}
	b, err := r.MakePrefabStructType(value.Symbol("pt"), nil, 2, 0, value.Bool(false), nil)
	if err != nil {
		t.Fatalf("second MakePrefabStructType failed: %v", err)
	}
	if a.Type != b.Type {
		t.Error("equivalent prefab struct-type declarations should intern to the same StructType")
	}
}

// TestPrefabInterningDistinguishesAutoVal guards against silently
// coalescing two prefab declarations that agree on every shape
// component except auto_val (require gives a clearer failure message
// than a bare Fatalf for this kind of pointer-identity assertion).
func TestPrefabInterningDistinguishesAutoVal(t *testing.T) {
	r := NewRegistry()
	a, err := r.MakePrefabStructType(value.Symbol("pt"), nil, 1, 1, value.Bool(false), nil)
	require.NoError(t, err)
	b, err := r.MakePrefabStructType(value.Symbol("pt"), nil, 1, 1, value.Bool(true), nil)
	require.NoError(t, err)
	require.NotSame(t, a.Type, b.Type, "prefab types differing only in auto_val must not intern to the same type")
	require.Equal(t, value.Bool(false), a.Type.AutoVal)
	require.Equal(t, value.Bool(true), b.Type.AutoVal)

	c, err := r.MakePrefabStructType(value.Symbol("pt"), nil, 1, 1, value.Bool(false), nil)
	require.NoError(t, err)
	require.Same(t, a.Type, c.Type, "identical prefab declarations (including auto_val) must still intern to one type")
}

func TestMakeStructTypeInvokesPropertyGuard(t *testing.T) {
	r := NewRegistry()
	guardCalls := 0
	desc, _, acc := NewStructTypeProperty(value.Symbol("prop:label"), func(val value.Value, typeName value.Symbol) (value.Value, error) {
		guardCalls++
		return value.Symbol(string(typeName) + ":" + string(val.(value.Symbol))), nil
	})

	res, err := r.MakeStructType(value.Symbol("widget"), nil, 1, 0, value.Bool(false),
		map[*PropertyDescriptor]value.Value{desc: value.Symbol("raw")}, nil, nil, nil, value.Symbol("widget"))
	require.NoError(t, err)
	require.Equal(t, 1, guardCalls)

	got, err := acc.Read(mustInstance(t, res))
	require.NoError(t, err)
	require.Equal(t, value.Symbol("widget:raw"), got)
}

func TestMakeStructTypePropagatesPropertyGuardError(t *testing.T) {
	r := NewRegistry()
	desc, _, _ := NewStructTypeProperty(value.Symbol("prop:checked"), func(value.Value, value.Symbol) (value.Value, error) {
		return nil, corerr.New("prop:checked guard", corerr.ContractViolation, "rejected")
	})
	_, err := r.MakeStructType(value.Symbol("widget"), nil, 1, 0, value.Bool(false),
		map[*PropertyDescriptor]value.Value{desc: value.Symbol("raw")}, nil, nil, nil, value.Symbol("widget"))
	require.Error(t, err)
}

func TestStructTypePropertyInheritsFromSuper(t *testing.T) {
	r := NewRegistry()
	desc, pred, acc := NewStructTypeProperty(value.Symbol("prop:kind"), nil)
	base, err := r.MakeStructType(value.Symbol("base"), nil, 0, 0, value.Bool(false),
		map[*PropertyDescriptor]value.Value{desc: value.Symbol("base-kind")}, nil, nil, nil, value.Symbol("base"))
	require.NoError(t, err)
	derived, err := r.MakeStructType(value.Symbol("derived"), base.Type, 1, 0, value.Bool(false), nil, nil, nil, nil, value.Symbol("derived"))
	require.NoError(t, err)

	inst := mustInstance(t, derived)
	require.True(t, pred.predicateBool(inst))
	val, err := acc.Read(inst)
	require.NoError(t, err)
	require.Equal(t, value.Symbol("base-kind"), val)
}

// predicateBool is also usable on PropertyPredicate, mirroring
// Predicate's own test-only shim above.
func (p *PropertyPredicate) predicateBool(v value.Value) bool {
	res := value.Bool(false)
	if s, ok := value.GetBaseObject(v).(*Struct); ok {
		if _, has := s.Type.PropertyValue(p.Prop); has {
			res = value.Bool(true)
		}
	}
	return bool(res)
}

func mustInstance(t *testing.T, res *StructTypeResult) *Struct {
	t.Helper()
	args := make([]value.Value, res.Type.TotalInitFieldCnt())
	for i := range args {
		args[i] = numFixnum(i)
	}
	s, err := res.Constructor.Construct(args)
	require.NoError(t, err)
	return s
}

func TestInspectorControlsRespectsSiblingBreak(t *testing.T) {
	root := RootInspector()
	child := NewInspector(root)
	sibling := NewSiblingInspector(root)
	grandchild := NewInspector(sibling)

	if !root.Controls(child) {
		t.Error("root should control its direct child")
	}
	if root.Controls(grandchild) {
		t.Error("root should not control through a sibling split")
	}
	if !sibling.Controls(grandchild) {
		t.Error("sibling should control its own child")
	}
}

func TestStructToVectorHidesOpaqueFields(t *testing.T) {
	r := NewRegistry()
	res, err := r.MakeStructType(value.Symbol("secret"), nil, 1, 0, value.Bool(false), nil, nil, nil, nil, value.Symbol("secret"))
	if err != nil {
		t.Fatalf("MakeStructType failed: %v", err)
	}
	res.Type.IsOpaque = true
	s, _ := res.Constructor.Construct([]value.Value{numFixnum(42)})

	outsider := RootInspector()
	vec := ToVector(s, outsider)
	if vec.Ref(1) != value.Symbol("...") {
		t.Errorf("opaque field should read as '..., got %v", vec.Ref(1))
	}
}

// predicateBool is a tiny test-only shim around Predicate.Call so
// these tests don't need a real trampoline Continuation just to read
// a boolean result.
func (p *Predicate) predicateBool(v value.Value) bool {
	res := value.Bool(false)
	if s, ok := value.GetBaseObject(v).(*Struct); ok && s.Type.IsSubtypeOf(p.Type) {
		res = value.Bool(true)
	}
	return bool(res)
}

// numFixnum avoids importing pkg/numeric just for a couple of literal
// field values in these tests; pkg/numeric's own tests cover the
// numeric tower itself.
type numFixnum int

func (numFixnum) IsValue() {}
